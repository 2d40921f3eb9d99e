// Package catalog is the fetch boundary for quiz content. Every Source hands out
// normalized domain values; raw store records never leave this layer.
package catalog

import (
	"context"
	"strings"
	"time"

	"mechedu-quiz-service/internal/domain"
)

// SharedFetchTimeout bounds a fetch shared by concurrent cache misses.
const SharedFetchTimeout = 30 * time.Second

// Source fetches quiz content from a backing store.
type Source interface {
	QuizList(ctx context.Context) ([]domain.QuizDefinition, error)
	// QuizMetadata looks a quiz up by id, falling back to a case-insensitive title match.
	QuizMetadata(ctx context.Context, titleOrID string) (domain.QuizDefinition, error)
	Questions(ctx context.Context, quizID string, level domain.Level) ([]domain.Question, error)
}

// FindQuiz resolves titleOrID against a quiz list.
func FindQuiz(quizzes []domain.QuizDefinition, titleOrID string) (domain.QuizDefinition, bool) {
	for _, q := range quizzes {
		if q.ID == titleOrID {
			return q, true
		}
	}
	for _, q := range quizzes {
		if strings.EqualFold(q.Title, titleOrID) {
			return q, true
		}
	}
	return domain.QuizDefinition{}, false
}

// MergeByID appends the entries of fallback whose id is not already in primary.
func MergeByID(primary, fallback []domain.QuizDefinition) []domain.QuizDefinition {
	seen := make(map[string]struct{}, len(primary))
	out := make([]domain.QuizDefinition, 0, len(primary)+len(fallback))
	for _, q := range primary {
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	for _, q := range fallback {
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}

// IDs returns the quiz ids in order.
func IDs(quizzes []domain.QuizDefinition) []string {
	ids := make([]string, 0, len(quizzes))
	for _, q := range quizzes {
		ids = append(ids, q.ID)
	}
	return ids
}
