package memory

import (
	"context"

	"mechedu-quiz-service/internal/catalog"
	"mechedu-quiz-service/internal/domain"
)

// Content is a complete quiz catalog held in memory.
type Content struct {
	Quizzes   []domain.QuizDefinition
	Questions map[string][]domain.Question // by quiz id
}

// StaticSource serves a fixed Content. It is the fallback list and the demo catalog.
type StaticSource struct {
	content Content
}

func NewStaticSource(content Content) *StaticSource {
	return &StaticSource{content: content}
}

func (s *StaticSource) QuizList(_ context.Context) ([]domain.QuizDefinition, error) {
	return append([]domain.QuizDefinition(nil), s.content.Quizzes...), nil
}

func (s *StaticSource) QuizMetadata(_ context.Context, titleOrID string) (domain.QuizDefinition, error) {
	if quiz, ok := catalog.FindQuiz(s.content.Quizzes, titleOrID); ok {
		return quiz, nil
	}
	return domain.QuizDefinition{}, domain.ErrQuizNotFound
}

// Questions returns the questions of quizID at level in catalog order. A known quiz without
// questions at that level yields an empty slice, not an error.
func (s *StaticSource) Questions(_ context.Context, quizID string, level domain.Level) ([]domain.Question, error) {
	if _, ok := catalog.FindQuiz(s.content.Quizzes, quizID); !ok {
		return nil, domain.ErrQuizNotFound
	}
	out := []domain.Question{}
	for _, q := range s.content.Questions[quizID] {
		if q.Level == level {
			out = append(out, q)
		}
	}
	return out, nil
}
