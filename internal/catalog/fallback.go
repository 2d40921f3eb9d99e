package catalog

import (
	"context"
	"errors"

	"mechedu-quiz-service/internal/domain"
	"mechedu-quiz-service/internal/logger"
)

// FallbackSource serves a primary source and fills gaps from a static one.
//
// QuizList merges both lists by id (primary entries win) and serves the fallback list alone
// when the primary fails. Metadata lookups consult the fallback when the primary misses or fails.
// Question fetches only use the primary when it has the quiz; failures become *domain.FetchError.
type FallbackSource struct {
	primary  Source
	fallback Source
	log      *logger.Logger
}

func NewFallbackSource(primary, fallback Source, log *logger.Logger) *FallbackSource {
	if log == nil {
		log = logger.Nop()
	}
	return &FallbackSource{primary: primary, fallback: fallback, log: log}
}

func (s *FallbackSource) QuizList(ctx context.Context) ([]domain.QuizDefinition, error) {
	static, staticErr := s.fallback.QuizList(ctx)
	remote, err := s.primary.QuizList(ctx)
	if err != nil {
		s.log.Warn("quiz list fetch failed, using static list", "error", err)
		if staticErr != nil {
			return nil, &domain.FetchError{Op: "quiz list", Message: "The quiz list is unavailable right now.", Err: err}
		}
		return static, nil
	}
	return MergeByID(remote, static), nil
}

func (s *FallbackSource) QuizMetadata(ctx context.Context, titleOrID string) (domain.QuizDefinition, error) {
	quiz, err := s.primary.QuizMetadata(ctx, titleOrID)
	if err == nil {
		return quiz, nil
	}
	if !errors.Is(err, domain.ErrQuizNotFound) {
		s.log.Warn("quiz metadata fetch failed", "quiz", titleOrID, "error", err)
	}
	if quiz, ferr := s.fallback.QuizMetadata(ctx, titleOrID); ferr == nil {
		return quiz, nil
	}
	if errors.Is(err, domain.ErrQuizNotFound) {
		return domain.QuizDefinition{}, err
	}
	return domain.QuizDefinition{}, &domain.FetchError{Op: "quiz metadata", Message: "Failed to load quiz details. Please try again.", Err: err}
}

func (s *FallbackSource) Questions(ctx context.Context, quizID string, level domain.Level) ([]domain.Question, error) {
	questions, err := s.primary.Questions(ctx, quizID, level)
	if err == nil {
		return questions, nil
	}
	if errors.Is(err, domain.ErrQuizNotFound) {
		if fq, ferr := s.fallback.Questions(ctx, quizID, level); ferr == nil {
			return fq, nil
		}
	}
	s.log.Warn("question fetch failed", "quiz", quizID, "level", level, "error", err)
	return nil, &domain.FetchError{Op: "questions", Message: "Failed to load questions. Please try again.", Err: err}
}
