package app

import (
	"context"
	"time"

	"mechedu-quiz-service/internal/catalog"
	"mechedu-quiz-service/internal/domain"
	"mechedu-quiz-service/internal/logger"
)

// SessionRepository tracks the live quiz sessions (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
	// Touch records activity on a live session.
	Touch(id string)
	Count() int
}

// QuizService contains the quiz use cases: browsing the catalog and running attempts
// whose results flow into the tracker.
type QuizService struct {
	source      catalog.Source
	sessions    SessionRepository
	tracker     *ProgressTracker
	scheduler   Scheduler
	revealDelay time.Duration
	log         *logger.Logger
}

// ServiceOption customizes a QuizService.
type ServiceOption func(*QuizService)

func WithServiceScheduler(sch Scheduler) ServiceOption {
	return func(s *QuizService) { s.scheduler = sch }
}

func WithServiceRevealDelay(d time.Duration) ServiceOption {
	return func(s *QuizService) { s.revealDelay = d }
}

func WithServiceLogger(l *logger.Logger) ServiceOption {
	return func(s *QuizService) { s.log = l }
}

func NewQuizService(source catalog.Source, sessions SessionRepository, tracker *ProgressTracker, opts ...ServiceOption) *QuizService {
	s := &QuizService{
		source:      source,
		sessions:    sessions,
		tracker:     tracker,
		scheduler:   DefaultScheduler,
		revealDelay: DefaultRevealDelay,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *QuizService) Tracker() *ProgressTracker { return s.tracker }

func (s *QuizService) ListQuizzes(ctx context.Context) ([]domain.QuizDefinition, error) {
	return s.source.QuizList(ctx)
}

// Quiz resolves a quiz by id or title.
func (s *QuizService) Quiz(ctx context.Context, titleOrID string) (domain.QuizDefinition, error) {
	return s.source.QuizMetadata(ctx, titleOrID)
}

// OpenSession resolves the quiz and starts loading level. notify, when set, receives the
// outcome of every completed attempt after it has been recorded.
func (s *QuizService) OpenSession(ctx context.Context, titleOrID string, level domain.Level, notify func(CompletionOutcome)) (*Session, error) {
	quiz, err := s.source.QuizMetadata(ctx, titleOrID)
	if err != nil {
		return nil, err
	}

	session := NewSession(quiz, s.source,
		WithScheduler(s.scheduler),
		WithRevealDelay(s.revealDelay),
		WithSessionLogger(s.log),
		WithCompletion(func(result Result) {
			outcome := s.tracker.RecordCompletion(result)
			if notify != nil {
				notify(outcome)
			}
		}),
	)
	s.sessions.Put(session)
	session.SelectLevel(level)
	return session, nil
}

// CloseSession tears a session down and forgets it.
func (s *QuizService) CloseSession(id string) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(id)
}

// TouchSession marks the session as still in use.
func (s *QuizService) TouchSession(id string) {
	s.sessions.Touch(id)
}

// ActiveSessions reports how many sessions are open.
func (s *QuizService) ActiveSessions() int {
	return s.sessions.Count()
}
