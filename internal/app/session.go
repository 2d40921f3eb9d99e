package app

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"mechedu-quiz-service/internal/domain"
	"mechedu-quiz-service/internal/logger"
)

// DefaultRevealDelay is how long the correct answer and explanation stay visible.
const DefaultRevealDelay = 2 * time.Second

// Phase is the state of a quiz attempt.
type Phase string

const (
	PhaseLoading   Phase = "loading"
	PhaseAnswering Phase = "answering"
	PhaseRevealing Phase = "revealing"
	PhaseCompleted Phase = "completed"
	// PhaseEmpty is terminal for the level: the fetched question set was empty.
	PhaseEmpty Phase = "empty"
	// PhaseError carries a learner-facing message; Retry reloads from scratch.
	PhaseError Phase = "error"
)

// QuestionSource fetches the question set of a quiz for one level.
type QuestionSource interface {
	Questions(ctx context.Context, quizID string, level domain.Level) ([]domain.Question, error)
}

// Result is reported once per completed attempt.
type Result struct {
	SessionID string       `json:"sessionId"`
	QuizID    string       `json:"quizId"`
	Level     domain.Level `json:"level"`
	Score     int          `json:"score"`
	Total     int          `json:"total"`
	Percent   int          `json:"percent"`
	Answers   []int        `json:"answers"`
}

// QuestionView is the learner-visible part of a question. The answer is only filled in
// while revealing or once completed.
type QuestionView struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectOption *int     `json:"correctOption,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

// View is a snapshot of a session.
type View struct {
	SessionID string                `json:"sessionId"`
	Quiz      domain.QuizDefinition `json:"quiz"`
	Level     domain.Level          `json:"level"`
	Phase     Phase                 `json:"phase"`
	Index     int                   `json:"index"`
	Total     int                   `json:"total"`
	Question  *QuestionView         `json:"question,omitempty"`
	Selected  *int                  `json:"selected,omitempty"`
	Score     int                   `json:"score"`
	Answers   []int                 `json:"answers"`
	Percent   *int                  `json:"percent,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

func WithScheduler(sch Scheduler) SessionOption {
	return func(s *Session) { s.scheduler = sch }
}

func WithRevealDelay(d time.Duration) SessionOption {
	return func(s *Session) { s.revealDelay = d }
}

// WithCompletion sets the callback invoked exactly once per completed attempt.
func WithCompletion(fn func(Result)) SessionOption {
	return func(s *Session) { s.onComplete = fn }
}

func WithSessionLogger(l *logger.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

func WithSessionID(id string) SessionOption {
	return func(s *Session) { s.id = id }
}

// Session drives a single quiz attempt:
//
//	loading -> answering <-> revealing -> completed
//
// with empty and error as terminal states for a level. Invalid transitions are
// ignored and reported as false.
type Session struct {
	id          string
	quiz        domain.QuizDefinition
	source      QuestionSource
	scheduler   Scheduler
	revealDelay time.Duration
	onComplete  func(Result)
	log         *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	level       domain.Level
	phase       Phase
	questions   []domain.Question
	current     int
	selected    int
	hasSelected bool
	score       int
	answers     []int
	errMsg      string
	closed      bool
	// fetchGen invalidates in-flight fetches, attempt invalidates pending reveal timers.
	fetchGen    uint64
	attempt     uint64
	cancelFetch context.CancelFunc
	timer       Timer
	subscribers map[chan View]struct{}
}

// NewSession creates a session for quiz. It stays in loading until SelectLevel is called.
func NewSession(quiz domain.QuizDefinition, source QuestionSource, opts ...SessionOption) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:          uuid.NewString(),
		quiz:        quiz,
		source:      source,
		scheduler:   DefaultScheduler,
		revealDelay: DefaultRevealDelay,
		onComplete:  func(Result) {},
		log:         logger.Nop(),
		ctx:         ctx,
		cancel:      cancel,
		phase:       PhaseLoading,
		subscribers: make(map[chan View]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("session", s.id, "quiz", quiz.ID)
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Quiz() domain.QuizDefinition { return s.quiz }

// SelectLevel discards any attempt in progress and loads the question set of level.
// A response to an earlier SelectLevel that arrives later is dropped.
func (s *Session) SelectLevel(level domain.Level) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()
	if s.cancelFetch != nil {
		s.cancelFetch()
	}
	s.fetchGen++
	s.attempt++
	gen := s.fetchGen
	s.level = level
	s.phase = PhaseLoading
	s.questions = nil
	s.errMsg = ""
	s.clearAttemptLocked()
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelFetch = cancel
	s.broadcastLocked()
	s.mu.Unlock()

	go s.fetch(ctx, gen, level)
}

// Retry reloads the current level after a failed or empty fetch.
func (s *Session) Retry() bool {
	s.mu.Lock()
	level := s.level
	ok := !s.closed && (s.phase == PhaseError || s.phase == PhaseEmpty)
	s.mu.Unlock()
	if ok {
		s.SelectLevel(level)
	}
	return ok
}

func (s *Session) fetch(ctx context.Context, gen uint64, level domain.Level) {
	questions, err := s.source.Questions(ctx, s.quiz.ID, level)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.fetchGen {
		s.log.Debug("dropping stale question set", "level", level)
		return
	}
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
	if err != nil {
		s.log.Warn("question fetch failed", "level", level, "error", err)
		s.phase = PhaseError
		s.errMsg = domain.UserMessage(err)
		s.broadcastLocked()
		return
	}

	usable := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if q.Valid() {
			usable = append(usable, q)
		}
	}
	if len(usable) == 0 {
		s.phase = PhaseEmpty
		s.broadcastLocked()
		return
	}
	s.questions = usable
	s.phase = PhaseAnswering
	s.broadcastLocked()
}

// SelectAnswer marks option index as the pending answer. It does not score it.
func (s *Session) SelectAnswer(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.phase != PhaseAnswering {
		return false
	}
	if index < 0 || index >= len(s.questions[s.current].Options) {
		return false
	}
	s.selected = index
	s.hasSelected = true
	s.broadcastLocked()
	return true
}

// ConfirmAnswer scores the pending answer and reveals the correct one. After the reveal
// delay the session moves to the next question, or completes after the last one.
func (s *Session) ConfirmAnswer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.phase != PhaseAnswering || !s.hasSelected || len(s.answers) != s.current {
		return false
	}
	s.answers = append(s.answers, s.selected)
	if s.selected == s.questions[s.current].CorrectOption {
		s.score++
	}
	s.phase = PhaseRevealing

	attempt, index := s.attempt, s.current
	s.timer = s.scheduler.AfterFunc(s.revealDelay, func() { s.advance(attempt, index) })
	s.broadcastLocked()
	return true
}

func (s *Session) advance(attempt uint64, index int) {
	s.mu.Lock()
	if s.closed || attempt != s.attempt || s.phase != PhaseRevealing || index != s.current {
		s.mu.Unlock()
		return
	}
	s.timer = nil

	if s.current == len(s.questions)-1 {
		s.phase = PhaseCompleted
		result := s.resultLocked()
		s.broadcastLocked()
		onComplete := s.onComplete
		s.mu.Unlock()

		s.log.Info("quiz completed", "level", result.Level, "score", result.Score, "total", result.Total, "percent", result.Percent)
		onComplete(result)
		return
	}

	s.current++
	s.hasSelected = false
	s.phase = PhaseAnswering
	s.broadcastLocked()
	s.mu.Unlock()
}

// Reset restarts the attempt on the already fetched question set.
func (s *Session) Reset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return false
	case s.phase != PhaseAnswering && s.phase != PhaseRevealing && s.phase != PhaseCompleted:
		return false
	}
	s.stopTimerLocked()
	s.attempt++
	s.clearAttemptLocked()
	s.phase = PhaseAnswering
	s.broadcastLocked()
	return true
}

// Close tears the session down: pending timers and fetches are cancelled and
// subscriber channels are closed. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopTimerLocked()
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
	s.cancel()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving a view after every state change, starting with
// the current one. Slow readers only ever see the latest views.
func (s *Session) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// FinalScorePercent rounds 100*score/total to the nearest integer.
func FinalScorePercent(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(total)))
}

func (s *Session) clearAttemptLocked() {
	s.current = 0
	s.selected = 0
	s.hasSelected = false
	s.score = 0
	s.answers = nil
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) resultLocked() Result {
	return Result{
		SessionID: s.id,
		QuizID:    s.quiz.ID,
		Level:     s.level,
		Score:     s.score,
		Total:     len(s.questions),
		Percent:   FinalScorePercent(s.score, len(s.questions)),
		Answers:   append([]int(nil), s.answers...),
	}
}

func (s *Session) broadcastLocked() {
	view := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
}

func (s *Session) snapshotLocked() View {
	view := View{
		SessionID: s.id,
		Quiz:      s.quiz,
		Level:     s.level,
		Phase:     s.phase,
		Index:     s.current,
		Total:     len(s.questions),
		Score:     s.score,
		Answers:   append([]int{}, s.answers...),
		Error:     s.errMsg,
	}
	if s.hasSelected {
		selected := s.selected
		view.Selected = &selected
	}
	if s.phase == PhaseCompleted {
		percent := FinalScorePercent(s.score, len(s.questions))
		view.Percent = &percent
	}
	if len(s.questions) > 0 && s.current < len(s.questions) {
		q := s.questions[s.current]
		qv := &QuestionView{
			ID:      q.ID,
			Prompt:  q.Prompt,
			Options: append([]string(nil), q.Options...),
		}
		if s.phase == PhaseRevealing || s.phase == PhaseCompleted {
			correct := q.CorrectOption
			qv.CorrectOption = &correct
			qv.Explanation = q.Explanation
		}
		view.Question = qv
	}
	return view
}
