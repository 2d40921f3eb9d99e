package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"mechedu-quiz-service/internal/app"
	"mechedu-quiz-service/internal/domain"
)

func TestPerfectRunCompletesOnce(t *testing.T) {
	sched := &manualScheduler{}
	source := newFakeSource(map[domain.Level][]domain.Question{domain.LevelBasic: fiveQuestions()})

	var results []app.Result
	session := app.NewSession(turningQuiz(), source,
		app.WithScheduler(sched),
		app.WithCompletion(func(r app.Result) { results = append(results, r) }),
	)
	defer session.Close()

	session.SelectLevel(domain.LevelBasic)
	waitPhase(t, session, app.PhaseAnswering)

	answerAll(t, session, sched, []int{0, 1, 2, 3, 0})

	view := session.View()
	if view.Phase != app.PhaseCompleted {
		t.Fatalf("expected completed, got %s", view.Phase)
	}
	if view.Score != 5 || view.Percent == nil || *view.Percent != 100 {
		t.Fatalf("expected 5/5 and 100%%, got %+v", view)
	}
	if len(results) != 1 {
		t.Fatalf("expected one completion callback, got %d", len(results))
	}
	if results[0].Percent != 100 || results[0].Total != 5 || len(results[0].Answers) != 5 {
		t.Fatalf("unexpected result %+v", results[0])
	}

	// nothing left to score
	if session.SelectAnswer(0) || session.ConfirmAnswer() {
		t.Fatalf("expected completed session to reject answers")
	}
	sched.FireAll()
	if len(results) != 1 {
		t.Fatalf("expected completion to fire exactly once, got %d", len(results))
	}
}

func TestPartialRunScore(t *testing.T) {
	sched := &manualScheduler{}
	source := newFakeSource(map[domain.Level][]domain.Question{domain.LevelBasic: fiveQuestions()})

	var result app.Result
	session := app.NewSession(turningQuiz(), source,
		app.WithScheduler(sched),
		app.WithCompletion(func(r app.Result) { result = r }),
	)
	defer session.Close()

	session.SelectLevel(domain.LevelBasic)
	waitPhase(t, session, app.PhaseAnswering)
	answerAll(t, session, sched, []int{0, 1, 2, 0, 1})

	if result.Score != 3 || result.Percent != 60 {
		t.Fatalf("expected 3 correct and 60%%, got %+v", result)
	}
}

func TestConfirmTwiceDoesNotDoubleScore(t *testing.T) {
	sched := &manualScheduler{}
	session := app.NewSession(turningQuiz(), newFakeSource(map[domain.Level][]domain.Question{
		domain.LevelBasic: fiveQuestions(),
	}), app.WithScheduler(sched))
	defer session.Close()

	session.SelectLevel(domain.LevelBasic)
	waitPhase(t, session, app.PhaseAnswering)

	if session.ConfirmAnswer() {
		t.Fatalf("expected confirm without a selection to be rejected")
	}
	if !session.SelectAnswer(0) || !session.ConfirmAnswer() {
		t.Fatalf("expected select+confirm to succeed")
	}
	if session.ConfirmAnswer() {
		t.Fatalf("expected second confirm to be rejected")
	}
	if session.SelectAnswer(1) {
		t.Fatalf("expected answer change during reveal to be rejected")
	}

	view := session.View()
	if view.Score != 1 || len(view.Answers) != 1 || view.Phase != app.PhaseRevealing {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Question.CorrectOption == nil || *view.Question.CorrectOption != 0 {
		t.Fatalf("expected correct option revealed, got %+v", view.Question)
	}

	sched.FireAll()
	view = session.View()
	if view.Index != 1 || view.Phase != app.PhaseAnswering || view.Selected != nil {
		t.Fatalf("expected advance to question 2 with cleared selection, got %+v", view)
	}
	if view.Question.CorrectOption != nil {
		t.Fatalf("answer must be hidden while answering")
	}
}

func TestStaleLevelResponseIsDiscarded(t *testing.T) {
	basic := fiveQuestions()
	advanced := []domain.Question{question("adv-1", 2), question("adv-2", 1)}
	source := newFakeSource(map[domain.Level][]domain.Question{
		domain.LevelBasic:    basic,
		domain.LevelAdvanced: advanced,
	})
	gate := source.gate(domain.LevelBasic)

	session := app.NewSession(turningQuiz(), source, app.WithScheduler(&manualScheduler{}))
	defer session.Close()

	session.SelectLevel(domain.LevelBasic)
	session.SelectLevel(domain.LevelAdvanced)
	waitPhase(t, session, app.PhaseAnswering)

	close(gate)
	source.waitServed(t, domain.LevelBasic)

	view := session.View()
	if view.Level != domain.LevelAdvanced || view.Total != 2 || view.Question.ID != "adv-1" {
		t.Fatalf("expected advanced question set to survive, got %+v", view)
	}
}

func TestEmptyQuestionSet(t *testing.T) {
	session := app.NewSession(turningQuiz(), newFakeSource(nil), app.WithScheduler(&manualScheduler{}))
	defer session.Close()

	session.SelectLevel(domain.LevelIntermediate)
	waitPhase(t, session, app.PhaseEmpty)

	if session.SelectAnswer(0) || session.ConfirmAnswer() || session.Reset() {
		t.Fatalf("expected all transitions to be rejected without questions")
	}
	if view := session.View(); view.Question != nil || view.Total != 0 {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestFetchFailureAndRetry(t *testing.T) {
	source := newFakeSource(map[domain.Level][]domain.Question{domain.LevelBasic: fiveQuestions()})
	source.setErr(&domain.FetchError{Op: "questions", Message: "Failed to load questions. Please try again.", Err: errors.New("timeout")})

	session := app.NewSession(turningQuiz(), source, app.WithScheduler(&manualScheduler{}))
	defer session.Close()

	session.SelectLevel(domain.LevelBasic)
	waitPhase(t, session, app.PhaseError)
	view := session.View()
	if view.Error != "Failed to load questions. Please try again." || view.Total != 0 {
		t.Fatalf("unexpected error view %+v", view)
	}

	source.setErr(nil)
	if !session.Retry() {
		t.Fatalf("expected retry to be accepted")
	}
	waitPhase(t, session, app.PhaseAnswering)
	if session.View().Error != "" {
		t.Fatalf("expected error cleared")
	}
}

func TestResetKeepsQuestionsAndCancelsReveal(t *testing.T) {
	sched := &manualScheduler{}
	source := newFakeSource(map[domain.Level][]domain.Question{domain.LevelBasic: fiveQuestions()})
	completions := 0
	session := app.NewSession(turningQuiz(), source,
		app.WithScheduler(sched),
		app.WithCompletion(func(app.Result) { completions++ }),
	)
	defer session.Close()

	session.SelectLevel(domain.LevelBasic)
	waitPhase(t, session, app.PhaseAnswering)
	session.SelectAnswer(0)
	session.ConfirmAnswer()

	if !session.Reset() {
		t.Fatalf("expected reset to be accepted")
	}
	// a timer that raced past Stop must not touch the new attempt
	sched.FireIgnoringStop()

	view := session.View()
	if view.Index != 0 || view.Score != 0 || len(view.Answers) != 0 || view.Phase != app.PhaseAnswering {
		t.Fatalf("expected fresh attempt, got %+v", view)
	}
	if source.fetches() != 1 {
		t.Fatalf("expected no refetch on reset, got %d fetches", source.fetches())
	}

	answerAll(t, session, sched, []int{0, 1, 2, 3, 0})
	if !session.Reset() {
		t.Fatalf("expected reset after completion")
	}
	answerAll(t, session, sched, []int{1, 1, 1, 1, 1})
	if completions != 2 {
		t.Fatalf("expected one completion per attempt, got %d", completions)
	}
}

func TestCloseCancelsPendingReveal(t *testing.T) {
	sched := &manualScheduler{}
	completions := 0
	session := app.NewSession(turningQuiz(), newFakeSource(map[domain.Level][]domain.Question{
		domain.LevelBasic: {question("only", 1)},
	}), app.WithScheduler(sched), app.WithCompletion(func(app.Result) { completions++ }))

	session.SelectLevel(domain.LevelBasic)
	waitPhase(t, session, app.PhaseAnswering)
	updates, _ := session.Subscribe()
	session.SelectAnswer(1)
	session.ConfirmAnswer()
	session.Close()

	sched.FireIgnoringStop()
	if completions != 0 {
		t.Fatalf("expected no completion after close")
	}
	if session.View().Phase != app.PhaseRevealing {
		t.Fatalf("expected closed session to stay frozen")
	}
	for range updates {
		// drained until Close closed the channel
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	sched := &manualScheduler{}
	session := app.NewSession(turningQuiz(), newFakeSource(map[domain.Level][]domain.Question{
		domain.LevelBasic: fiveQuestions(),
	}), app.WithScheduler(sched))
	defer session.Close()

	updates, cancel := session.Subscribe()
	defer cancel()
	<-updates // initial snapshot

	session.SelectLevel(domain.LevelBasic)
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v := <-updates:
			if v.Phase == app.PhaseAnswering {
				if v.Total != 5 {
					t.Fatalf("expected 5 questions, got %d", v.Total)
				}
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for answering update")
		}
	}
}

func TestFinalScorePercent(t *testing.T) {
	cases := []struct{ score, total, want int }{
		{5, 5, 100}, {3, 5, 60}, {2, 3, 67}, {1, 3, 33}, {0, 4, 0}, {0, 0, 0},
	}
	for _, c := range cases {
		if got := app.FinalScorePercent(c.score, c.total); got != c.want {
			t.Fatalf("FinalScorePercent(%d,%d) = %d, want %d", c.score, c.total, got, c.want)
		}
	}
}

// helpers

func turningQuiz() domain.QuizDefinition {
	return domain.QuizDefinition{ID: "turning", Title: "Turning Fundamentals", Process: "machining", Available: true}
}

func question(id string, correct int) domain.Question {
	return domain.Question{
		ID:            id,
		Prompt:        "Prompt " + id,
		Options:       []string{"a", "b", "c", "d"},
		CorrectOption: correct,
		Explanation:   "because",
		Level:         domain.LevelBasic,
	}
}

// fiveQuestions has correct options 0,1,2,3,0.
func fiveQuestions() []domain.Question {
	qs := make([]domain.Question, 0, 5)
	for i := 0; i < 5; i++ {
		qs = append(qs, question(fmt.Sprintf("q%d", i+1), i%4))
	}
	return qs
}

func answerAll(t *testing.T, s *app.Session, sched *manualScheduler, picks []int) {
	t.Helper()
	for i, pick := range picks {
		if !s.SelectAnswer(pick) {
			t.Fatalf("select %d rejected at question %d", pick, i)
		}
		if !s.ConfirmAnswer() {
			t.Fatalf("confirm rejected at question %d", i)
		}
		sched.FireAll()
	}
}

func waitPhase(t *testing.T, s *app.Session, want app.Phase) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.View().Phase == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for phase %s, last %s", want, s.View().Phase)
}

type fakeSource struct {
	mu        sync.Mutex
	questions map[domain.Level][]domain.Question
	gates     map[domain.Level]chan struct{}
	served    map[domain.Level]chan struct{}
	err       error
	calls     int
}

func newFakeSource(questions map[domain.Level][]domain.Question) *fakeSource {
	return &fakeSource{
		questions: questions,
		gates:     make(map[domain.Level]chan struct{}),
		served:    make(map[domain.Level]chan struct{}),
	}
}

// gate blocks fetches of level until the returned channel is closed.
func (f *fakeSource) gate(level domain.Level) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := make(chan struct{})
	f.gates[level] = g
	f.served[level] = make(chan struct{})
	return g
}

func (f *fakeSource) waitServed(t *testing.T, level domain.Level) {
	t.Helper()
	f.mu.Lock()
	served := f.served[level]
	f.mu.Unlock()
	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatalf("fetch for %s never returned", level)
	}
	// give the session a moment to process the stale response
	time.Sleep(20 * time.Millisecond)
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSource) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSource) Questions(_ context.Context, _ string, level domain.Level) ([]domain.Question, error) {
	f.mu.Lock()
	f.calls++
	gate, served, err := f.gates[level], f.served[level], f.err
	qs := f.questions[level]
	f.mu.Unlock()

	if gate != nil {
		<-gate
		defer close(served)
	}
	if err != nil {
		return nil, err
	}
	return qs, nil
}

type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	s       *manualScheduler
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTask) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

func (m *manualScheduler) AfterFunc(_ time.Duration, f func()) app.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	task := &manualTask{s: m, f: f}
	m.tasks = append(m.tasks, task)
	return task
}

// FireAll runs every pending task that has not been stopped.
func (m *manualScheduler) FireAll() { m.fire(false) }

// FireIgnoringStop also runs stopped tasks, simulating a timer that fired concurrently with Stop.
func (m *manualScheduler) FireIgnoringStop() { m.fire(true) }

func (m *manualScheduler) fire(ignoreStop bool) {
	m.mu.Lock()
	var due []func()
	for _, task := range m.tasks {
		if task.fired || (task.stopped && !ignoreStop) {
			continue
		}
		task.fired = true
		due = append(due, task.f)
	}
	m.mu.Unlock()
	for _, f := range due {
		f()
	}
}
