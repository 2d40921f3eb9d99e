package app

import (
	"sync"

	"mechedu-quiz-service/internal/achievements"
	"mechedu-quiz-service/internal/activity"
	"mechedu-quiz-service/internal/domain"
	"mechedu-quiz-service/internal/logger"
	"mechedu-quiz-service/internal/progress"
)

// CompletionOutcome is what a finished attempt changed in the learner's ledgers.
type CompletionOutcome struct {
	Result        Result               `json:"result"`
	Progress      domain.ProgressEntry `json:"progress"`
	Unlocked      []domain.Achievement `json:"unlocked"`
	ActivityToday int                  `json:"activityToday"`
	Streak        int                  `json:"streak"`
}

// ProgressTracker merges completed attempts into the progress ledger, the achievement
// ledger and the activity log. It is the only writer of the three.
type ProgressTracker struct {
	progress     *progress.Ledger
	achievements *achievements.Ledger
	activity     *activity.Log
	log          *logger.Logger

	mu sync.Mutex
}

func NewProgressTracker(p *progress.Ledger, a *achievements.Ledger, act *activity.Log, log *logger.Logger) *ProgressTracker {
	if log == nil {
		log = logger.Nop()
	}
	return &ProgressTracker{progress: p, achievements: a, activity: act, log: log}
}

// Load reads all three ledgers from storage.
func (t *ProgressTracker) Load() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress.Load()
	t.achievements.Load()
	t.activity.Load()
}

// RecordCompletion applies a result. Achievements are evaluated against the progress
// snapshot taken before the result is recorded.
func (t *ProgressTracker) RecordCompletion(result Result) CompletionOutcome {
	t.mu.Lock()
	defer t.mu.Unlock()

	prior := t.progress.Snapshot()
	entry := t.progress.RecordResult(result.QuizID, result.Percent)
	unlocked := t.achievements.Apply(result.QuizID, result.Percent, prior, t.progress.Known())
	today := t.activity.LogToday()

	for _, a := range unlocked {
		t.log.Info("achievement unlocked", "achievement", a.ID, "quiz", result.QuizID)
	}
	return CompletionOutcome{
		Result:        result,
		Progress:      entry,
		Unlocked:      unlocked,
		ActivityToday: today,
		Streak:        t.activity.Streak(),
	}
}

func (t *ProgressTracker) Progress() progress.Snapshot {
	return t.progress.Snapshot()
}

func (t *ProgressTracker) Achievements() []domain.Achievement {
	return t.achievements.List()
}

func (t *ProgressTracker) Activity() domain.ActivityLog {
	return t.activity.Snapshot()
}

func (t *ProgressTracker) Streak() int {
	return t.activity.Streak()
}
