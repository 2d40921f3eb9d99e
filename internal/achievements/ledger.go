package achievements

import (
	"encoding/json"
	"sync"
	"time"

	"mechedu-quiz-service/internal/domain"
	"mechedu-quiz-service/internal/progress"
)

// StorageKey is the key the ledger is persisted under.
const StorageKey = "achievements"

// DateLayout is the unlock date format: ISO calendar date in the server's local timezone.
const DateLayout = "2006-01-02"

// Catalog returns the fixed achievement definitions, all locked.
func Catalog() []domain.Achievement {
	return []domain.Achievement{
		{ID: FirstQuiz, Title: "First Steps", Description: "Complete your first quiz", Icon: "🎯"},
		{ID: AllQuizzes, Title: "Workshop Master", Description: "Complete every quiz", Icon: "🏆"},
		{ID: HighScore, Title: "Sharp Tool", Description: "Score 90% or more on a quiz", Icon: "⚙️"},
		{ID: PerfectScore, Title: "Zero Tolerance", Description: "Score 100% on a quiz", Icon: "💯"},
	}
}

// Ledger holds the unlock state of the catalog.
type Ledger struct {
	store progress.Store
	now   func() time.Time

	mu    sync.RWMutex
	items []domain.Achievement
}

func NewLedger(store progress.Store) *Ledger {
	return NewLedgerWithClock(store, time.Now)
}

// NewLedgerWithClock allows deterministic unlock dates in tests.
func NewLedgerWithClock(store progress.Store, now func() time.Time) *Ledger {
	return &Ledger{store: store, now: now, items: Catalog()}
}

// Load merges the persisted unlock state into the catalog. Catalog text always wins; entries
// that are not in the catalog are ignored. Malformed JSON leaves everything locked.
func (l *Ledger) Load() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = Catalog()
	raw, ok := l.store.TryGet(StorageKey)
	if !ok {
		return
	}
	var stored []domain.Achievement
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return
	}
	byID := make(map[string]domain.Achievement, len(stored))
	for _, a := range stored {
		byID[a.ID] = a
	}
	for i := range l.items {
		if a, ok := byID[l.items[i].ID]; ok && a.Unlocked {
			l.items[i].Unlocked = true
			l.items[i].Date = a.Date
		}
	}
}

// Apply evaluates a completion and unlocks whatever newly qualifies. The newly unlocked
// achievements are returned; the ledger is persisted once when anything changed.
func (l *Ledger) Apply(quizID string, score int, prior progress.Snapshot, known []string) []domain.Achievement {
	qualified := Evaluate(quizID, score, prior, known)

	l.mu.Lock()
	defer l.mu.Unlock()

	date := l.now().Format(DateLayout)
	var unlocked []domain.Achievement
	for _, id := range qualified {
		for i := range l.items {
			if l.items[i].ID != id || l.items[i].Unlocked {
				continue
			}
			l.items[i].Unlocked = true
			l.items[i].Date = date
			unlocked = append(unlocked, l.items[i])
		}
	}
	if len(unlocked) > 0 {
		l.persistLocked()
	}
	return unlocked
}

func (l *Ledger) List() []domain.Achievement {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.Achievement(nil), l.items...)
}

func (l *Ledger) Unlocked(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, a := range l.items {
		if a.ID == id {
			return a.Unlocked
		}
	}
	return false
}

func (l *Ledger) persistLocked() {
	data, err := json.Marshal(l.items)
	if err != nil {
		return
	}
	l.store.TrySet(StorageKey, string(data))
}
