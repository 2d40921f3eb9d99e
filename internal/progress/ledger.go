package progress

import (
	"encoding/json"
	"sync"

	"mechedu-quiz-service/internal/domain"
)

// StorageKey is the key the ledger is persisted under.
const StorageKey = "quizUserProgress"

// Store is the subset of kvstore.Store the ledger needs.
type Store interface {
	TryGet(key string) (string, bool)
	TrySet(key, value string)
}

// Snapshot is a detached copy of the ledger.
type Snapshot map[string]domain.ProgressEntry

// CompletedCount counts completed quizzes.
func (s Snapshot) CompletedCount() int {
	n := 0
	for _, entry := range s {
		if entry.Completed {
			n++
		}
	}
	return n
}

// Ledger maps quiz ids to completion state and best score.
//
// The default state, used when nothing is stored or the stored JSON is malformed, maps every
// known quiz id to {completed:false}. Known ids missing from a stored ledger are added the same way.
type Ledger struct {
	store Store
	known []string

	mu      sync.RWMutex
	entries map[string]domain.ProgressEntry
}

func NewLedger(store Store, knownQuizIDs []string) *Ledger {
	l := &Ledger{
		store:   store,
		known:   append([]string(nil), knownQuizIDs...),
		entries: make(map[string]domain.ProgressEntry),
	}
	l.seedKnownLocked()
	return l
}

// Load replaces the in-memory state with the persisted ledger.
func (l *Ledger) Load() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = make(map[string]domain.ProgressEntry)
	if raw, ok := l.store.TryGet(StorageKey); ok {
		var decoded map[string]domain.ProgressEntry
		if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
			for id, entry := range decoded {
				entry.BestScore = sanitizeScore(entry.BestScore)
				l.entries[id] = entry
			}
		}
	}
	l.seedKnownLocked()
}

// RecordResult marks quizID completed and raises its best score when score is strictly greater.
// The updated entry is returned.
func (l *Ledger) RecordResult(quizID string, score int) domain.ProgressEntry {
	score = clamp(score)

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.entries[quizID]
	entry.Completed = true
	if entry.BestScore == nil || score > *entry.BestScore {
		best := score
		entry.BestScore = &best
	}
	l.entries[quizID] = entry
	l.persistLocked()
	return copyEntry(entry)
}

// Get returns the entry for quizID.
func (l *Ledger) Get(quizID string) (domain.ProgressEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.entries[quizID]
	if !ok {
		return domain.ProgressEntry{}, false
	}
	return copyEntry(entry), true
}

func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(Snapshot, len(l.entries))
	for id, entry := range l.entries {
		out[id] = copyEntry(entry)
	}
	return out
}

// Known returns the quiz ids the ledger was seeded with.
func (l *Ledger) Known() []string {
	return append([]string(nil), l.known...)
}

func (l *Ledger) CompletedCount() int {
	return l.Snapshot().CompletedCount()
}

func (l *Ledger) seedKnownLocked() {
	for _, id := range l.known {
		if _, ok := l.entries[id]; !ok {
			l.entries[id] = domain.ProgressEntry{}
		}
	}
}

func (l *Ledger) persistLocked() {
	data, err := json.Marshal(l.entries)
	if err != nil {
		return
	}
	l.store.TrySet(StorageKey, string(data))
}

func copyEntry(entry domain.ProgressEntry) domain.ProgressEntry {
	if entry.BestScore != nil {
		best := *entry.BestScore
		entry.BestScore = &best
	}
	return entry
}

func sanitizeScore(score *int) *int {
	if score == nil {
		return nil
	}
	v := clamp(*score)
	return &v
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
