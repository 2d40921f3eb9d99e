package activity

import (
	"encoding/json"
	"sync"
	"time"

	"mechedu-quiz-service/internal/domain"
	"mechedu-quiz-service/internal/progress"
)

// StorageKey is the key the log is persisted under.
const StorageKey = "activityLog"

// DateLayout is the key format of the log.
const DateLayout = "2006-01-02"

// Log counts quiz completions per local calendar day. Counts only ever grow.
type Log struct {
	store progress.Store
	now   func() time.Time

	mu     sync.RWMutex
	counts domain.ActivityLog
}

func NewLog(store progress.Store) *Log {
	return NewLogWithClock(store, time.Now)
}

func NewLogWithClock(store progress.Store, now func() time.Time) *Log {
	return &Log{store: store, now: now, counts: make(domain.ActivityLog)}
}

// Load reads the persisted log. Malformed JSON is treated as empty; non-positive counts are dropped.
func (l *Log) Load() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.counts = make(domain.ActivityLog)
	raw, ok := l.store.TryGet(StorageKey)
	if !ok {
		return
	}
	var decoded map[string]int
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return
	}
	for date, n := range decoded {
		if _, err := time.Parse(DateLayout, date); err != nil || n <= 0 {
			continue
		}
		l.counts[date] = n
	}
}

// LogToday increments today's counter and returns the new value.
func (l *Log) LogToday() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.now().Format(DateLayout)
	l.counts[today]++
	if data, err := json.Marshal(l.counts); err == nil {
		l.store.TrySet(StorageKey, string(data))
	}
	return l.counts[today]
}

func (l *Log) Count(date string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.counts[date]
}

func (l *Log) Snapshot() domain.ActivityLog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(domain.ActivityLog, len(l.counts))
	for k, v := range l.counts {
		out[k] = v
	}
	return out
}

// Streak returns the number of consecutive active days ending today, or ending yesterday
// when there is no activity yet today.
func (l *Log) Streak() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	day := l.now()
	if l.counts[day.Format(DateLayout)] == 0 {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for l.counts[day.Format(DateLayout)] > 0 {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
