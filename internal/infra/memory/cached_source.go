package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"mechedu-quiz-service/internal/catalog"
	"mechedu-quiz-service/internal/domain"
)

// CachedSource caches quiz content with TTL to avoid repeated backing store hits.
// Failed loads are never cached, so a retry always reaches the backing source.
type CachedSource struct {
	source catalog.Source
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedEntry
}

type cachedEntry struct {
	value     interface{}
	expiresAt time.Time
}

func NewCachedSource(source catalog.Source, ttl time.Duration) *CachedSource {
	return &CachedSource{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedEntry),
	}
}

func (r *CachedSource) QuizList(ctx context.Context) ([]domain.QuizDefinition, error) {
	v, err := r.load(ctx, "list", func(fctx context.Context) (interface{}, error) {
		return r.source.QuizList(fctx)
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.QuizDefinition(nil), v.([]domain.QuizDefinition)...), nil
}

func (r *CachedSource) QuizMetadata(ctx context.Context, titleOrID string) (domain.QuizDefinition, error) {
	v, err := r.load(ctx, "meta:"+titleOrID, func(fctx context.Context) (interface{}, error) {
		return r.source.QuizMetadata(fctx, titleOrID)
	})
	if err != nil {
		return domain.QuizDefinition{}, err
	}
	return v.(domain.QuizDefinition), nil
}

func (r *CachedSource) Questions(ctx context.Context, quizID string, level domain.Level) ([]domain.Question, error) {
	v, err := r.load(ctx, "questions:"+quizID+":"+string(level), func(fctx context.Context) (interface{}, error) {
		return r.source.Questions(fctx, quizID, level)
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.Question(nil), v.([]domain.Question)...), nil
}

// load returns the cached value for key or runs fetch once for all concurrent callers.
// The shared fetch is detached from any single caller's cancellation; each caller
// still stops waiting when its own ctx is done.
func (r *CachedSource) load(ctx context.Context, key string, fetch func(context.Context) (interface{}, error)) (interface{}, error) {
	if v, ok := r.lookup(key); ok {
		return v, nil
	}

	ch := r.sf.DoChan(key, func() (interface{}, error) {
		// Re-check in case another caller filled it.
		if v, ok := r.lookup(key); ok {
			return v, nil
		}
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), catalog.SharedFetchTimeout)
		defer cancel()

		now := r.clock()
		v, err := fetch(fctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[key] = cachedEntry{value: v, expiresAt: now.Add(r.ttlWithJitterLocked())}
		r.mu.Unlock()
		return v, nil
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *CachedSource) lookup(key string) (interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[key]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return nil, false
	}
	return entry.value, true
}

func (r *CachedSource) ttlWithJitterLocked() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
