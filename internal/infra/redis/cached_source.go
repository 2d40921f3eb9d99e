package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"mechedu-quiz-service/internal/catalog"
	"mechedu-quiz-service/internal/domain"
)

// CachedSource caches quiz content in Redis as JSON and falls back to a source on cache miss.
// Keys:
//
//	quiz:list                          quiz definitions
//	quiz:meta:{titleOrID}              one quiz definition
//	quiz:{quizID}:questions:{level}    normalized question set
//
// Redis errors are treated as cache misses.
type CachedSource struct {
	client *redis.Client
	source catalog.Source
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCachedSource(client *redis.Client, source catalog.Source, ttl time.Duration) *CachedSource {
	return &CachedSource{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CachedSource) QuizList(ctx context.Context) ([]domain.QuizDefinition, error) {
	var out []domain.QuizDefinition
	err := r.load(ctx, "quiz:list", &out, func(fctx context.Context) (interface{}, error) {
		return r.source.QuizList(fctx)
	})
	return out, err
}

func (r *CachedSource) QuizMetadata(ctx context.Context, titleOrID string) (domain.QuizDefinition, error) {
	var out domain.QuizDefinition
	err := r.load(ctx, "quiz:meta:"+titleOrID, &out, func(fctx context.Context) (interface{}, error) {
		return r.source.QuizMetadata(fctx, titleOrID)
	})
	return out, err
}

func (r *CachedSource) Questions(ctx context.Context, quizID string, level domain.Level) ([]domain.Question, error) {
	out := []domain.Question{}
	err := r.load(ctx, questionsKey(quizID, level), &out, func(fctx context.Context) (interface{}, error) {
		return r.source.Questions(fctx, quizID, level)
	})
	return out, err
}

// load decodes the cached JSON at key into dst, or fetches, caches and decodes it.
// Concurrent misses share one fetch that outlives any single caller's cancellation.
func (r *CachedSource) load(ctx context.Context, key string, dst interface{}, fetch func(context.Context) (interface{}, error)) error {
	if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
		if json.Unmarshal(raw, dst) == nil {
			return nil
		}
	}

	ch := r.sf.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), catalog.SharedFetchTimeout)
		defer cancel()

		// Re-check cache in case another goroutine filled it.
		if raw, err := r.client.Get(fctx, key).Bytes(); err == nil {
			return raw, nil
		}

		v, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		_ = r.client.Set(fctx, key, raw, r.ttlWithJitter()).Err()
		return raw, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return ctx.Err()
	}
	if res.Err != nil {
		return res.Err
	}
	return json.Unmarshal(res.Val.([]byte), dst)
}

func questionsKey(quizID string, level domain.Level) string {
	return "quiz:" + quizID + ":questions:" + string(level)
}

func (r *CachedSource) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
