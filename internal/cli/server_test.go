package cli

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mechedu-quiz-service/internal/app"
	"mechedu-quiz-service/internal/config"
	"mechedu-quiz-service/internal/logger"
	"mechedu-quiz-service/internal/progress"
)

func TestBuildServiceInMemory(t *testing.T) {
	var cfg config.Config
	service, err := buildService(context.Background(), cfg, nil, nil, logger.Nop())
	require.NoError(t, err)

	quizzes, err := service.ListQuizzes(context.Background())
	require.NoError(t, err)
	assert.Len(t, quizzes, 5)
	assert.Len(t, service.Tracker().Progress(), 5)
}

func TestBuildServiceWithRedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	var cfg config.Config
	cfg.Redis.Addr = mr.Addr()
	cfg.Storage.Backend = "redis"
	cfg.Storage.Namespace = "learner"
	cfg.Quiz.KnownQuizIDs = []string{"turning", "milling"}

	service, err := buildService(context.Background(), cfg, client, nil, logger.Nop())
	require.NoError(t, err)
	assert.Len(t, service.Tracker().Progress(), 2)

	service.Tracker().RecordCompletion(app.Result{QuizID: "turning", Percent: 80})
	raw, err := mr.Get("learner:" + progress.StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"turning":{"completed":true,"bestScore":80},"milling":{"completed":false}}`, raw)
	assert.True(t, mr.Exists("learner:activityLog"))
	assert.True(t, mr.Exists("learner:achievements"))
}
