package knowledge_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/visaguide/internal/testutils"
	"github.com/aretw0/visaguide/pkg/adapters/redis"
	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/aretw0/visaguide/pkg/knowledge"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type countingSource struct {
	calls atomic.Int32
	delay time.Duration
	fail  map[string]bool
}

func (s *countingSource) Knowledge(ctx context.Context, visaType string) (*domain.KnowledgeBase, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.fail[visaType] {
		return nil, errors.New("boom")
	}
	kb := testutils.EVisaKnowledge()
	kb.VisaType.Name = visaType
	return kb, nil
}

func TestRepository_Memoizes(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{}
	repo := knowledge.New(src)

	first, err := repo.Get(ctx, "E")
	require.NoError(t, err)
	second, err := repo.Get(ctx, "E")
	require.NoError(t, err)

	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, first, second)

	first.DecisionTree.Root = "mutated"
	again, err := repo.Get(ctx, "E")
	require.NoError(t, err)
	assert.Equal(t, "q1", again.DecisionTree.Root)

	cached, err := repo.Cached(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"E"}, cached)
}

func TestRepository_CollapsesConcurrentFetches(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &countingSource{delay: 50 * time.Millisecond}
	repo := knowledge.New(src)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Get(context.Background(), "L")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestRepository_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{fail: map[string]bool{"B": true}}
	repo := knowledge.New(src)

	_, err := repo.Get(ctx, "B")
	require.Error(t, err)

	src.fail["B"] = false
	kb, err := repo.Get(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, "B", kb.VisaType.Name)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestRepository_Forget(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{}
	repo := knowledge.New(src)

	_, err := repo.Get(ctx, "E")
	require.NoError(t, err)
	require.NoError(t, repo.Forget(ctx, "E"))
	_, err = repo.Get(ctx, "E")
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestRepository_Prefetch(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{}
	repo := knowledge.New(src, knowledge.WithConcurrency(2))
	defer goleak.VerifyNone(t)

	require.NoError(t, repo.Prefetch(ctx, "E", "L", "B"))
	cached, err := repo.Cached(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "E", "L"}, cached)

	src.fail = map[string]bool{"X": true}
	assert.Error(t, repo.Prefetch(ctx, "X"))
}

func TestRepository_RedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	src := &countingSource{}
	repo := knowledge.New(src, knowledge.WithCache(redis.NewFromClient(client)))

	_, err = repo.Get(ctx, "E")
	require.NoError(t, err)
	assert.True(t, mr.Exists("visaguide:knowledge:E"))

	// A second repository over the same redis does not hit the source.
	other := knowledge.New(src, knowledge.WithCache(redis.NewFromClient(client)))
	kb, err := other.Get(ctx, "E")
	require.NoError(t, err)
	assert.Equal(t, "E", kb.VisaType.Name)
	assert.Equal(t, int32(1), src.calls.Load())
}
