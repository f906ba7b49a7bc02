package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/visaguide/pkg/adapters/memory"
	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/aretw0/visaguide/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_Contract(t *testing.T) {
	cache := memory.NewCache()
	ports.RunKnowledgeCacheContract(t, cache)
}

func TestMemoryCache_PutCopies(t *testing.T) {
	ctx := context.Background()
	cache := memory.NewCache()
	kb := &domain.KnowledgeBase{DecisionTree: domain.DecisionTree{
		Root:  "a",
		Nodes: map[string]domain.Node{"a": {Type: domain.NodeTypeResult, NextSteps: []string{"x"}}},
	}}
	require.NoError(t, cache.Put(ctx, "E", kb))

	kb.DecisionTree.Nodes["a"].NextSteps[0] = "mutated"

	got, err := cache.Get(ctx, "E")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got.DecisionTree.Nodes["a"].NextSteps)
}

func TestSource_NewFromNodes(t *testing.T) {
	src, err := memory.NewFromNodes("E",
		domain.Node{ID: "start", Type: domain.NodeTypeBoolean, Yes: "ok"},
		domain.Node{ID: "ok", Type: domain.NodeTypeResult},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"E"}, src.VisaTypes())

	kb, err := src.Knowledge(context.Background(), "E")
	require.NoError(t, err)
	assert.Equal(t, "start", kb.DecisionTree.Root)
	assert.Len(t, kb.DecisionTree.Nodes, 2)

	_, err = src.Knowledge(context.Background(), "L")
	assert.Error(t, err)
}

func TestSource_RejectsNodeWithoutID(t *testing.T) {
	_, err := memory.NewFromNodes("E", domain.Node{Type: domain.NodeTypeResult})
	assert.Error(t, err)
}
