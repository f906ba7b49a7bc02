package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunKnowledgeCacheContract runs a suite of tests to verify that a KnowledgeCache
// implementation adheres to the defined interface contract.
func RunKnowledgeCacheContract(t *testing.T, cache KnowledgeCache) {
	ctx := context.Background()
	visaType := "contract-" + time.Now().Format("20060102150405")

	kb := &domain.KnowledgeBase{
		VisaType: domain.VisaType{Name: "E Visa", Description: "Treaty trader"},
		DecisionTree: domain.DecisionTree{
			Root: "start",
			Nodes: map[string]domain.Node{
				"start": {Type: domain.NodeTypeBoolean, Question: "Treaty country?", Yes: "ok", No: "missing"},
				"ok":    {Type: domain.NodeTypeResult, Decision: domain.DecisionApproved, Title: "E-2", NextSteps: []string{"File Form"}},
			},
		},
	}

	t.Run("Put and Get", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, visaType, kb), "Put should not return error")

		got, err := cache.Get(ctx, visaType)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, kb.VisaType, got.VisaType)
		assert.Equal(t, "start", got.DecisionTree.Root)
		require.Contains(t, got.DecisionTree.Nodes, "ok")
		assert.Equal(t, []string{"File Form"}, got.DecisionTree.Nodes["ok"].NextSteps)
	})

	t.Run("Get returns a copy", func(t *testing.T) {
		got, err := cache.Get(ctx, visaType)
		require.NoError(t, err)
		got.DecisionTree.Nodes["start"] = domain.Node{Type: domain.NodeTypeResult}

		again, err := cache.Get(ctx, visaType)
		require.NoError(t, err)
		assert.Equal(t, domain.NodeTypeBoolean, again.DecisionTree.Nodes["start"].Type)
	})

	t.Run("Get Missing", func(t *testing.T) {
		_, err := cache.Get(ctx, "missing-"+visaType)
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	})

	t.Run("List", func(t *testing.T) {
		types, err := cache.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, types, visaType)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, cache.Delete(ctx, visaType))
		_, err := cache.Get(ctx, visaType)
		assert.ErrorIs(t, err, domain.ErrCacheMiss, "Get after Delete should return ErrCacheMiss")
	})
}
