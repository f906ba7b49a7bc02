package visaguide_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/visaguide"
	"github.com/aretw0/visaguide/internal/testutils"
	"github.com/aretw0/visaguide/pkg/adapters/memory"
	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/aretw0/visaguide/pkg/runner"
	"github.com/aretw0/visaguide/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *testutils.Backend {
	t.Helper()
	b := testutils.NewBackend(t)
	b.Knowledge["E"] = testutils.EVisaKnowledge()
	b.QuestionView = true
	b.Questions = testutils.FlatQuestions()
	b.Evaluation = testutils.FlatEvaluation()
	return b
}

func TestGuide_TreeSession(t *testing.T) {
	b := newBackend(t)

	var results []*domain.ResultEvent
	g := visaguide.New(b.URL(), visaguide.WithLifecycleHooks(domain.LifecycleHooks{
		OnResult: func(_ context.Context, e *domain.ResultEvent) {
			results = append(results, e)
		},
	}))

	c := g.NewSession()
	ctx := context.Background()
	require.NoError(t, c.Start(ctx, "E"))
	require.NoError(t, c.Submit(ctx, "q1", domain.Bool(true)))
	require.NoError(t, c.Submit(ctx, "q2", domain.Text("investor")))
	require.NoError(t, c.Submit(ctx, "q3", domain.Number(4)))

	st := c.State()
	assert.Equal(t, domain.PhaseResult, st.Phase)
	assert.Equal(t, 100.0, c.Progress())
	require.Len(t, results, 1)
	assert.Equal(t, domain.DecisionApproved, results[0].Decision)
}

func TestGuide_Run(t *testing.T) {
	b := newBackend(t)
	g := visaguide.New(b.URL())

	var out bytes.Buffer
	err := g.Run(context.Background(), "E", nil,
		runner.WithIO(strings.NewReader("no\nquit\n"), &out),
		runner.WithSignals(false),
	)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "# Not eligible")
}

func TestGuide_KnowledgeIsCached(t *testing.T) {
	b := newBackend(t)
	g := visaguide.New(b.URL())
	ctx := context.Background()

	kb, err := g.Knowledge(ctx, "E")
	require.NoError(t, err)
	assert.Equal(t, "E Visa", kb.VisaType.Name)

	entry, err := g.Tree(ctx, "E")
	require.NoError(t, err)
	assert.Equal(t, "q1", entry.ID)
	assert.Equal(t, 1, b.Calls("/api/visa/knowledge"), "second lookup is served from the cache")
}

func TestGuide_KnowledgeSource(t *testing.T) {
	src := memory.NewSource(map[string]*domain.KnowledgeBase{"E": testutils.EVisaKnowledge()})
	g := visaguide.New("http://127.0.0.1:1", visaguide.WithKnowledgeSource(src))

	entry, err := g.Tree(context.Background(), "E")
	require.NoError(t, err)
	assert.Empty(t, entry.Markers())

	var sb strings.Builder
	require.NoError(t, tree.Text(&sb, entry))
	assert.Contains(t, sb.String(), "  yes -> q2 [multiple_choice] What best describes you?")

	_, err = g.Tree(context.Background(), "Z")
	assert.ErrorContains(t, err, "unknown visa type")
}
