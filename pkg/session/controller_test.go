package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/aretw0/visaguide/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestController_TreeEndToEnd(t *testing.T) {
	ctx := context.Background()
	backend := newFakeTree()
	c := session.New(session.WithTreeBackend(backend))

	assert.Equal(t, domain.PhaseWelcome, c.State().Phase)
	require.NoError(t, c.Start(ctx, "E"))

	st := c.State()
	assert.Equal(t, domain.PhaseInProgress, st.Phase)
	assert.Equal(t, "q1", st.CurrentNodeID)
	assert.Equal(t, 0.0, c.Progress())

	require.NoError(t, c.Submit(ctx, "q1", domain.Bool(true)))
	require.NoError(t, c.Submit(ctx, "q2", domain.Text("student")))
	require.NoError(t, c.Submit(ctx, "q3", domain.Number(5)))

	st = c.State()
	assert.Equal(t, domain.PhaseResult, st.Phase)
	assert.Equal(t, []string{"q1", "q2", "q3"}, st.Answers.IDs())
	assert.Equal(t, []string{"q1", "q2", "q3", "approved"}, st.Path)
	require.NotNil(t, st.Result)
	assert.True(t, st.Result.Approved())
	assert.Equal(t, "E-2 Visa", st.Result.Title)
	assert.Equal(t, []string{"File Form", "Pay fee"}, st.Result.NextSteps)
	assert.Empty(t, st.Result.Alternatives)
	assert.Equal(t, 100.0, c.Progress())

	assert.ErrorIs(t, c.Submit(ctx, "approved", domain.Bool(true)), domain.ErrFinished)
}

func TestController_TreeStartOnResult(t *testing.T) {
	backend := newFakeTree()
	backend.kb.DecisionTree.Root = "rejected"
	backend.current = "rejected"

	c := session.New(session.WithTreeBackend(backend))
	require.NoError(t, c.Start(context.Background(), "E"))

	st := c.State()
	assert.Equal(t, domain.PhaseResult, st.Phase)
	require.NotNil(t, st.Result)
	assert.False(t, st.Result.Approved())
	assert.Equal(t, []string{"B-1 Visa", "L-1 Visa"}, st.Result.Alternatives)
}

func TestController_StartFailureKeepsWelcome(t *testing.T) {
	backend := newFakeTree()
	backend.currentErr = errors.New("connection refused")

	var failures []*domain.RequestErrorEvent
	c := session.New(
		session.WithTreeBackend(backend),
		session.WithHooks(domain.LifecycleHooks{
			OnRequestError: func(ctx context.Context, e *domain.RequestErrorEvent) {
				failures = append(failures, e)
			},
		}),
	)

	err := c.Start(context.Background(), "E")
	require.Error(t, err)
	assert.Equal(t, domain.PhaseWelcome, c.State().Phase)
	require.Len(t, failures, 1)
	assert.Equal(t, session.OpCurrent, failures[0].Operation)
	assert.False(t, failures[0].Absorbed)
}

func TestController_StartWithoutBackend(t *testing.T) {
	c := session.New(session.WithTreeBackend(newFakeTree()))
	assert.ErrorIs(t, c.Start(context.Background(), ""), domain.ErrNoBackend)

	c = session.New(session.WithFlatBackend(newFakeFlat(1)))
	assert.ErrorIs(t, c.Start(context.Background(), "E"), domain.ErrNoBackend)
}

func TestController_SubmitRejectionsLeaveStateUnchanged(t *testing.T) {
	ctx := context.Background()
	c := session.New(session.WithTreeBackend(newFakeTree()))

	assert.ErrorIs(t, c.Submit(ctx, "q1", domain.Bool(true)), domain.ErrNotStarted)

	require.NoError(t, c.Start(ctx, "E"))
	require.NoError(t, c.Submit(ctx, "q1", domain.Bool(true)))
	require.NoError(t, c.Submit(ctx, "q2", domain.Text("investor")))
	before := c.State()

	assert.ErrorIs(t, c.Submit(ctx, "q1", domain.Bool(true)), domain.ErrQuestionMismatch)
	assert.ErrorIs(t, c.Submit(ctx, "q3", domain.Value{}), domain.ErrNoSelection)
	assert.ErrorIs(t, c.Submit(ctx, "q3", domain.Number(120)), domain.ErrInvalidAnswer)

	assert.Equal(t, before, c.State())
}

func TestController_TreeAnswerFailureNotRecorded(t *testing.T) {
	ctx := context.Background()
	backend := newFakeTree()
	c := session.New(session.WithTreeBackend(backend))
	require.NoError(t, c.Start(ctx, "E"))
	before := c.State()

	backend.answerErr = &domain.BackendError{Endpoint: "visa_answer", Status: 500, Message: "boom"}
	err := c.Submit(ctx, "q1", domain.Bool(true))

	var berr *domain.BackendError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, 500, berr.Status)
	assert.Equal(t, before, c.State())

	backend.answerErr = nil
	require.NoError(t, c.Submit(ctx, "q1", domain.Bool(true)))
	assert.Equal(t, "q2", c.State().CurrentNodeID)
}

func TestController_TreeBackRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := newFakeTree()
	c := session.New(session.WithTreeBackend(backend))
	require.NoError(t, c.Start(ctx, "E"))
	require.NoError(t, c.Submit(ctx, "q1", domain.Bool(true)))
	require.NoError(t, c.Submit(ctx, "q2", domain.Text("student")))
	answered := c.State()

	require.NoError(t, c.Back(ctx))
	st := c.State()
	assert.Equal(t, "q2", st.CurrentNodeID)
	assert.Equal(t, []string{"q1", "q2"}, st.Path)
	assert.Equal(t, []string{"q1"}, st.Answers.IDs())
	// The backend session was rebuilt from the remaining answers.
	assert.Equal(t, []string{"q1"}, backend.Answered())

	require.NoError(t, c.Submit(ctx, "q2", domain.Text("student")))
	again := c.State()
	assert.True(t, answered.Answers.Equal(again.Answers))
	assert.Equal(t, answered.CurrentNodeID, again.CurrentNodeID)
	assert.Equal(t, answered.Path, again.Path)
}

func TestController_BackFromResult(t *testing.T) {
	ctx := context.Background()
	c := session.New(session.WithTreeBackend(newFakeTree()))
	require.NoError(t, c.Start(ctx, "E"))
	require.NoError(t, c.Submit(ctx, "q1", domain.Bool(false)))
	require.Equal(t, domain.PhaseResult, c.State().Phase)

	require.NoError(t, c.Back(ctx))
	st := c.State()
	assert.Equal(t, domain.PhaseInProgress, st.Phase)
	assert.Nil(t, st.Result)
	assert.Equal(t, "q1", st.CurrentNodeID)

	assert.ErrorIs(t, c.Back(ctx), domain.ErrNothingToUndo)
}

func TestController_BackReplayFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	backend := newFakeTree()
	c := session.New(session.WithTreeBackend(backend))
	require.NoError(t, c.Start(ctx, "E"))
	require.NoError(t, c.Submit(ctx, "q1", domain.Bool(true)))
	before := c.State()

	backend.resetErr = errors.New("unavailable")
	require.Error(t, c.Back(ctx))
	assert.Equal(t, before, c.State())
}

// loopTree is q1 -yes-> q2 -yes-> q1, with "no" leaving the loop.
func loopTree() *fakeTree {
	f := newFakeTree()
	f.kb.DecisionTree = domain.DecisionTree{
		Root: "q1",
		Nodes: map[string]domain.Node{
			"q1":       {Type: domain.NodeTypeBoolean, Question: "Do you hold a passport?", Yes: "q2", No: "rejected"},
			"q2":       {Type: domain.NodeTypeBoolean, Question: "Has it expired?", Yes: "q1", No: "approved"},
			"approved": {Type: domain.NodeTypeResult, Decision: domain.DecisionApproved, Title: "Eligible"},
			"rejected": {Type: domain.NodeTypeResult, Decision: "rejected", Title: "Not eligible"},
		},
	}
	f.current = "q1"
	f.path = []string{"q1"}
	return f
}

func TestController_TreeBackThroughLoop(t *testing.T) {
	ctx := context.Background()
	backend := loopTree()
	c := session.New(session.WithTreeBackend(backend))
	require.NoError(t, c.Start(ctx, "E"))

	require.NoError(t, c.Submit(ctx, "q1", domain.Bool(true)))
	require.NoError(t, c.Submit(ctx, "q2", domain.Bool(true)))
	require.NoError(t, c.Submit(ctx, "q1", domain.Bool(true)))

	st := c.State()
	assert.Equal(t, "q2", st.CurrentNodeID)
	assert.Len(t, st.Trail, 3)
	assert.Equal(t, []string{"q2", "q1"}, st.Answers.IDs(), "a revisited node moves to the end")

	require.NoError(t, c.Back(ctx))
	st = c.State()
	assert.Equal(t, "q1", st.CurrentNodeID)
	assert.Equal(t, []string{"q1", "q2", "q1"}, st.Path)
	assert.Equal(t, []domain.TrailStep{
		{NodeID: "q1", Value: domain.Bool(true)},
		{NodeID: "q2", Value: domain.Bool(true)},
	}, st.Trail)
	assert.Equal(t, []string{"q1", "q2"}, st.Answers.IDs())
	assert.Equal(t, []string{"q1", "q2"}, backend.Answered())
	assert.Equal(t, st.CurrentNodeID, backend.Position())

	require.NoError(t, c.Back(ctx))
	st = c.State()
	assert.Equal(t, "q2", st.CurrentNodeID)
	assert.Equal(t, []string{"q1"}, st.Answers.IDs())
	assert.Equal(t, []string{"q1"}, backend.Answered())
	assert.Equal(t, "q2", backend.Position())

	require.NoError(t, c.Submit(ctx, "q2", domain.Bool(false)))
	assert.Equal(t, domain.PhaseResult, c.State().Phase)
}

func TestController_BackReplayFailureRestoresBackend(t *testing.T) {
	ctx := context.Background()
	backend := newFakeTree()
	c := session.New(session.WithTreeBackend(backend))
	require.NoError(t, c.Start(ctx, "E"))
	require.NoError(t, c.Submit(ctx, "q1", domain.Bool(true)))
	require.NoError(t, c.Submit(ctx, "q2", domain.Text("student")))
	before := c.State()

	backend.answerFailures = 1
	err := c.Back(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrOutOfSync)
	assert.Equal(t, before, c.State())
	assert.Equal(t, []string{"q1", "q2"}, backend.Answered())
	assert.Equal(t, "q3", backend.Position())

	require.NoError(t, c.Submit(ctx, "q3", domain.Number(5)), "backend and local state still agree")
	assert.Equal(t, domain.PhaseResult, c.State().Phase)
}

func TestController_BackOutOfSync(t *testing.T) {
	ctx := context.Background()
	backend := newFakeTree()
	c := session.New(session.WithTreeBackend(backend))
	require.NoError(t, c.Start(ctx, "E"))
	require.NoError(t, c.Submit(ctx, "q1", domain.Bool(true)))
	require.NoError(t, c.Submit(ctx, "q2", domain.Text("student")))
	before := c.State()

	backend.answerFailures = 2
	assert.ErrorIs(t, c.Back(ctx), domain.ErrOutOfSync)
	assert.Equal(t, before, c.State())

	require.NoError(t, c.Restart(ctx))
	require.NoError(t, c.Start(ctx, "E"))
	assert.Equal(t, "q1", c.State().CurrentNodeID)
}

func TestController_SubmitWhileBusyIsNoop(t *testing.T) {
	ctx := context.Background()
	backend := newFakeTree()
	c := session.New(session.WithTreeBackend(backend))
	require.NoError(t, c.Start(ctx, "E"))

	backend.entered = make(chan struct{})
	backend.gate = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- c.Submit(ctx, "q1", domain.Bool(true))
	}()
	<-backend.entered
	assert.True(t, c.Busy())

	before := c.State()
	assert.ErrorIs(t, c.Submit(ctx, "q1", domain.Bool(false)), domain.ErrBusy)
	assert.ErrorIs(t, c.Back(ctx), domain.ErrBusy)
	assert.ErrorIs(t, c.Restart(ctx), domain.ErrBusy)
	assert.ErrorIs(t, c.Start(ctx, "E"), domain.ErrBusy)
	assert.Equal(t, before, c.State())

	close(backend.gate)
	require.NoError(t, <-done)
	assert.False(t, c.Busy())
	assert.Equal(t, "q2", c.State().CurrentNodeID)
}

func TestController_Restart(t *testing.T) {
	ctx := context.Background()
	backend := newFakeTree()
	c := session.New(session.WithTreeBackend(backend))
	require.NoError(t, c.Start(ctx, "E"))
	require.NoError(t, c.Submit(ctx, "q1", domain.Bool(true)))
	id := c.State().ID

	require.NoError(t, c.Restart(ctx))
	st := c.State()
	assert.Equal(t, domain.PhaseWelcome, st.Phase)
	assert.Equal(t, 0, st.Answers.Len())
	assert.Equal(t, "E", st.VisaType)
	assert.NotEqual(t, id, st.ID)
	assert.Equal(t, 2, backend.resets)
	assert.Equal(t, 0.0, c.Progress())
}

func TestController_FlatScreeningFilter(t *testing.T) {
	ctx := context.Background()
	backend := newFakeFlat(1)
	c := session.New(session.WithFlatBackend(backend))

	require.NoError(t, c.Start(ctx, ""))
	q, ok := c.State().CurrentQuestion()
	require.True(t, ok)
	require.Equal(t, "purpose", q.ID)

	require.NoError(t, c.Submit(ctx, "purpose", domain.Text("business")))
	assert.Equal(t, []string{"E", "L"}, c.State().VisaFilter)

	require.NoError(t, c.Submit(ctx, "treaty", domain.Bool(true)))
	require.NoError(t, c.Back(ctx))
	assert.Equal(t, []string{"E", "L"}, c.State().VisaFilter, "filter survives Back")

	require.NoError(t, c.Submit(ctx, "treaty", domain.Bool(true)))
	q, ok = c.State().CurrentQuestion()
	require.True(t, ok)
	assert.Equal(t, "transfer", q.ID)

	filters := backend.Filters()
	require.Len(t, filters, 4)
	assert.Empty(t, filters[0])
	for i, f := range filters[1:] {
		assert.Equal(t, []string{"E", "L"}, f, "fetch %d", i+2)
	}
}

func TestController_FlatFilterRollback(t *testing.T) {
	ctx := context.Background()

	keep := session.New(session.WithFlatBackend(newFakeFlat(1)))
	require.NoError(t, keep.Start(ctx, ""))
	require.NoError(t, keep.Submit(ctx, "purpose", domain.Text("business")))
	require.NoError(t, keep.Back(ctx))
	assert.Equal(t, []string{"E", "L"}, keep.State().VisaFilter)

	// A later screening answer replaces the filter.
	require.NoError(t, keep.Submit(ctx, "purpose", domain.Text("tourism")))
	assert.Equal(t, []string{"B"}, keep.State().VisaFilter)

	rollback := session.New(session.WithFlatBackend(newFakeFlat(1)), session.WithFilterRollback(true))
	require.NoError(t, rollback.Start(ctx, ""))
	require.NoError(t, rollback.Submit(ctx, "purpose", domain.Text("business")))
	require.NoError(t, rollback.Back(ctx))
	assert.Empty(t, rollback.State().VisaFilter)
}

func TestController_FlatBackRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := session.New(session.WithFlatBackend(newFakeFlat(3)))
	require.NoError(t, c.Start(ctx, ""))
	require.NoError(t, c.Submit(ctx, "purpose", domain.Text("unsure")))
	require.NoError(t, c.Submit(ctx, "treaty", domain.Bool(false)))
	answered := c.State()
	require.Equal(t, 2, answered.Index)

	require.NoError(t, c.Back(ctx))
	assert.Equal(t, 1, c.State().Index)
	assert.Equal(t, []string{"purpose"}, c.State().Answers.IDs())

	require.NoError(t, c.Submit(ctx, "treaty", domain.Bool(false)))
	again := c.State()
	assert.True(t, answered.Answers.Equal(again.Answers))
	assert.Equal(t, answered.Index, again.Index)
	assert.Equal(t, answered.Questions, again.Questions)
}

func TestController_FlatEvaluatesAfterThreshold(t *testing.T) {
	ctx := context.Background()
	backend := newFakeFlat(1)
	var results []*domain.ResultEvent
	c := session.New(
		session.WithFlatBackend(backend),
		session.WithHooks(domain.LifecycleHooks{
			OnResult: func(ctx context.Context, e *domain.ResultEvent) { results = append(results, e) },
		}),
	)
	require.NoError(t, c.Start(ctx, ""))

	answers := []domain.Value{domain.Text("unsure"), domain.Bool(true), domain.Bool(true), domain.Bool(false), domain.Number(4)}
	for i, v := range answers {
		q, ok := c.State().CurrentQuestion()
		require.True(t, ok, "answer %d", i)
		require.NoError(t, c.Submit(ctx, q.ID, v))
	}

	st := c.State()
	assert.Equal(t, domain.PhaseResult, st.Phase)
	require.NotNil(t, st.Evaluation)
	assert.Len(t, st.Evaluation.ApplicableVisas, 2)
	assert.Equal(t, 5, st.Evaluation.AnsweredQuestions)
	assert.Equal(t, 1, backend.evaluations)
	assert.Equal(t, 100.0, c.Progress())
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Matches)
}

func TestController_FlatLoadFailureFallsBackToEvaluation(t *testing.T) {
	ctx := context.Background()
	backend := newFakeFlat(1)
	backend.failFetchFrom = 2

	var absorbed []string
	c := session.New(
		session.WithFlatBackend(backend),
		session.WithHooks(domain.LifecycleHooks{
			OnRequestError: func(ctx context.Context, e *domain.RequestErrorEvent) {
				if e.Absorbed {
					absorbed = append(absorbed, e.Operation)
				}
			},
		}),
	)
	require.NoError(t, c.Start(ctx, ""))
	require.NoError(t, c.Submit(ctx, "purpose", domain.Text("business")))

	assert.Equal(t, domain.PhaseResult, c.State().Phase)
	assert.Equal(t, 1, backend.evaluations)
	assert.Equal(t, []string{session.OpQuestions}, absorbed)
}

func TestController_FlatEmptyStartEvaluates(t *testing.T) {
	backend := newFakeFlat(1)
	backend.pool = nil
	c := session.New(session.WithFlatBackend(backend))

	require.NoError(t, c.Start(context.Background(), ""))
	assert.Equal(t, domain.PhaseResult, c.State().Phase)
}

func TestController_EvaluateRetry(t *testing.T) {
	ctx := context.Background()
	backend := newFakeFlat(1)
	backend.failFetchFrom = 2
	backend.evaluateErr = errors.New("timeout")
	c := session.New(session.WithFlatBackend(backend))
	require.NoError(t, c.Start(ctx, ""))

	err := c.Submit(ctx, "purpose", domain.Text("business"))
	require.Error(t, err)

	st := c.State()
	assert.True(t, st.PendingEvaluation)
	assert.Equal(t, domain.PhaseInProgress, st.Phase)
	assert.Equal(t, 1, st.Answers.Len(), "answer kept")
	assert.ErrorIs(t, c.Submit(ctx, "purpose", domain.Text("business")), domain.ErrFinished)

	require.NoError(t, c.Evaluate(ctx))
	st = c.State()
	assert.False(t, st.PendingEvaluation)
	assert.Equal(t, domain.PhaseResult, st.Phase)
}

func TestController_EvaluateRequiresFlatMode(t *testing.T) {
	ctx := context.Background()
	c := session.New(session.WithTreeBackend(newFakeTree()))
	require.NoError(t, c.Start(ctx, "E"))
	assert.ErrorIs(t, c.Evaluate(ctx), domain.ErrNotFlatMode)

	_, err := c.ExportPDF(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrNotFlatMode)
}

func TestController_ExportPDF(t *testing.T) {
	ctx := context.Background()
	backend := newFakeFlat(1)
	backend.pool = backend.pool[:1]
	c := session.New(session.WithFlatBackend(backend), session.WithClock(fixedClock))
	require.NoError(t, c.Start(ctx, ""))

	_, err := c.ExportPDF(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrNoEvaluation)

	require.NoError(t, c.Submit(ctx, "purpose", domain.Text("tourism")))
	require.Equal(t, domain.PhaseResult, c.State().Phase)

	export, err := c.ExportPDF(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", export.Filename)
	assert.Equal(t, map[string]string{
		"Assessment Date":          "2026-03-01",
		"Total Questions Answered": "1",
	}, backend.exportInfo)

	backend.exportErr = errors.New("renderer down")
	before := c.State()
	_, err = c.ExportPDF(ctx, map[string]string{"Name": "Ada"})
	require.Error(t, err)
	assert.Equal(t, before, c.State())
}

func TestController_Hooks(t *testing.T) {
	ctx := context.Background()
	var events []domain.EventType
	record := func(e domain.EventType) { events = append(events, e) }

	c := session.New(
		session.WithTreeBackend(newFakeTree()),
		session.WithIDGenerator(func() string { return "fixed" }),
		session.WithClock(fixedClock),
		session.WithHooks(domain.LifecycleHooks{
			OnPhaseChange: func(ctx context.Context, e *domain.PhaseEvent) {
				assert.Equal(t, "fixed", e.SessionID)
				assert.Equal(t, fixedClock(), e.Timestamp)
				record(e.Type)
			},
			OnAnswer: func(ctx context.Context, e *domain.AnswerEvent) { record(e.Type) },
			OnBack:   func(ctx context.Context, e *domain.AnswerEvent) { record(e.Type) },
			OnResult: func(ctx context.Context, e *domain.ResultEvent) {
				assert.Equal(t, "rejected", e.Decision)
				record(e.Type)
			},
		}),
	)

	require.NoError(t, c.Start(ctx, "E"))
	require.NoError(t, c.Submit(ctx, "q1", domain.Bool(true)))
	require.NoError(t, c.Back(ctx))
	require.NoError(t, c.Submit(ctx, "q1", domain.Bool(false)))

	assert.Equal(t, []domain.EventType{
		domain.EventPhaseChange, // welcome -> in_progress
		domain.EventAnswer,
		domain.EventBack,
		domain.EventPhaseChange, // in_progress -> result
		domain.EventAnswer,
		domain.EventResult,
	}, events)
}
