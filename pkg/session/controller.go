package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/visaguide/internal/logging"
	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/aretw0/visaguide/pkg/ports"
	"github.com/google/uuid"
)

// Operation names reported in RequestErrorEvent.
const (
	OpClearSession = "clear_session"
	OpReset        = "reset"
	OpQuestions    = "questions"
	OpCurrent      = "current"
	OpAnswer       = "answer"
	OpReplay       = "replay"
	OpEvaluate     = "evaluate"
	OpExportPDF    = "export_pdf"
)

// position is what Back restores: where the session stood before an answer.
type position struct {
	questions []domain.Question
	index     int
	total     int
	nodeID    string
	current   *domain.Node
	path      []string
	filter    []string
}

func positionOf(s *domain.State) position {
	return position{
		questions: s.Questions,
		index:     s.Index,
		total:     s.TotalQuestions,
		nodeID:    s.CurrentNodeID,
		current:   s.Current,
		path:      slices.Clone(s.Path),
		filter:    slices.Clone(s.VisaFilter),
	}
}

func (p position) restore(s *domain.State, withFilter bool) {
	s.Questions = p.questions
	s.Index = p.index
	s.TotalQuestions = p.total
	s.CurrentNodeID = p.nodeID
	s.Current = p.current
	s.Path = slices.Clone(p.path)
	if withFilter {
		s.VisaFilter = slices.Clone(p.filter)
	}
}

// Controller drives one questionnaire session.
//
// Operations that talk to the backend are serialized by a busy flag: a call
// made while another one is in flight returns domain.ErrBusy without
// touching the state. The flag is released on every exit path.
type Controller struct {
	flat ports.QuestionnaireBackend
	tree ports.DecisionTreeBackend

	logger         *slog.Logger
	hooks          domain.LifecycleHooks
	filterRollback bool
	threshold      int
	newID          func() string
	now            func() time.Time

	busy atomic.Bool

	mu      sync.RWMutex
	state   *domain.State
	history []position
}

// New creates a Controller on the welcome view.
func New(opts ...Option) *Controller {
	c := &Controller{
		logger:    logging.NewNop(),
		threshold: DefaultEvaluateThreshold,
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	mode := domain.ModeFlat
	if c.flat == nil && c.tree != nil {
		mode = domain.ModeTree
	}
	c.state = domain.NewState(c.newID(), mode, "")
	return c
}

// State returns a snapshot of the session.
func (c *Controller) State() *domain.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Snapshot()
}

// Progress returns the completion estimate of the session.
func (c *Controller) Progress() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Progress(c.state.Answers.Len(), c.state.Terminal())
}

// Busy reports whether an operation is in flight.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// Start begins a new questionnaire. An empty visaType selects flat mode,
// anything else runs the decision tree of that visa type.
// If the first question cannot be loaded the session stays where it was.
func (c *Controller) Start(ctx context.Context, visaType string) error {
	if !c.busy.CompareAndSwap(false, true) {
		return domain.ErrBusy
	}
	defer c.busy.Store(false)

	if visaType == "" {
		return c.startFlat(ctx)
	}
	return c.startTree(ctx, visaType)
}

func (c *Controller) startFlat(ctx context.Context) error {
	if c.flat == nil {
		return fmt.Errorf("%w: %s", domain.ErrNoBackend, domain.ModeFlat)
	}

	next := domain.NewState(c.newID(), domain.ModeFlat, "")
	if err := c.flat.ClearSession(ctx); err != nil {
		c.requestFailed(ctx, next, OpClearSession, err, true)
	}

	batch, err := c.flat.Questions(ctx, nil, nil)
	if err != nil {
		c.requestFailed(ctx, next, OpQuestions, err, false)
		return fmt.Errorf("failed to load questions: %w", err)
	}

	next.Phase = domain.PhaseInProgress
	next.Questions = batch.Questions
	next.TotalQuestions = batch.TotalQuestions
	if len(batch.Questions) == 0 {
		next.PendingEvaluation = true
		c.commit(ctx, next, nil)
		return c.evaluate(ctx)
	}
	c.commit(ctx, next, nil)
	return nil
}

func (c *Controller) startTree(ctx context.Context, visaType string) error {
	if c.tree == nil {
		return fmt.Errorf("%w: %s", domain.ErrNoBackend, domain.ModeTree)
	}

	next := domain.NewState(c.newID(), domain.ModeTree, visaType)
	if err := c.tree.Reset(ctx, visaType); err != nil {
		c.requestFailed(ctx, next, OpReset, err, true)
	}

	resp, err := c.tree.Current(ctx, visaType)
	if err != nil {
		c.requestFailed(ctx, next, OpCurrent, err, false)
		return fmt.Errorf("failed to load question: %w", err)
	}

	next.Phase = domain.PhaseInProgress
	moveTo(next, resp)
	c.commit(ctx, next, nil)
	if next.Terminal() {
		c.emitResult(ctx, next)
	}
	return nil
}

// Submit answers the displayed question.
//
// id must name the displayed question and v must fit its type (see
// Normalize); otherwise nothing changes. A failed tree-mode submission is
// not recorded. In flat mode an exhausted batch either refetches or, with
// enough answers or nothing left to ask, evaluates the answer set; an
// evaluation failure is returned with the answer kept and
// State().PendingEvaluation set so Evaluate can be retried.
func (c *Controller) Submit(ctx context.Context, id string, v domain.Value) error {
	if !c.busy.CompareAndSwap(false, true) {
		return domain.ErrBusy
	}
	defer c.busy.Store(false)

	next, history := c.working()
	switch next.Phase {
	case domain.PhaseWelcome:
		return domain.ErrNotStarted
	case domain.PhaseResult:
		return domain.ErrFinished
	}
	if next.Mode == domain.ModeTree {
		return c.submitTree(ctx, next, history, id, v)
	}
	return c.submitFlat(ctx, next, history, id, v)
}

func (c *Controller) submitFlat(ctx context.Context, next *domain.State, history []position, id string, v domain.Value) error {
	q, ok := next.CurrentQuestion()
	if !ok {
		return fmt.Errorf("%w: evaluation pending", domain.ErrFinished)
	}
	if id != q.ID {
		return fmt.Errorf("%w: got %q, showing %q", domain.ErrQuestionMismatch, id, q.ID)
	}
	value, err := Normalize(q.AsNode(), v)
	if err != nil {
		return err
	}

	history = append(history, positionOf(next))
	next.Answers.Set(id, value)
	if q.IsScreening {
		if s, ok := value.AsText(); ok {
			if opt, ok := q.Option(s); ok && len(opt.VisaTypes) > 0 {
				next.VisaFilter = slices.Clone(opt.VisaTypes)
				c.logger.Debug("visa filter set", "session_id", next.ID, "visa_types", next.VisaFilter)
			}
		}
	}
	next.Index++

	if next.Index < len(next.Questions) {
		c.commit(ctx, next, history)
		c.emitAnswer(ctx, next, id, value)
		return nil
	}

	if next.Answers.Len() < c.threshold {
		batch, err := c.flat.Questions(ctx, next.Answers.IDs(), next.VisaFilter)
		if err != nil {
			// Falls through to evaluating what we have.
			c.requestFailed(ctx, next, OpQuestions, err, true)
		} else if len(batch.Questions) > 0 {
			next.Questions = batch.Questions
			next.Index = 0
			next.TotalQuestions = batch.TotalQuestions
			c.commit(ctx, next, history)
			c.emitAnswer(ctx, next, id, value)
			return nil
		}
	}

	next.PendingEvaluation = true
	c.commit(ctx, next, history)
	c.emitAnswer(ctx, next, id, value)
	return c.evaluate(ctx)
}

func (c *Controller) submitTree(ctx context.Context, next *domain.State, history []position, id string, v domain.Value) error {
	if next.Current == nil {
		return domain.ErrNotStarted
	}
	if id != next.CurrentNodeID {
		return fmt.Errorf("%w: got %q, showing %q", domain.ErrQuestionMismatch, id, next.CurrentNodeID)
	}
	node := *next.Current
	node.ID = id
	value, err := Normalize(node, v)
	if err != nil {
		return err
	}

	resp, err := c.tree.Answer(ctx, next.VisaType, id, value)
	if err != nil {
		c.requestFailed(ctx, next, OpAnswer, err, false)
		return fmt.Errorf("failed to submit answer: %w", err)
	}

	history = append(history, positionOf(next))
	next.Trail = append(next.Trail, domain.TrailStep{NodeID: id, Value: value})
	// A node revisited through a loop moves to the end, so the answer
	// order matches the trail.
	next.Answers.Delete(id)
	next.Answers.Set(id, value)
	moveTo(next, resp)
	c.commit(ctx, next, history)
	c.emitAnswer(ctx, next, id, value)
	if next.Terminal() {
		c.emitResult(ctx, next)
	}
	return nil
}

// moveTo positions a tree session on the node in resp. The backend path is
// used when present, otherwise the node is appended to the local path.
func moveTo(s *domain.State, resp *ports.NodeResponse) {
	node := resp.Node
	if node.ID == "" {
		node.ID = resp.NodeID
	}
	s.CurrentNodeID = resp.NodeID
	s.Current = &node
	if len(resp.Path) > 0 {
		s.Path = slices.Clone(resp.Path)
	} else {
		s.Path = append(slices.Clone(s.Path), resp.NodeID)
	}
	if node.IsResult() {
		s.Result = &node
		s.Phase = domain.PhaseResult
	}
}

// Back undoes the most recently recorded answer and returns to the
// question it answered. The visa filter is kept unless WithFilterRollback
// is set. In tree mode the backend session is rebuilt by replaying the
// remaining trail; if that fails nothing changes locally and the backend
// is brought back to where it was. When even that fails the error wraps
// domain.ErrOutOfSync and only Restart recovers.
func (c *Controller) Back(ctx context.Context) error {
	if !c.busy.CompareAndSwap(false, true) {
		return domain.ErrBusy
	}
	defer c.busy.Store(false)

	next, history := c.working()
	if next.Answers.Len() == 0 || len(history) == 0 {
		return domain.ErrNothingToUndo
	}
	prev := history[len(history)-1]
	history = history[:len(history)-1]

	var id string
	if next.Mode == domain.ModeTree && len(next.Trail) > 0 {
		full := next.Trail
		id = full[len(full)-1].NodeID
		next.Trail = slices.Clone(full[:len(full)-1])
		next.Answers = domain.AnswersFromTrail(next.Trail)
		if err := c.rewind(ctx, next, full); err != nil {
			return err
		}
	} else {
		id, _, _ = next.Answers.PopLast()
	}

	prev.restore(next, c.filterRollback)
	next.Phase = domain.PhaseInProgress
	next.Result = nil
	next.Evaluation = nil
	next.PendingEvaluation = false

	c.commit(ctx, next, history)
	if c.hooks.OnBack != nil {
		c.hooks.OnBack(ctx, &domain.AnswerEvent{
			EventBase:  c.base(next, domain.EventBack),
			QuestionID: id,
			Answered:   next.Answers.Len(),
		})
	}
	return nil
}

// rewind replays next.Trail on the backend. On failure it replays full,
// the trail before Back, so the backend matches the unchanged local state.
func (c *Controller) rewind(ctx context.Context, next *domain.State, full []domain.TrailStep) error {
	reset, err := c.replay(ctx, next.VisaType, next.Trail)
	if err == nil {
		return nil
	}
	c.requestFailed(ctx, next, OpReplay, err, false)
	if !reset {
		return fmt.Errorf("failed to step back: %w", err)
	}

	if _, restoreErr := c.replay(ctx, next.VisaType, full); restoreErr != nil {
		c.requestFailed(ctx, next, OpReplay, restoreErr, false)
		return fmt.Errorf("failed to step back: %w: %w", domain.ErrOutOfSync, err)
	}
	c.logger.Debug("backend position restored after failed back", "session_id", next.ID, "answers", len(full))
	return fmt.Errorf("failed to step back: %w", err)
}

// replay resets the tree session and answers trail in order. reset reports
// whether the backend session was reset, i.e. whether it moved.
func (c *Controller) replay(ctx context.Context, visaType string, trail []domain.TrailStep) (reset bool, err error) {
	if err := c.tree.Reset(ctx, visaType); err != nil {
		return false, err
	}
	for _, step := range trail {
		if _, err := c.tree.Answer(ctx, visaType, step.NodeID, step.Value); err != nil {
			return true, fmt.Errorf("replaying %s: %w", step.NodeID, err)
		}
	}
	return true, nil
}

// Evaluate scores the answers of a flat session. It is only needed to
// retry a failed evaluation; Submit evaluates automatically.
func (c *Controller) Evaluate(ctx context.Context) error {
	if !c.busy.CompareAndSwap(false, true) {
		return domain.ErrBusy
	}
	defer c.busy.Store(false)

	st := c.State()
	if st.Mode != domain.ModeFlat {
		return domain.ErrNotFlatMode
	}
	if st.Phase == domain.PhaseWelcome {
		return domain.ErrNotStarted
	}
	return c.evaluate(ctx)
}

func (c *Controller) evaluate(ctx context.Context) error {
	next, history := c.working()
	eval, err := c.flat.Evaluate(ctx, next.Answers)
	if err != nil {
		c.requestFailed(ctx, next, OpEvaluate, err, false)
		return fmt.Errorf("failed to evaluate answers: %w", err)
	}
	next.Evaluation = eval
	next.PendingEvaluation = false
	next.Phase = domain.PhaseResult
	c.commit(ctx, next, history)
	c.emitResult(ctx, next)
	return nil
}

// ExportPDF asks the backend for a PDF report of the evaluation.
// A nil userInfo sends the assessment date and the number of answers.
func (c *Controller) ExportPDF(ctx context.Context, userInfo map[string]string) (*domain.PDFExport, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return nil, domain.ErrBusy
	}
	defer c.busy.Store(false)

	st := c.State()
	if st.Mode != domain.ModeFlat {
		return nil, domain.ErrNotFlatMode
	}
	if st.Evaluation == nil {
		return nil, domain.ErrNoEvaluation
	}
	if userInfo == nil {
		userInfo = map[string]string{
			"Assessment Date":          c.now().Format("2006-01-02"),
			"Total Questions Answered": strconv.Itoa(st.Answers.Len()),
		}
	}

	export, err := c.flat.ExportPDF(ctx, st.Evaluation.ApplicableVisas, userInfo)
	if err != nil {
		c.requestFailed(ctx, st, OpExportPDF, err, false)
		return nil, fmt.Errorf("failed to export pdf: %w", err)
	}
	return export, nil
}

// Restart clears the backend session and returns to the welcome view.
// Backend failures are logged; the local state is reset regardless.
func (c *Controller) Restart(ctx context.Context) error {
	if !c.busy.CompareAndSwap(false, true) {
		return domain.ErrBusy
	}
	defer c.busy.Store(false)

	st := c.State()
	switch {
	case st.Mode == domain.ModeFlat && c.flat != nil:
		if err := c.flat.ClearSession(ctx); err != nil {
			c.requestFailed(ctx, st, OpClearSession, err, true)
		}
	case st.Mode == domain.ModeTree && c.tree != nil && st.VisaType != "":
		if err := c.tree.Reset(ctx, st.VisaType); err != nil {
			c.requestFailed(ctx, st, OpReset, err, true)
		}
	}

	c.commit(ctx, domain.NewState(c.newID(), st.Mode, st.VisaType), nil)
	return nil
}

// working returns copies of the state and history for an operation to edit.
func (c *Controller) working() (*domain.State, []position) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Snapshot(), slices.Clone(c.history)
}

func (c *Controller) commit(ctx context.Context, next *domain.State, history []position) {
	c.mu.Lock()
	from := c.state.Phase
	c.state = next
	c.history = history
	c.mu.Unlock()

	if from != next.Phase && c.hooks.OnPhaseChange != nil {
		c.hooks.OnPhaseChange(ctx, &domain.PhaseEvent{
			EventBase: c.base(next, domain.EventPhaseChange),
			From:      from,
			To:        next.Phase,
		})
	}
}

func (c *Controller) base(s *domain.State, t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: c.now(), Type: t, SessionID: s.ID, Mode: s.Mode}
}

func (c *Controller) emitAnswer(ctx context.Context, s *domain.State, id string, v domain.Value) {
	if c.hooks.OnAnswer != nil {
		c.hooks.OnAnswer(ctx, &domain.AnswerEvent{
			EventBase:  c.base(s, domain.EventAnswer),
			QuestionID: id,
			Value:      v,
			Answered:   s.Answers.Len(),
		})
	}
}

func (c *Controller) emitResult(ctx context.Context, s *domain.State) {
	if c.hooks.OnResult == nil {
		return
	}
	e := &domain.ResultEvent{EventBase: c.base(s, domain.EventResult)}
	if s.Result != nil {
		e.Decision = s.Result.Decision
	}
	if s.Evaluation != nil {
		e.Matches = len(s.Evaluation.ApplicableVisas)
	}
	c.hooks.OnResult(ctx, e)
}

func (c *Controller) requestFailed(ctx context.Context, s *domain.State, op string, err error, absorbed bool) {
	c.logger.Warn("backend request failed", "session_id", s.ID, "operation", op, "absorbed", absorbed, "error", err)
	if c.hooks.OnRequestError != nil {
		c.hooks.OnRequestError(ctx, &domain.RequestErrorEvent{
			EventBase: c.base(s, domain.EventRequestError),
			Operation: op,
			Err:       err,
			Absorbed:  absorbed,
		})
	}
}
