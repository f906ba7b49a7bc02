package domain

// Mode selects how questions are served.
type Mode string

const (
	// ModeFlat serves batches of questions and evaluates the full answer set.
	ModeFlat Mode = "flat"
	// ModeTree serves one decision-tree node at a time.
	ModeTree Mode = "tree"
)

// Phase is the view the session is in.
type Phase string

const (
	PhaseWelcome    Phase = "welcome"
	PhaseInProgress Phase = "in_progress"
	PhaseResult     Phase = "result"
)

// State is the snapshot of a questionnaire session.
type State struct {
	ID       string `json:"id"`
	Mode     Mode   `json:"mode"`
	VisaType string `json:"visa_type,omitempty"`
	Phase    Phase  `json:"phase"`

	// Tree mode position.
	CurrentNodeID string   `json:"current_node_id,omitempty"`
	Current       *Node    `json:"current,omitempty"`
	Path          []string `json:"path,omitempty"`
	// Trail lists every tree answer in the order given. A node reached
	// again through a loop appears once per visit, while Answers keeps its
	// latest value only.
	Trail []TrailStep `json:"trail,omitempty"`

	// Flat mode position.
	Questions      []Question `json:"questions,omitempty"`
	Index          int        `json:"index"`
	TotalQuestions int        `json:"total_questions,omitempty"`

	Answers    *Answers `json:"answers"`
	VisaFilter []string `json:"visa_filter,omitempty"`

	// Terminal outcome: Result in tree mode, Evaluation in flat mode.
	Result     *Node       `json:"result,omitempty"`
	Evaluation *Evaluation `json:"evaluation,omitempty"`

	// PendingEvaluation is set when a flat session ran out of questions
	// but the evaluation request has not succeeded yet.
	PendingEvaluation bool `json:"pending_evaluation,omitempty"`
}

// TrailStep is one answered decision-tree node.
type TrailStep struct {
	NodeID string `json:"node_id"`
	Value  Value  `json:"value"`
}

// AnswersFromTrail builds the answer set of a trail. A node answered more
// than once holds its latest value and sits at the position of that answer.
func AnswersFromTrail(trail []TrailStep) *Answers {
	a := NewAnswers()
	for _, step := range trail {
		a.Delete(step.NodeID)
		a.Set(step.NodeID, step.Value)
	}
	return a
}

// NewState creates a fresh session on the welcome view.
func NewState(id string, mode Mode, visaType string) *State {
	return &State{
		ID:       id,
		Mode:     mode,
		VisaType: visaType,
		Phase:    PhaseWelcome,
		Answers:  NewAnswers(),
	}
}

// Terminal reports whether a verdict has been reached.
func (s *State) Terminal() bool {
	return s.Phase == PhaseResult
}

// CurrentQuestion returns the displayed flat-mode question.
func (s *State) CurrentQuestion() (Question, bool) {
	if s.Mode != ModeFlat || s.Index < 0 || s.Index >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.Index], true
}

// Snapshot returns a deep copy that is safe to hand to presentation layers.
func (s *State) Snapshot() *State {
	if s == nil {
		return nil
	}
	next := *s
	next.Answers = s.Answers.Clone()
	next.Path = cloneStrings(s.Path)
	next.VisaFilter = cloneStrings(s.VisaFilter)
	if s.Trail != nil {
		next.Trail = make([]TrailStep, len(s.Trail))
		copy(next.Trail, s.Trail)
	}
	if s.Questions != nil {
		next.Questions = make([]Question, len(s.Questions))
		copy(next.Questions, s.Questions)
	}
	if s.Current != nil {
		n := *s.Current
		next.Current = &n
	}
	if s.Result != nil {
		n := *s.Result
		next.Result = &n
	}
	if s.Evaluation != nil {
		e := *s.Evaluation
		next.Evaluation = &e
	}
	return &next
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
