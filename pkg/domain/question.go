package domain

// Question is a flat-mode question served in batches by the questionnaire backend.
type Question struct {
	ID          string   `json:"id"`
	Type        NodeType `json:"type"`
	Text        string   `json:"text"`
	Note        string   `json:"note,omitempty"`
	Options     []Option `json:"options,omitempty"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	ConditionID string   `json:"condition_id,omitempty"`

	// IsScreening marks a question whose selected option narrows later batches
	// to the option's VisaTypes.
	IsScreening bool     `json:"is_screening,omitempty"`
	VisaTypes   []string `json:"visa_types,omitempty"`
}

// AsNode adapts the question to the node shape used for validation and rendering.
func (q Question) AsNode() Node {
	return Node{
		ID:       q.ID,
		Type:     q.Type,
		Question: q.Text,
		Note:     q.Note,
		Options:  q.Options,
		Min:      q.Min,
		Max:      q.Max,
	}
}

// Option returns the option with the given value.
func (q Question) Option(value string) (Option, bool) {
	return findOption(q.Options, value)
}

// QuestionBatch is the response of a flat-mode question fetch.
type QuestionBatch struct {
	Questions      []Question `json:"questions"`
	TotalQuestions int        `json:"total_questions"`
}
