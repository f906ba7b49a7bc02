package domain

// Condition is a requirement reported by the evaluator.
type Condition struct {
	Condition string `json:"condition,omitempty"`
	Question  string `json:"question"`
	Answer    Value  `json:"answer"`
}

// ConfidenceBand buckets a confidence score for display.
type ConfidenceBand string

const (
	ConfidenceHigh   ConfidenceBand = "high"
	ConfidenceMedium ConfidenceBand = "medium"
	ConfidenceLow    ConfidenceBand = "low"
)

// ApplicableVisa is one ranked entry of a flat-mode evaluation.
type ApplicableVisa struct {
	Type                string      `json:"type,omitempty"`
	Name                string      `json:"name"`
	Description         string      `json:"description"`
	Color               string      `json:"color,omitempty"`
	Confidence          float64     `json:"confidence"`
	SatisfiedConditions []Condition `json:"satisfied_conditions"`
	MissingConditions   []Condition `json:"missing_conditions"`
}

// ConfidencePercent rounds the confidence to a whole percentage.
func (v ApplicableVisa) ConfidencePercent() int {
	return int(v.Confidence*100 + 0.5)
}

// ConfidenceBand returns high (>=70%), medium (>=50%) or low.
func (v ApplicableVisa) ConfidenceBand() ConfidenceBand {
	p := v.ConfidencePercent()
	switch {
	case p < 50:
		return ConfidenceLow
	case p < 70:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

// Evaluation is the scored outcome of a flat-mode questionnaire.
type Evaluation struct {
	ApplicableVisas   []ApplicableVisa `json:"applicable_visas"`
	TotalQuestions    int              `json:"total_questions,omitempty"`
	AnsweredQuestions int              `json:"answered_questions,omitempty"`
	EvaluationDate    string           `json:"evaluation_date,omitempty"`
}

// PDFExport is a decoded PDF report.
type PDFExport struct {
	Filename string
	Data     []byte
}
