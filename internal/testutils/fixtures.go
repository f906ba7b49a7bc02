package testutils

import "github.com/aretw0/visaguide/pkg/domain"

func ptr(f float64) *float64 { return &f }

// EVisaKnowledge is a small E-visa decision tree.
// q1 (boolean) -> q2 (choice) -> q3 (number) -> approved.
func EVisaKnowledge() *domain.KnowledgeBase {
	return &domain.KnowledgeBase{
		VisaType: domain.VisaType{
			Name:         "E Visa",
			Description:  "Treaty trader and treaty investor",
			Requirements: "Nationality of a treaty country",
		},
		DecisionTree: domain.DecisionTree{
			Root: "q1",
			Nodes: map[string]domain.Node{
				"q1": {
					Type:     domain.NodeTypeBoolean,
					Question: "Are you a national of a treaty country?",
					Yes:      "q2",
					No:       "rejected",
				},
				"q2": {
					Type:     domain.NodeTypeMultipleChoice,
					Question: "What best describes you?",
					Options: []domain.Option{
						{Value: "investor", Text: "Investor", Next: "q3"},
						{Value: "student", Text: "Student", Next: "q3"},
						{Value: "other", Text: "Other", Next: "rejected"},
					},
				},
				"q3": {
					Type:     domain.NodeTypeNumber,
					Question: "How many years of relevant experience?",
					Min:      ptr(0),
					Max:      ptr(50),
					Next:     "approved",
				},
				"approved": {
					Type:      domain.NodeTypeResult,
					Decision:  domain.DecisionApproved,
					Title:     "E-2 Visa",
					Message:   "You appear eligible for an E-2 visa.",
					NextSteps: []string{"File Form", "Pay fee"},
				},
				"rejected": {
					Type:         domain.NodeTypeResult,
					Decision:     "rejected",
					Title:        "Not eligible",
					Message:      "The E visa does not fit your situation.",
					Alternatives: []string{"B-1 Visa", "L-1 Visa"},
				},
			},
		},
	}
}

// FlatQuestions is a flat-mode pool whose first question is a screening question.
func FlatQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:          "purpose",
			Type:        domain.NodeTypeMultipleChoice,
			Text:        "What is the purpose of your stay?",
			IsScreening: true,
			Options: []domain.Option{
				{Value: "business", Text: "Business", VisaTypes: []string{"E", "L"}},
				{Value: "tourism", Text: "Tourism", VisaTypes: []string{"B"}},
				{Value: "unsure", Text: "Not sure"},
			},
		},
		{ID: "treaty", Type: domain.NodeTypeBoolean, Text: "Treaty country national?", VisaTypes: []string{"E"}},
		{ID: "transfer", Type: domain.NodeTypeBoolean, Text: "Intra-company transfer?", VisaTypes: []string{"L"}},
		{ID: "visit", Type: domain.NodeTypeBoolean, Text: "Short visit only?", VisaTypes: []string{"B"}},
		{ID: "years", Type: domain.NodeTypeNumber, Text: "Years with your employer?", Min: ptr(0), Max: ptr(60)},
		{ID: "capital", Type: domain.NodeTypeBoolean, Text: "Substantial capital invested?", VisaTypes: []string{"E"}},
		{ID: "manager", Type: domain.NodeTypeBoolean, Text: "Managerial role?", VisaTypes: []string{"L"}},
	}
}

// FlatEvaluation is a ranked evaluation served by the fake backend.
func FlatEvaluation() domain.Evaluation {
	return domain.Evaluation{
		ApplicableVisas: []domain.ApplicableVisa{
			{
				Type:                "E",
				Name:                "E-2 Treaty Investor",
				Description:         "For investors from treaty countries",
				Color:               "#2c3e50",
				Confidence:          0.82,
				SatisfiedConditions: []domain.Condition{{Question: "Treaty country national?"}},
				MissingConditions:   []domain.Condition{},
			},
			{
				Type:                "L",
				Name:                "L-1 Intra-company Transferee",
				Description:         "For transfers within one company",
				Confidence:          0.55,
				SatisfiedConditions: []domain.Condition{},
				MissingConditions:   []domain.Condition{{Question: "Managerial role?"}},
			},
		},
		EvaluationDate: "2026-01-01T00:00:00",
	}
}
