package api

// QuestionType tells the engine how a question is answered.
type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	return t == SingleChoice || t == MultipleChoice
}

// Importance controls whether a question is part of the active list.
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// Valid reports whether i is one of the known importance levels.
func (i Importance) Valid() bool {
	switch i {
	case ImportanceHigh, ImportanceMedium, ImportanceLow:
		return true
	}
	return false
}

// Option is one selectable answer of a question.
type Option struct {
	Value  string  `yaml:"value" json:"value"`
	Label  string  `yaml:"label" json:"label"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// BranchingCondition makes a question visible only when an earlier
// question's answer contains (or equals) a given option value.
type BranchingCondition struct {
	Question string `yaml:"question" json:"question"`
	Includes string `yaml:"includes" json:"includes"`
}

// QuestionDefinition is an immutable catalog entry.
type QuestionDefinition struct {
	ID         string              `yaml:"id" json:"id"`
	Text       string              `yaml:"text" json:"text"`
	Type       QuestionType        `yaml:"type" json:"type"`
	Options    []Option            `yaml:"options" json:"options"`
	Importance Importance          `yaml:"importance" json:"importance"`
	Category   string              `yaml:"category,omitempty" json:"category,omitempty"`
	Branching  *BranchingCondition `yaml:"branching,omitempty" json:"branching,omitempty"`
}

// HasOption reports whether value is one of the question's option values.
func (q QuestionDefinition) HasOption(value string) bool {
	for _, o := range q.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// Option returns the option with the given value.
func (q QuestionDefinition) Option(value string) (Option, bool) {
	for _, o := range q.Options {
		if o.Value == value {
			return o, true
		}
	}
	return Option{}, false
}
