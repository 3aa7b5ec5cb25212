package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AnswerKind distinguishes the three answer shapes.
type AnswerKind uint8

const (
	// AnswerSkipped is an explicit skip; it serializes as JSON null.
	AnswerSkipped AnswerKind = iota
	// AnswerSingle holds one option value.
	AnswerSingle
	// AnswerMulti holds an ordered, duplicate-free set of option values.
	AnswerMulti
)

// Answer is the value recorded for one question.
//
// The zero value is a skipped answer.
type Answer struct {
	Kind   AnswerKind
	Value  string
	Values []string
}

// Single returns a single-choice answer.
func Single(value string) Answer {
	return Answer{Kind: AnswerSingle, Value: value}
}

// Multi returns a multiple-choice answer. Duplicate values are dropped,
// keeping the first occurrence.
func Multi(values ...string) Answer {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return Answer{Kind: AnswerMulti, Values: out}
}

// Skipped returns an explicit skip.
func Skipped() Answer {
	return Answer{Kind: AnswerSkipped}
}

// IsSkipped reports whether the answer is an explicit skip.
func (a Answer) IsSkipped() bool { return a.Kind == AnswerSkipped }

// Contains reports whether the answer equals v (single) or includes v (multi).
// A skipped answer contains nothing.
func (a Answer) Contains(v string) bool {
	switch a.Kind {
	case AnswerSingle:
		return a.Value == v
	case AnswerMulti:
		for _, x := range a.Values {
			if x == v {
				return true
			}
		}
	}
	return false
}

// Len returns the number of selected values.
func (a Answer) Len() int {
	switch a.Kind {
	case AnswerSingle:
		return 1
	case AnswerMulti:
		return len(a.Values)
	}
	return 0
}

// Clone returns a deep copy of a.
func (a Answer) Clone() Answer {
	if a.Values != nil {
		vs := make([]string, len(a.Values))
		copy(vs, a.Values)
		a.Values = vs
	}
	return a
}

// Equal reports whether a and b hold the same shape and values.
func (a Answer) Equal(b Answer) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case AnswerSingle:
		return a.Value == b.Value
	case AnswerMulti:
		if len(a.Values) != len(b.Values) {
			return false
		}
		for i := range a.Values {
			if a.Values[i] != b.Values[i] {
				return false
			}
		}
	}
	return true
}

func (a Answer) String() string {
	switch a.Kind {
	case AnswerSingle:
		return a.Value
	case AnswerMulti:
		return fmt.Sprint(a.Values)
	}
	return "<skipped>"
}

// MarshalJSON encodes the answer as a string, an array of strings or null.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerSingle:
		return json.Marshal(a.Value)
	case AnswerMulti:
		if a.Values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.Values)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts a string, an array of strings or null.
func (a *Answer) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = Skipped()
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*a = Single(s)
		return nil
	case '[':
		var vs []string
		if err := json.Unmarshal(trimmed, &vs); err != nil {
			return err
		}
		*a = Multi(vs...)
		return nil
	}
	return fmt.Errorf("answer: unsupported JSON value %s", string(trimmed))
}

// MarshalYAML mirrors MarshalJSON for YAML exports.
func (a Answer) MarshalYAML() (any, error) {
	switch a.Kind {
	case AnswerSingle:
		return a.Value, nil
	case AnswerMulti:
		if a.Values == nil {
			return []string{}, nil
		}
		return a.Values, nil
	}
	return nil, nil
}

// Answers maps question ids to their recorded answers.
type Answers map[string]Answer

// Get returns the answer for id and whether one was recorded.
func (as Answers) Get(id string) (Answer, bool) {
	a, ok := as[id]
	return a, ok
}

// Clone returns a deep copy. A nil map clones to an empty map.
func (as Answers) Clone() Answers {
	out := make(Answers, len(as))
	for id, a := range as {
		out[id] = a.Clone()
	}
	return out
}

// Merge returns a copy of as with every entry of other written over it.
func (as Answers) Merge(other Answers) Answers {
	out := as.Clone()
	for id, a := range other {
		out[id] = a.Clone()
	}
	return out
}
