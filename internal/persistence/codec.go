package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/petrijr/surveyflow/pkg/api"
)

// Record is the persisted form of a session.
//
// CurrentQuestionIndex and History are nil on terminal records.
type Record struct {
	Version              string      `json:"version" yaml:"version"`
	Answers              api.Answers `json:"answers" yaml:"answers"`
	Timestamp            int64       `json:"timestamp" yaml:"timestamp"`
	IsCompleted          bool        `json:"isCompleted" yaml:"isCompleted"`
	CurrentQuestionIndex *int        `json:"currentQuestionIndex,omitempty" yaml:"currentQuestionIndex,omitempty"`
	History              []int       `json:"history,omitempty" yaml:"history,omitempty,flow"`
	SessionID            string      `json:"sessionId,omitempty" yaml:"sessionId,omitempty"`
}

// UpdatedAt returns Timestamp as a time.Time.
func (r Record) UpdatedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Position returns the stored question index, if any.
func (r Record) Position() (int, bool) {
	if r.CurrentQuestionIndex == nil {
		return 0, false
	}
	return *r.CurrentQuestionIndex, true
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	out.Answers = r.Answers.Clone()
	if r.CurrentQuestionIndex != nil {
		idx := *r.CurrentQuestionIndex
		out.CurrentQuestionIndex = &idx
	}
	if r.History != nil {
		out.History = append([]int(nil), r.History...)
	}
	return out
}

// IntPtr is a helper for filling CurrentQuestionIndex.
func IntPtr(v int) *int {
	return &v
}

var errMalformedRecord = errors.New("malformed session record")

// EncodeRecord serializes r as JSON.
func EncodeRecord(r Record) ([]byte, error) {
	if r.Answers == nil {
		r.Answers = api.Answers{}
	}
	return json.Marshal(r)
}

// EncodeRecordIndent serializes r as indented JSON for exports.
func EncodeRecordIndent(r Record) ([]byte, error) {
	if r.Answers == nil {
		r.Answers = api.Answers{}
	}
	return json.MarshalIndent(r, "", "  ")
}

// DecodeRecord parses data and checks the fields every record must carry.
func DecodeRecord(data []byte) (Record, error) {
	var raw struct {
		Version              *string      `json:"version"`
		Answers              *api.Answers `json:"answers"`
		Timestamp            *int64       `json:"timestamp"`
		IsCompleted          bool         `json:"isCompleted"`
		CurrentQuestionIndex *int         `json:"currentQuestionIndex"`
		History              []int        `json:"history"`
		SessionID            string       `json:"sessionId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, fmt.Errorf("%w: %v", errMalformedRecord, err)
	}
	if raw.Version == nil {
		return Record{}, fmt.Errorf("%w: missing version", errMalformedRecord)
	}
	if raw.Answers == nil {
		return Record{}, fmt.Errorf("%w: missing answers", errMalformedRecord)
	}
	if raw.CurrentQuestionIndex != nil && *raw.CurrentQuestionIndex < 0 {
		return Record{}, fmt.Errorf("%w: negative question index", errMalformedRecord)
	}

	r := Record{
		Version:              *raw.Version,
		Answers:              *raw.Answers,
		IsCompleted:          raw.IsCompleted,
		CurrentQuestionIndex: raw.CurrentQuestionIndex,
		History:              raw.History,
		SessionID:            raw.SessionID,
	}
	if raw.Timestamp != nil {
		r.Timestamp = *raw.Timestamp
	}
	return r, nil
}
