package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnswer_Contains(t *testing.T) {
	require.True(t, Single("console").Contains("console"))
	require.False(t, Single("pc").Contains("console"))
	require.True(t, Multi("pc", "console").Contains("console"))
	require.False(t, Multi("pc", "mobile").Contains("console"))
	require.False(t, Skipped().Contains("console"))
	require.False(t, Answer{}.Contains(""))
}

func TestMulti_DropsDuplicates(t *testing.T) {
	a := Multi("pc", "console", "pc")
	require.Equal(t, []string{"pc", "console"}, a.Values)
	require.Equal(t, 2, a.Len())
}

func TestAnswers_JSONShapes(t *testing.T) {
	in := Answers{
		"platform_preference": Multi("pc", "console"),
		"difficulty":          Single("easy"),
		"budget":              Skipped(),
		"avoid_genre":         Multi(),
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"platform_preference": ["pc", "console"],
		"difficulty": "easy",
		"budget": null,
		"avoid_genre": []
	}`, string(data))

	var out Answers
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out, 4)
	for id, want := range in {
		require.Truef(t, want.Equal(out[id]), "answer %s: want %v, got %v", id, want, out[id])
	}
}

func TestAnswer_UnmarshalRejectsNumbers(t *testing.T) {
	var a Answer
	require.Error(t, json.Unmarshal([]byte(`42`), &a))
}

func TestAnswers_MergeDoesNotAlias(t *testing.T) {
	base := Answers{"a": Multi("x")}
	merged := base.Merge(Answers{"b": Single("y")})

	merged["a"].Values[0] = "changed"
	require.Equal(t, "x", base["a"].Values[0])
	require.Len(t, base, 1)
	require.Len(t, merged, 2)
}

func TestSessionState_CurrentQuestionID(t *testing.T) {
	s := SessionState{ActiveQuestionIDs: []string{"a", "b"}, Position: 1}
	id, ok := s.CurrentQuestionID()
	require.True(t, ok)
	require.Equal(t, "b", id)

	s.Position = 2
	s.Completed = true
	_, ok = s.CurrentQuestionID()
	require.False(t, ok)
}
