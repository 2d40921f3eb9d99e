package catalog

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mechedu-quiz-service/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestNormalizeAcceptsArrayAndEncodedString(t *testing.T) {
	asArray := RawQuestion{
		ID: "q1", QuestionText: "Cutting speed unit?", Options: json.RawMessage(`["rpm","m/min"]`),
		CorrectOption: intPtr(1), Explanation: "surface speed", Level: "Basic",
	}
	asString := asArray
	asString.Options = json.RawMessage(`"[\"rpm\",\"m/min\"]"`)

	for _, raw := range []RawQuestion{asArray, asString} {
		q, err := Normalize(raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"rpm", "m/min"}, q.Options)
		assert.Equal(t, 1, q.CorrectOption)
		assert.Equal(t, domain.LevelBasic, q.Level)
		assert.Equal(t, "Cutting speed unit?", q.Prompt)
	}
}

func TestNormalizeRejectsMalformedRecords(t *testing.T) {
	base := RawQuestion{
		ID: "q1", QuestionText: "?", Options: json.RawMessage(`["a","b"]`),
		CorrectOption: intPtr(0), Level: "basic",
	}
	cases := map[string]func(r *RawQuestion){
		"missing text":       func(r *RawQuestion) { r.QuestionText = "" },
		"missing correct":    func(r *RawQuestion) { r.CorrectOption = nil },
		"negative correct":   func(r *RawQuestion) { r.CorrectOption = intPtr(-1) },
		"index out of range": func(r *RawQuestion) { r.CorrectOption = intPtr(2) },
		"options object":     func(r *RawQuestion) { r.Options = json.RawMessage(`{"a":1}`) },
		"options garbage":    func(r *RawQuestion) { r.Options = json.RawMessage(`"not json"`) },
		"options null":       func(r *RawQuestion) { r.Options = json.RawMessage(`null`) },
		"single option":      func(r *RawQuestion) { r.Options = json.RawMessage(`["a"]`) },
		"unknown level":      func(r *RawQuestion) { r.Level = "expert" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			raw := base
			mutate(&raw)
			_, err := Normalize(raw)
			var malformed *domain.MalformedQuestionError
			require.True(t, errors.As(err, &malformed), "got %v", err)
			assert.Equal(t, "q1", malformed.QuestionID)
		})
	}
}

func TestNormalizeAllKeepsGoodRecords(t *testing.T) {
	raws := []RawQuestion{
		{ID: "ok", QuestionText: "?", Options: json.RawMessage(`["a","b"]`), CorrectOption: intPtr(1), Level: "advanced"},
		{ID: "bad", QuestionText: "?", Options: json.RawMessage(`["a","b"]`), CorrectOption: intPtr(5), Level: "advanced"},
	}
	questions, errs := NormalizeAll(raws)
	require.Len(t, questions, 1)
	assert.Equal(t, "ok", questions[0].ID)
	assert.Len(t, errs, 1)
}

func TestMergeByIDPrefersPrimary(t *testing.T) {
	primary := []domain.QuizDefinition{{ID: "turning", Title: "Remote turning"}}
	fallback := []domain.QuizDefinition{{ID: "turning", Title: "Static turning"}, {ID: "gears"}}

	merged := MergeByID(primary, fallback)
	require.Len(t, merged, 2)
	assert.Equal(t, "Remote turning", merged[0].Title)
	assert.Equal(t, []string{"turning", "gears"}, IDs(merged))
}

func TestFindQuizByTitle(t *testing.T) {
	quizzes := []domain.QuizDefinition{{ID: "gears", Title: "Gear Design"}}
	q, ok := FindQuiz(quizzes, "gear design")
	require.True(t, ok)
	assert.Equal(t, "gears", q.ID)
	_, ok = FindQuiz(quizzes, "welding")
	assert.False(t, ok)
}
