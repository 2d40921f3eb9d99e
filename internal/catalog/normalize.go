package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"mechedu-quiz-service/internal/domain"
)

// RawQuestion is a question row as stored remotely. Options arrive either as a JSON array
// or as a string holding a JSON-encoded array.
type RawQuestion struct {
	ID            string          `json:"id" validate:"required"`
	QuizID        string          `json:"quiz_id"`
	QuestionText  string          `json:"question_text" validate:"required"`
	Options       json.RawMessage `json:"options" validate:"required"`
	CorrectOption *int            `json:"correct_option" validate:"required,gte=0"`
	Explanation   string          `json:"explanation"`
	Level         string          `json:"level" validate:"required"`
}

var validate = validator.New()

// Normalize converts a raw record into a validated Question or a *domain.MalformedQuestionError.
func Normalize(raw RawQuestion) (domain.Question, error) {
	if err := validate.Struct(raw); err != nil {
		return domain.Question{}, malformed(raw.ID, describe(err))
	}
	options, err := decodeOptions(raw.Options)
	if err != nil {
		return domain.Question{}, malformed(raw.ID, err.Error())
	}
	level, err := domain.ParseLevel(raw.Level)
	if err != nil {
		return domain.Question{}, malformed(raw.ID, err.Error())
	}
	q := domain.Question{
		ID:            raw.ID,
		Prompt:        raw.QuestionText,
		Options:       options,
		CorrectOption: *raw.CorrectOption,
		Explanation:   raw.Explanation,
		Level:         level,
	}
	if !q.Valid() {
		return domain.Question{}, malformed(raw.ID, fmt.Sprintf("correct_option %d out of range for %d options", q.CorrectOption, len(q.Options)))
	}
	return q, nil
}

// NormalizeAll keeps the records that normalize and returns the errors of the rest.
func NormalizeAll(raws []RawQuestion) ([]domain.Question, []error) {
	questions := make([]domain.Question, 0, len(raws))
	var errs []error
	for _, raw := range raws {
		q, err := Normalize(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		questions = append(questions, q)
	}
	return questions, errs
}

func decodeOptions(data json.RawMessage) ([]string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, errors.New("options missing")
	}
	if data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return nil, fmt.Errorf("options: %w", err)
		}
		data = []byte(encoded)
	}
	var options []string
	if err := json.Unmarshal(data, &options); err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}
	return options, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}

func malformed(id, reason string) error {
	return &domain.MalformedQuestionError{QuestionID: id, Reason: reason}
}
