package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"mechedu-quiz-service/internal/domain"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID          string `bun:"id,pk"`
	Title       string `bun:"title,notnull"`
	Description string `bun:"description"`
	Process     string `bun:"process"`
	Available   bool   `bun:"available"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID            string   `bun:"id,pk"`
	QuizID        string   `bun:"quiz_id,notnull"`
	Position      int      `bun:"position"`
	QuestionText  string   `bun:"question_text,notnull"`
	Options       []string `bun:"options,type:jsonb"`
	CorrectOption int      `bun:"correct_option"`
	Explanation   string   `bun:"explanation"`
	Level         string   `bun:"level,notnull"`
}

// Seed upserts quizzes and their questions in one transaction. Rows already present are
// overwritten by id; rows not in the input are left alone.
func Seed(ctx context.Context, db *bun.DB, quizzes []domain.QuizDefinition, questions map[string][]domain.Question) (int, error) {
	quizRows := make([]quizRow, 0, len(quizzes))
	var questionRows []questionRow
	for _, q := range quizzes {
		quizRows = append(quizRows, quizRow{
			ID:          q.ID,
			Title:       q.Title,
			Description: q.Description,
			Process:     q.Process,
			Available:   q.Available,
		})
		for i, question := range questions[q.ID] {
			questionRows = append(questionRows, questionRow{
				ID:            question.ID,
				QuizID:        q.ID,
				Position:      i,
				QuestionText:  question.Prompt,
				Options:       question.Options,
				CorrectOption: question.CorrectOption,
				Explanation:   question.Explanation,
				Level:         string(question.Level),
			})
		}
	}
	if len(quizRows) == 0 {
		return 0, nil
	}

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().
			Model(&quizRows).
			On("CONFLICT (id) DO UPDATE").
			Set("title = EXCLUDED.title").
			Set("description = EXCLUDED.description").
			Set("process = EXCLUDED.process").
			Set("available = EXCLUDED.available").
			Exec(ctx); err != nil {
			return fmt.Errorf("insert quizzes: %w", err)
		}
		if len(questionRows) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().
			Model(&questionRows).
			On("CONFLICT (id) DO UPDATE").
			Set("quiz_id = EXCLUDED.quiz_id").
			Set("position = EXCLUDED.position").
			Set("question_text = EXCLUDED.question_text").
			Set("options = EXCLUDED.options").
			Set("correct_option = EXCLUDED.correct_option").
			Set("explanation = EXCLUDED.explanation").
			Set("level = EXCLUDED.level").
			Exec(ctx); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(questionRows), nil
}
