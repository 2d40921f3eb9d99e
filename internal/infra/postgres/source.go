package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"mechedu-quiz-service/internal/catalog"
	"mechedu-quiz-service/internal/domain"
	"mechedu-quiz-service/internal/logger"
)

// Source reads the quiz catalog from the quizzes and questions tables.
// Question rows are normalized on the way out; malformed rows are logged and dropped.
type Source struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func NewSource(pool *pgxpool.Pool, log *logger.Logger) *Source {
	if log == nil {
		log = logger.Nop()
	}
	return &Source{pool: pool, log: log}
}

const quizColumns = `id, title, description, process, available`

func (s *Source) QuizList(ctx context.Context) ([]domain.QuizDefinition, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+quizColumns+` FROM quizzes ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []domain.QuizDefinition
	for rows.Next() {
		var q domain.QuizDefinition
		if err := rows.Scan(&q.ID, &q.Title, &q.Description, &q.Process, &q.Available); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quizzes = append(quizzes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

// QuizMetadata prefers an exact id match over a case-insensitive title match.
func (s *Source) QuizMetadata(ctx context.Context, titleOrID string) (domain.QuizDefinition, error) {
	var q domain.QuizDefinition
	err := s.pool.QueryRow(ctx,
		`SELECT `+quizColumns+` FROM quizzes
		 WHERE id = $1 OR lower(title) = lower($1)
		 ORDER BY (id = $1) DESC
		 LIMIT 1`, titleOrID).
		Scan(&q.ID, &q.Title, &q.Description, &q.Process, &q.Available)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizDefinition{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizDefinition{}, fmt.Errorf("load quiz %q: %w", titleOrID, err)
	}
	return q, nil
}

// Questions returns the usable questions of quizID at level. No rows yields an empty set;
// rows that are all malformed yield an error wrapping domain.ErrNoQuestions.
func (s *Source) Questions(ctx context.Context, quizID string, level domain.Level) ([]domain.Question, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quizzes WHERE id = $1)`, quizID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check quiz %q: %w", quizID, err)
	}
	if !exists {
		return nil, domain.ErrQuizNotFound
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, quiz_id, question_text, options, correct_option, explanation, level
		 FROM questions
		 WHERE quiz_id = $1 AND lower(level) = $2
		 ORDER BY position, id`, quizID, string(level))
	if err != nil {
		return nil, fmt.Errorf("load questions %s/%s: %w", quizID, level, err)
	}
	defer rows.Close()

	var raws []catalog.RawQuestion
	for rows.Next() {
		raw, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions %s/%s: %w", quizID, level, err)
	}

	questions, errs := catalog.NormalizeAll(raws)
	for _, e := range errs {
		s.log.Warn("dropping malformed question", "quiz", quizID, "level", level, "error", e)
	}
	if len(raws) > 0 && len(questions) == 0 {
		return nil, fmt.Errorf("questions %s/%s: %w", quizID, level, errors.Join(domain.ErrNoQuestions, errs[0]))
	}
	return questions, nil
}

func scanQuestion(rows pgx.Rows) (catalog.RawQuestion, error) {
	var (
		raw         catalog.RawQuestion
		options     []byte
		correct     sql.NullInt32
		explanation sql.NullString
	)
	if err := rows.Scan(&raw.ID, &raw.QuizID, &raw.QuestionText, &options, &correct, &explanation, &raw.Level); err != nil {
		return catalog.RawQuestion{}, fmt.Errorf("scan question: %w", err)
	}
	raw.Options = options
	if correct.Valid {
		idx := int(correct.Int32)
		raw.CorrectOption = &idx
	}
	raw.Explanation = explanation.String
	return raw, nil
}
