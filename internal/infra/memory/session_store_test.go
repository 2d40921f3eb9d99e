package memory

import (
	"context"
	"testing"

	"mechedu-quiz-service/internal/app"
	"mechedu-quiz-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	content := DefaultContent()

	session := app.NewSession(content.Quizzes[0], NewStaticSource(content))
	defer session.Close()

	store.Put(session)
	if _, ok := store.Get(session.ID()); !ok {
		t.Fatalf("expected session present")
	}
	if store.Count() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Count())
	}

	store.Delete(session.ID())
	if _, ok := store.Get(session.ID()); ok {
		t.Fatalf("expected session removed")
	}
}

func TestStaticSourceFiltersByLevel(t *testing.T) {
	source := NewStaticSource(DefaultContent())

	questions, err := source.Questions(context.Background(), "turning", domain.LevelBasic)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != 5 {
		t.Fatalf("expected 5 basic turning questions, got %d", len(questions))
	}
	for _, q := range questions {
		if q.Level != domain.LevelBasic || !q.Valid() {
			t.Fatalf("unexpected question %+v", q)
		}
	}

	if _, err := source.Questions(context.Background(), "welding", domain.LevelBasic); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}

	quiz, err := source.QuizMetadata(context.Background(), "gear design")
	if err != nil || quiz.ID != "gears" {
		t.Fatalf("expected lookup by title, got %+v %v", quiz, err)
	}
}

func TestDefaultContentIsValid(t *testing.T) {
	content := DefaultContent()
	for _, quiz := range content.Quizzes {
		for _, q := range content.Questions[quiz.ID] {
			if !q.Valid() {
				t.Fatalf("invalid question %s", q.ID)
			}
		}
	}
}
