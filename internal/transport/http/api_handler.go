package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"mechedu-quiz-service/internal/app"
	"mechedu-quiz-service/internal/domain"
	"mechedu-quiz-service/internal/logger"
)

// APIHandler serves the read-only learner endpoints.
type APIHandler struct {
	service *app.QuizService
	log     *logger.Logger
}

func NewAPIHandler(service *app.QuizService, log *logger.Logger) *APIHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &APIHandler{service: service, log: log}
}

// Register mounts the endpoints on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/quizzes", h.listQuizzes)
	mux.HandleFunc("GET /api/quizzes/{quiz}", h.getQuiz)
	mux.HandleFunc("GET /api/progress", h.progress)
	mux.HandleFunc("GET /api/achievements", h.achievements)
	mux.HandleFunc("GET /api/activity", h.activity)
}

type quizSummary struct {
	domain.QuizDefinition
	Progress domain.ProgressEntry `json:"progress"`
}

type progressResponse struct {
	Quizzes   map[string]domain.ProgressEntry `json:"quizzes"`
	Completed int                             `json:"completed"`
	Total     int                             `json:"total"`
}

type activityResponse struct {
	Days   domain.ActivityLog `json:"days"`
	Streak int                `json:"streak"`
}

func (h *APIHandler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.ListQuizzes(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	snapshot := h.service.Tracker().Progress()
	out := make([]quizSummary, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, quizSummary{QuizDefinition: q, Progress: snapshot[q.ID]})
	}
	h.write(w, http.StatusOK, out)
}

func (h *APIHandler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.Quiz(r.Context(), r.PathValue("quiz"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.write(w, http.StatusOK, quizSummary{QuizDefinition: quiz, Progress: h.service.Tracker().Progress()[quiz.ID]})
}

func (h *APIHandler) progress(w http.ResponseWriter, _ *http.Request) {
	snapshot := h.service.Tracker().Progress()
	h.write(w, http.StatusOK, progressResponse{
		Quizzes:   snapshot,
		Completed: snapshot.CompletedCount(),
		Total:     len(snapshot),
	})
}

func (h *APIHandler) achievements(w http.ResponseWriter, _ *http.Request) {
	h.write(w, http.StatusOK, h.service.Tracker().Achievements())
}

func (h *APIHandler) activity(w http.ResponseWriter, _ *http.Request) {
	tracker := h.service.Tracker()
	h.write(w, http.StatusOK, activityResponse{Days: tracker.Activity(), Streak: tracker.Streak()})
}

func (h *APIHandler) fail(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, domain.ErrQuizNotFound) {
		status = http.StatusNotFound
	} else {
		h.log.Warn("api request failed", "error", err)
	}
	h.write(w, status, errorPayload{Message: domain.UserMessage(err)})
}

func (h *APIHandler) write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Debug("api response write failed", "error", err)
	}
}
