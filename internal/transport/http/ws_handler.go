package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"mechedu-quiz-service/internal/app"
	"mechedu-quiz-service/internal/domain"
	"mechedu-quiz-service/internal/logger"
)

// Message types exchanged over the quiz socket.
const (
	msgSelectLevel  = "selectLevel"
	msgSelectAnswer = "selectAnswer"
	msgConfirm      = "confirm"
	msgReset        = "reset"
	msgRetry        = "retry"

	msgState     = "state"
	msgCompleted = "completed"
	msgError     = "error"
)

type WSHandler struct {
	service  *app.QuizService
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, log *logger.Logger) *WSHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type levelPayload struct {
	Level string `json:"level"`
}

type answerPayload struct {
	Index *int `json:"index"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS runs one quiz attempt per connection: ?quizId=<id or title>&level=<level>.
// Every state change is pushed as a "state" message; recorded results follow as "completed".
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	level := domain.LevelBasic
	if raw := r.URL.Query().Get("level"); raw != "" {
		parsed, err := domain.ParseLevel(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		level = parsed
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// push never blocks past connection teardown; send is never closed.
	push := func(msg outboundMessage) {
		select {
		case send <- msg:
		case <-closeSignals:
		}
	}

	session, err := h.service.OpenSession(r.Context(), quizID, level, func(outcome app.CompletionOutcome) {
		push(outboundMessage{Type: msgCompleted, Payload: outcome})
	})
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: msgError, Payload: errorPayload{Message: domain.UserMessage(err)}})
		return
	}
	defer h.service.CloseSession(session.ID())
	log := h.log.With("session", session.ID())

	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-send:
				if err := conn.WriteJSON(msg); err != nil {
					log.Debug("ws write error", "error", err)
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	updates, unsubscribe := session.Subscribe()
	defer unsubscribe()
	go func() {
		defer close(updatesDone)
		for {
			select {
			case view, ok := <-updates:
				if !ok {
					return
				}
				push(outboundMessage{Type: msgState, Payload: view})
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.service.TouchSession(session.ID())
		if msg := h.dispatch(session, inbound); msg != "" {
			push(outboundMessage{Type: msgError, Payload: errorPayload{Message: msg}})
		}
	}

	close(closeSignals)
	<-updatesDone
	<-writerDone
}

// dispatch applies one inbound message and returns an error text for the client, if any.
// Actions the session rejects in its current phase are dropped without an error.
func (h *WSHandler) dispatch(session *app.Session, inbound inboundMessage) string {
	var accepted bool
	switch inbound.Type {
	case msgSelectLevel:
		var payload levelPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return "invalid selectLevel payload"
		}
		level, err := domain.ParseLevel(payload.Level)
		if err != nil {
			return domain.UserMessage(err)
		}
		session.SelectLevel(level)
		accepted = true
	case msgSelectAnswer:
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Index == nil {
			return "invalid selectAnswer payload"
		}
		accepted = session.SelectAnswer(*payload.Index)
	case msgConfirm:
		accepted = session.ConfirmAnswer()
	case msgReset:
		accepted = session.Reset()
	case msgRetry:
		accepted = session.Retry()
	default:
		return "unsupported message type"
	}
	if !accepted {
		h.log.Debug("ignoring action", "session", session.ID(), "type", inbound.Type, "phase", session.View().Phase)
	}
	return ""
}
