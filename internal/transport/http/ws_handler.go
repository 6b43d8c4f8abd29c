package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"study-session-service/internal/app"
	"study-session-service/internal/domain"
)

// BridgeFactory returns the assistant context of a user.
type BridgeFactory func(userID string) app.ContextBridge

// WSHandler drives one study session per websocket connection. Commands from
// a connection are handled one at a time, so navigation never overlaps a
// pending submission.
type WSHandler struct {
	service  *app.StudyService
	bridges  BridgeFactory
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.StudyService, bridges BridgeFactory, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		bridges: bridges,
		logger:  logger,
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

type answerPayload struct {
	ItemID string `json:"itemId"`
	Value  string `json:"value"`
}

type markPayload struct {
	ItemID  string `json:"itemId"`
	Correct bool   `json:"correct"`
}

type incompletePayload struct {
	Missing int `json:"missing"`
	Total   int `json:"total"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into a study session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	collectionID := r.URL.Query().Get("collectionId")
	userID := r.URL.Query().Get("userId")
	if collectionID == "" || userID == "" {
		http.Error(w, "missing collectionId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	session, err := h.service.Open(r.Context(), collectionID)
	if err != nil {
		if !errors.Is(err, domain.ErrLoadAbandoned) {
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		}
		return
	}
	defer h.service.Close(session.ID())

	completions, cancel := session.Subscribe()
	defer cancel()

	out := newOutbox(16)
	closeSignals := make(chan struct{})
	forwardDone := make(chan struct{})

	go func() {
		defer close(out.done)
		for msg := range out.ch {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Warn("ws write error", "session", session.ID(), "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(forwardDone)
		for {
			select {
			case c, ok := <-completions:
				if !ok || !out.push(outboundMessage[any]{Type: "completed", Payload: c}) {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	toast := app.NotifierFunc(func(t domain.Toast) {
		out.push(outboundMessage[any]{Type: "toast", Payload: t})
	})
	sharer := app.NewSharer(h.bridges(userID), toast, h.logger)

	out.push(outboundMessage[any]{Type: "opened", Payload: session.Snapshot()})

	ctx := r.Context()
	for out.alive() {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}

		var cmdErr error
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				out.push(errorMessage("invalid answer payload"))
				continue
			}
			_, cmdErr = session.RecordAnswer(payload.ItemID, payload.Value)
		case "mark":
			var payload markPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				out.push(errorMessage("invalid mark payload"))
				continue
			}
			_, cmdErr = session.MarkFlashcard(payload.ItemID, payload.Correct)
		case "next":
			if _, err := session.Next(ctx); err != nil {
				cmdErr = err
			}
		case "prev":
			cmdErr = session.Prev()
		case "submit":
			_, cmdErr = h.service.Submit(ctx, session)
		case "restart":
			cmdErr = session.Restart()
		case "shareItem":
			// the sharer reports its own outcome as a toast
			_ = sharer.ShareCurrentItem(ctx, session)
			continue
		case "shareCollection":
			_ = sharer.ShareWholeCollection(ctx, session)
			continue
		default:
			out.push(errorMessage("unsupported message type"))
			continue
		}

		var incomplete *domain.IncompleteSubmissionError
		switch {
		case cmdErr == nil, errors.Is(cmdErr, domain.ErrAlreadyAnswered):
		case errors.As(cmdErr, &incomplete):
			out.push(outboundMessage[any]{Type: "incomplete", Payload: incompletePayload{Missing: incomplete.Missing, Total: incomplete.Total}})
			toast.Notify(domain.Toast{Kind: domain.ToastError, Message: fmt.Sprintf("%d of %d items still need an answer", incomplete.Missing, incomplete.Total)})
		case errors.Is(cmdErr, domain.ErrSubmissionFailure):
			toast.Notify(domain.Toast{Kind: domain.ToastError, Message: "Could not submit your answers, please try again"})
		default:
			out.push(errorMessage(cmdErr.Error()))
			continue
		}
		out.push(outboundMessage[any]{Type: "state", Payload: session.Snapshot()})
	}

	close(closeSignals)
	<-forwardDone
	close(out.ch)
	<-out.done
}

// outbox queues messages for the connection's writer. Once the writer has
// stopped, push drops messages instead of blocking.
type outbox struct {
	ch   chan outboundMessage[any]
	done chan struct{}
}

func newOutbox(size int) *outbox {
	return &outbox{ch: make(chan outboundMessage[any], size), done: make(chan struct{})}
}

func (o *outbox) push(msg outboundMessage[any]) bool {
	select {
	case <-o.done:
		return false
	default:
	}
	select {
	case o.ch <- msg:
		return true
	case <-o.done:
		return false
	}
}

func (o *outbox) alive() bool {
	select {
	case <-o.done:
		return false
	default:
		return true
	}
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}
