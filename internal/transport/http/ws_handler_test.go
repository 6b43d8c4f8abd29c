package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"study-session-service/internal/app"
	"study-session-service/internal/domain"
	"study-session-service/internal/infra/memory"
)

func TestWebSocketQuizFlow(t *testing.T) {
	server, _ := newTestServer(t)
	defer server.Close()

	conn := dial(t, server, "quiz-1")
	defer conn.Close()

	msgType, payload := readNext(conn, t, "opened")
	if payload["total"].(float64) != 2 {
		t.Fatalf("expected 2 items, got %v", payload["total"])
	}
	if msgType != "opened" {
		t.Fatalf("expected opened, got %s", msgType)
	}

	// advancing an unanswered question is refused
	send(t, conn, "next", nil)
	readNext(conn, t, "error")

	send(t, conn, "answer", map[string]any{"itemId": "q1", "value": "4"})
	_, state := readNext(conn, t, "state")
	if state["correct"].(float64) != 1 {
		t.Fatalf("expected one correct answer, got %v", state["correct"])
	}

	// second answer to a revealed item is ignored
	send(t, conn, "answer", map[string]any{"itemId": "q1", "value": "3"})
	_, state = readNext(conn, t, "state")
	if state["correct"].(float64) != 1 || state["answered"].(float64) != 1 {
		t.Fatalf("expected unchanged record, got %v", state)
	}

	send(t, conn, "submit", nil)
	_, incomplete := readNext(conn, t, "incomplete")
	if incomplete["missing"].(float64) != 1 {
		t.Fatalf("expected 1 missing, got %v", incomplete["missing"])
	}
	readNext(conn, t, "toast")
	readNext(conn, t, "state")

	send(t, conn, "next", nil)
	readNext(conn, t, "state")
	send(t, conn, "answer", map[string]any{"itemId": "q2", "value": "9"})
	readNext(conn, t, "state")
	send(t, conn, "next", nil)

	completedSeen, finishedSeen := false, false
	for i := 0; i < 2; i++ {
		typ, payload := readNext(conn, t, "")
		switch typ {
		case "completed":
			completedSeen = true
			if payload["celebrate"] != true {
				t.Fatalf("expected celebration for 100%%, got %v", payload)
			}
		case "state":
			finishedSeen = payload["finished"] == true
		}
	}
	if !completedSeen || !finishedSeen {
		t.Fatalf("expected completed and finished state, got completed=%v finished=%v", completedSeen, finishedSeen)
	}
}

func TestWebSocketShareCollection(t *testing.T) {
	server, bridges := newTestServer(t)
	defer server.Close()

	conn := dial(t, server, "deck-1")
	defer conn.Close()
	readNext(conn, t, "opened")

	send(t, conn, "shareCollection", nil)
	_, first := readNext(conn, t, "toast")
	send(t, conn, "shareCollection", nil)
	_, second := readNext(conn, t, "toast")
	if first["message"] == second["message"] {
		t.Fatalf("expected added then already-added toasts, got %v twice", first["message"])
	}

	st := bridges.For("u1").State()
	if len(st.Materials) != 1 || len(st.Conversations) != 1 || !st.PanelOpen {
		t.Fatalf("unexpected bridge state %+v", st)
	}
}

func TestWebSocketUnknownCollection(t *testing.T) {
	server, _ := newTestServer(t)
	defer server.Close()

	conn := dial(t, server, "missing")
	defer conn.Close()
	readNext(conn, t, "error")
}

func TestRESTRoutes(t *testing.T) {
	server, _ := newTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL + "/collections/deck-1")
	if err != nil {
		t.Fatalf("get collection: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var c domain.Collection
	if err := json.NewDecoder(resp.Body).Decode(&c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.Name != "Capitals" || len(c.Items) != 3 {
		t.Fatalf("unexpected collection %+v", c)
	}

	for _, path := range []string{"/collections/missing", "/sessions/missing"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404 for %s, got %d", path, resp.StatusCode)
		}
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *memory.ContextBridges) {
	t.Helper()
	loader := memory.NewStaticCollectionLoader(sampleCollections())
	store := memory.NewSessionStore()
	repo := memory.NewCollectionRepository(loader, time.Minute)
	policy := app.QuizPolicy()
	policy.Shuffle = false
	service := app.NewStudyService(store, repo, memory.NewSubmissionSink(loader), app.WithPolicy(domain.KindQuestion, policy))

	bridges := memory.NewContextBridges()
	ws := NewWSHandler(service, func(userID string) app.ContextBridge { return bridges.For(userID) }, nil)
	return httptest.NewServer(NewRouter(service, ws, nil)), bridges
}

func dial(t *testing.T, server *httptest.Server, collectionID string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?collectionId=" + collectionID + "&userId=u1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}

func sampleCollections() map[string]domain.Collection {
	return map[string]domain.Collection{
		"quiz-1": {
			ID:   "quiz-1",
			Name: "Arithmetic",
			Kind: domain.KindQuestion,
			Items: []domain.Item{
				domain.NewQuestion("q1", "What is 2 + 2?", "4", "3", "4", "5"),
				domain.NewQuestion("q2", "What is 3 * 3?", "9", "6", "9"),
			},
		},
		"deck-1": {
			ID:   "deck-1",
			Name: "Capitals",
			Kind: domain.KindFlashcard,
			Items: []domain.Item{
				domain.NewFlashcard("c1", "France", "Paris"),
				domain.NewFlashcard("c2", "Japan", "Tokyo"),
				domain.NewFlashcard("c3", "Kenya", "Nairobi"),
			},
		},
	}
}

func TestOutboxDropsAfterWriterStops(t *testing.T) {
	out := newOutbox(2)
	if !out.push(errorMessage("first")) || !out.alive() {
		t.Fatalf("expected push to succeed while writer runs")
	}
	close(out.done)

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		// more messages than the buffer holds, as a burst of toasts would be
		for i := 0; i < 20; i++ {
			if out.push(errorMessage("late")) {
				t.Errorf("push %d succeeded after writer stopped", i)
			}
		}
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatalf("push blocked after writer stopped")
	}
	if out.alive() {
		t.Fatalf("expected outbox to report the writer gone")
	}
}
