package http

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"litmus-quiz-service/internal/app"
	"litmus-quiz-service/internal/domain"
	"litmus-quiz-service/internal/infra/memory"
	"litmus-quiz-service/internal/lead"
)

func TestWebSocketQuizFlow(t *testing.T) {
	var webhookCalls atomic.Int32
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webhookCalls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer webhook.Close()

	service := newTestService(t, webhook.URL)
	server := httptest.NewServer(NewRouter(service))
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?sessionId=s1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Initial snapshot is the welcome step.
	state := waitForState(conn, t, string(domain.StepWelcome))
	if state["sessionId"] != "s1" {
		t.Fatalf("expected session id echoed, got %+v", state)
	}

	writeEvent(conn, t, "start", nil)
	state = waitForState(conn, t, string(domain.StepAsking))
	question, ok := state["question"].(map[string]any)
	if !ok || question["id"] != "q1" {
		t.Fatalf("expected first question, got %+v", state)
	}

	writeEvent(conn, t, "answer", map[string]any{"questionId": "q1", "value": 2})
	// Paced advance lands on q2 without skipping.
	for {
		state = waitForState(conn, t, string(domain.StepAsking))
		if q, ok := state["question"].(map[string]any); ok && q["id"] == "q2" {
			break
		}
	}

	writeEvent(conn, t, "answer", map[string]any{"questionId": "q2", "value": 1})
	state = waitForState(conn, t, string(domain.StepEmailCapture))
	if state["progress"] != float64(1) {
		t.Fatalf("expected clamped progress, got %+v", state)
	}

	writeEvent(conn, t, "setEmail", map[string]any{"email": "alice@example.com"})
	waitForState(conn, t, string(domain.StepEmailCapture))
	writeEvent(conn, t, "submitEmail", nil)

	state = waitForState(conn, t, string(domain.StepResult))
	if state["submissionStatus"] != string(domain.SubmissionSucceeded) {
		t.Fatalf("expected succeeded submission, got %+v", state)
	}
	if state["score"] != float64(3) {
		t.Fatalf("expected score 3, got %+v", state["score"])
	}
	tier, ok := state["tier"].(map[string]any)
	if !ok || tier["label"] == "" {
		t.Fatalf("expected a tier on the result, got %+v", state)
	}
	if state["bookingUrl"] != "https://example.com/book" {
		t.Fatalf("expected booking link on result, got %+v", state["bookingUrl"])
	}
	if webhookCalls.Load() != 1 {
		t.Fatalf("expected one webhook call, got %d", webhookCalls.Load())
	}
}

func TestWebSocketInvalidEmailStaysOnCapture(t *testing.T) {
	var webhookCalls atomic.Int32
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webhookCalls.Add(1)
	}))
	defer webhook.Close()

	service := newTestService(t, webhook.URL)
	server := httptest.NewServer(NewRouter(service))
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?sessionId=s2"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitForState(conn, t, string(domain.StepWelcome))
	writeEvent(conn, t, "start", nil)
	waitForState(conn, t, string(domain.StepAsking))
	writeEvent(conn, t, "answer", map[string]any{"questionId": "q1", "value": 0})
	for {
		state := waitForState(conn, t, string(domain.StepAsking))
		if q, ok := state["question"].(map[string]any); ok && q["id"] == "q2" {
			break
		}
	}
	writeEvent(conn, t, "answer", map[string]any{"questionId": "q2", "value": 0})
	waitForState(conn, t, string(domain.StepEmailCapture))

	writeEvent(conn, t, "setEmail", map[string]any{"email": "not-an-email"})
	waitForState(conn, t, string(domain.StepEmailCapture))
	writeEvent(conn, t, "submitEmail", nil)

	state := waitForState(conn, t, string(domain.StepEmailCapture))
	deadline := time.Now().Add(2 * time.Second)
	for state["emailError"] == nil || state["emailError"] == "" {
		if time.Now().After(deadline) {
			t.Fatalf("expected inline email error, got %+v", state)
		}
		state = waitForState(conn, t, string(domain.StepEmailCapture))
	}
	if webhookCalls.Load() != 0 {
		t.Fatalf("expected zero webhook calls on validation failure, got %d", webhookCalls.Load())
	}
}

func TestCatalogEndpoint(t *testing.T) {
	service := newTestService(t, "")
	server := httptest.NewServer(NewRouter(service))
	defer server.Close()

	resp, err := http.Get(server.URL + "/catalog")
	if err != nil {
		t.Fatalf("get catalog: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json content type, got %s", ct)
	}
}

func writeEvent(conn *websocket.Conn, t *testing.T, eventType string, payload map[string]any) {
	t.Helper()
	msg := map[string]any{"type": eventType}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", eventType, err)
	}
}

// waitForState reads frames until a state snapshot for the wanted step
// arrives; intermediate snapshots for other steps are skipped.
func waitForState(conn *websocket.Conn, t *testing.T, step string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(deadline)
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		if msg.Type == "error" {
			t.Fatalf("unexpected error frame: %+v", msg.Payload)
		}
		if msg.Type == "state" && msg.Payload["step"] == step {
			return msg.Payload
		}
	}
}

func newTestService(t *testing.T, webhookURL string) *app.QuizService {
	t.Helper()
	store := memory.NewSessionStore()
	catalogRepo := memory.NewCatalogRepository(memory.NewStaticCatalogLoader(map[string]domain.Catalog{
		"catalog-1": sampleCatalog(),
	}), time.Minute)
	submitter := lead.NewSubmitter(webhookURL)
	return app.NewQuizService(store, catalogRepo, submitter, "catalog-1", domain.DefaultTiers, 2*time.Millisecond, "https://example.com/book")
}

func sampleCatalog() domain.Catalog {
	options := []domain.Option{
		{Label: "Not yet", Value: 0},
		{Label: "Partly", Value: 1},
		{Label: "Fully", Value: 2},
	}
	return domain.Catalog{
		ID: "catalog-1",
		Questions: []domain.Question{
			{ID: "q1", Prompt: "1. Delegation", Options: options},
			{ID: "q2", Prompt: "2. Data", Options: options},
		},
	}
}
