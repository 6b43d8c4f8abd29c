package memory

import (
	"context"
	"testing"

	"study-session-service/internal/app"
	"study-session-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	session, err := app.NewSession("s-1", sampleCollection(), app.QuizPolicy())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	store.Put(session)
	if got, ok := store.Get("s-1"); !ok || got != session {
		t.Fatalf("expected session present")
	}

	store.Delete("s-1")
	if _, ok := store.Get("s-1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSubmissionSinkGrades(t *testing.T) {
	sink := NewSubmissionSink(NewStaticCollectionLoader(map[string]domain.Collection{"quiz-1": sampleCollection()}))

	res, err := sink.Submit(context.Background(), "quiz-1", []domain.SubmittedAnswer{{ItemID: "q1", Answer: "3"}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.FinalScore != 0 || res.SubmissionID == "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(sink.Submissions("quiz-1")) != 1 {
		t.Fatalf("expected stored submission")
	}
}
