package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"study-session-service/internal/app"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)
	session, err := app.NewSession("s-1", sampleCollection(), app.QuizPolicy())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	store.Put(session)
	if got, _ := mr.Get("study:session:s-1"); got != "quiz-1" {
		t.Fatalf("expected liveness key naming the collection, got %q", got)
	}
	if _, ok := store.Get("s-1"); !ok {
		t.Fatalf("expected session present")
	}

	store.Delete("s-1")
	if mr.Exists("study:session:s-1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("s-1"); ok {
		t.Fatalf("expected session removed")
	}
}
