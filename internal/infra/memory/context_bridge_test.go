package memory

import (
	"context"
	"testing"

	"study-session-service/internal/domain"
)

func TestContextBridgeIdempotent(t *testing.T) {
	ctx := context.Background()
	b := NewContextBridges().For("u1")

	created, _ := b.EnsureActiveConversation(ctx)
	if !created {
		t.Fatalf("expected first call to create a conversation")
	}
	created, _ = b.EnsureActiveConversation(ctx)
	if created {
		t.Fatalf("expected existing conversation to be reused")
	}

	m := domain.Material{ID: "quiz:quiz-1", DisplayName: "Arithmetic", Kind: "quiz", SourceCollectionID: "quiz-1"}
	if added, _ := b.AddMaterial(ctx, m); !added {
		t.Fatalf("expected material added")
	}
	if added, _ := b.AddMaterial(ctx, m); added {
		t.Fatalf("expected duplicate material rejected")
	}
	if st := b.State(); len(st.Materials) != 1 || len(st.Conversations) != 1 {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestContextBridgesPerUser(t *testing.T) {
	bridges := NewContextBridges()
	if bridges.For("u1") != bridges.For("u1") {
		t.Fatalf("expected same bridge for the same user")
	}
	if bridges.For("u1") == bridges.For("u2") {
		t.Fatalf("expected separate bridges per user")
	}
}
