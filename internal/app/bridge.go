package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"study-session-service/internal/domain"
)

// ContextBridge is the assistant subsystem that study sessions can push
// content into. Implementations must make OpenPanel, EnsureActiveConversation
// and AddMaterial idempotent.
type ContextBridge interface {
	SetPendingInput(ctx context.Context, text string) error
	OpenPanel(ctx context.Context) error
	// EnsureActiveConversation reports whether a new conversation was created.
	EnsureActiveConversation(ctx context.Context) (bool, error)
	// AddMaterial reports whether the material was newly added.
	AddMaterial(ctx context.Context, material domain.Material) (bool, error)
}

// Notifier delivers user-facing toasts.
type Notifier interface {
	Notify(toast domain.Toast)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(domain.Toast)

func (f NotifierFunc) Notify(t domain.Toast) { f(t) }

// Sharer pushes session content into the assistant. Every call ends with
// exactly one toast.
type Sharer struct {
	bridge   ContextBridge
	notifier Notifier
	logger   *slog.Logger
}

func NewSharer(bridge ContextBridge, notifier Notifier, logger *slog.Logger) *Sharer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sharer{bridge: bridge, notifier: notifier, logger: logger}
}

// ShareCurrentItem formats the item at the cursor and sets it as the
// assistant's pending input.
func (s *Sharer) ShareCurrentItem(ctx context.Context, session *Session) error {
	view, ok := session.Current()
	if !ok {
		s.fail("Nothing to share yet")
		return domain.ErrItemNotFound
	}
	if err := s.prepare(ctx); err != nil {
		s.logger.Error("share item failed", "session", session.ID(), "error", err)
		s.fail("Could not open the assistant")
		return err
	}
	if err := s.bridge.SetPendingInput(ctx, FormatItem(view.Item)); err != nil {
		s.logger.Error("set pending input failed", "session", session.ID(), "error", err)
		s.fail("Could not send the item to the assistant")
		return err
	}
	s.notifier.Notify(domain.Toast{Kind: domain.ToastSuccess, Message: "Added to chat input", Icon: "💬"})
	return nil
}

// ShareWholeCollection registers the session's collection as assistant
// context and reports whether it was already there.
func (s *Sharer) ShareWholeCollection(ctx context.Context, session *Session) error {
	material := session.Material()
	if err := s.prepare(ctx); err != nil {
		s.logger.Error("share collection failed", "session", session.ID(), "error", err)
		s.fail("Could not open the assistant")
		return err
	}
	added, err := s.bridge.AddMaterial(ctx, material)
	if err != nil {
		s.logger.Error("add material failed", "material", material.ID, "error", err)
		s.fail("Could not add " + material.DisplayName + " to chat context")
		return err
	}
	if added {
		s.notifier.Notify(domain.Toast{Kind: domain.ToastSuccess, Message: "Added " + material.DisplayName + " to chat context", Icon: "📎"})
	} else {
		s.notifier.Notify(domain.Toast{Kind: domain.ToastSuccess, Message: material.DisplayName + " is already in chat context", Icon: "📎"})
	}
	return nil
}

func (s *Sharer) prepare(ctx context.Context) error {
	if err := s.bridge.OpenPanel(ctx); err != nil {
		return fmt.Errorf("open panel: %w", err)
	}
	created, err := s.bridge.EnsureActiveConversation(ctx)
	if err != nil {
		return fmt.Errorf("ensure conversation: %w", err)
	}
	if created {
		s.logger.Debug("started assistant conversation")
	}
	return nil
}

func (s *Sharer) fail(msg string) {
	s.notifier.Notify(domain.Toast{Kind: domain.ToastError, Message: msg})
}

// FormatItem renders an item as a plain-text block for the assistant.
func FormatItem(item domain.Item) string {
	var b strings.Builder
	if item.Kind == domain.KindFlashcard {
		fmt.Fprintf(&b, "Flashcard\nFront: %s\nBack: %s\n", item.Front(), item.Back())
		return b.String()
	}
	fmt.Fprintf(&b, "Question: %s\n", item.Prompt)
	if len(item.Options) > 0 {
		b.WriteString("Options:\n")
		for i, opt := range item.Options {
			fmt.Fprintf(&b, "%c. %s\n", optionLabel(i), opt)
		}
	}
	fmt.Fprintf(&b, "Correct answer: %s\n", item.AnswerKey)
	return b.String()
}

func optionLabel(i int) rune {
	if i < 26 {
		return rune('A' + i)
	}
	return '*'
}
