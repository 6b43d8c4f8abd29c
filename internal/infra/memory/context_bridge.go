package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"study-session-service/internal/domain"
)

// ContextBridge is an in-process assistant context for a single user.
type ContextBridge struct {
	mu            sync.Mutex
	panelOpen     bool
	conversations []string
	active        string
	pending       string
	materials     map[string]domain.Material
	order         []string
}

func NewContextBridge() *ContextBridge {
	return &ContextBridge{materials: make(map[string]domain.Material)}
}

func (b *ContextBridge) SetPendingInput(_ context.Context, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = text
	return nil
}

func (b *ContextBridge) OpenPanel(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.panelOpen = true
	return nil
}

func (b *ContextBridge) EnsureActiveConversation(_ context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active != "" {
		return false, nil
	}
	b.active = uuid.NewString()
	b.conversations = append(b.conversations, b.active)
	return true, nil
}

func (b *ContextBridge) AddMaterial(_ context.Context, material domain.Material) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.materials[material.ID]; ok {
		return false, nil
	}
	b.materials[material.ID] = material
	b.order = append(b.order, material.ID)
	return true, nil
}

// State is a copy of the bridge contents.
type State struct {
	PanelOpen     bool
	Conversations []string
	Active        string
	PendingInput  string
	Materials     []domain.Material
}

func (b *ContextBridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := State{
		PanelOpen:     b.panelOpen,
		Conversations: append([]string(nil), b.conversations...),
		Active:        b.active,
		PendingInput:  b.pending,
	}
	for _, id := range b.order {
		st.Materials = append(st.Materials, b.materials[id])
	}
	return st
}

// ContextBridges hands out one bridge per user.
type ContextBridges struct {
	mu      sync.Mutex
	bridges map[string]*ContextBridge
}

func NewContextBridges() *ContextBridges {
	return &ContextBridges{bridges: make(map[string]*ContextBridge)}
}

func (r *ContextBridges) For(userID string) *ContextBridge {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bridges[userID]
	if !ok {
		b = NewContextBridge()
		r.bridges[userID] = b
	}
	return b
}
