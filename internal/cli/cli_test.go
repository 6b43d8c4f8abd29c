package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-session-service/internal/app"
	"study-session-service/internal/config"
	"study-session-service/internal/domain"
)

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{}
	cfg.Log.Level = "warn"
	cfg.Log.Format = "json"

	logger := newLogger(cfg, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "session", "s1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"session":"s1"`)
}

func TestApplyPolicyOverrides(t *testing.T) {
	threshold := 60
	wrap := false
	p := applyPolicy(app.FlashcardPolicy(), config.PolicyConfig{CelebrateAt: &threshold, WrapPrev: &wrap})
	assert.Equal(t, 60, p.CelebrateAt)
	assert.False(t, p.WrapPrev)

	unchanged := applyPolicy(app.QuizPolicy(), config.PolicyConfig{})
	assert.Equal(t, app.QuizPolicy().CelebrateAt, unchanged.CelebrateAt)
	assert.Equal(t, app.QuizPolicy().Shuffle, unchanged.Shuffle)
}

func TestSeedCollections(t *testing.T) {
	demo := seedCollections(config.Config{})
	require.Contains(t, demo, "quiz-1")
	require.Contains(t, demo, "deck-1")
	assert.Equal(t, domain.KindFlashcard, demo["deck-1"].Kind)

	cfg := config.Config{}
	cfg.Collections.Seed = []domain.Collection{{ID: "only", Kind: domain.KindQuestion}}
	seeded := seedCollections(cfg)
	assert.Len(t, seeded, 1)
	assert.Contains(t, seeded, "only")
}

func TestMigrateCommandHasRollbackFlag(t *testing.T) {
	path := ""
	cmd := NewMigrateCmd(&path)
	require.NotNil(t, cmd.Flags().Lookup("rollback"))
	assert.Equal(t, "false", cmd.Flags().Lookup("rollback").DefValue)
}

func TestMigrationsRequirePostgres(t *testing.T) {
	logger := newLogger(config.Config{}, &bytes.Buffer{})
	assert.ErrorIs(t, runMigrationsWithConfig(context.Background(), config.Config{}, logger), errPostgresNotConfigured)
	assert.ErrorIs(t, rollbackMigrationsWithConfig(context.Background(), config.Config{}, logger), errPostgresNotConfigured)
}
