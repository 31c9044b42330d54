// internal/workers/janitor_test.go
package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/starforge-games/liveops/internal/engine"
	"github.com/starforge-games/liveops/internal/models"
	"github.com/starforge-games/liveops/internal/state"
	"github.com/starforge-games/liveops/internal/state/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvDuration(t *testing.T) {
	t.Setenv("JANITOR_TEST_DUR", "")
	assert.Equal(t, time.Minute, envDuration("JANITOR_TEST_DUR", time.Minute))

	t.Setenv("JANITOR_TEST_DUR", "30s")
	assert.Equal(t, 30*time.Second, envDuration("JANITOR_TEST_DUR", time.Minute))

	t.Setenv("JANITOR_TEST_DUR", "garbage")
	assert.Equal(t, time.Minute, envDuration("JANITOR_TEST_DUR", time.Minute))
}

func TestJanitorReapsIdleLobby(t *testing.T) {
	t.Setenv("JANITOR_INTERVAL", "20ms")
	t.Setenv("LOBBY_IDLE_TIMEOUT", "1m")

	store := memory.New()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	eng := engine.New(store, nil, logger)

	ctx := context.Background()
	stale := &models.ActiveLobby{
		ID:         uuid.New(),
		Name:       "abandoned",
		MaxPlayers: 4,
		CreatedAt:  time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, store.CreateLobby(ctx, stale))

	j, err := NewJanitor(eng, logger)
	require.NoError(t, err)
	require.NoError(t, j.Start(ctx))
	defer j.Stop()

	require.Eventually(t, func() bool {
		_, err := store.GetLobby(ctx, stale.ID)
		return errors.Is(err, state.ErrNotFound)
	}, 2*time.Second, 20*time.Millisecond)
}
