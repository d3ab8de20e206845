package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrevent/internal/domain"
)

func newTestHub(t *testing.T) *EventHub {
	t.Helper()

	hub := NewEventHub(HubOptions{
		StaleEventTimeout: time.Hour,
		MaxParticipants:   3,
		Timing:            fastTiming(),
	}, discardLogger())
	t.Cleanup(hub.Close)
	return hub
}

func TestEventHub_CreateAndGet(t *testing.T) {
	hub := newTestHub(t)

	session, err := hub.CreateEvent()
	require.NoError(t, err)

	code := session.GetEventCode()
	assert.Len(t, code, DefaultEventCodeLength)
	for _, c := range code {
		assert.True(t, strings.ContainsRune(EventCodeChars, c), "unexpected character %q", c)
	}

	got, err := hub.GetSession(code)
	require.NoError(t, err)
	assert.Same(t, session, got)

	_, err = hub.GetSession("NOPE")
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
	assert.Equal(t, 1, hub.GetSessionCount())
}

func TestEventHub_ParticipantLimit(t *testing.T) {
	hub := newTestHub(t)
	session, err := hub.CreateEvent()
	require.NoError(t, err)

	_, err = session.SetParticipants([]string{"A", "B", "C", "D"})
	assert.ErrorIs(t, err, domain.ErrTooManyParticipants)

	_, err = session.SetParticipants([]string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Equal(t, 3, hub.GetTotalParticipantCount())
}

func TestEventHub_CleanupStale(t *testing.T) {
	hub := newTestHub(t)

	idle, err := hub.CreateEvent()
	require.NoError(t, err)
	watched, err := hub.CreateEvent()
	require.NoError(t, err)
	watched.RegisterClient("screen-1", &recordingClient{id: "screen-1"})

	assert.Equal(t, 0, hub.CleanupStale(time.Now()))
	assert.Equal(t, 1, hub.CleanupStale(time.Now().Add(2*time.Hour)))

	_, err = hub.GetSession(idle.GetEventCode())
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
	_, err = hub.GetSession(watched.GetEventCode())
	assert.NoError(t, err)
	assert.Equal(t, 1, hub.GetTotalClientCount())
}

func TestEventHub_DeleteAndClose(t *testing.T) {
	hub := newTestHub(t)

	a, err := hub.CreateEvent()
	require.NoError(t, err)
	_, err = hub.CreateEvent()
	require.NoError(t, err)

	hub.DeleteSession(a.GetEventCode())
	assert.Equal(t, 1, hub.GetSessionCount())

	_, err = a.StartDraw("")
	assert.ErrorIs(t, err, domain.ErrEventClosed)

	hub.Close()
	assert.Equal(t, 0, hub.GetSessionCount())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy unavailable")
}

func TestEventHub_CreateEventEntropyFailure(t *testing.T) {
	hub := newTestHub(t)
	hub.entropy = failingReader{}

	session, err := hub.CreateEvent()
	require.Error(t, err)
	assert.Nil(t, session)
	assert.Contains(t, err.Error(), "entropy unavailable")
	assert.Zero(t, hub.GetSessionCount())
}
