package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cordbroker/cord-broker/internal/presence"
	"github.com/cordbroker/cord-broker/internal/session"
)

func TestSelectOwnerPrefersNonIdle(t *testing.T) {
	m := session.NewManager()
	m.Create(1)
	m.Create(2)

	m.Touch(1, &presence.Activity{IsIdle: true, Details: "idle"})
	m.Touch(2, &presence.Activity{Details: "editing"})

	owner := m.SelectOwner(0)
	require.NotNil(t, owner)
	require.Equal(t, uint64(2), owner.ID)
}

func TestSelectOwnerBreaksTiesByRecency(t *testing.T) {
	m := session.NewManager()
	m.Create(1)
	m.Create(2)

	m.Touch(1, &presence.Activity{Details: "first"})
	time.Sleep(2 * time.Millisecond)
	m.Touch(2, &presence.Activity{Details: "second"})

	owner := m.SelectOwner(0)
	require.NotNil(t, owner)
	require.Equal(t, uint64(2), owner.ID)
}

func TestSelectOwnerExcludesCaller(t *testing.T) {
	m := session.NewManager()
	m.Create(1)
	m.Touch(1, &presence.Activity{Details: "solo"})

	owner := m.SelectOwner(1)
	require.Nil(t, owner)
}

func TestSelectOwnerNoneWhenNoActivity(t *testing.T) {
	m := session.NewManager()
	m.Create(1)
	require.Nil(t, m.SelectOwner(0))
}

func TestSharedTimestampCASOnlyFromZero(t *testing.T) {
	m := session.NewManager()
	require.True(t, m.EnableSharedTimestamp(100))
	require.Equal(t, int64(100), m.SharedTimestamp())
	require.False(t, m.EnableSharedTimestamp(200))
	require.Equal(t, int64(100), m.SharedTimestamp())

	m.ResetSharedTimestamp()
	require.Equal(t, int64(0), m.SharedTimestamp())
	require.True(t, m.EnableSharedTimestamp(300))
}

func TestCreateRemoveCount(t *testing.T) {
	m := session.NewManager()
	m.Create(1)
	m.Create(2)
	require.Equal(t, 2, m.Count())

	require.True(t, m.Remove(1))
	require.False(t, m.Remove(1))
	require.Equal(t, 1, m.Count())
}
