package activity_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cordbroker/cord-broker/internal/activity"
	"github.com/cordbroker/cord-broker/internal/presence"
)

type recorder struct {
	mu      sync.Mutex
	updates []*presence.Activity
	clears  int
}

func (r *recorder) Update(a *presence.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, a)
	return nil
}

func (r *recorder) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
	return nil
}

func (r *recorder) snapshot() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates), r.clears
}

func TestUpdateSendsImmediatelyWhenDisabled(t *testing.T) {
	rec := &recorder{}
	m := activity.NewManager(rec)

	require.NoError(t, m.Update(&presence.Activity{Details: "a"}))
	require.NoError(t, m.Update(&presence.Activity{Details: "b"}))

	updates, _ := rec.snapshot()
	require.Equal(t, 2, updates)
}

func TestDeferModeCoalescesRapidUpdates(t *testing.T) {
	rec := &recorder{}
	m := activity.NewManager(rec)
	m.SetConfig(presence.SyncConfig{Enabled: true, Mode: presence.ModeDefer, IntervalMs: 60})

	require.NoError(t, m.Update(&presence.Activity{Details: "1"}))
	require.NoError(t, m.Update(&presence.Activity{Details: "2"}))
	require.NoError(t, m.Update(&presence.Activity{Details: "3"}))
	require.NoError(t, m.Update(&presence.Activity{Details: "4"}))

	updates, _ := rec.snapshot()
	require.Equal(t, 1, updates, "only the first update should send immediately")

	m.Start()
	defer m.Stop()
	require.Eventually(t, func() bool {
		updates, _ := rec.snapshot()
		return updates == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPeriodicModeResendsRememberedActivity(t *testing.T) {
	rec := &recorder{}
	m := activity.NewManager(rec)
	m.SetConfig(presence.SyncConfig{Enabled: true, Mode: presence.ModePeriodic, IntervalMs: 60, ResetOnUpdate: false})

	require.NoError(t, m.Update(&presence.Activity{Details: "only"}))
	updates, _ := rec.snapshot()
	require.Equal(t, 1, updates)

	m.Start()
	defer m.Stop()
	require.Eventually(t, func() bool {
		updates, _ := rec.snapshot()
		return updates >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPaddingKeepsLengthInRange(t *testing.T) {
	rec := &recorder{}
	m := activity.NewManager(rec)
	m.SetConfig(presence.SyncConfig{Enabled: false, Pad: true})

	original := "hello"
	require.NoError(t, m.Update(&presence.Activity{Details: original, State: original}))

	updates, _ := rec.snapshot()
	require.Len(t, updates, 1)
	got := updates[0]
	require.GreaterOrEqual(t, len(got.Details), len(original))
	require.LessOrEqual(t, len(got.Details), presence.MaxFieldLen)
	require.GreaterOrEqual(t, len(got.State), len(original))
	require.LessOrEqual(t, len(got.State), presence.MaxFieldLen)
}

func TestPaddingLeavesAlreadyLongFieldsUnchanged(t *testing.T) {
	rec := &recorder{}
	m := activity.NewManager(rec)
	m.SetConfig(presence.SyncConfig{Enabled: false, Pad: true})

	long := make([]byte, presence.MaxFieldLen)
	for i := range long {
		long[i] = 'x'
	}
	require.NoError(t, m.Update(&presence.Activity{Details: string(long)}))

	updates, _ := rec.snapshot()
	require.Equal(t, string(long), updates[0].Details)
}
