package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvierd/focusgate/internal/clock"
	"github.com/xvierd/focusgate/internal/domain"
	"github.com/xvierd/focusgate/internal/ports"
	"github.com/xvierd/focusgate/internal/scheduler"
)

type fakeHost struct {
	next      ports.SurfaceHandle
	presented []ports.SurfaceSpec
	updates   []ports.SurfaceSpec
	dismissed []ports.SurfaceHandle
	visible   map[ports.SurfaceHandle]ports.SurfaceSpec
	hidden    map[ports.SurfaceHandle]bool
	shown     int
	prompts   int
	prompting bool
	notices   []string
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		visible: make(map[ports.SurfaceHandle]ports.SurfaceSpec),
		hidden:  make(map[ports.SurfaceHandle]bool),
	}
}

func (h *fakeHost) PresentBlockingSurface(spec ports.SurfaceSpec) ports.SurfaceHandle {
	h.next++
	h.presented = append(h.presented, spec)
	h.visible[h.next] = spec
	return h.next
}

func (h *fakeHost) UpdateBlockingSurface(id ports.SurfaceHandle, spec ports.SurfaceSpec) {
	h.updates = append(h.updates, spec)
	h.visible[id] = spec
}

func (h *fakeHost) HideBlockingSurface(id ports.SurfaceHandle) {
	delete(h.visible, id)
	h.hidden[id] = true
}

func (h *fakeHost) ShowBlockingSurface(id ports.SurfaceHandle, spec ports.SurfaceSpec) {
	h.shown++
	delete(h.hidden, id)
	h.visible[id] = spec
}

func (h *fakeHost) DismissBlockingSurface(id ports.SurfaceHandle) {
	h.dismissed = append(h.dismissed, id)
	delete(h.visible, id)
	delete(h.hidden, id)
	h.prompting = false
}

func (h *fakeHost) PresentBypassPrompt() {
	h.prompts++
	h.prompting = true
}

func (h *fakeHost) Notify(message string, timeout time.Duration) {
	h.notices = append(h.notices, message)
}

type memSettings struct {
	cfg     domain.BlockConfig
	loadErr error
	saves   int
}

func (m *memSettings) Load(ctx context.Context) (domain.BlockConfig, error) {
	if m.loadErr != nil {
		return domain.BlockConfig{}, m.loadErr
	}
	return m.cfg, nil
}

func (m *memSettings) Save(ctx context.Context, cfg domain.BlockConfig) error {
	m.cfg = cfg
	m.saves++
	return nil
}

type memEvents struct {
	events []*domain.BlockEvent
}

func (m *memEvents) Save(ctx context.Context, e *domain.BlockEvent) error {
	m.events = append(m.events, e)
	return nil
}

func (m *memEvents) FindRecent(ctx context.Context, since time.Time) ([]*domain.BlockEvent, error) {
	var out []*domain.BlockEvent
	for i := len(m.events) - 1; i >= 0; i-- {
		if !m.events[i].OccurredAt.Before(since) {
			out = append(out, m.events[i])
		}
	}
	return out, nil
}

func (m *memEvents) Latest(ctx context.Context, limit int) ([]*domain.BlockEvent, error) {
	out, _ := m.FindRecent(ctx, time.Time{})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memEvents) GetDailyStats(ctx context.Context, date time.Time) (*domain.DailyStats, error) {
	return &domain.DailyStats{Date: date}, nil
}

func (m *memEvents) kinds() []domain.EventKind {
	var out []domain.EventKind
	for _, e := range m.events {
		out = append(out, e.Kind)
	}
	return out
}

type fakeGit struct{ branch string }

func (g fakeGit) Detect(ctx context.Context, dir string) (*ports.GitInfo, error) {
	return &ports.GitInfo{Branch: g.branch}, nil
}

func (g fakeGit) IsAvailable() bool { return true }

type fixture struct {
	clk      *clock.Mock
	sched    *scheduler.Manual
	host     *fakeHost
	settings *memSettings
	events   *memEvents
	session  *BlockSession
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.Local)
}

func enabledConfig(pin string) domain.BlockConfig {
	cfg := domain.DefaultBlockConfig()
	cfg.Enabled = true
	cfg.BypassPIN = pin
	return cfg
}

func newFixture(t *testing.T, now time.Time, cfg domain.BlockConfig) *fixture {
	t.Helper()
	f := &fixture{
		clk:      clock.NewMock(now),
		host:     newFakeHost(),
		settings: &memSettings{cfg: cfg},
		events:   &memEvents{},
	}
	f.sched = scheduler.NewManual(f.clk)
	f.session = NewBlockSession(f.settings, f.host, f.sched, f.clk, BlockSessionOptions{
		Events:      f.events,
		Git:         fakeGit{branch: "main"},
		SettleDelay: time.Second,
		Logger:      zerolog.Nop(),
	})
	return f
}

func (f *fixture) ready(t *testing.T) {
	t.Helper()
	require.NoError(t, f.session.OnReady(context.Background()))
}

func TestBlockSession_ActivatesInsideWindow(t *testing.T) {
	f := newFixture(t, at(12, 30), enabledConfig(""))
	f.ready(t)

	assert.Equal(t, domain.StateBlocking, f.session.State())
	require.Len(t, f.host.presented, 1)

	spec := f.host.presented[0]
	assert.Equal(t, "6h 30m remaining", spec.Countdown.Text())
	assert.Equal(t, "19:00", spec.Countdown.EndTime)
	assert.True(t, spec.Modal)
	assert.False(t, spec.Dismissable)
	assert.False(t, spec.HasBypassPIN)

	assert.True(t, f.session.CountdownActive())
	assert.Equal(t, 1, f.sched.Pending())
}

func TestBlockSession_ActivateIsIdempotent(t *testing.T) {
	f := newFixture(t, at(12, 30), enabledConfig(""))
	ctx := context.Background()

	require.NoError(t, f.session.Activate(ctx))
	require.NoError(t, f.session.Activate(ctx))
	require.NoError(t, f.session.Check(ctx))

	assert.Len(t, f.host.presented, 1)
	assert.Len(t, f.host.visible, 1)
	assert.Equal(t, 1, f.sched.Pending())
}

func TestBlockSession_Deactivate(t *testing.T) {
	f := newFixture(t, at(12, 30), enabledConfig(""))
	ctx := context.Background()
	f.ready(t)
	f.sched.Advance(2 * time.Minute)

	require.NoError(t, f.session.Deactivate(ctx))
	require.NoError(t, f.session.Deactivate(ctx))

	assert.Equal(t, domain.StateIdle, f.session.State())
	assert.Len(t, f.host.dismissed, 1)
	assert.Empty(t, f.host.visible)
	assert.False(t, f.session.CountdownActive())
	assert.Equal(t, 1, f.sched.Pending(), "only the idle poll remains")

	require.Equal(t, []domain.EventKind{domain.EventStarted, domain.EventEnded}, f.events.kinds())
	assert.Equal(t, 2*time.Minute, f.events.events[1].BlockedFor)
}

func TestBlockSession_ActivateGuards(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		cfg  domain.BlockConfig
	}{
		{"disabled", at(12, 30), domain.DefaultBlockConfig()},
		{"before window", at(5, 59), enabledConfig("")},
		{"at window end", at(19, 0), enabledConfig("")},
		{"overnight window", at(23, 0), domain.BlockConfig{
			Enabled: true,
			From:    domain.TimeOfDay{Hour: 22, Min: 0},
			To:      domain.TimeOfDay{Hour: 6, Min: 0},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.now, tt.cfg)
			require.NoError(t, f.session.Activate(context.Background()))
			f.ready(t)

			assert.Equal(t, domain.StateIdle, f.session.State())
			assert.Empty(t, f.host.presented)
		})
	}
}

func TestBlockSession_TickRefreshesCountdown(t *testing.T) {
	f := newFixture(t, at(12, 30), enabledConfig(""))
	f.ready(t)

	f.sched.Advance(domain.TickInterval)

	require.Len(t, f.host.updates, 1)
	assert.Equal(t, "6h 29m remaining", f.host.updates[0].Countdown.Text())
	assert.Len(t, f.host.presented, 1)
	assert.Equal(t, 1, f.sched.Pending())

	f.sched.Advance(10 * domain.TickInterval)
	assert.Len(t, f.host.updates, 11)
	assert.Equal(t, 1, f.sched.Pending())
}

func TestBlockSession_WindowEndDeactivates(t *testing.T) {
	f := newFixture(t, at(18, 59), enabledConfig(""))
	f.ready(t)
	require.True(t, f.session.IsBlocking())

	f.sched.Advance(domain.TickInterval)

	assert.Equal(t, domain.StateIdle, f.session.State())
	assert.Len(t, f.host.dismissed, 1)
	assert.Empty(t, f.host.visible)
	assert.Equal(t, []string{domain.MsgBlockEnded}, f.host.notices)
	assert.False(t, f.session.CountdownActive())

	// Later ticks stay quiet.
	f.sched.Advance(30 * time.Minute)
	assert.Equal(t, []string{domain.MsgBlockEnded}, f.host.notices)
	assert.Equal(t, 1, f.sched.Pending())
}

func TestBlockSession_IdlePollNoticesWindowStart(t *testing.T) {
	f := newFixture(t, at(5, 58), enabledConfig(""))
	f.ready(t)
	require.Equal(t, domain.StateIdle, f.session.State())
	require.Equal(t, 1, f.sched.Pending())

	f.sched.Advance(2 * domain.TickInterval)

	assert.Equal(t, domain.StateBlocking, f.session.State())
	assert.Len(t, f.host.presented, 1)
	assert.Equal(t, "13h 0m remaining", f.host.presented[0].Countdown.Text())
}

func TestBlockSession_DisabledIdleHasNoTimer(t *testing.T) {
	f := newFixture(t, at(12, 0), domain.DefaultBlockConfig())
	f.ready(t)

	assert.Zero(t, f.sched.Pending())
}

func TestBlockSession_BypassWithCorrectPIN(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(12, 30), enabledConfig("1234"))
	f.ready(t)
	require.True(t, f.host.presented[0].HasBypassPIN)

	require.NoError(t, f.session.RequestBypass(ctx))
	assert.Equal(t, domain.StateBypassPrompt, f.session.State())
	assert.True(t, f.session.IsBlocking())
	assert.Equal(t, 1, f.host.prompts)
	assert.Empty(t, f.host.visible)
	assert.Len(t, f.host.hidden, 1, "the surface is hidden, not dismissed")
	assert.Empty(t, f.host.dismissed)
	assert.Zero(t, f.sched.Pending())
	assert.False(t, f.session.CountdownActive())

	require.NoError(t, f.session.SubmitBypass(ctx, "1234"))
	assert.Equal(t, domain.StateIdle, f.session.State())
	assert.False(t, f.session.IsBlocking())
	assert.True(t, f.session.Bypassed())
	assert.Contains(t, f.host.notices, domain.MsgBypassAccepted)
	assert.Empty(t, f.host.hidden)
	assert.Len(t, f.host.dismissed, 1)

	// The bypass holds for the rest of the window.
	f.sched.Advance(time.Hour)
	assert.Equal(t, domain.StateIdle, f.session.State())
	assert.Len(t, f.host.presented, 1)
}

func TestBlockSession_BypassLastsUntilWindowEnds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(18, 50), enabledConfig("1234"))
	f.ready(t)
	require.NoError(t, f.session.RequestBypass(ctx))
	require.NoError(t, f.session.SubmitBypass(ctx, "1234"))

	f.sched.Advance(15 * time.Minute)
	assert.False(t, f.session.Bypassed())

	// Next morning the block is back.
	f.clk.Set(at(6, 0).AddDate(0, 0, 1))
	require.NoError(t, f.session.OnResume(ctx))
	assert.Equal(t, domain.StateBlocking, f.session.State())
}

func TestBlockSession_BypassWithWrongPIN(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(12, 30), enabledConfig("1234"))
	f.ready(t)
	require.NoError(t, f.session.RequestBypass(ctx))

	err := f.session.SubmitBypass(ctx, "0000")

	assert.ErrorIs(t, err, domain.ErrIncorrectPIN)
	assert.Equal(t, domain.StateBlocking, f.session.State())
	assert.Contains(t, f.host.notices, domain.MsgIncorrectPIN)
	assert.Len(t, f.host.hidden, 1, "surface waits for the settle delay")
	assert.True(t, f.session.IsBlocking())

	f.sched.Advance(time.Second)

	assert.Len(t, f.host.presented, 1)
	assert.Equal(t, 1, f.host.shown)
	assert.Len(t, f.host.visible, 1)
	assert.Empty(t, f.host.hidden)
	assert.True(t, f.session.CountdownActive())
	assert.Equal(t, 1, f.sched.Pending())
}

func TestBlockSession_CancelBypass(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(12, 30), enabledConfig("1234"))
	f.ready(t)
	require.NoError(t, f.session.RequestBypass(ctx))

	require.NoError(t, f.session.CancelBypass(ctx))
	assert.Equal(t, domain.StateBlocking, f.session.State())

	assert.Len(t, f.host.hidden, 1)

	f.sched.Advance(time.Second)
	assert.Len(t, f.host.presented, 1)
	assert.Equal(t, 1, f.host.shown)
	assert.True(t, f.session.CountdownActive())
}

func TestBlockSession_BypassDoesNotCarryIntoNextDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(18, 0), enabledConfig("1234"))
	f.ready(t)
	require.NoError(t, f.session.RequestBypass(ctx))
	require.NoError(t, f.session.SubmitBypass(ctx, "1234"))
	require.True(t, f.session.Bypassed())

	// No check runs between the bypass and the next morning.
	f.session.OnSuspend(ctx)
	f.clk.Set(at(10, 0).AddDate(0, 0, 1))
	require.NoError(t, f.session.OnResume(ctx))

	assert.Equal(t, domain.StateBlocking, f.session.State())
	assert.False(t, f.session.Bypassed())
	assert.Len(t, f.host.presented, 2, "a new surface for the new day's block")
}

func TestBlockSession_BypassHoldsAcrossSuspendInSameWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(12, 0), enabledConfig("1234"))
	f.ready(t)
	require.NoError(t, f.session.RequestBypass(ctx))
	require.NoError(t, f.session.SubmitBypass(ctx, "1234"))

	f.session.OnSuspend(ctx)
	f.clk.Set(at(15, 0))
	require.NoError(t, f.session.OnResume(ctx))

	assert.Equal(t, domain.StateIdle, f.session.State())
	assert.True(t, f.session.Bypassed())

	st, err := f.session.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, st.Bypassed)
}

func TestBlockSession_WindowEndsDuringPrompt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(18, 59), enabledConfig("1234"))
	f.ready(t)
	require.NoError(t, f.session.RequestBypass(ctx))
	require.True(t, f.host.prompting)

	f.clk.Set(at(19, 0))
	require.NoError(t, f.session.OnResume(ctx))

	assert.Equal(t, domain.StateIdle, f.session.State())
	assert.False(t, f.host.prompting, "the PIN prompt closes with the surface")
	assert.Empty(t, f.host.hidden)
	assert.Len(t, f.host.dismissed, 1)
	assert.Contains(t, f.host.notices, domain.MsgBlockEnded)
	assert.False(t, f.session.Bypassed())
	assert.Equal(t, []domain.EventKind{domain.EventStarted, domain.EventEnded}, f.events.kinds())
}

func TestBlockSession_BypassRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("no PIN configured", func(t *testing.T) {
		f := newFixture(t, at(12, 30), enabledConfig(""))
		f.ready(t)

		assert.ErrorIs(t, f.session.RequestBypass(ctx), domain.ErrNoBypassPIN)
		assert.Equal(t, domain.StateBlocking, f.session.State())
		assert.Equal(t, 0, f.host.prompts)
		assert.Len(t, f.host.notices, 1)
	})

	t.Run("not blocking", func(t *testing.T) {
		f := newFixture(t, at(20, 0), enabledConfig("1234"))
		f.ready(t)

		assert.ErrorIs(t, f.session.RequestBypass(ctx), domain.ErrNotBlocking)
	})

	t.Run("submit without prompt", func(t *testing.T) {
		f := newFixture(t, at(12, 30), enabledConfig("1234"))
		f.ready(t)

		assert.ErrorIs(t, f.session.SubmitBypass(ctx, "1234"), domain.ErrNotAwaitingBypass)
		assert.ErrorIs(t, f.session.CancelBypass(ctx), domain.ErrNotAwaitingBypass)
		assert.Equal(t, domain.StateBlocking, f.session.State())
	})
}

func TestBlockSession_SetEnabled(t *testing.T) {
	ctx := context.Background()

	t.Run("disable while blocking is rejected", func(t *testing.T) {
		f := newFixture(t, at(12, 30), enabledConfig(""))
		f.ready(t)

		err := f.session.SetEnabled(ctx, false)

		assert.ErrorIs(t, err, domain.ErrDisableWhileBlocking)
		assert.True(t, f.settings.cfg.Enabled)
		assert.Zero(t, f.settings.saves)
		assert.Equal(t, []string{"Cannot disable while a block is active"}, f.host.notices)
	})

	t.Run("enable inside window blocks at once", func(t *testing.T) {
		f := newFixture(t, at(12, 30), domain.DefaultBlockConfig())
		f.ready(t)
		require.Equal(t, domain.StateIdle, f.session.State())

		require.NoError(t, f.session.SetEnabled(ctx, true))

		assert.True(t, f.settings.cfg.Enabled)
		assert.Equal(t, domain.StateBlocking, f.session.State())
		assert.Len(t, f.host.presented, 1)
	})

	t.Run("disable while idle stops polling", func(t *testing.T) {
		f := newFixture(t, at(20, 0), enabledConfig(""))
		f.ready(t)
		require.Equal(t, 1, f.sched.Pending())

		require.NoError(t, f.session.SetEnabled(ctx, false))

		assert.False(t, f.settings.cfg.Enabled)
		assert.Zero(t, f.sched.Pending())
	})
}

func TestBlockSession_ClockJumpIsIgnored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(12, 0), enabledConfig(""))
	f.ready(t)

	f.sched.Advance(domain.TickInterval)
	require.Equal(t, time.Minute, f.session.BlockedFor())

	// Device slept for 5000 seconds.
	t0 := f.clk.Now()
	f.clk.Advance(5000 * time.Second)
	require.NoError(t, f.session.OnResume(ctx))

	assert.Equal(t, time.Minute, f.session.BlockedFor())
	assert.Equal(t, t0.Add(5000*time.Second), f.session.LastCheck())
	assert.Equal(t, domain.StateBlocking, f.session.State())
	assert.Len(t, f.host.presented, 1)
	assert.Equal(t, 1, f.sched.Pending())
}

func TestBlockSession_SuspendAndResume(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(12, 0), enabledConfig(""))
	f.ready(t)

	f.session.OnSuspend(ctx)
	assert.Zero(t, f.sched.Pending())
	assert.False(t, f.session.CountdownActive())
	assert.Len(t, f.host.visible, 1)

	f.clk.Advance(20 * time.Minute)
	require.NoError(t, f.session.OnResume(ctx))

	assert.Equal(t, 1, f.sched.Pending())
	require.NotEmpty(t, f.host.updates)
	assert.Equal(t, "6h 40m remaining", f.host.updates[len(f.host.updates)-1].Countdown.Text())
}

func TestBlockSession_AtMostOneTick(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(12, 0), enabledConfig(""))

	for i := 0; i < 5; i++ {
		require.NoError(t, f.session.Check(ctx))
		require.NoError(t, f.session.OnConfigChanged(ctx))
	}
	assert.Equal(t, 1, f.sched.Pending())
}

func TestBlockSession_SetBypassPIN(t *testing.T) {
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		f := newFixture(t, at(20, 0), enabledConfig(""))
		assert.ErrorIs(t, f.session.SetBypassPIN(ctx, "123"), domain.ErrPinTooShort)
		assert.ErrorIs(t, f.session.SetBypassPIN(ctx, "12ab"), domain.ErrPinNotNumeric)
		assert.Empty(t, f.settings.cfg.BypassPIN)
		assert.Len(t, f.host.notices, 2)
	})

	t.Run("first PIN during a block is allowed", func(t *testing.T) {
		f := newFixture(t, at(12, 0), enabledConfig(""))
		f.ready(t)

		require.NoError(t, f.session.SetBypassPIN(ctx, "4321"))

		assert.Equal(t, "4321", f.settings.cfg.BypassPIN)
		require.NotEmpty(t, f.host.updates)
		assert.True(t, f.host.updates[len(f.host.updates)-1].HasBypassPIN)
	})

	t.Run("replacing a PIN during a block is rejected", func(t *testing.T) {
		f := newFixture(t, at(12, 0), enabledConfig("1234"))
		f.ready(t)

		err := f.session.SetBypassPIN(ctx, "9999")

		assert.ErrorIs(t, err, domain.ErrSetPinWhileBlockingAndPinExists)
		assert.Equal(t, "1234", f.settings.cfg.BypassPIN)
	})

	t.Run("replacing a PIN while idle", func(t *testing.T) {
		f := newFixture(t, at(20, 0), enabledConfig("1234"))
		f.ready(t)

		require.NoError(t, f.session.SetBypassPIN(ctx, "9999"))
		assert.Equal(t, "9999", f.settings.cfg.BypassPIN)
	})
}

func TestBlockSession_ClearBypassPIN(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, at(12, 0), enabledConfig("1234"))
	f.ready(t)
	assert.ErrorIs(t, f.session.ClearBypassPIN(ctx), domain.ErrClearPinWhileBlocking)
	assert.Equal(t, "1234", f.settings.cfg.BypassPIN)

	idle := newFixture(t, at(20, 0), enabledConfig("1234"))
	idle.ready(t)
	require.NoError(t, idle.session.ClearBypassPIN(ctx))
	assert.Empty(t, idle.settings.cfg.BypassPIN)
}

func TestBlockSession_SetWindow(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected while blocking", func(t *testing.T) {
		f := newFixture(t, at(12, 0), enabledConfig(""))
		f.ready(t)

		assert.ErrorIs(t, f.session.SetFromTime(ctx, domain.TimeOfDay{Hour: 13, Min: 0}), domain.ErrEditWhileBlocking)
		assert.ErrorIs(t, f.session.SetToTime(ctx, domain.TimeOfDay{Hour: 13, Min: 0}), domain.ErrEditWhileBlocking)
		assert.Equal(t, domain.DefaultFromTime, f.settings.cfg.From)
	})

	t.Run("invalid time", func(t *testing.T) {
		f := newFixture(t, at(20, 0), enabledConfig(""))
		err := f.session.SetToTime(ctx, domain.TimeOfDay{Hour: 24, Min: 0})
		assert.ErrorIs(t, err, domain.ErrConfigInvalid)
		assert.Equal(t, domain.DefaultToTime, f.settings.cfg.To)
	})

	t.Run("extending over now blocks", func(t *testing.T) {
		f := newFixture(t, at(20, 0), enabledConfig(""))
		f.ready(t)

		require.NoError(t, f.session.SetToTime(ctx, domain.TimeOfDay{Hour: 22, Min: 0}))

		assert.Equal(t, domain.TimeOfDay{Hour: 22, Min: 0}, f.settings.cfg.To)
		assert.Equal(t, domain.StateBlocking, f.session.State())
		assert.Equal(t, "2h 0m remaining", f.host.presented[0].Countdown.Text())
	})
}

func TestBlockSession_RecordsHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(12, 0), enabledConfig("1234"))
	f.ready(t)
	f.sched.Advance(2 * domain.TickInterval)

	require.NoError(t, f.session.RequestBypass(ctx))
	_ = f.session.SubmitBypass(ctx, "1111")
	f.sched.Advance(time.Second)
	require.NoError(t, f.session.RequestBypass(ctx))
	require.NoError(t, f.session.SubmitBypass(ctx, "1234"))

	assert.Equal(t, []domain.EventKind{
		domain.EventStarted,
		domain.EventBypassFailed,
		domain.EventBypassed,
	}, f.events.kinds())
	assert.Equal(t, "main", f.events.events[0].GitBranch)
	assert.Equal(t, 2*time.Minute+time.Second, f.events.events[2].BlockedFor)
}

func TestBlockSession_LoadErrorKeepsState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(12, 0), enabledConfig(""))
	f.ready(t)

	f.settings.loadErr = errors.New("disk gone")
	err := f.session.Check(ctx)

	assert.Error(t, err)
	assert.Equal(t, domain.StateBlocking, f.session.State())
	assert.Equal(t, 1, f.sched.Pending())
}

func TestBlockSession_ReadModels(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(12, 30), enabledConfig("1234"))
	f.ready(t)

	c, err := f.session.Countdown(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Blocked until 19:00 · 6h 30m remaining", c.Line())

	menu, err := f.session.Menu(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.MenuState{}, menu)

	st, err := f.session.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StateBlocking, st.State)
	assert.True(t, st.HasBypassPIN)
	require.NotNil(t, st.Countdown)
	assert.Equal(t, "19:00", st.Countdown.EndTime)
}
