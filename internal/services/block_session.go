package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/xvierd/focusgate/internal/clock"
	"github.com/xvierd/focusgate/internal/domain"
	"github.com/xvierd/focusgate/internal/ports"
)

// BlockSessionOptions holds the optional collaborators of a BlockSession.
type BlockSessionOptions struct {
	// Events receives the block history. Nil disables recording.
	Events ports.EventRepository
	// Git tags block start events with the current branch. May be nil.
	Git        ports.GitDetector
	WorkingDir string
	// SettleDelay is the pause before the blocking surface comes back
	// after the bypass prompt closes without a bypass.
	SettleDelay time.Duration
	Logger      zerolog.Logger
}

// BlockSession is the blocking state machine. It owns the session state
// and drives the host; it never renders anything itself.
//
// All methods must be called from the event loop that backs the
// scheduler. The session holds no locks.
type BlockSession struct {
	settings ports.SettingsStore
	host     ports.Host
	sched    ports.Scheduler
	clock    clock.Clock
	events   ports.EventRepository
	git      ports.GitDetector
	workDir  string
	settle   time.Duration
	log      zerolog.Logger

	state           domain.SessionState
	cfg             domain.BlockConfig
	surface         ports.SurfaceHandle
	hidden          bool
	tick            ports.TimerHandle
	settleTimer     ports.TimerHandle
	countdownActive bool
	lastCheck       time.Time
	blockedFor      time.Duration
	bypassUntil     time.Time
}

// NewBlockSession creates an idle session. Nothing happens until one of
// the lifecycle hooks runs.
func NewBlockSession(settings ports.SettingsStore, host ports.Host, sched ports.Scheduler, clk clock.Clock, opts BlockSessionOptions) *BlockSession {
	settle := opts.SettleDelay
	if settle <= 0 {
		settle = domain.DefaultSettleDelay
	}
	return &BlockSession{
		settings: settings,
		host:     host,
		sched:    sched,
		clock:    clk,
		events:   opts.Events,
		git:      opts.Git,
		workDir:  opts.WorkingDir,
		settle:   settle,
		log:      opts.Logger.With().Str("component", "session").Logger(),
		state:    domain.StateIdle,
	}
}

// State returns the current state machine state.
func (s *BlockSession) State() domain.SessionState { return s.state }

// IsBlocking reports whether a block is in force.
func (s *BlockSession) IsBlocking() bool { return s.state.IsBlocking() }

// CountdownActive reports whether the countdown timer is armed.
func (s *BlockSession) CountdownActive() bool { return s.countdownActive }

// LastCheck returns the time of the most recent window evaluation.
func (s *BlockSession) LastCheck() time.Time { return s.lastCheck }

// BlockedFor returns how long the current block has been in force,
// counting only trusted intervals between checks.
func (s *BlockSession) BlockedFor() time.Duration { return s.blockedFor }

// Bypassed reports whether the current window was bypassed with the PIN.
func (s *BlockSession) Bypassed() bool { return s.bypassedAt(s.clock.Now()) }

func (s *BlockSession) bypassedAt(now time.Time) bool {
	return now.Before(s.bypassUntil)
}

// OnReady runs the first check after the host has started.
func (s *BlockSession) OnReady(ctx context.Context) error {
	return s.Check(ctx)
}

// OnResume re-checks after the host wakes up.
func (s *BlockSession) OnResume(ctx context.Context) error {
	return s.Check(ctx)
}

// OnConfigChanged re-checks after the settings record changed elsewhere.
func (s *BlockSession) OnConfigChanged(ctx context.Context) error {
	return s.Check(ctx)
}

// OnSuspend stops all timers. The surface stays where it is.
func (s *BlockSession) OnSuspend(ctx context.Context) {
	s.cancelTick()
	s.cancelSettle()
	s.log.Debug().Str("state", string(s.state)).Msg("suspended")
}

// Check re-evaluates the window. It activates the block when the window
// is active and the session idle, deactivates it once the window is over,
// and refreshes the countdown otherwise. It is the periodic tick handler.
func (s *BlockSession) Check(ctx context.Context) error {
	now := s.clock.Now()
	s.noteElapsed(now)

	cfg, err := s.settings.Load(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("check skipped")
		s.rearm()
		return fmt.Errorf("failed to check block window: %w", err)
	}
	s.cfg = cfg

	active := cfg.Enabled && cfg.Contains(domain.TimeOfDayFrom(now))
	switch {
	case active && s.state == domain.StateIdle:
		if !s.bypassedAt(now) {
			s.activate(ctx, now)
		}
	case !active && s.state.IsBlocking():
		s.deactivate(ctx, domain.EventEnded, now)
		s.host.Notify(domain.MsgBlockEnded, domain.AnnounceTimeout)
	case s.state == domain.StateBlocking:
		s.showSurface(now)
	}
	if !active {
		s.bypassUntil = time.Time{}
	}

	s.rearm()
	return nil
}

// Activate starts the block if the session is enabled and inside the
// window. It is a no-op while a block is already in force.
func (s *BlockSession) Activate(ctx context.Context) error {
	if s.state.IsBlocking() {
		return nil
	}
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load block config: %w", err)
	}
	s.cfg = cfg

	now := s.clock.Now()
	if !cfg.Enabled || !cfg.Contains(domain.TimeOfDayFrom(now)) {
		return nil
	}
	s.noteElapsed(now)
	s.bypassUntil = time.Time{}
	s.activate(ctx, now)
	s.rearm()
	return nil
}

// Deactivate ends the block. It is a no-op while idle.
func (s *BlockSession) Deactivate(ctx context.Context) error {
	if !s.state.IsBlocking() {
		return nil
	}
	now := s.clock.Now()
	s.noteElapsed(now)
	s.deactivate(ctx, domain.EventEnded, now)
	s.rearm()
	return nil
}

// RequestBypass hides the blocking surface and asks the host for the PIN.
// The surface stays presented underneath, so the host keeps the block.
func (s *BlockSession) RequestBypass(ctx context.Context) error {
	if s.state != domain.StateBlocking {
		return s.reject(domain.ErrNotBlocking)
	}
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load block config: %w", err)
	}
	s.cfg = cfg
	if !cfg.HasBypassPIN() {
		return s.reject(domain.ErrNoBypassPIN)
	}

	s.cancelTick()
	s.cancelSettle()
	s.hideSurface()
	s.state = domain.StateBypassPrompt
	s.host.PresentBypassPrompt()
	s.log.Info().Msg("bypass requested")
	return nil
}

// SubmitBypass checks an entered PIN. A match ends the block for the rest
// of the window; a mismatch returns to blocking after the settle delay.
func (s *BlockSession) SubmitBypass(ctx context.Context, pin string) error {
	if s.state != domain.StateBypassPrompt {
		return s.reject(domain.ErrNotAwaitingBypass)
	}
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		s.returnToBlocking()
		return fmt.Errorf("failed to load block config: %w", err)
	}
	s.cfg = cfg

	now := s.clock.Now()
	if cfg.HasBypassPIN() && subtle.ConstantTimeCompare([]byte(pin), []byte(cfg.BypassPIN)) == 1 {
		s.noteElapsed(now)
		s.deactivate(ctx, domain.EventBypassed, now)
		s.bypassUntil = windowEnd(now, cfg.To)
		s.rearm()
		s.host.Notify(domain.MsgBypassAccepted, domain.NotifyTimeout)
		s.log.Info().Msg("block bypassed")
		return nil
	}

	s.record(ctx, domain.EventBypassFailed, now, 0)
	s.returnToBlocking()
	s.host.Notify(domain.MsgIncorrectPIN, domain.NotifyTimeout)
	s.log.Warn().Msg("incorrect bypass PIN")
	return domain.ErrIncorrectPIN
}

// CancelBypass closes the PIN prompt and returns to blocking after the
// settle delay.
func (s *BlockSession) CancelBypass(ctx context.Context) error {
	if s.state != domain.StateBypassPrompt {
		return s.reject(domain.ErrNotAwaitingBypass)
	}
	s.returnToBlocking()
	s.log.Info().Msg("bypass cancelled")
	return nil
}

// SetEnabled turns blocking on or off. Turning it off during a block is
// refused; turning it on inside the window blocks at once.
func (s *BlockSession) SetEnabled(ctx context.Context, enabled bool) error {
	if !enabled && s.state.IsBlocking() {
		return s.reject(domain.ErrDisableWhileBlocking)
	}
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load block config: %w", err)
	}
	cfg.Enabled = enabled
	if err := s.settings.Save(ctx, cfg); err != nil {
		return fmt.Errorf("failed to save block config: %w", err)
	}
	s.log.Info().Bool("enabled", enabled).Msg("block toggled")
	return s.Check(ctx)
}

// SetWindow replaces both window boundaries.
func (s *BlockSession) SetWindow(ctx context.Context, from, to domain.TimeOfDay) error {
	if s.state.IsBlocking() {
		return s.reject(domain.ErrEditWhileBlocking)
	}
	if !from.Valid() || !to.Valid() {
		return s.reject(fmt.Errorf("%w: %s–%s", domain.ErrConfigInvalid, from, to))
	}
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load block config: %w", err)
	}
	cfg.From, cfg.To = from, to
	if err := s.settings.Save(ctx, cfg); err != nil {
		return fmt.Errorf("failed to save block config: %w", err)
	}
	s.log.Info().Str("window", cfg.Window()).Msg("block window changed")
	return s.Check(ctx)
}

// SetFromTime replaces the window start.
func (s *BlockSession) SetFromTime(ctx context.Context, from domain.TimeOfDay) error {
	if s.state.IsBlocking() {
		return s.reject(domain.ErrEditWhileBlocking)
	}
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load block config: %w", err)
	}
	return s.SetWindow(ctx, from, cfg.To)
}

// SetToTime replaces the window end.
func (s *BlockSession) SetToTime(ctx context.Context, to domain.TimeOfDay) error {
	if s.state.IsBlocking() {
		return s.reject(domain.ErrEditWhileBlocking)
	}
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load block config: %w", err)
	}
	return s.SetWindow(ctx, cfg.From, to)
}

// SetBypassPIN stores a new PIN. During a block a PIN may only be set
// when none exists yet.
func (s *BlockSession) SetBypassPIN(ctx context.Context, pin string) error {
	if err := domain.ValidatePIN(pin); err != nil {
		return s.reject(err)
	}
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load block config: %w", err)
	}
	if s.state.IsBlocking() && cfg.HasBypassPIN() {
		return s.reject(domain.ErrSetPinWhileBlockingAndPinExists)
	}
	cfg.BypassPIN = pin
	if err := s.settings.Save(ctx, cfg); err != nil {
		return fmt.Errorf("failed to save block config: %w", err)
	}
	s.cfg = cfg
	s.log.Info().Msg("bypass PIN set")

	if s.state == domain.StateBlocking && s.surface != 0 {
		s.host.UpdateBlockingSurface(s.surface, s.surfaceSpec(s.clock.Now()))
	}
	return nil
}

// ClearBypassPIN removes the PIN. It is refused during a block.
func (s *BlockSession) ClearBypassPIN(ctx context.Context) error {
	if s.state.IsBlocking() {
		return s.reject(domain.ErrClearPinWhileBlocking)
	}
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load block config: %w", err)
	}
	cfg.BypassPIN = ""
	if err := s.settings.Save(ctx, cfg); err != nil {
		return fmt.Errorf("failed to save block config: %w", err)
	}
	s.cfg = cfg
	s.log.Info().Msg("bypass PIN cleared")
	return nil
}

// Countdown derives the remaining time until the window ends.
func (s *BlockSession) Countdown(ctx context.Context) (domain.Countdown, error) {
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return domain.Countdown{}, fmt.Errorf("failed to load block config: %w", err)
	}
	return domain.NewCountdown(domain.TimeOfDayFrom(s.clock.Now()), cfg.To), nil
}

// Menu reports which settings actions are currently allowed.
func (s *BlockSession) Menu(ctx context.Context) (domain.MenuState, error) {
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return domain.MenuState{}, fmt.Errorf("failed to load block config: %w", err)
	}
	return domain.NewMenuState(s.state, cfg), nil
}

// Snapshot returns the full status for rendering.
func (s *BlockSession) Snapshot(ctx context.Context) (*domain.Status, error) {
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load block config: %w", err)
	}
	st := domain.NewStatus(s.state, cfg, s.clock.Now())
	st.LastCheck = s.lastCheck
	st.BlockedFor = s.blockedFor
	st.Bypassed = s.bypassedAt(st.Timestamp)
	return st, nil
}

func (s *BlockSession) activate(ctx context.Context, now time.Time) {
	s.state = domain.StateBlocking
	s.blockedFor = 0
	s.showSurface(now)
	s.record(ctx, domain.EventStarted, now, 0)
	s.log.Info().Str("window", s.cfg.Window()).Msg("block started")
}

func (s *BlockSession) deactivate(ctx context.Context, kind domain.EventKind, now time.Time) {
	s.cancelTick()
	s.cancelSettle()
	s.dismissSurface()

	blocked := s.blockedFor
	s.state = domain.StateIdle
	s.blockedFor = 0
	s.record(ctx, kind, now, blocked)
	s.log.Info().Str("reason", string(kind)).Dur("blocked_for", blocked).Msg("block ended")
}

// returnToBlocking leaves the prompt. The hidden surface comes back when
// the settle timer runs a check.
func (s *BlockSession) returnToBlocking() {
	s.state = domain.StateBlocking
	s.cancelSettle()
	s.settleTimer = s.sched.AfterFunc(s.settle, s.onSettle)
}

func (s *BlockSession) onSettle() {
	s.settleTimer = 0
	if s.state != domain.StateBlocking {
		return
	}
	_ = s.Check(context.Background())
}

func (s *BlockSession) onTick() {
	s.tick = 0
	_ = s.Check(context.Background())
}

// showSurface presents the surface if none exists, reveals it if hidden,
// and refreshes it otherwise.
func (s *BlockSession) showSurface(now time.Time) {
	spec := s.surfaceSpec(now)
	switch {
	case s.surface == 0:
		s.cancelSettle()
		s.surface = s.host.PresentBlockingSurface(spec)
	case s.hidden:
		s.cancelSettle()
		s.hidden = false
		s.host.ShowBlockingSurface(s.surface, spec)
	default:
		s.host.UpdateBlockingSurface(s.surface, spec)
	}
}

func (s *BlockSession) hideSurface() {
	if s.surface == 0 || s.hidden {
		return
	}
	s.host.HideBlockingSurface(s.surface)
	s.hidden = true
}

// dismissSurface ends the surface. The host closes an open bypass prompt
// along with it.
func (s *BlockSession) dismissSurface() {
	if s.surface == 0 {
		return
	}
	s.host.DismissBlockingSurface(s.surface)
	s.surface = 0
	s.hidden = false
}

// windowEnd is the instant the window ending at to closes on now's date.
func windowEnd(now time.Time, to domain.TimeOfDay) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, to.Hour, to.Min, 0, 0, now.Location())
}

func (s *BlockSession) surfaceSpec(now time.Time) ports.SurfaceSpec {
	return ports.SurfaceSpec{
		Countdown:    domain.NewCountdown(domain.TimeOfDayFrom(now), s.cfg.To),
		HasBypassPIN: s.cfg.HasBypassPIN(),
		Modal:        true,
		Dismissable:  false,
	}
}

// rearm keeps exactly one tick timer pending while blocking or while
// enabled and idle, and none otherwise.
func (s *BlockSession) rearm() {
	s.cancelTick()
	switch {
	case s.state == domain.StateBlocking && s.settleTimer == 0:
		s.tick = s.sched.AfterFunc(domain.TickInterval, s.onTick)
		s.countdownActive = true
	case s.state == domain.StateIdle && s.cfg.Enabled:
		s.tick = s.sched.AfterFunc(domain.TickInterval, s.onTick)
	}
}

func (s *BlockSession) cancelTick() {
	if s.tick != 0 {
		s.sched.Cancel(s.tick)
		s.tick = 0
	}
	s.countdownActive = false
}

func (s *BlockSession) cancelSettle() {
	if s.settleTimer != 0 {
		s.sched.Cancel(s.settleTimer)
		s.settleTimer = 0
	}
}

// noteElapsed folds the time since the last check into blockedFor. Gaps
// longer than the sanity threshold count as zero.
func (s *BlockSession) noteElapsed(now time.Time) {
	if !s.lastCheck.IsZero() {
		elapsed := domain.ElapsedSinceLastCheck(now, s.lastCheck)
		if raw := now.Sub(s.lastCheck); raw > domain.MaxSaneElapsed {
			s.log.Debug().Dur("gap", raw).Msg("clock jump ignored")
		}
		if s.state.IsBlocking() && elapsed > 0 {
			s.blockedFor += elapsed
		}
	}
	s.lastCheck = now
}

func (s *BlockSession) record(ctx context.Context, kind domain.EventKind, now time.Time, blocked time.Duration) {
	if s.events == nil {
		return
	}
	ev := domain.NewBlockEvent(kind, now, s.cfg.From, s.cfg.To)
	ev.BlockedFor = blocked
	if kind == domain.EventStarted && s.git != nil {
		if info, err := s.git.Detect(ctx, s.workDir); err == nil && info != nil {
			ev.GitBranch = info.Branch
		}
	}
	if err := s.events.Save(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Msg("failed to record block event")
	}
}

// reject surfaces err to the user and returns it unchanged.
func (s *BlockSession) reject(err error) error {
	s.log.Info().Err(err).Str("state", string(s.state)).Msg("rejected")
	s.host.Notify(notice(err), domain.NotifyTimeout)
	return err
}

func notice(err error) string {
	msg := err.Error()
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
