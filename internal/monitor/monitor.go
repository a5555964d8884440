package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/patgov/audiomon/internal/errors"

	"github.com/patgov/audiomon/internal/classify"
	"github.com/patgov/audiomon/internal/device"
	"github.com/patgov/audiomon/internal/engine"
	"github.com/patgov/audiomon/internal/level"
	"github.com/patgov/audiomon/internal/resilience"
	"github.com/patgov/audiomon/internal/sched"
	"github.com/patgov/audiomon/internal/stream"
	"github.com/patgov/audiomon/internal/syncx"
	"github.com/patgov/audiomon/internal/watchdog"
)

// Phase is the coordinator's lifecycle state.
type Phase int

const (
	PhaseNoSelection Phase = iota
	PhaseSelecting
	PhaseActive
	PhaseRecovering
	PhaseDown
)

func (p Phase) String() string {
	return [...]string{"noSelection", "selecting", "active", "recovering", "down"}[p]
}

// LevelSample is one published level reading, emitted at buffer rate.
type LevelSample struct {
	LeftDB      float64   `json:"leftDb"`
	RightDB     float64   `json:"rightDb"`
	PeakLeftDB  float64   `json:"peakLeftDb"`
	PeakRightDB float64   `json:"peakRightDb"`
	DeviceName  string    `json:"deviceName"`
	DeviceUID   string    `json:"deviceUid"`
	Timestamp   time.Time `json:"timestamp"`
}

// Warning is one published health advisory. An empty Text clears the
// previous warning.
type Warning struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Status is the point-in-time coordinator snapshot served over the API.
type Status struct {
	Phase        string            `json:"phase"`
	Running      bool              `json:"running"`
	SelectedName string            `json:"selectedName"`
	SelectedUID  string            `json:"selectedUid"`
	UserPinned   bool              `json:"userPinned"`
	Stream       engine.StreamInfo `json:"stream"`
	Warning      string            `json:"warning"`
	ClipLeft     int               `json:"clipLeft"`
	ClipRight    int               `json:"clipRight"`
	LastError    string            `json:"lastError,omitempty"`
}

// Control-loop inbox events. Everything that mutates coordinator state
// arrives here and is consumed in order by the one loop goroutine.
type (
	selectEvent struct {
		dev device.Device
		pin bool
	}
	startEvent     struct{}
	stopEvent      struct{}
	timerEvent     struct{ purpose string }
	actionsEvent   struct{ actions []watchdog.Action }
	warnClearEvent struct{}
	fallbackEvent  struct{}
	halErrorEvent  struct{ err error }
)

// Coordinator owns the selection state machine. All engine control runs on
// its single loop goroutine; the capture callback computes levels and
// classification inline and hands everything else off through the inbox.
type Coordinator struct {
	backend  device.Backend
	registry *device.Registry
	engine   *engine.Engine
	sched    *sched.Scheduler
	hal      *resilience.Breaker
	params   Params
	wdParams watchdog.Params
	retryCfg resilience.RetryConfig
	tapCfg   resilience.RetryConfig

	pinDefault   bool
	lastUID      string
	registryOpts []device.Option

	events chan any

	// Loop-goroutine state. Never touched from other goroutines.
	phase            Phase
	selected         device.Device
	userPinned       bool
	pending          device.Device
	pendingSince     time.Time
	pendingConfirmed bool
	devices          []device.Device
	startAttempts    int
	tapAttempts      int
	followUpArmed    bool
	fallbackUsed     bool
	lastErr          error

	// Shared with the capture callback.
	mu               sync.Mutex
	classifier       *classify.Classifier
	watchdog         *watchdog.Watchdog
	captureDev       device.Device
	fragileTransport bool
	fallbackSignaled bool
	lastWarned       bool
	clipLeft         int
	clipRight        int

	status *syncx.RWGuard[Status]

	// Published streams. Latest-value semantics per stream; ordering is
	// only guaranteed within each stream.
	Levels   *stream.Broadcaster[LevelSample]
	Devices  *stream.Broadcaster[[]device.Device]
	Selected *stream.Broadcaster[device.Device]
	Warnings *stream.Broadcaster[Warning]
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithParams overrides the coordinator tunables.
func WithParams(p Params) Option {
	return func(c *Coordinator) { c.params = p }
}

// WithClassifierParams overrides the signal classifier tunables.
func WithClassifierParams(p classify.Params) Option {
	return func(c *Coordinator) { c.classifier = classify.NewClassifier(p, classify.FamilyGeneric) }
}

// WithWatchdogParams overrides the health watchdog tunables.
func WithWatchdogParams(p watchdog.Params) Option {
	return func(c *Coordinator) { c.wdParams = p }
}

// WithPinSystemDefault makes the in-app selection authoritative: externally
// observed system-default changes are never adopted.
func WithPinSystemDefault(pin bool) Option {
	return func(c *Coordinator) { c.pinDefault = pin }
}

// WithLastSelectedUID seeds the selection from a persisted identifier,
// resolved against the first enumeration.
func WithLastSelectedUID(uid string) Option {
	return func(c *Coordinator) { c.lastUID = uid }
}

// WithRegistryOptions passes options through to the device registry.
func WithRegistryOptions(opts ...device.Option) Option {
	return func(c *Coordinator) { c.registryOpts = opts }
}

// WithRetryConfig overrides the engine start retry policy. The retry count
// is still capped by Params.MaxStartAttempts.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *Coordinator) { c.retryCfg = cfg }
}

// New creates a coordinator over a backend. Run must be called before the
// control entry points have any effect.
func New(backend device.Backend, opts ...Option) *Coordinator {
	c := &Coordinator{
		backend:    backend,
		engine:     engine.New(backend),
		sched:      sched.New(),
		hal:        resilience.New(resilience.HALConfig()),
		params:     DefaultParams(),
		wdParams:   watchdog.DefaultParams(),
		retryCfg:   resilience.EngineRetryConfig(),
		tapCfg:     resilience.TapRetryConfig(),
		selected:   device.NoDevice,
		pending:    device.NoDevice,
		classifier: classify.NewClassifier(classify.DefaultParams(), classify.FamilyGeneric),
		status:     syncx.NewGuard(Status{Phase: PhaseNoSelection.String()}),
		Levels:     stream.New[LevelSample](),
		Devices:    stream.New[[]device.Device](),
		Selected:   stream.New[device.Device](),
		Warnings:   stream.New[Warning](),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.retryCfg.MaxRetries = c.params.MaxStartAttempts
	c.events = make(chan any, c.params.EventQueueSize)

	// The bring-up grace must cover the silent-device fallback window,
	// or the low-signal detector warns about a dark wireless device that
	// was about to be retargeted instead.
	if floor := c.params.SilenceFallbackAfter + time.Second; c.wdParams.BluetoothGrace < floor {
		c.wdParams.BluetoothGrace = floor
	}
	c.watchdog = watchdog.New(c.wdParams)

	regOpts := append([]device.Option{}, c.registryOpts...)
	regOpts = append(regOpts, device.WithHALErrorHook(func(err error) {
		c.post(halErrorEvent{err: err})
	}))
	c.registry = device.NewRegistry(backend, regOpts...)

	c.engine.InstallBufferCallback(c.onBuffer)
	return c
}

// SelectDevice pins dev as the user's choice. Identical re-selection is a
// no-op; rapid distinct selections coalesce into one retarget.
func (c *Coordinator) SelectDevice(dev device.Device) {
	c.post(selectEvent{dev: dev, pin: true})
}

// Start begins monitoring: if nothing is selected yet the system default
// (or the persisted last selection) is adopted first.
func (c *Coordinator) Start() { c.post(startEvent{}) }

// Stop tears down the engine and cancels all pending recovery work.
func (c *Coordinator) Stop() { c.post(stopEvent{}) }

// Status returns the current snapshot.
func (c *Coordinator) Status() Status { return c.status.Get() }

// Run drives the control loop until ctx is done. It starts the registry
// watcher, performs the initial enumeration, and then consumes events in
// arrival order.
func (c *Coordinator) Run(ctx context.Context) {
	go c.registry.Watch(ctx)
	c.boot()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return
		case evt := <-c.registry.Events():
			c.handleRegistry(evt)
		case evt := <-c.events:
			c.dispatch(evt)
		}
	}
}

func (c *Coordinator) post(evt any) {
	select {
	case c.events <- evt:
	default:
		slog.Debug("coordinator inbox full, dropping event")
	}
}

// scheduleTimer arms a named single-slot timer whose fire re-enters the
// control loop as an event, never running handler logic on the timer
// goroutine itself.
func (c *Coordinator) scheduleTimer(purpose string, delay time.Duration) {
	c.sched.Schedule(purpose, delay, func() {
		c.post(timerEvent{purpose: purpose})
	})
}

func (c *Coordinator) boot() {
	devices, err := c.registry.Enumerate()
	if err != nil {
		slog.Warn("initial enumeration failed", "error", err)
		c.hal.Failure()
	}
	def, _ := c.registry.Default()
	c.handleRegistry(device.Event{Type: device.ListChanged, Devices: devices, Default: def})
}

func (c *Coordinator) dispatch(evt any) {
	switch e := evt.(type) {
	case selectEvent:
		c.handleSelect(e.dev, e.pin)
	case startEvent:
		c.handleStart()
	case stopEvent:
		c.handleStop()
	case timerEvent:
		c.handleTimer(e.purpose)
	case actionsEvent:
		for _, a := range e.actions {
			c.handleAction(a)
		}
	case warnClearEvent:
		c.Warnings.Publish(Warning{Timestamp: time.Now()})
		c.publishStatus()
	case fallbackEvent:
		c.handleFallback()
	case halErrorEvent:
		slog.Warn("hardware layer error, arming backoff", "error", e.err)
		c.hal.Failure()
	}
}

func (c *Coordinator) handleSelect(dev device.Device, pin bool) {
	if !dev.IsValid() {
		slog.Warn("ignoring selection of invalid device", "device", dev.Name)
		return
	}
	if dev.Same(c.selected) && c.phase != PhaseNoSelection && c.phase != PhaseDown {
		slog.Debug("selection unchanged", "device", dev.Name)
		return
	}
	c.applySelection(dev, pin)
}

// applySelection publishes the new choice immediately for responsive UI,
// resets all per-device state before any buffer of the next engine
// instance can arrive, and debounces the actual retarget.
func (c *Coordinator) applySelection(dev device.Device, pin bool) {
	slog.Info("selecting input device", "device", dev.Name, "pinned", pin)

	c.selected = dev
	c.userPinned = pin
	c.pending = device.NoDevice
	c.pendingConfirmed = false
	c.startAttempts = 0
	c.tapAttempts = 0
	c.followUpArmed = dev.IsFragile()
	c.lastErr = nil
	c.phase = PhaseSelecting

	c.sched.Cancel(sched.PurposeFollowUp)
	c.sched.Cancel(sched.PurposeStartRetry)
	c.sched.Cancel(sched.PurposeTapRetry)
	c.sched.Cancel(sched.PurposeRecovery)
	c.sched.Cancel(sched.PurposeAdoptDefault)

	c.resetCaptureState(dev, time.Now())
	c.Selected.Publish(dev)
	c.publishStatus()

	c.scheduleTimer(sched.PurposeRestart, c.params.RetargetDebounce)
}

// resetCaptureState re-binds classifier and watchdog to dev under the
// capture-callback lock, so counters read exactly their reset values
// before the first post-change buffer is classified.
func (c *Coordinator) resetCaptureState(dev device.Device, start time.Time) {
	family := classify.DetectFamily(dev.Name)
	bluetooth := dev.IsBluetoothLike()
	continuity := dev.IsContinuityLike()

	c.mu.Lock()
	c.classifier.Reset(family)
	c.watchdog.Reset(start, bluetooth, continuity)
	c.captureDev = dev
	c.fragileTransport = bluetooth || continuity
	c.fallbackSignaled = false
	c.lastWarned = false
	c.clipLeft = 0
	c.clipRight = 0
	c.mu.Unlock()
}

func (c *Coordinator) handleStart() {
	if c.selected.IsValid() {
		if c.phase == PhaseDown {
			c.phase = PhaseSelecting
			c.lastErr = nil
			c.startAttempts = 0
		}
		c.startEngine()
		return
	}
	if def, ok := c.registry.Default(); ok {
		c.applySelection(def, false)
		return
	}
	slog.Warn("start requested with no input devices available")
	c.publishWarning("no input devices available")
}

func (c *Coordinator) handleStop() {
	slog.Info("stopping monitor")
	c.sched.CancelAll()
	c.engine.Stop()
	c.phase = PhaseDown
	c.lastErr = nil
	c.publishStatus()
}

func (c *Coordinator) handleTimer(purpose string) {
	switch purpose {
	case sched.PurposeRestart, sched.PurposeStartRetry, sched.PurposeRecovery:
		c.startEngine()
	case sched.PurposeFollowUp:
		if c.phase == PhaseActive && c.selected.IsFragile() {
			slog.Info("fragile device follow-up restart", "device", c.selected.Name)
			c.startEngine()
		}
	case sched.PurposeTapRetry:
		c.reinstallTap()
	case sched.PurposeAdoptDefault:
		c.handleAdoptTimer()
	}
}

func (c *Coordinator) startEngine() {
	if !c.selected.IsValid() || c.phase == PhaseDown {
		return
	}
	if err := c.hal.Allow(); err != nil {
		slog.Warn("engine start suppressed by hardware backoff window")
		c.scheduleTimer(sched.PurposeStartRetry, resilience.BackoffDelay(c.retryCfg, c.startAttempts))
		return
	}

	info, err := c.engine.Start(c.selected)
	if err != nil {
		c.handleStartError(err)
		return
	}

	c.hal.Success()
	c.startAttempts = 0
	c.tapAttempts = 0
	c.fallbackUsed = false
	c.phase = PhaseActive
	c.lastErr = nil

	// Reset again at successful start: anything observed during bring-up
	// must not leak into the new instance.
	c.resetCaptureState(c.selected, time.Now())
	c.publishStatus()
	slog.Info("engine running",
		"device", info.DeviceName,
		"channels", info.Channels,
		"sampleRate", info.SampleRate)

	if c.followUpArmed {
		c.followUpArmed = false
		c.scheduleTimer(sched.PurposeFollowUp, c.params.FollowUpDelay)
	}
}

func (c *Coordinator) handleStartError(err error) {
	if apperrors.IsCode(err, apperrors.CodeAlreadyStarting) {
		return
	}
	if apperrors.IsCode(err, apperrors.CodeHALError) {
		c.hal.Failure()
	}
	if apperrors.IsTerminal(err) {
		slog.Error("engine start failed terminally", "error", err)
		c.phase = PhaseDown
		c.lastErr = err
		c.publishWarning("microphone unavailable: " + err.Error())
		return
	}

	c.startAttempts++
	if c.startAttempts > c.params.MaxStartAttempts {
		err = apperrors.Wrapf(err, apperrors.CodeRetryExhausted,
			"engine start failed %d times", c.startAttempts)
		slog.Error("engine start retries exhausted", "error", err)
		c.phase = PhaseDown
		c.lastErr = err
		c.publishWarning("input device failed repeatedly; re-select it to retry")
		return
	}

	delay := resilience.BackoffDelay(c.retryCfg, c.startAttempts-1)
	slog.Warn("engine start failed, retrying",
		"error", err,
		"attempt", c.startAttempts,
		"delay", delay)
	c.phase = PhaseRecovering
	c.publishStatus()
	c.scheduleTimer(sched.PurposeStartRetry, delay)
}

func (c *Coordinator) reinstallTap() {
	err := c.engine.ReinstallTap()
	if err == nil {
		c.tapAttempts = 0
		return
	}
	if apperrors.IsCode(err, apperrors.CodeNotRunning) {
		return
	}
	c.tapAttempts++
	if c.tapAttempts > c.tapCfg.MaxRetries {
		slog.Warn("tap reinstall retries exhausted, restarting engine", "error", err)
		c.tapAttempts = 0
		c.scheduleTimer(sched.PurposeRecovery, c.params.RecoveryDelay)
		return
	}
	delay := resilience.BackoffDelay(c.tapCfg, c.tapAttempts-1)
	slog.Warn("tap reinstall failed, retrying", "error", err, "delay", delay)
	c.scheduleTimer(sched.PurposeTapRetry, delay)
}

func (c *Coordinator) handleAction(a watchdog.Action) {
	switch a {
	case watchdog.ActionWarnLowSignal:
		slog.Warn("very low input signal", "device", c.selected.Name)
		c.publishWarning("very low input signal on " + c.selected.Name)
	case watchdog.ActionReinstallTap:
		c.reinstallTap()
	case watchdog.ActionRestartEngine:
		if c.phase != PhaseActive {
			return
		}
		slog.Warn("dead silence detected, restarting engine", "device", c.selected.Name)
		c.phase = PhaseRecovering
		c.publishStatus()
		c.scheduleTimer(sched.PurposeRecovery, c.params.RecoveryDelay)
	}
}

// handleFallback abandons a silent wireless device for a wired candidate,
// at most once per engine instance. The fallback counts as a user pin so
// future system-default changes stop following it around.
func (c *Coordinator) handleFallback() {
	if c.fallbackUsed || c.phase != PhaseActive {
		return
	}
	candidate, ok := c.fallbackCandidate()
	if !ok {
		slog.Warn("silent wireless device but no fallback candidate", "device", c.selected.Name)
		return
	}
	slog.Warn("falling back from silent device",
		"from", c.selected.Name,
		"to", candidate.Name)
	c.fallbackUsed = true
	c.publishWarning(c.selected.Name + " produced no signal; switched to " + candidate.Name)
	c.applySelection(candidate, true)
}

// fallbackCandidate prefers devices that are not wireless, not
// display-embedded, and not continuity-style.
func (c *Coordinator) fallbackCandidate() (device.Device, bool) {
	var second device.Device
	haveSecond := false
	for _, d := range c.devices {
		if d.Same(c.selected) || !d.IsValid() {
			continue
		}
		if !d.IsBluetoothLike() && !d.IsDisplayEmbeddedLike() && !d.IsContinuityLike() {
			return d, true
		}
		if !haveSecond {
			second, haveSecond = d, true
		}
	}
	return second, haveSecond
}

func (c *Coordinator) handleRegistry(evt device.Event) {
	switch evt.Type {
	case device.ListChanged:
		c.devices = evt.Devices
		c.Devices.Publish(evt.Devices)
		c.resolveLastSelected()
		c.confirmPending()
		c.checkSelectedPresent()
	case device.DefaultChanged:
		c.devices = evt.Devices
		c.handleDefaultChanged(evt.Default)
	}
}

// resolveLastSelected adopts the persisted selection, once, against the
// first enumeration that contains it.
func (c *Coordinator) resolveLastSelected() {
	if c.lastUID == "" || c.selected.IsValid() {
		c.lastUID = ""
		return
	}
	for _, d := range c.devices {
		if d.UID == c.lastUID {
			slog.Info("restoring last selected device", "device", d.Name)
			c.lastUID = ""
			c.applySelection(d, true)
			return
		}
	}
}

func (c *Coordinator) confirmPending() {
	if c.pending.IsNone() || c.pendingConfirmed {
		return
	}
	for _, d := range c.devices {
		if d.Same(c.pending) {
			c.pendingConfirmed = true
			return
		}
	}
}

// checkSelectedPresent reacts to the selected device disappearing from an
// enumeration, falling back to the system default when one exists.
func (c *Coordinator) checkSelectedPresent() {
	if !c.selected.IsValid() || c.phase == PhaseNoSelection || c.phase == PhaseDown {
		return
	}
	for _, d := range c.devices {
		if d.Same(c.selected) {
			return
		}
	}

	slog.Warn("selected device disappeared", "device", c.selected.Name)
	if def, ok := c.registry.Default(); ok && !def.Same(c.selected) {
		c.publishWarning(c.selected.Name + " disconnected; switched to " + def.Name)
		c.applySelection(def, false)
		return
	}
	c.publishWarning(c.selected.Name + " disconnected")
	c.engine.Stop()
	c.selected = device.NoDevice
	c.userPinned = false
	c.phase = PhaseNoSelection
	c.Selected.Publish(device.NoDevice)
	c.publishStatus()
}

func (c *Coordinator) handleDefaultChanged(def device.Device) {
	if !def.IsValid() {
		return
	}
	if c.pinDefault {
		// The in-app selection is authoritative; the OS change is noted
		// and not followed.
		slog.Info("system default changed, selection pinned to app choice",
			"default", def.Name,
			"selected", c.selected.Name)
		return
	}
	if c.userPinned {
		slog.Debug("system default changed, user pin wins", "default", def.Name)
		return
	}
	if def.Same(c.selected) {
		return
	}

	if def.IsBluetoothLike() {
		// Adopt into the pending selection now, retarget later, confirm
		// against a subsequent enumeration.
		slog.Info("deferring adoption of wireless default", "device", def.Name)
		c.pending = def
		c.pendingSince = time.Now()
		c.pendingConfirmed = false
		c.confirmPending()
		c.Selected.Publish(def)
		c.scheduleTimer(sched.PurposeAdoptDefault, c.params.BluetoothAdoptDelay)
		return
	}

	slog.Info("adopting new system default", "device", def.Name)
	c.applySelection(def, false)
}

func (c *Coordinator) handleAdoptTimer() {
	if c.pending.IsNone() {
		return
	}
	if c.pendingConfirmed {
		dev := c.pending
		c.applySelection(dev, false)
		return
	}
	if time.Since(c.pendingSince) < c.params.AdoptConfirmTimeout {
		c.scheduleTimer(sched.PurposeAdoptDefault, c.params.AdoptRecheck)
		return
	}
	slog.Warn("abandoning wireless default, never appeared in enumeration",
		"device", c.pending.Name)
	c.pending = device.NoDevice
	c.Selected.Publish(c.selected)
}

// onBuffer is the capture callback. Bounded work only: level computation,
// classification, watchdog observation, stream publish. Engine control is
// handed off to the loop through the inbox and never blocks here.
func (c *Coordinator) onBuffer(samples []float32, channels int) {
	raw := level.ComputeFloat32(samples, channels)
	now := time.Now()

	c.mu.Lock()
	vol, haveVol := c.backend.InputVolume(c.captureDev)
	sample := c.classifier.Classify(raw, now, vol, haveVol)
	actions := c.watchdog.Observe(sample)
	c.clipLeft += raw.ClipLeft
	c.clipRight += raw.ClipRight

	warned := c.watchdog.Warned()
	warnCleared := c.lastWarned && !warned
	c.lastWarned = warned

	fallback := false
	if c.fragileTransport && !c.fallbackSignaled {
		if since, ok := c.watchdog.SilentSince(); ok && now.Sub(since) > c.params.SilenceFallbackAfter {
			fallback = true
			c.fallbackSignaled = true
		}
	}
	c.mu.Unlock()

	info := c.engine.Info()
	c.Levels.Publish(LevelSample{
		LeftDB:      sample.LeftDB,
		RightDB:     sample.RightDB,
		PeakLeftDB:  sample.PeakLeftDB,
		PeakRightDB: sample.PeakRightDB,
		DeviceName:  info.DeviceName,
		DeviceUID:   info.DeviceUID,
		Timestamp:   now,
	})

	if len(actions) > 0 {
		c.post(actionsEvent{actions: actions})
	}
	if warnCleared {
		c.post(warnClearEvent{})
	}
	if fallback {
		c.post(fallbackEvent{})
	}
}

func (c *Coordinator) publishWarning(text string) {
	c.Warnings.Publish(Warning{Text: text, Timestamp: time.Now()})
	c.publishStatus()
}

func (c *Coordinator) publishStatus() {
	c.mu.Lock()
	clipL, clipR := c.clipLeft, c.clipRight
	c.mu.Unlock()

	warning := ""
	if w, ok := c.Warnings.Latest(); ok {
		warning = w.Text
	}
	lastErr := ""
	if c.lastErr != nil {
		lastErr = c.lastErr.Error()
	}

	c.status.Set(Status{
		Phase:        c.phase.String(),
		Running:      c.phase == PhaseActive,
		SelectedName: c.selected.Name,
		SelectedUID:  c.selected.UID,
		UserPinned:   c.userPinned,
		Stream:       c.engine.Info(),
		Warning:      warning,
		ClipLeft:     clipL,
		ClipRight:    clipR,
		LastError:    lastErr,
	})
}

func (c *Coordinator) shutdown() {
	c.sched.CancelAll()
	c.engine.Stop()
	c.Levels.Close()
	c.Devices.Close()
	c.Selected.Close()
	c.Warnings.Close()
}
