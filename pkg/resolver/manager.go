package resolver

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"scraperhq/anchor/pkg/conferr"
	"scraperhq/anchor/pkg/confmap"
	"scraperhq/anchor/pkg/history"
	"scraperhq/anchor/pkg/schema"
	"scraperhq/anchor/pkg/source"
)

// DefaultReadTimeout bounds a single configuration file read.
const DefaultReadTimeout = 5 * time.Second

// Triggers name what started a resolution attempt, for history and metrics.
const (
	TriggerStartup  = "startup"
	TriggerReload   = "reload"
	TriggerOverride = "override"
	TriggerProfile  = "profile"
	TriggerWatch    = "watch"
	TriggerSchedule = "schedule"
)

// Options configures a Manager.
type Options struct {
	// FilePath is the configuration file to read. Empty means no file layer;
	// a missing file at a non-empty path is tolerated.
	FilePath string

	// EnvPrefix selects the environment variables read as overrides.
	// Default: schema.EnvPrefix.
	EnvPrefix string

	// Strict makes warning-grade violations (unknown keys) fatal.
	Strict bool

	// Schema validates resolved values. Default: schema.Default().
	Schema *schema.Schema

	// Logger receives resolution diagnostics. Default: slog.Default().
	Logger *slog.Logger

	// ReadTimeout bounds each file read. Default: DefaultReadTimeout.
	ReadTimeout time.Duration

	// DebounceInterval is the watch quiet period.
	// Default: DefaultDebounceInterval.
	DebounceInterval time.Duration

	// History records resolution attempts when set.
	History history.Store

	// Metrics records resolution metrics when set.
	Metrics *Metrics

	// Environ substitutes the process environment, for tests.
	Environ func() []string
}

// Manager resolves layered configuration into immutable snapshots and
// publishes them atomically. All methods are safe for concurrent use.
// Readers always observe a complete snapshot: the one published before a
// failed or in-flight resolution, or the one published after a successful
// one.
type Manager struct {
	opts     Options
	schema   *schema.Schema
	logger   *slog.Logger
	file     *source.File
	env      *source.Env
	profiles *profileStore
	history  history.Store
	metrics  *Metrics

	// resolveMu serializes resolution attempts so at most one is in flight.
	resolveMu sync.Mutex

	// mu guards the published snapshot and the committed override map.
	mu        sync.RWMutex
	snapshot  *schema.Resolved
	overrides confmap.Map

	watcher   *fileWatcher
	watcherWG sync.WaitGroup
	closeOnce sync.Once
}

// New creates a Manager and performs the initial resolution synchronously.
// When the initial resolution fails, the manager still starts with a
// snapshot of pure schema defaults and the returned error carries the
// violations, so readers always observe a valid configuration. Only a
// schema whose defaults cannot validate is fatal (the returned manager is
// nil).
func New(ctx context.Context, opts Options) (*Manager, error) {
	if opts.EnvPrefix == "" {
		opts.EnvPrefix = schema.EnvPrefix
	}
	if opts.Schema == nil {
		opts.Schema = schema.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	environ := opts.Environ
	var env *source.Env
	if environ != nil {
		env = source.NewEnvFrom(opts.EnvPrefix, environ)
	} else {
		env = source.NewEnv(opts.EnvPrefix)
	}

	m := &Manager{
		opts:      opts,
		schema:    opts.Schema,
		logger:    opts.Logger.With("component", "resolver"),
		file:      source.NewFile(opts.FilePath, opts.Logger),
		env:       env,
		profiles:  newProfileStore(),
		history:   opts.History,
		metrics:   opts.Metrics,
		overrides: confmap.Map{},
	}

	m.resolveMu.Lock()
	_, errs := m.runResolution(ctx, TriggerStartup, confmap.Map{}, false)
	m.resolveMu.Unlock()
	if err := errs.ErrOrNil(opts.Strict); err != nil {
		// Fall back to pure schema defaults so the manager never publishes
		// nothing. Defaults that cannot validate mean the schema itself is
		// broken, and that is fatal.
		fallback, ferrs := m.schema.Resolve(confmap.Map{}, confmap.Provenance{}, false)
		if fallback == nil {
			return nil, ferrs
		}
		m.mu.Lock()
		m.snapshot = fallback
		m.mu.Unlock()
		return m, err
	}
	return m, nil
}

// Snapshot returns the current configuration snapshot.
func (m *Manager) Snapshot() *schema.Resolved {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// Get returns the value at a dot-path from the current snapshot. Entries of
// string-map fields are addressable as sub-paths. Unknown paths return a
// key_not_found violation.
func (m *Manager) Get(path string) (any, error) {
	if v, ok := m.Snapshot().Value(path); ok {
		return v, nil
	}
	return nil, conferr.KeyNotFound(path)
}

// GetDefault returns the value at a dot-path, or fallback when the path
// does not exist.
func (m *Manager) GetDefault(path string, fallback any) any {
	if v, ok := m.Snapshot().Value(path); ok {
		return v
	}
	return fallback
}

// Typed accessors over the current snapshot. The boolean is false when the
// path does not exist or holds a different kind.

func (m *Manager) GetInt(path string) (int, bool)       { return m.Snapshot().Int(path) }
func (m *Manager) GetFloat(path string) (float64, bool) { return m.Snapshot().Float(path) }
func (m *Manager) GetBool(path string) (bool, bool)     { return m.Snapshot().Bool(path) }
func (m *Manager) GetString(path string) (string, bool) { return m.Snapshot().String(path) }
func (m *Manager) GetStringSet(path string) ([]string, bool) {
	return m.Snapshot().StringSet(path)
}
func (m *Manager) GetStringMap(path string) (map[string]string, bool) {
	return m.Snapshot().StringMap(path)
}

// Set applies a single runtime override. Equivalent to Update with a
// one-entry mapping: the override is published only if the resulting
// configuration is valid, and no other field is disturbed.
func (m *Manager) Set(ctx context.Context, path string, value any) error {
	return m.Update(ctx, map[string]any{path: value})
}

// Update applies a batch of runtime overrides atomically. The batch is
// flattened, layered over the committed overrides, and the whole
// configuration re-resolved. On any violation the entire batch is discarded
// and the published snapshot is untouched; the returned error carries every
// violation found, not just the first.
func (m *Manager) Update(ctx context.Context, values map[string]any) error {
	flat, errs := source.Dict(values)
	if err := errs.ErrOrNil(m.opts.Strict); err != nil {
		return err
	}

	m.resolveMu.Lock()
	defer m.resolveMu.Unlock()

	candidate := m.overridesClone()
	for key, value := range flat {
		candidate[key] = value
	}

	_, rerrs := m.runResolution(ctx, TriggerOverride, candidate, true)
	return rerrs.ErrOrNil(m.opts.Strict)
}

// ResetOverrides discards all runtime overrides and re-resolves.
func (m *Manager) ResetOverrides(ctx context.Context) error {
	m.resolveMu.Lock()
	defer m.resolveMu.Unlock()

	_, errs := m.runResolution(ctx, TriggerOverride, confmap.Map{}, true)
	return errs.ErrOrNil(m.opts.Strict)
}

// Reload re-reads every layer and publishes a fresh snapshot. A failed
// reload leaves the published snapshot in place and returns the violations.
func (m *Manager) Reload(ctx context.Context) error {
	return m.reload(ctx, TriggerReload)
}

func (m *Manager) reload(ctx context.Context, trigger string) error {
	m.resolveMu.Lock()
	defer m.resolveMu.Unlock()

	_, errs := m.runResolution(ctx, trigger, m.overridesClone(), false)
	return errs.ErrOrNil(m.opts.Strict)
}

// DefineProfile stores a named profile given as a nested mapping. Redefining
// a name replaces the previous definition. Shape violations are returned
// immediately.
func (m *Manager) DefineProfile(name string, values map[string]any) error {
	if errs := m.profiles.define(name, values); errs.Fatal(false) {
		return errs
	}
	return nil
}

// GetProfile returns a profile's override values as a nested mapping.
// An undefined name is a profile_not_found violation.
func (m *Manager) GetProfile(name string) (map[string]any, error) {
	flat, ok := m.profiles.get(name)
	if !ok {
		return nil, conferr.ProfileNotFound(name)
	}
	nested, errs := confmap.Expand(flat)
	if err := errs.ErrOrNil(false); err != nil {
		return nil, err
	}
	return nested, nil
}

// Profiles returns the defined profile names, sorted.
func (m *Manager) Profiles() []string {
	return m.profiles.names()
}

// ActiveProfile returns the active profile name, empty when none is active.
func (m *Manager) ActiveProfile() string {
	return m.profiles.activeName()
}

// ActivateProfile makes the named profile the active layer and re-resolves.
// Activating an undefined profile is a profile_not_found violation. When the
// re-resolution fails, the previously active profile is restored and the
// published snapshot is untouched.
func (m *Manager) ActivateProfile(ctx context.Context, name string) error {
	if _, ok := m.profiles.get(name); !ok {
		return conferr.ProfileNotFound(name)
	}
	return m.switchProfile(ctx, name)
}

// DeactivateProfile removes the profile layer and re-resolves.
func (m *Manager) DeactivateProfile(ctx context.Context) error {
	return m.switchProfile(ctx, "")
}

func (m *Manager) switchProfile(ctx context.Context, name string) error {
	m.resolveMu.Lock()
	defer m.resolveMu.Unlock()

	previous := m.profiles.activeName()
	if previous == name {
		return nil
	}
	m.profiles.setActive(name)

	_, errs := m.runResolution(ctx, TriggerProfile, m.overridesClone(), false)
	if err := errs.ErrOrNil(m.opts.Strict); err != nil {
		m.profiles.setActive(previous)
		return err
	}
	return nil
}

// Watch starts watching the configuration file and re-resolves on changes.
// A burst of filesystem events collapses into a single resolution, and
// onChange is invoked once per batch: with the fresh snapshot when the
// values changed, or with a nil snapshot and the violations when the reload
// failed and the previous snapshot stays current. A batch whose resolved
// values are identical to the published snapshot is not reported. Watch
// returns immediately; watching stops when ctx is cancelled or the Manager
// is closed, after which Watch may be called again.
func (m *Manager) Watch(ctx context.Context, onChange func(*schema.Resolved, error)) error {
	fw, err := newFileWatcher(m.opts.FilePath, m.opts.DebounceInterval, m.logger)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if m.watcher != nil {
		m.mu.Unlock()
		fw.stop()
		return errAlreadyWatching
	}
	m.watcher = fw
	m.mu.Unlock()

	m.watcherWG.Add(1)
	go func() {
		defer m.watcherWG.Done()
		err := fw.watch(ctx, func() {
			m.metrics.RecordWatchReload()
			old := m.Snapshot()
			if rerr := m.reload(ctx, TriggerWatch); rerr != nil {
				m.logger.Error("watch-triggered reload failed", "error", rerr)
				if onChange != nil {
					onChange(nil, rerr)
				}
				return
			}
			fresh := m.Snapshot()
			if onChange != nil && !fresh.Equal(old) {
				onChange(fresh, nil)
			}
		})
		if err != nil {
			m.logger.Error("configuration watcher exited", "error", err)
		}
		m.mu.Lock()
		if m.watcher == fw {
			m.watcher = nil
		}
		m.mu.Unlock()
	}()
	return nil
}

// Close stops watching and releases the history store. An in-flight
// watch-triggered resolution runs to completion before the store is closed.
// The published snapshot remains readable after Close.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.mu.Lock()
		fw := m.watcher
		m.mu.Unlock()

		if fw != nil {
			err = fw.stop()
		}
		m.watcherWG.Wait()
		if m.history != nil {
			if herr := m.history.Close(); err == nil {
				err = herr
			}
		}
	})
	return err
}

// History returns the most recent resolution attempts, newest first. It
// returns nil when no history store is configured.
func (m *Manager) History(ctx context.Context, limit int) ([]history.Entry, error) {
	if m.history == nil {
		return nil, nil
	}
	return m.history.List(ctx, limit)
}

// runResolution performs one full resolution pass with the given candidate
// override map. The caller must hold resolveMu. On success the snapshot is
// published and, when commit is set, the candidate becomes the committed
// override map; on failure both stay untouched.
func (m *Manager) runResolution(ctx context.Context, trigger string, candidate confmap.Map, commit bool) (*schema.Resolved, *conferr.List) {
	start := time.Now()
	res, errs := m.resolveLayers(ctx, candidate)
	duration := time.Since(start)

	m.metrics.RecordResolution(trigger, res != nil, duration, errs)

	if res == nil {
		m.logger.Warn("configuration resolution failed",
			"trigger", trigger,
			"violations", errs.Len(),
			"duration", duration,
		)
		m.record(ctx, trigger, history.OutcomeFailure, "", "", renderViolations(errs.Violations))
		return nil, errs
	}

	m.mu.Lock()
	m.snapshot = res
	if commit {
		m.overrides = candidate
	}
	m.mu.Unlock()

	m.metrics.RecordSnapshot(res)
	m.logger.Info("configuration resolved",
		"trigger", trigger,
		"snapshot_id", res.ID(),
		"fingerprint", res.Fingerprint()[:12],
		"warnings", len(errs.Warnings()),
		"duration", duration,
	)
	m.record(ctx, trigger, history.OutcomeSuccess, res.ID(), res.Fingerprint(), renderViolations(errs.Warnings()))
	return res, errs
}

// resolveLayers reads every source, merges in precedence order, and
// validates against the schema.
func (m *Manager) resolveLayers(ctx context.Context, overrides confmap.Map) (*schema.Resolved, *conferr.List) {
	errs := &conferr.List{}

	readCtx, cancel := context.WithTimeout(ctx, m.opts.ReadTimeout)
	fileMap, ferrs := m.file.Read(readCtx)
	cancel()
	errs.Merge(ferrs)
	if fileMap == nil {
		return nil, errs
	}

	layers := []confmap.Layer{{Name: "file", Values: fileMap}}
	if layer, ok := m.profiles.activeLayer(); ok {
		layers = append(layers, layer)
	}
	layers = append(layers, confmap.Layer{Name: "env", Values: m.env.Read()})
	if len(overrides) > 0 {
		layers = append(layers, confmap.Layer{Name: "override", Values: overrides})
	}

	merged, prov, merrs := confmap.MergeLayers(layers...)
	errs.Merge(merrs)

	res, rerrs := m.schema.Resolve(merged, prov, m.opts.Strict)
	errs.Merge(rerrs)
	if res == nil || errs.Fatal(m.opts.Strict) {
		return nil, errs
	}
	return res, errs
}

// record appends a history entry. History failures are logged, never
// propagated into the resolution result.
func (m *Manager) record(ctx context.Context, trigger string, outcome history.Outcome, snapshotID, fingerprint string, violations []string) {
	if m.history == nil {
		return
	}
	entry := history.Entry{
		ID:          newEntryID(),
		Time:        time.Now().UTC(),
		Trigger:     trigger,
		Outcome:     outcome,
		SnapshotID:  snapshotID,
		Fingerprint: fingerprint,
		Violations:  violations,
	}
	if err := m.history.Record(ctx, entry); err != nil {
		m.logger.Error("failed to record resolution history", "error", err)
	}
}

func (m *Manager) overridesClone() confmap.Map {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.overrides.Clone()
}

func newEntryID() string {
	return uuid.New().String()
}

func renderViolations(vs []*conferr.Violation) []string {
	if len(vs) == 0 {
		return nil
	}
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Error()
	}
	return out
}
