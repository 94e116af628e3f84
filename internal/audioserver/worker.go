package audioserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/patchmind/patchmind/internal/config"
	"github.com/patchmind/patchmind/internal/graph"
	"github.com/patchmind/patchmind/internal/persistence"
	"github.com/patchmind/patchmind/internal/pluginstd"
	"github.com/patchmind/patchmind/internal/rtplugin"
	"github.com/patchmind/patchmind/internal/rules"
	"github.com/patchmind/patchmind/internal/transport"
	"github.com/rs/zerolog"
)

// ErrConnectFailed wraps any error returned by the initial connection
// attempt. §6 makes this fatal only at startup (exit code 2); callers
// should call Connect once, before adding the Worker to a supervisor tree,
// and map a non-nil error here to that exit code. Serve makes no
// connection attempts of its own, so only Connect returns this sentinel.
var ErrConnectFailed = errors.New("audioserver: could not establish audio server connection")

// shutdownDrainCap bounds how long Serve spends discarding commands queued
// behind a Shutdown before it flushes persistence and returns (§5).
const shutdownDrainCap = 500 * time.Millisecond

// pendingPluginBind tracks an AddPlugin whose server-side filter Node has
// not yet been observed, so InsertOnLink and future operations on this
// instance can find its Node once the server announces it.
type pendingPluginBind struct {
	uri      string
	instance rtplugin.InstanceID
}

// Worker is the server-worker thread (§5): the sole client of the audio
// server connection, owner of the graph mirror, the plugin instance arena,
// and the rule engine. Its Serve method is a suture.Service; nothing else
// in the process may call the audio server connection or mutate the
// mirror, the arena, or the engine.
type Worker struct {
	log zerolog.Logger

	mirror *graph.Mirror
	arena  *rtplugin.Arena
	engine *rules.Engine
	settle *rules.SettleDetector

	store    *persistence.Store
	backups  *rules.BackupStore
	resolver *persistence.LinkResolver

	conn    ServerConn
	breaker *gobreaker.CircuitBreaker[any]
	loader  pluginstd.Loader
	budget  rtplugin.CPUBudget

	commands *transport.CommandChannel
	events   *transport.EventChannel
	hostCmds *transport.HostChannel
	cooldown *transport.CooldownLimiter
	requests *transport.RequestTracker

	prefs           config.Preferences
	patchbayEnabled bool

	pluginNodes map[rtplugin.InstanceID]graph.NodeID
	pendingBind []pendingPluginBind
}

// Config bundles Worker's collaborators, grouped so NewWorker's signature
// stays readable as the wiring grows.
type Config struct {
	Mirror  *graph.Mirror
	Arena   *rtplugin.Arena
	Engine  *rules.Engine
	Settle  *rules.SettleDetector
	Store   *persistence.Store
	Backups *rules.BackupStore
	Conn    ServerConn
	Loader   pluginstd.Loader
	Budget   rtplugin.CPUBudget
	Commands *transport.CommandChannel
	Events   *transport.EventChannel
	HostCmds *transport.HostChannel
	Cooldown *transport.CooldownLimiter
	Requests *transport.RequestTracker
	Prefs    config.Preferences
}

// NewWorker wires a Worker from cfg. The circuit breaker around connection
// attempts is grounded on the teacher's eventprocessor.NewCircuitBreaker:
// one breaker, tripped after three consecutive failures. Only Connect runs
// through it; the worker makes no reconnect attempts.
func NewWorker(cfg Config, log zerolog.Logger) *Worker {
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "audioserver-connect",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	w := &Worker{
		log:             log.With().Str("component", "audioserver").Logger(),
		mirror:          cfg.Mirror,
		arena:           cfg.Arena,
		engine:          cfg.Engine,
		settle:          cfg.Settle,
		store:           cfg.Store,
		backups:         cfg.Backups,
		conn:            cfg.Conn,
		breaker:         breaker,
		loader:          cfg.Loader,
		budget:          cfg.Budget,
		commands:        cfg.Commands,
		events:          cfg.Events,
		hostCmds:        cfg.HostCmds,
		cooldown:        cfg.Cooldown,
		requests:        cfg.Requests,
		prefs:           cfg.Prefs,
		patchbayEnabled: true,
		pluginNodes:     make(map[rtplugin.InstanceID]graph.NodeID),
	}
	// §7: a persistence write failure that survives Debounced.Flush's own
	// retry is surfaced to the user as an Error event, not just logged.
	if w.store != nil {
		w.store.SetFailureHandler(func(doc string, err error) {
			w.emitError(fmt.Sprintf("failed to save %s: %v", doc, err), 0)
		})
	}
	return w
}

// Connect performs the one startup connection attempt, wrapped in the
// circuit breaker. Call this once, before handing the Worker to a
// supervisor; a non-nil return is the unrecoverable startup failure §6
// assigns exit code 2 to.
func (w *Worker) Connect(ctx context.Context) error {
	_, err := w.breaker.Execute(func() (any, error) {
		return nil, w.conn.Connect(ctx)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	return nil
}

// Serve implements suture.Service. Connect must already have succeeded;
// Serve's own job is the steady-state loop described in §5 — interleave
// server-event draining with command-channel draining, woken at least
// every pw_tick_interval_ms even when both are quiet.
func (w *Worker) Serve(ctx context.Context) error {
	tickInterval := w.prefs.PwTickInterval()
	if tickInterval <= 0 {
		tickInterval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	defer w.conn.Close()

	for {
		select {
		case <-ctx.Done():
			return w.shutdown()
		default:
		}

		select {
		case cmd := <-w.commands.Receive():
			if w.handleCommand(cmd) {
				return w.shutdown()
			}
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return w.shutdown()
		case cmd := <-w.commands.Receive():
			if w.handleCommand(cmd) {
				return w.shutdown()
			}
		case ev := <-w.conn.Events():
			w.handleServerEvent(ev)
		case <-w.settle.C():
			w.handleSettle()
		case <-ticker.C:
		}
	}
}

// shutdown drains any commands still queued, flushes persistence
// synchronously, and tells the UI to quit (§5's Shutdown semantics).
func (w *Worker) shutdown() error {
	w.drainCommands()
	// FlushAll's per-document retry-then-surface happens inside
	// Debounced.Flush itself, via the failure handler wired in NewWorker;
	// the log line here is for operator visibility alongside that Error
	// event, not a substitute for it.
	if err := w.store.FlushAll(); err != nil {
		w.log.Error().Err(err).Msg("persistence flush on shutdown failed")
	}
	if err := w.engine.Snapshot(); err != nil {
		w.log.Error().Err(err).Msg("rule snapshot on shutdown failed")
	}
	w.events.Send(transport.Quit{})
	return nil
}

// drainCommands discards (without applying) whatever is left in the
// command channel, capped at shutdownDrainCap. Commands are discarded
// rather than applied here: acting on a mutation against a connection
// that's already being torn down risks a half-applied change with nothing
// left to reconcile it.
func (w *Worker) drainCommands() {
	deadline := time.NewTimer(shutdownDrainCap)
	defer deadline.Stop()
	for {
		select {
		case <-w.commands.Receive():
		case <-deadline.C:
			return
		default:
			return
		}
	}
}

func (w *Worker) emitError(msg string, requestID uint64) {
	w.events.Send(transport.Error{Message: msg, RequestID: requestID})
}
