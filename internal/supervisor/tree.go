// Package supervisor builds the process's suture.Supervisor tree (§1's
// "supervised concurrency" domain-stack entry): every long-lived loop in
// the process — the server-worker thread, the plugin-UI host thread, the
// metrics sampler, the debug HTTP server — runs as a supervised
// suture.Service under this tree instead of a bare goroutine, so a panic
// or returned error in one restarts that service without taking the rest
// of the process down with it.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	// Default: 5
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay in seconds.
	// Default: 30
	FailureDecay float64

	// FailureBackoff is the duration to wait when threshold is exceeded.
	// Default: 15s
	FailureBackoff time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns production-ready defaults.
// These values match suture's built-in defaults per pkg.go.dev documentation.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// SupervisorTree manages patchmindd's supervisor structure.
//
// The tree is organized into three layers:
//   - audio: the server-worker thread (internal/audioserver.Worker) and the
//     metrics sampler, both of which touch the graph mirror or the plugin
//     arena
//   - ui: the plugin UI host thread
//   - debug: the localhost /metrics + /healthz HTTP server
//
// This structure provides failure isolation: a panic restarting the debug
// HTTP server, say, never touches the audio layer's state.
type SupervisorTree struct {
	root   *suture.Supervisor
	audio  *suture.Supervisor
	ui     *suture.Supervisor
	debug  *suture.Supervisor
	logger *slog.Logger
	config TreeConfig
}

// NewSupervisorTree creates a new supervisor tree with the given configuration.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	// Apply defaults for zero values
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5.0
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30.0
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	// Create event hook using sutureslog.
	// IMPORTANT: The correct API is (&Handler{Logger: logger}).MustHook()
	// NOT sutureslog.EventHook(logger) which does not exist.
	// MustHook has a pointer receiver, so we need to take the address.
	handler := &sutureslog.Handler{Logger: logger}
	eventHook := handler.MustHook()

	rootSpec := suture.Spec{
		EventHook:        eventHook,
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	// Child supervisors use the same failure parameters.
	// They will inherit the EventHook when added to the root.
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New("patchmindd", rootSpec)
	audio := suture.New("audio-layer", childSpec)
	ui := suture.New("ui-layer", childSpec)
	debug := suture.New("debug-layer", childSpec)

	// Build tree hierarchy
	root.Add(audio)
	root.Add(ui)
	root.Add(debug)

	return &SupervisorTree{
		root:   root,
		audio:  audio,
		ui:     ui,
		debug:  debug,
		logger: logger,
		config: config,
	}, nil
}

// Root returns the root supervisor for direct access if needed.
func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

// AddAudioService adds a service to the audio layer supervisor. Use this
// for the server-worker thread and the metrics sampler.
func (t *SupervisorTree) AddAudioService(svc suture.Service) suture.ServiceToken {
	return t.audio.Add(svc)
}

// AddUIService adds a service to the UI layer supervisor. Use this for the
// plugin UI host thread.
func (t *SupervisorTree) AddUIService(svc suture.Service) suture.ServiceToken {
	return t.ui.Add(svc)
}

// AddDebugService adds a service to the debug layer supervisor. Use this
// for the /metrics + /healthz HTTP server.
func (t *SupervisorTree) AddDebugService(svc suture.Service) suture.ServiceToken {
	return t.debug.Add(svc)
}

// RemoveUIService removes a service from the UI layer supervisor.
func (t *SupervisorTree) RemoveUIService(token suture.ServiceToken) error {
	return t.ui.Remove(token)
}

// Serve starts the supervisor tree and blocks until the context is canceled.
// This is the main entry point for running the supervised application.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground starts the supervisor tree in a background goroutine.
// Returns a channel that receives the error (or nil) when the supervisor stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport returns information about services that failed to stop
// within the configured shutdown timeout. Useful for debugging shutdown issues.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

// Remove removes a service from the tree by its token.
// The service will be stopped and removed.
func (t *SupervisorTree) Remove(token suture.ServiceToken) error {
	return t.root.Remove(token)
}

// RemoveAndWait removes a service and waits for it to fully stop.
// Use this when you need to ensure a service has completely terminated
// before proceeding (e.g., during configuration reload).
func (t *SupervisorTree) RemoveAndWait(token suture.ServiceToken, timeout time.Duration) error {
	return t.root.RemoveAndWait(token, timeout)
}
