// Package main is the entry point for patchmindd, the interactive
// patchbay/effects host daemon.
//
// patchmindd mirrors the audio server's graph, hosts real-time effect
// plugins spliced into that graph, learns and re-applies the connection
// rules a user has made, and persists everything needed to restore that
// state across restarts. See internal/graph, internal/rtplugin,
// internal/rules, and internal/persistence for the four components that
// back those responsibilities; internal/audioserver's Worker is the single
// goroutine that owns all four.
//
// # Initialization order
//
//  1. Configuration: layered defaults -> optional YAML file -> environment
//     (internal/config)
//  2. Config directory: resolved and checked writable (exit code 3 on
//     failure)
//  3. Persistence: every document loaded from the config directory
//  4. Core state: graph mirror, plugin arena, rule engine, transport
//     channels
//  5. Audio server connection: one synchronous attempt (exit code 2 on
//     failure)
//  6. Supervisor tree: server-worker, metrics sampler, plugin UI host, and
//     the debug HTTP server all run as supervised suture.Service instances
//
// # Signal handling
//
// SIGINT and SIGTERM both trigger the same graceful shutdown: the
// server-worker thread drains in-flight commands, flushes every persisted
// document, and snapshots the rule set before the process exits 0.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/patchmind/patchmind/internal/audioserver"
	"github.com/patchmind/patchmind/internal/config"
	"github.com/patchmind/patchmind/internal/graph"
	"github.com/patchmind/patchmind/internal/logging"
	"github.com/patchmind/patchmind/internal/metrics"
	"github.com/patchmind/patchmind/internal/persistence"
	"github.com/patchmind/patchmind/internal/pluginui"
	"github.com/patchmind/patchmind/internal/rtplugin"
	"github.com/patchmind/patchmind/internal/rules"
	"github.com/patchmind/patchmind/internal/supervisor"
	"github.com/patchmind/patchmind/internal/transport"
	"github.com/patchmind/patchmind/internal/tray"
)

// Exit codes per §6.
const (
	exitNormal           = 0
	exitConnectFailed    = 2
	exitConfigUnwritable = 3
)

// defaultBudget is the block size/sample rate plugin instances are
// instantiated at. audioserver.ServerConn has no method to report the
// real server's negotiated quantum and rate (those details live entirely
// inside the external binding this module does not implement), so this
// constant stands in for what a real binding would report at connect
// time — 1024 frames at 48kHz, typical PipeWire defaults.
var defaultBudget = rtplugin.CPUBudget{Frames: 1024, SampleRate: 48000}

// debugAddr is the loopback address the /metrics and /healthz endpoints
// bind to.
const debugAddr = "127.0.0.1:9312"

func main() {
	logging.Init(logging.DefaultConfig())
	log := logging.Logger()

	var configFile string
	for i, arg := range os.Args {
		if arg == "-config" && i+1 < len(os.Args) {
			configFile = os.Args[i+1]
		}
	}

	prefs, err := config.Load(configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	dir, err := configDir()
	if err != nil {
		log.Error().Err(err).Msg("could not resolve configuration directory")
		os.Exit(exitConfigUnwritable)
	}
	if err := ensureWritable(dir); err != nil {
		log.Error().Err(err).Str("dir", dir).Msg("configuration directory is not writable")
		os.Exit(exitConfigUnwritable)
	}
	log.Info().Str("dir", dir).Msg("configuration directory ready")

	store := persistence.NewStore(dir, prefs)
	if err := store.LoadAll(); err != nil {
		log.Fatal().Err(err).Msg("failed to load persisted documents")
	}
	// Debounced.Load resets to config.Preferences{}'s zero value when
	// preferences.json does not exist yet (first run). A zero-valued
	// Preferences fails its own validation bounds, so seed the bootstrap
	// defaults in that case rather than trusting whatever Load left behind.
	if store.Preferences.Get() == (config.Preferences{}) {
		store.Preferences.Set(prefs)
	} else {
		prefs = store.Preferences.Get()
	}

	mirror := graph.New(log)
	arena := rtplugin.NewArena()
	backups := rules.NewBackupStore(dir)
	engine := rules.NewEngine(mirror, backups, log)
	settle := rules.NewSettleDetector(prefs.RuleSettle())

	commands := transport.NewCommandChannel()
	events := transport.NewEventChannel()
	hostCmds := transport.NewHostChannel()
	cooldown := transport.NewCooldownLimiter(prefs.PwOperationCooldown())
	requests := transport.NewRequestTracker()

	conn := newStubServerConn()
	loader := stubLoader{}

	worker := audioserver.NewWorker(audioserver.Config{
		Mirror:   mirror,
		Arena:    arena,
		Engine:   engine,
		Settle:   settle,
		Store:    store,
		Backups:  backups,
		Conn:     conn,
		Loader:   loader,
		Budget:   defaultBudget,
		Commands: commands,
		Events:   events,
		HostCmds: hostCmds,
		Cooldown: cooldown,
		Requests: requests,
		Prefs:    prefs,
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	err = worker.Connect(connectCtx)
	connectCancel()
	if err != nil {
		if errors.Is(err, audioserver.ErrConnectFailed) {
			log.Error().Err(err).Msg("could not connect to audio server")
			os.Exit(exitConnectFailed)
		}
		log.Fatal().Err(err).Msg("unexpected error connecting to audio server")
	}

	if err := worker.Restore(); err != nil {
		log.Error().Err(err).Msg("failed to restore persisted state")
	}

	sampler := metrics.NewSampler(arena, events, prefs.PollInterval(), log)
	debugServer := metrics.NewServer(debugAddr, log)

	host := pluginui.NewHost(stubWindowHost{}, log)
	uiService := &pluginUIService{host: host, cmds: hostCmds}

	icon := &stubTrayIcon{}
	bridge := tray.NewBridge(icon, events)
	if err := bridge.Show(); err != nil {
		log.Warn().Err(err).Msg("failed to show tray icon")
	}
	defer bridge.Close()

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	tree.AddAudioService(worker)
	tree.AddAudioService(sampler)
	tree.AddUIService(uiService)
	tree.AddDebugService(debugServer)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	log.Info().Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("supervisor tree error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		log.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
	}

	log.Info().Msg("patchmindd stopped")
	os.Exit(exitNormal)
}

// pluginUIService adapts pluginui.Host's Run method (which takes an extra
// command-channel parameter) to the bare suture.Service interface.
type pluginUIService struct {
	host *pluginui.Host
	cmds *transport.HostChannel
}

func (s *pluginUIService) Serve(ctx context.Context) error {
	return s.host.Run(ctx, s.cmds.Receive())
}

func (s *pluginUIService) String() string {
	return "pluginui-host"
}

// configDir resolves the per-user configuration directory (§4.6's
// "per-user config directory").
func configDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "patchmind"), nil
}

// ensureWritable creates dir if needed and confirms a file can be written
// inside it, mapping any failure to §6's exit code 3.
func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	probe := filepath.Join(dir, ".write-check")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("config dir not writable: %w", err)
	}
	return os.Remove(probe)
}
