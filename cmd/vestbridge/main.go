package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("vestbridge v%s\n", version)
	fmt.Println("Directional game-event bridge for the Third Space Vest daemon")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  vestbridge [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Bridges in-game events (damage, weapon fire, explosions, vehicle")
	fmt.Println("  impacts) to the haptic vest daemon over TCP. Hook call-sites deliver")
	fmt.Println("  events over a Unix socket; the bridge computes front-relative")
	fmt.Println("  bearings, debounces event floods, and forwards newline-delimited")
	fmt.Println("  JSON to the daemon with automatic reconnection.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        Path to YAML config file (optional; flags and VESTBRIDGE_*")
	fmt.Println("        environment variables override it)")
	fmt.Println()
	fmt.Println("  -daemon-host string")
	fmt.Printf("        Vest daemon host (default %q)\n", defaultDaemonHost)
	fmt.Println()
	fmt.Println("  -daemon-port int")
	fmt.Printf("        Vest daemon TCP port (default %d)\n", defaultDaemonPort)
	fmt.Println()
	fmt.Println("  -reconnect-cooldown-ms int")
	fmt.Printf("        Minimum delay between daemon connection attempts (default %d)\n", defaultReconnectCooldownMS)
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Println("        Unix domain socket path for hook event ingest (default \"/tmp/vestbridge.sock\")")
	fmt.Println()
	fmt.Println("  -status")
	fmt.Println("        Enable the status websocket endpoint (default off)")
	fmt.Println()
	fmt.Println("  -status-port int")
	fmt.Println("        Status websocket port on 127.0.0.1 (default 3002)")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Run against a local daemon with defaults")
	fmt.Println("  vestbridge")
	fmt.Println()
	fmt.Println("  # Config file with live-reloadable debounce windows")
	fmt.Println("  vestbridge -config ~/.config/vestbridge/config.yml")
	fmt.Println()
	fmt.Println("  # Debugging: verbose logs plus the status websocket")
	fmt.Println("  vestbridge -log-level debug -status")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - The vest daemon must be reachable on the configured host:port;")
	fmt.Println("    while it is away, events are dropped and reconnection is retried")
	fmt.Println("    on the cool-down schedule.")
	fmt.Println("  - Test events can be injected with vest-ctl.")
	fmt.Println()
}

func main() {
	var (
		configPath          = flag.String("config", "", "Path to YAML config file")
		daemonHost          = flag.String("daemon-host", defaultDaemonHost, "Vest daemon host")
		daemonPort          = flag.Int("daemon-port", defaultDaemonPort, "Vest daemon TCP port")
		reconnectCooldownMS = flag.Int("reconnect-cooldown-ms", defaultReconnectCooldownMS, "Minimum delay between daemon connection attempts (ms)")
		ipcSocketPath       = flag.String("ipc-socket", "/tmp/vestbridge.sock", "Unix domain socket path for hook event ingest")
		statusEnabled       = flag.Bool("status", false, "Enable the status websocket endpoint")
		statusPort          = flag.Int("status-port", 3002, "Status websocket port on 127.0.0.1")
		logLevelStr         = flag.String("log-level", "info", "Log level: error, warn, info, debug")
		showVersion         = flag.Bool("version", false, "Print version and exit")
		showHelp            = flag.Bool("help", false, "Print help message")
	)

	flag.Usage = printUsage
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		printVersion()
		return
	}

	// Defaults, then file, then environment, then explicitly-set flags.
	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	var overrides FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "daemon-host":
			overrides.DaemonHost = daemonHost
		case "daemon-port":
			overrides.DaemonPort = daemonPort
		case "reconnect-cooldown-ms":
			overrides.ReconnectCooldownMS = reconnectCooldownMS
		case "ipc-socket":
			overrides.IPCSocketPath = ipcSocketPath
		case "status":
			overrides.StatusEnabled = statusEnabled
		case "status-port":
			overrides.StatusPort = statusPort
		case "log-level":
			overrides.LogLevel = logLevelStr
		}
	})
	overrides.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logLevel, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger := setupLogger(logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	debouncer := NewDebouncer(debounceIntervals(cfg.Debounce))
	link := NewDaemonLink(cfg.Daemon, logger)
	bridge := NewBridge(debouncer, link, logger)

	// Status websocket (optional). Listeners must be registered before the
	// link and the IPC server start producing notifications.
	if cfg.Status.Enabled {
		statusSrv := NewStatusServer(bridge, link, logger)
		go statusSrv.Hub().Run(ctx)
		go func() {
			if err := runStatusServer(ctx, cfg.Status.Port, statusSrv, logger); err != nil {
				logger.Error("status server error", "error", err)
			}
		}()
	}

	go link.Run(ctx)

	ipcErr := make(chan error, 1)
	go func() {
		ipcErr <- runIPCServer(ctx, cfg.IPC.SocketPath, bridge, logger)
	}()

	if *configPath != "" {
		go func() {
			err := watchConfig(ctx, *configPath, logger, func(next Config) {
				debouncer.SetIntervals(debounceIntervals(next.Debounce))
			})
			if err != nil {
				logger.Warn("config watcher stopped", "error", err)
			}
		}()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	logger.Debug("starting vestbridge", "version", version)
	logger.Info("listening",
		"ipc", cfg.IPC.SocketPath,
		"daemon", cfg.Daemon.Addr(),
		"reconnect_cooldown_ms", cfg.Daemon.ReconnectCooldownMS,
		"status_enabled", cfg.Status.Enabled)

	select {
	case <-sigc:
		logger.Info("shutting down")
	case err := <-ipcErr:
		if err != nil {
			logger.Error("IPC server stopped", "error", err)
		}
	}

	cancel()
	link.Close()
}
