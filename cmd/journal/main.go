package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/tradejournal/config"
	"github.com/alejandrodnm/tradejournal/internal/adapters/notify"
	"github.com/alejandrodnm/tradejournal/internal/adapters/relayclient"
	"github.com/alejandrodnm/tradejournal/internal/adapters/storage"
	"github.com/alejandrodnm/tradejournal/internal/adapters/terminal"
	"github.com/alejandrodnm/tradejournal/internal/api"
	"github.com/alejandrodnm/tradejournal/internal/importer"
	"github.com/alejandrodnm/tradejournal/internal/journal"
	"github.com/alejandrodnm/tradejournal/internal/normalize"
	"github.com/alejandrodnm/tradejournal/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	dryRun := flag.Bool("dry-run", false, "use an in-memory ledger (nothing is persisted)")
	asJSON := flag.Bool("json", false, "print results as JSON instead of tables")

	importPath := flag.String("import", "", "import a CSV/XLSX/PDF file into the ledger")
	dump := flag.Bool("dump", false, "with -import: print the extracted rows without persisting")
	list := flag.Bool("list", false, "print the trade ledger")
	showStats := flag.Bool("stats", false, "print the journal statistics")
	period := flag.String("period", "", "print performance buckets: daily|weekly|monthly|annual")

	fetch := flag.Bool("fetch", false, "fetch account statistics from the trading terminal")
	server := flag.String("server", "", "terminal server (with -fetch)")
	login := flag.String("login", "", "terminal login (with -fetch)")
	password := flag.String("password", "", "terminal password (with -fetch, or MT5_PASSWORD)")

	serve := flag.Bool("serve", false, "run the HTTP API")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	loc, _ := cfg.Location() // validado en config.Load

	storeOpts := storage.Options{Driver: cfg.Storage.Driver, DSN: cfg.Storage.DSN}
	if *dryRun {
		storeOpts = storage.Options{Driver: storage.DriverMemory}
	}

	slog.Info("journal starting",
		"config", *configPath,
		"storage", storeOpts.Driver,
		"dry_run", *dryRun,
		"serve", *serve,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.Open(ctx, storeOpts)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "driver", storeOpts.Driver)
		os.Exit(1)
	}
	defer store.Close()

	norm := normalize.New(normalize.Config{
		DefaultInstrumentType: cfg.Journal.DefaultInstrumentType,
		Location:              loc,
	})
	imp := importer.New(norm, importer.Config{MaxFileBytes: cfg.Import.MaxFileBytes})

	svcOpts := []journal.Option{
		journal.WithAccounts(store),
		journal.WithTerminal(newFetcher(cfg)),
	}
	var hub *api.Hub
	if *serve {
		hub = api.NewHub(cfg.Relay.AllowedOrigin)
		svcOpts = append(svcOpts, journal.WithPublisher(hub))
	}
	svc := journal.NewService(store, norm, imp, journal.Config{
		Currency: cfg.Journal.Currency,
		Location: loc,
	}, svcOpts...)

	app := &cli{svc: svc, out: os.Stdout, json: *asJSON, reporter: notify.NewConsole()}

	code := 0
	switch {
	case *importPath != "" && *dump:
		code = app.dump(ctx, *importPath)
	case *importPath != "":
		code = app.importFile(ctx, *importPath)
	}
	if code != 0 {
		os.Exit(code)
	}

	if *fetch {
		pw := *password
		if pw == "" {
			pw = os.Getenv("MT5_PASSWORD")
		}
		if code := app.fetch(ctx, *server, *login, pw); code != 0 {
			os.Exit(code)
		}
	}

	ran := *importPath != "" || *fetch
	if *list {
		ran = true
		if code := app.list(ctx); code != 0 {
			os.Exit(code)
		}
	}
	if *showStats {
		ran = true
		if code := app.stats(ctx); code != 0 {
			os.Exit(code)
		}
	}
	if *period != "" {
		ran = true
		if code := app.performance(ctx, *period); code != 0 {
			os.Exit(code)
		}
	}

	if *serve {
		srv := api.NewServer(svc, hub, api.Config{
			ListenAddr:    cfg.Relay.ListenAddr,
			AllowedOrigin: cfg.Relay.AllowedOrigin,
			FetchRate:     cfg.Relay.RatePerSecond,
			FetchBurst:    cfg.Relay.Burst,
		})
		if err := srv.Run(ctx); err != nil {
			slog.Error("api exited with error", "err", err)
			os.Exit(1)
		}
		slog.Info("journal stopped cleanly")
		return
	}

	if !ran {
		os.Exit(app.stats(ctx))
	}
}

// newFetcher usa el relay remoto si está configurado y, si no, el script local.
func newFetcher(cfg *config.Config) ports.TerminalFetcher {
	if cfg.Relay.RemoteURL != "" {
		slog.Debug("terminal via remote relay", "url", cfg.Relay.RemoteURL)
		return relayclient.NewClient(cfg.Relay.RemoteURL, cfg.TerminalTimeout())
	}
	return terminal.NewRunner(terminal.Config{
		PythonBin:  cfg.Terminal.PythonBin,
		ScriptPath: cfg.Terminal.ScriptPath,
		Timeout:    cfg.TerminalTimeout(),
	})
}

// setupLogger escribe a stderr para no mezclar logs con la salida (-json, -dump).
func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
