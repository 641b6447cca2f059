package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alejandrodnm/tradejournal/internal/domain"
	"github.com/alejandrodnm/tradejournal/internal/journal"
	"github.com/alejandrodnm/tradejournal/internal/ports"
	"github.com/alejandrodnm/tradejournal/internal/stats"
)

// cli ejecuta los subcomandos de una sola pasada. Cada método devuelve el
// exit code del proceso.
type cli struct {
	svc      *journal.Service
	reporter ports.Reporter
	out      io.Writer
	json     bool
}

func (a *cli) importFile(ctx context.Context, path string) int {
	f, err := os.Open(path)
	if err != nil {
		slog.Error("failed to open import file", "err", err, "path", path)
		return 1
	}
	defer f.Close()

	trades, err := a.svc.Import(ctx, path, f)
	if err != nil {
		slog.Error("import failed", "err", err, "path", path)
		return 1
	}
	if a.json {
		return a.printJSON(trades)
	}
	fmt.Fprintf(a.out, "Imported %d trades from %s\n", len(trades), path)
	return 0
}

func (a *cli) dump(ctx context.Context, path string) int {
	f, err := os.Open(path)
	if err != nil {
		slog.Error("failed to open import file", "err", err, "path", path)
		return 1
	}
	defer f.Close()

	rows, err := a.svc.Preview(ctx, path, f)
	if err != nil {
		slog.Error("extract failed", "err", err, "path", path)
		return 1
	}
	return a.printJSON(rows)
}

// fetch sigue el contrato del script del terminal: error → {"error": msg}
// en la salida y exit 1.
func (a *cli) fetch(ctx context.Context, server, login, password string) int {
	snap, err := a.svc.FetchTerminal(ctx, domain.TerminalRequest{Server: server, Login: login, Password: password})
	if err != nil {
		msg := err.Error()
		var te *domain.TerminalError
		if errors.As(err, &te) {
			msg = te.Message
		}
		slog.Error("terminal fetch failed", "err", err, "server", server, "login", login)
		if a.json {
			a.printJSON(map[string]string{"error": msg})
		}
		return 1
	}

	if a.json {
		return a.printJSON(snap)
	}
	return a.report(a.reporter.ReportStats(ctx, snap))
}

func (a *cli) list(ctx context.Context) int {
	trades, err := a.svc.ListTrades(ctx)
	if err != nil {
		slog.Error("failed to list trades", "err", err)
		return 1
	}
	if a.json {
		return a.printJSON(trades)
	}
	return a.report(a.reporter.ReportTrades(ctx, trades))
}

func (a *cli) stats(ctx context.Context) int {
	snap, err := a.svc.Stats(ctx)
	if err != nil {
		slog.Error("failed to compute statistics", "err", err)
		return 1
	}
	if a.json {
		return a.printJSON(snap)
	}
	return a.report(a.reporter.ReportStats(ctx, snap))
}

func (a *cli) performance(ctx context.Context, raw string) int {
	period, err := stats.ParsePeriod(raw)
	if err != nil {
		slog.Error("invalid period", "err", err, "period", raw)
		return 2
	}
	points, err := a.svc.Performance(ctx, period)
	if err != nil {
		slog.Error("failed to compute performance", "err", err)
		return 1
	}
	if a.json {
		return a.printJSON(points)
	}
	return a.report(a.reporter.ReportPerformance(ctx, period, points))
}

func (a *cli) report(err error) int {
	if err != nil {
		slog.Warn("reporter error", "err", err)
		return 1
	}
	return 0
}

func (a *cli) printJSON(v any) int {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Error("failed to encode output", "err", err)
		return 1
	}
	return 0
}
