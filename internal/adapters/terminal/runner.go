// Package terminal ejecuta el script del terminal de trading como subproceso,
// una petición/respuesta por llamada y sin reintentos.
package terminal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/alejandrodnm/tradejournal/internal/domain"
)

const (
	defaultPython  = "python"
	defaultScript  = "mt5_fetch.py"
	defaultTimeout = 60 * time.Second
	maxStderrLog   = 2048
)

// Config del runner.
type Config struct {
	PythonBin  string
	ScriptPath string
	Timeout    time.Duration
}

// Runner implementa ports.TerminalFetcher lanzando
// `<python> <script> <server> <login> <password>`.
type Runner struct {
	cfg Config
}

// NewRunner aplica defaults a los campos vacíos.
func NewRunner(cfg Config) *Runner {
	if cfg.PythonBin == "" {
		cfg.PythonBin = defaultPython
	}
	if cfg.ScriptPath == "" {
		cfg.ScriptPath = defaultScript
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Runner{cfg: cfg}
}

// Fetch ejecuta el script una vez. Un exit distinto de 0 o un payload con
// clave "error" es un *domain.TerminalError con el mensaje original.
func (r *Runner) Fetch(ctx context.Context, req domain.TerminalRequest) (domain.Statistics, error) {
	if err := req.Validate(); err != nil {
		return domain.Statistics{}, fmt.Errorf("terminal.Fetch: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.cfg.PythonBin, r.cfg.ScriptPath,
		strings.TrimSpace(req.Server), strings.TrimSpace(req.Login), req.Password)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if stderr.Len() > 0 {
		slog.Warn("terminal stderr", "server", req.Server, "login", req.Login,
			"stderr", truncate(stderr.String(), maxStderrLog))
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.Statistics{}, fmt.Errorf("terminal.Fetch: %s after %s: %w", r.cfg.ScriptPath, elapsed.Round(time.Millisecond), ctxErr)
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			// no se pudo lanzar el proceso (binario inexistente, permisos...)
			return domain.Statistics{}, fmt.Errorf("terminal.Fetch: start %s: %w", r.cfg.PythonBin, runErr)
		}
		return domain.Statistics{}, exitFailure(exitErr.ExitCode(), stdout.Bytes(), stderr.String())
	}

	stats, err := DecodeStatistics(stdout.Bytes())
	if err != nil {
		return domain.Statistics{}, err
	}
	slog.Info("terminal fetch ok", "server", req.Server, "login", req.Login,
		"trades", stats.TotalTrades, "elapsed", elapsed.Round(time.Millisecond))
	return stats, nil
}

// exitFailure prefiere el {"error": ...} de stdout; si no hay, usa stderr.
func exitFailure(code int, stdout []byte, stderr string) error {
	if msg, ok := payloadError(stdout); ok {
		return &domain.TerminalError{Message: msg, ExitCode: code}
	}
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		msg = strings.TrimSpace(string(stdout))
	}
	if msg == "" {
		msg = "process exited without output"
	}
	return &domain.TerminalError{Message: lastLine(msg), ExitCode: code}
}

// lastLine se queda con la última línea (en un traceback, la excepción).
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
