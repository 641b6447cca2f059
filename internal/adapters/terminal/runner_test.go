package terminal_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradejournal/internal/adapters/terminal"
	"github.com/alejandrodnm/tradejournal/internal/domain"
)

var validReq = domain.TerminalRequest{Server: "Broker-Demo", Login: "123456", Password: "secret"}

// fakeScript escribe un script de shell que hace de terminal; "sh" es el intérprete.
func fakeScript(t *testing.T, body string) *terminal.Runner {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fetch.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return terminal.NewRunner(terminal.Config{PythonBin: "sh", ScriptPath: path, Timeout: 5 * time.Second})
}

func TestRunner_Success(t *testing.T) {
	r := fakeScript(t, `
[ "$1" = "Broker-Demo" ] && [ "$2" = "123456" ] && [ "$3" = "secret" ] || { echo '{"error":"bad args"}'; exit 1; }
echo '{"totalTrades": 12, "winningTrades": 7, "losingTrades": 5, "winRate": 58.33, "netProfit": 420.5, "currency": "USD"}'
`)

	s, err := r.Fetch(context.Background(), validReq)
	require.NoError(t, err)
	assert.Equal(t, 12, s.TotalTrades)
	assert.Equal(t, 7, s.WinningTrades)
	assert.Equal(t, 58.33, s.WinRate)
	assert.Equal(t, 420.5, s.NetProfit)
	assert.Equal(t, "USD", s.Currency)
	assert.Equal(t, 0.0, s.AverageRR, "missing fields default to 0")
	assert.Equal(t, 0, s.MaxConsecutiveWins)
}

func TestRunner_ErrorPayloadWithExitCode(t *testing.T) {
	r := fakeScript(t, `echo '{"error": "MT5 connection failed"}'; exit 1`)

	_, err := r.Fetch(context.Background(), validReq)
	var te *domain.TerminalError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "MT5 connection failed", te.Message)
	assert.Equal(t, 1, te.ExitCode)
}

func TestRunner_ErrorPayloadWithZeroExit(t *testing.T) {
	r := fakeScript(t, `echo '{"error": "No deals found"}'`)

	_, err := r.Fetch(context.Background(), validReq)
	var te *domain.TerminalError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "No deals found", te.Message)
	assert.Equal(t, 0, te.ExitCode)
}

func TestRunner_CrashUsesStderr(t *testing.T) {
	r := fakeScript(t, `echo 'Traceback (most recent call last):' >&2; echo 'ModuleNotFoundError: No module named MetaTrader5' >&2; exit 2`)

	_, err := r.Fetch(context.Background(), validReq)
	var te *domain.TerminalError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "ModuleNotFoundError: No module named MetaTrader5", te.Message)
	assert.Equal(t, 2, te.ExitCode)
}

func TestRunner_InvalidJSON(t *testing.T) {
	r := fakeScript(t, `echo 'not json'`)

	_, err := r.Fetch(context.Background(), validReq)
	var te *domain.TerminalError
	require.True(t, errors.As(err, &te))
	assert.Contains(t, te.Message, "invalid terminal response")
}

func TestRunner_Timeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slow.sh")
	require.NoError(t, os.WriteFile(path, []byte("exec sleep 5\n"), 0o644))
	r := terminal.NewRunner(terminal.Config{PythonBin: "sh", ScriptPath: path, Timeout: 100 * time.Millisecond})

	start := time.Now()
	_, err := r.Fetch(context.Background(), validReq)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRunner_InvalidRequestDoesNotSpawn(t *testing.T) {
	r := terminal.NewRunner(terminal.Config{PythonBin: "/nonexistent/python"})

	_, err := r.Fetch(context.Background(), domain.TerminalRequest{Server: "s", Login: "abc", Password: "p"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = r.Fetch(context.Background(), domain.TerminalRequest{Server: "s", Login: "1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRunner_MissingInterpreter(t *testing.T) {
	r := terminal.NewRunner(terminal.Config{PythonBin: "/nonexistent/python", ScriptPath: "x.py"})

	_, err := r.Fetch(context.Background(), validReq)
	require.Error(t, err)
	var te *domain.TerminalError
	assert.False(t, errors.As(err, &te))
}
