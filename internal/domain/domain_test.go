package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradejournal/internal/domain"
)

func TestOutcomeAndDirectionFor(t *testing.T) {
	tests := []struct {
		pnl  float64
		out  domain.WinLoss
		side domain.Direction
	}{
		{pnl: 12.5, out: domain.OutcomeWin, side: domain.DirectionBuy},
		{pnl: -0.01, out: domain.OutcomeLoss, side: domain.DirectionSell},
		{pnl: 0, out: domain.OutcomeBreakeven, side: domain.DirectionUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, domain.OutcomeFor(tt.pnl), "pnl=%v", tt.pnl)
		assert.Equal(t, tt.side, domain.DirectionFor(tt.pnl), "pnl=%v", tt.pnl)
	}
}

func TestTrade_Helpers(t *testing.T) {
	tr := domain.Trade{Entry: 1.1, Size: -2, PnL: 5}
	assert.True(t, tr.IsWin())
	assert.False(t, tr.IsLoss())
	assert.InDelta(t, 2.2, tr.Notional(), 1e-9)

	be := domain.Trade{}
	assert.False(t, be.IsWin())
	assert.False(t, be.IsLoss())
	assert.Zero(t, be.Notional())
}

func TestParsePlatform(t *testing.T) {
	for in, want := range map[string]domain.Platform{
		"mt4":          domain.PlatformMT4,
		" MT5 ":        domain.PlatformMT5,
		"MetaTrader 5": domain.PlatformMT5,
		"4":            domain.PlatformMT4,
	} {
		got, err := domain.ParsePlatform(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := domain.ParsePlatform("cTrader")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAccount_Validate(t *testing.T) {
	ok := domain.Account{Name: "Main", Platform: domain.PlatformMT5, Server: "Broker-Live", Login: "1001"}
	require.NoError(t, ok.Validate())

	bad := []domain.Account{
		{Platform: domain.PlatformMT5, Server: "s", Login: "1"},
		{Name: "n", Platform: "MT9", Server: "s", Login: "1"},
		{Name: "n", Platform: domain.PlatformMT4, Login: "1"},
		{Name: "n", Platform: domain.PlatformMT4, Server: "s", Login: "  "},
	}
	for _, a := range bad {
		assert.ErrorIs(t, a.Validate(), domain.ErrInvalidInput, "%+v", a)
	}
}

func TestTerminalRequest_Validate(t *testing.T) {
	require.NoError(t, domain.TerminalRequest{Server: "Broker", Login: "12345", Password: "pw"}.Validate())

	assert.ErrorIs(t, domain.TerminalRequest{Server: "Broker", Login: "12345"}.Validate(), domain.ErrInvalidInput)
	assert.ErrorIs(t, domain.TerminalRequest{Login: "12345", Password: "pw"}.Validate(), domain.ErrInvalidInput)
	assert.ErrorIs(t, domain.TerminalRequest{Server: "Broker", Login: "12a45", Password: "pw"}.Validate(), domain.ErrInvalidInput)
}

func TestTerminalError(t *testing.T) {
	var err error = &domain.TerminalError{Message: "MT5 connection failed", ExitCode: 1}
	assert.Equal(t, "terminal: MT5 connection failed (exit 1)", err.Error())

	var te *domain.TerminalError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "MT5 connection failed", te.Message)

	assert.Equal(t, "terminal: relay status 502: bad gateway",
		(&domain.TerminalError{Message: "relay status 502: bad gateway"}).Error())
}
