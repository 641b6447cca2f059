package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoValidTrades se devuelve cuando un import no produce ningún trade.
	// Distinto de un import vacío exitoso.
	ErrNoValidTrades = errors.New("no valid trades found in source")

	// ErrUnsupportedFormat rechaza un archivo antes de parsearlo.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// TerminalError es un fallo del relay del terminal. El mensaje upstream se
// conserva tal cual; no se reinterpreta ni se reintenta.
type TerminalError struct {
	Message  string
	ExitCode int
}

func (e *TerminalError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("terminal: %s (exit %d)", e.Message, e.ExitCode)
	}
	return "terminal: " + e.Message
}
