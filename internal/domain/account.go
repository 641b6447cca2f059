package domain

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifica el terminal de trading de una cuenta.
type Platform string

const (
	PlatformMT4 Platform = "MT4"
	PlatformMT5 Platform = "MT5"
)

// ParsePlatform acepta "mt4"/"MT5"/"metatrader 5"...
func ParsePlatform(s string) (Platform, error) {
	v := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	v = strings.TrimPrefix(v, "METATRADER")
	switch v {
	case "MT4", "4":
		return PlatformMT4, nil
	case "MT5", "5":
		return PlatformMT5, nil
	}
	return "", fmt.Errorf("%w: unknown platform %q", ErrInvalidInput, s)
}

// Account es una cuenta de terminal registrada. La contraseña nunca se persiste:
// viaja solo dentro de un TerminalRequest.
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Platform  Platform  `json:"platform"`
	Server    string    `json:"server"`
	Login     string    `json:"login"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate comprueba que la cuenta tenga todos los campos obligatorios.
func (a Account) Validate() error {
	switch {
	case strings.TrimSpace(a.Name) == "":
		return fmt.Errorf("%w: account name is required", ErrInvalidInput)
	case a.Platform != PlatformMT4 && a.Platform != PlatformMT5:
		return fmt.Errorf("%w: platform must be MT4 or MT5", ErrInvalidInput)
	case strings.TrimSpace(a.Server) == "":
		return fmt.Errorf("%w: server is required", ErrInvalidInput)
	case strings.TrimSpace(a.Login) == "":
		return fmt.Errorf("%w: login is required", ErrInvalidInput)
	}
	return nil
}

// TerminalRequest es la petición al relay del terminal.
type TerminalRequest struct {
	Server   string `json:"server"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Validate exige los tres campos; el login debe ser numérico (el terminal lo
// trata como entero).
func (r TerminalRequest) Validate() error {
	if strings.TrimSpace(r.Server) == "" || strings.TrimSpace(r.Login) == "" || r.Password == "" {
		return fmt.Errorf("%w: server, login and password are required", ErrInvalidInput)
	}
	for _, c := range strings.TrimSpace(r.Login) {
		if c < '0' || c > '9' {
			return fmt.Errorf("%w: login must be numeric", ErrInvalidInput)
		}
	}
	return nil
}
