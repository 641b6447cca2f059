package api

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/alejandrodnm/tradejournal/internal/domain"
	"github.com/alejandrodnm/tradejournal/internal/journal"
	"github.com/alejandrodnm/tradejournal/internal/normalize"
	"github.com/alejandrodnm/tradejournal/internal/stats"
)

// Terminal

func (s *Server) fetchTerminal(c *gin.Context) {
	var req domain.TerminalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	snap, err := s.svc.FetchTerminal(c.Request.Context(), req)
	if err != nil {
		s.metrics.TerminalFetches.WithLabelValues("error").Inc()
		s.fail(c, err)
		return
	}
	s.metrics.TerminalFetches.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, snap)
}

// Trades

func (s *Server) listTrades(c *gin.Context) {
	trades, err := s.svc.ListTrades(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trades)
}

func (s *Server) createTrade(c *gin.Context) {
	var rec normalize.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	t, err := s.svc.AddTrade(c.Request.Context(), rec)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (s *Server) updateTrade(c *gin.Context) {
	var rec normalize.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	t, err := s.svc.EditTrade(c.Request.Context(), c.Param("id"), rec)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) deleteTrade(c *gin.Context) {
	if err := s.svc.DeleteTrade(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// importTrades acepta multipart con el campo "file". Con ?preview=true
// devuelve las filas extraídas sin persistir nada.
func (s *Server) importTrades(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing multipart field \"file\""})
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.fail(c, err)
		return
	}
	defer f.Close()

	if c.Query("preview") == "true" {
		rows, err := s.svc.Preview(c.Request.Context(), fh.Filename, f)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"rows": rows})
		return
	}

	trades, err := s.svc.Import(c.Request.Context(), fh.Filename, f)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.metrics.TradesImported.Add(float64(len(trades)))
	c.JSON(http.StatusCreated, gin.H{"imported": len(trades), "trades": trades})
}

// Estadísticas

func (s *Server) getStats(c *gin.Context) {
	snap, err := s.svc.Stats(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) getPerformance(c *gin.Context) {
	period, err := stats.ParsePeriod(c.Query("period"))
	if err != nil {
		s.fail(c, err)
		return
	}
	points, err := s.svc.Performance(c.Request.Context(), period)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": period, "points": points})
}

func (s *Server) streamStats(c *gin.Context) {
	snap, err := s.svc.Stats(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.hub.Serve(c.Writer, c.Request, snap)
}

// Cuentas

type accountRequest struct {
	Name     string `json:"name"`
	Platform string `json:"platform"`
	Server   string `json:"server"`
	Login    string `json:"login"`
}

func (s *Server) listAccounts(c *gin.Context) {
	accounts, err := s.svc.ListAccounts(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func (s *Server) createAccount(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	platform, err := domain.ParsePlatform(req.Platform)
	if err != nil {
		s.fail(c, err)
		return
	}

	acc, err := s.svc.AddAccount(c.Request.Context(), domain.Account{
		Name:     req.Name,
		Platform: platform,
		Server:   req.Server,
		Login:    req.Login,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, acc)
}

func (s *Server) deleteAccount(c *gin.Context) {
	if err := s.svc.DeleteAccount(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// fail traduce errores de dominio a status HTTP. Los errores del terminal
// se devuelven con el mensaje upstream tal cual.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()

	var te *domain.TerminalError
	switch {
	case errors.As(err, &te):
		msg = te.Message
	case errors.Is(err, domain.ErrNoValidTrades):
		msg = domain.ErrNoValidTrades.Error()
	case status == http.StatusInternalServerError:
		slog.Error("request failed", "route", c.FullPath(), "err", err)
		msg = "internal error"
	default:
		msg = trimOp(msg)
	}
	c.JSON(status, gin.H{"error": msg})
}

func statusFor(err error) int {
	var te *domain.TerminalError
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoValidTrades):
		return http.StatusUnprocessableEntity
	case errors.Is(err, journal.ErrTerminalUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &te):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// opPrefix es el "pkg.Func: " con el que se envuelven los errores internos.
var opPrefix = regexp.MustCompile(`^[a-z]+\.[A-Za-z]+: `)

// trimOp quita los prefijos de operación del mensaje de error.
func trimOp(msg string) string {
	for {
		loc := opPrefix.FindStringIndex(msg)
		if loc == nil {
			return msg
		}
		msg = msg[loc[1]:]
	}
}
