package normalize

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/tradejournal/internal/domain"
)

// Config controla los defaults del normalizer.
type Config struct {
	DefaultInstrumentType string
	// Location para fechas sin zona ("1/15/2024"). nil = UTC.
	Location *time.Location
}

// DefaultConfig devuelve la configuración por defecto: FOREX y UTC.
func DefaultConfig() Config {
	return Config{
		DefaultInstrumentType: domain.DefaultInstrumentType,
		Location:              time.UTC,
	}
}

// Normalizer convierte registros crudos en Trades canónicos. Nunca falla:
// la entrada malformada degrada a valores por defecto.
type Normalizer struct {
	cfg   Config
	now   func() time.Time
	newID func() string
}

// New crea un Normalizer con reloj real e IDs UUIDv4.
func New(cfg Config) *Normalizer {
	if cfg.DefaultInstrumentType == "" {
		cfg.DefaultInstrumentType = domain.DefaultInstrumentType
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Normalizer{
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
}

// WithClock fija el reloj de ingestión (tests).
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// WithIDGenerator fija el generador de IDs (tests).
func (n *Normalizer) WithIDGenerator(newID func() string) *Normalizer {
	n.newID = newID
	return n
}

// Normalize convierte un registro en exactamente un Trade.
func (n *Normalizer) Normalize(rec Record) domain.Trade {
	return n.normalizeAt(rec, n.now())
}

// Batch normaliza todas las filas con un mismo instante de ingestión y las
// devuelve ordenadas por fecha ascendente. Cero filas es ErrNoValidTrades.
func (n *Normalizer) Batch(rows []Record) ([]domain.Trade, error) {
	if len(rows) == 0 {
		return nil, domain.ErrNoValidTrades
	}

	now := n.now()
	trades := make([]domain.Trade, 0, len(rows))
	for _, row := range rows {
		trades = append(trades, n.normalizeAt(row, now))
	}

	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Date.Before(trades[j].Date)
	})
	return trades, nil
}

func (n *Normalizer) normalizeAt(rec Record, now time.Time) domain.Trade {
	v := newView(rec)

	pnl := n.number(v, FieldPnL)

	t := domain.Trade{
		ID:              v.str(FieldID),
		Ticker:          v.str(FieldTicker),
		Entry:           n.number(v, FieldEntry),
		Exit:            n.number(v, FieldExit),
		Size:            n.number(v, FieldSize),
		PnL:             pnl,
		Notes:           v.str(FieldNotes),
		Tags:            parseTags(v),
		Strategy:        v.str(FieldStrategy),
		MarketCondition: v.str(FieldMarketCondition),
		InstrumentType:  v.str(FieldInstrumentType),
		WinLoss:         domain.OutcomeFor(pnl), // nunca se lee de la fuente
		CreatedAt:       now,
	}

	if t.ID == "" {
		t.ID = n.newID()
	}
	if t.InstrumentType == "" {
		t.InstrumentType = n.cfg.DefaultInstrumentType
	}

	if raw, ok := v.lookup(FieldDate); ok {
		t.Date = ParseDate(raw, now, n.cfg.Location)
	} else {
		t.Date = now
	}

	if raw, ok := v.lookup(FieldDirection); ok {
		t.Direction = parseDirection(asString(raw))
	} else {
		t.Direction = domain.DirectionFor(pnl)
	}

	return t
}

func (n *Normalizer) number(v view, f Field) float64 {
	raw, ok := v.lookup(f)
	if !ok {
		return 0
	}
	return Number(raw)
}

// parseDirection reconoce buy/long/b y sell/short/s (también "buy limit",
// "Sell Stop"...). Un literal no reconocido es UNKNOWN.
func parseDirection(s string) domain.Direction {
	word := strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(word, " _-"); i > 0 {
		word = word[:i]
	}
	switch word {
	case "buy", "b", "long", "bought":
		return domain.DirectionBuy
	case "sell", "s", "short", "sold":
		return domain.DirectionSell
	}
	return domain.DirectionUnknown
}

// parseTags parte por comas y recorta. Acepta también listas (formulario JSON).
// Nunca devuelve nil.
func parseTags(v view) []string {
	tags := []string{}
	raw, ok := v.lookup(FieldTags)
	if !ok {
		return tags
	}

	var parts []string
	switch x := raw.(type) {
	case []string:
		for _, s := range x {
			parts = append(parts, strings.Split(s, ",")...)
		}
	case []any:
		for _, item := range x {
			parts = append(parts, strings.Split(asString(item), ",")...)
		}
	default:
		parts = strings.Split(asString(raw), ",")
	}

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// FromTrade es la representación canónica de un Trade como registro crudo.
// Normalizarla devuelve los mismos valores (salvo CreatedAt).
func FromTrade(t domain.Trade) Record {
	return Record{
		string(FieldID):              t.ID,
		string(FieldDate):            t.Date.Format(time.RFC3339Nano),
		string(FieldTicker):          t.Ticker,
		string(FieldDirection):       string(t.Direction),
		string(FieldEntry):           strconv.FormatFloat(t.Entry, 'f', -1, 64),
		string(FieldExit):            strconv.FormatFloat(t.Exit, 'f', -1, 64),
		string(FieldSize):            strconv.FormatFloat(t.Size, 'f', -1, 64),
		string(FieldPnL):             strconv.FormatFloat(t.PnL, 'f', -1, 64),
		string(FieldNotes):           t.Notes,
		string(FieldTags):            strings.Join(t.Tags, ", "),
		string(FieldStrategy):        t.Strategy,
		string(FieldMarketCondition): t.MarketCondition,
		string(FieldInstrumentType):  t.InstrumentType,
		"win_loss":                   string(t.WinLoss),
	}
}
