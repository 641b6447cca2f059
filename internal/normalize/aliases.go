package normalize

import "strings"

// Field es un campo canónico del Trade.
type Field string

const (
	FieldID              Field = "id"
	FieldDate            Field = "date"
	FieldTicker          Field = "ticker"
	FieldDirection       Field = "direction"
	FieldEntry           Field = "entry"
	FieldExit            Field = "exit"
	FieldSize            Field = "size"
	FieldPnL             Field = "pnl"
	FieldNotes           Field = "notes"
	FieldTags            Field = "tags"
	FieldStrategy        Field = "strategy"
	FieldMarketCondition Field = "market_condition"
	FieldInstrumentType  Field = "instrument_type"
)

// aliases es la tabla declarativa de sinónimos por campo, en orden de prioridad.
// El primer alias con valor gana. Se consulta una vez por campo y registro.
var aliases = map[Field][]string{
	FieldID:              {"id", "ID", "Id", "trade_id", "tradeId", "Trade ID"},
	FieldDate:            {"date", "Date", "DATE", "time", "Time", "datetime", "open_time", "Open Time", "timestamp"},
	FieldTicker:          {"ticker", "Ticker", "TICKER", "symbol", "Symbol", "SYMBOL", "instrument", "Instrument", "pair", "Pair"},
	FieldDirection:       {"direction", "Direction", "DIRECTION", "side", "Side", "type", "Type", "action"},
	FieldEntry:           {"entry", "Entry", "ENTRY", "entry_price", "entryPrice", "Entry Price", "open_price", "Open Price"},
	FieldExit:            {"exit", "Exit", "EXIT", "exit_price", "exitPrice", "Exit Price", "close_price", "Close Price"},
	FieldSize:            {"size", "Size", "SIZE", "lot", "lots", "Lots", "volume", "Volume", "quantity", "qty"},
	FieldPnL:             {"pnl", "PnL", "PNL", "profit", "Profit", "P&L", "net_pnl", "Net Profit"},
	FieldNotes:           {"notes", "Notes", "NOTES", "note", "comment", "Comment"},
	FieldTags:            {"tags", "Tags", "TAGS"},
	FieldStrategy:        {"strategy", "Strategy", "STRATEGY", "setup", "Setup"},
	FieldMarketCondition: {"market_condition", "marketCondition", "Market Condition", "MarketCondition"},
	FieldInstrumentType:  {"instrument_type", "instrumentType", "Instrument Type", "InstrumentType", "asset_class"},
}

// tradeFields son los campos que identifican una fila como trade.
var tradeFields = []Field{FieldDate, FieldTicker, FieldPnL, FieldEntry, FieldExit, FieldSize, FieldDirection}

// fieldIndex resuelve un nombre de columna plegado a su campo canónico.
var fieldIndex = func() map[string]Field {
	idx := make(map[string]Field)
	for f, names := range aliases {
		for _, name := range names {
			idx[foldKey(name)] = f
		}
	}
	return idx
}()

// FieldFor devuelve el campo canónico al que corresponde una clave cruda.
func FieldFor(key string) (Field, bool) {
	f, ok := fieldIndex[foldKey(key)]
	return f, ok
}

// Aliases devuelve los alias de un campo en orden de prioridad.
func Aliases(f Field) []string {
	out := make([]string, len(aliases[f]))
	copy(out, aliases[f])
	return out
}

// foldKey normaliza un nombre de columna: minúsculas y sin separadores.
// "Entry Price", "entry_price" y "entryPrice" colapsan en "entryprice".
func foldKey(k string) string {
	var sb strings.Builder
	sb.Grow(len(k))
	for _, r := range strings.ToLower(strings.TrimSpace(k)) {
		switch r {
		case ' ', '_', '-', '.':
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
