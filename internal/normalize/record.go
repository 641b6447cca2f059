package normalize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Record es una fila cruda ya aplanada, venga de CSV, Excel, PDF o de un
// formulario manual. Las claves son arbitrarias.
type Record map[string]any

// view indexa un Record una sola vez para las búsquedas por alias.
type view struct {
	raw    Record
	folded map[string]any
}

func newView(r Record) view {
	folded := make(map[string]any, len(r))
	// Si dos columnas colapsan en la misma clave, gana la primera con valor
	// en orden alfabético de clave original para que el resultado sea determinista.
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fk := foldKey(k)
		if _, ok := folded[fk]; ok || !present(r[k]) {
			continue
		}
		folded[fk] = r[k]
	}
	return view{raw: r, folded: folded}
}

// lookup busca el campo: primero coincidencia exacta en orden de prioridad,
// después una pasada tolerante a mayúsculas y separadores en el mismo orden.
func (v view) lookup(f Field) (any, bool) {
	names := aliases[f]
	for _, name := range names {
		if val, ok := v.raw[name]; ok && present(val) {
			return val, true
		}
	}
	for _, name := range names {
		if val, ok := v.folded[foldKey(name)]; ok {
			return val, true
		}
	}
	return nil, false
}

func (v view) str(f Field) string {
	val, ok := v.lookup(f)
	if !ok {
		return ""
	}
	return asString(val)
}

// Merge aplica patch sobre base. Un campo presente en patch, bajo cualquier
// alias, sustituye por completo al de base.
func Merge(base, patch Record) Record {
	out := make(Record, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k := range patch {
		f, ok := FieldFor(k)
		if !ok {
			continue
		}
		for existing := range out {
			if ef, ok := FieldFor(existing); ok && ef == f {
				delete(out, existing)
			}
		}
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// HasTradeFields es la heurística "¿esto es una fila de trade?" para fuentes
// tabulares: al menos un campo identificativo con valor.
func HasTradeFields(r Record) bool {
	v := newView(r)
	for _, f := range tradeFields {
		if _, ok := v.lookup(f); ok {
			return true
		}
	}
	return false
}

// present trata nil y strings en blanco como ausentes.
func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case json.Number:
		return strings.TrimSpace(string(x)) != ""
	case []string:
		return len(x) > 0
	case []any:
		return len(x) > 0
	}
	return true
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return strings.TrimSpace(string(x))
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return strings.TrimSpace(x.String())
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
