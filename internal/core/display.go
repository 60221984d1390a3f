package core

import (
	"strings"

	"github.com/Rhymond/go-money"
)

// DisplayValue renders a raw preview cell for people. Integer fields with a
// currency are shown as money; everything else is returned unchanged.
func DisplayValue(f FieldSpec, raw string) string {
	if f.Type != FieldInteger || f.Currency == "" {
		return raw
	}
	n, ok := ToInteger(raw).(int)
	if !ok {
		return raw
	}
	code := strings.ToUpper(f.Currency)
	if money.GetCurrency(code) == nil {
		return raw
	}
	return money.New(int64(n)*100, code).Display()
}

// DisplayRow renders every cell of a preview row.
func DisplayRow(def EntityDefinition, row map[string]string) map[string]string {
	out := make(map[string]string, len(row))
	for header, raw := range row {
		if f, ok := def.Field(header); ok {
			out[header] = DisplayValue(f, raw)
			continue
		}
		out[header] = raw
	}
	return out
}
