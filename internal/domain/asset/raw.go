package asset

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RawRecord is one backend row as delivered: column name to value, with no
// guarantee about which columns exist or what types they hold.
type RawRecord map[string]any

// Backend column names.
const (
	FieldID             = "id"
	FieldName           = "name"
	FieldType           = "type"
	FieldLatitude       = "latitude"
	FieldLongitude      = "longitude"
	FieldCapacity       = "capacity"
	FieldSpecifications = "specifications"
	FieldStatus         = "status"
	FieldIsCritical     = "is_critical"
)

// Normalize maps a backend row onto Asset. Missing or unusable fields fall
// back to defaults; only a row with no usable id is rejected (ok == false),
// since it cannot be keyed.
func Normalize(r RawRecord) (Asset, bool) {
	id := textOf(r[FieldID])
	if id == "" {
		return Asset{}, false
	}
	a := Asset{
		ID:         id,
		Name:       textOf(r[FieldName]),
		Type:       ParseType(textOf(r[FieldType])),
		Position:   Position{numberOf(r[FieldLatitude]), numberOf(r[FieldLongitude])},
		Capacity:   orDefault(textOf(r[FieldCapacity]), NotAvailable),
		Specs:      orDefault(textOf(r[FieldSpecifications]), NotAvailable),
		Status:     Status(orDefault(textOf(r[FieldStatus]), string(DefaultStatus))),
		IsCritical: boolOf(r[FieldIsCritical]),
	}
	return a, true
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// textOf renders scalars as text; nil and composite values become "".
func textOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, bool:
		return fmt.Sprint(t)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return ""
	}
}

// numeric reports v as a float64 when it is any Go or JSON number.
func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// numberOf accepts numbers and numeric strings; anything else is 0.
func numberOf(v any) float64 {
	f, ok := numeric(v)
	if !ok {
		s, isString := v.(string)
		if !isString {
			return 0
		}
		f, _ = strconv.ParseFloat(strings.TrimSpace(s), 64)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// boolOf accepts booleans, "true"-like strings and non-zero numbers.
func boolOf(v any) bool {
	if f, ok := numeric(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	default:
		return false
	}
}
