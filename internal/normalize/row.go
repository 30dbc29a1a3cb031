package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// RowShape tags the variants of RawRow.
type RowShape int

const (
	ShapeUnrecognized RowShape = iota
	ShapeKeyed
	ShapePositional
)

func (shape RowShape) String() string {
	switch shape {
	case ShapeKeyed:
		return "keyed"
	case ShapePositional:
		return "positional"
	default:
		return "unrecognized"
	}
}

// Field is one key/value pair of a keyed record, kept in source order.
type Field struct {
	Key   string
	Value any
}

// RawRow is one row as returned by the aggregation RPC: a keyed record, a
// positional record or something else. The zero value is an unrecognized row.
type RawRow struct {
	shape  RowShape
	fields []Field
	values []any
	raw    json.RawMessage
}

// KeyedRow builds a keyed record from fields in order.
func KeyedRow(fields ...Field) RawRow {
	return RawRow{shape: ShapeKeyed, fields: fields}
}

// PositionalRow builds a positional record.
func PositionalRow(values ...any) RawRow {
	if values == nil {
		values = []any{}
	}
	return RawRow{shape: ShapePositional, values: values}
}

// ParseRow decodes one JSON row. Object key order is preserved.
func ParseRow(raw []byte) RawRow {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !gjson.ValidBytes(trimmed) {
		return RawRow{raw: json.RawMessage(trimmed)}
	}
	return rowFromResult(gjson.ParseBytes(trimmed))
}

func rowFromResult(result gjson.Result) RawRow {
	row := RawRow{raw: json.RawMessage(result.Raw)}
	switch {
	case result.IsObject():
		row.shape = ShapeKeyed
		row.fields = make([]Field, 0)
		positions := make(map[string]int)
		result.ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			// a repeated key keeps its first position and its last value
			if index, seen := positions[name]; seen {
				row.fields[index].Value = scalarFromResult(value)
				return true
			}
			positions[name] = len(row.fields)
			row.fields = append(row.fields, Field{Key: name, Value: scalarFromResult(value)})
			return true
		})
	case result.IsArray():
		row.shape = ShapePositional
		row.values = make([]any, 0)
		result.ForEach(func(_, value gjson.Result) bool {
			row.values = append(row.values, scalarFromResult(value))
			return true
		})
	}
	return row
}

// scalarFromResult maps a JSON value to nil, bool, string, json.Number or,
// for nested containers, json.RawMessage.
func scalarFromResult(value gjson.Result) any {
	switch value.Type {
	case gjson.Null:
		return nil
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		return json.Number(value.Raw)
	case gjson.String:
		return value.Str
	default:
		return json.RawMessage(value.Raw)
	}
}

func (row RawRow) Shape() RowShape {
	return row.shape
}

// Fields returns the keyed record fields in source order.
func (row RawRow) Fields() []Field {
	return row.fields
}

// Values returns the positional values, or the field values of a keyed
// record in source order.
func (row RawRow) Values() []any {
	if row.shape == ShapeKeyed {
		values := make([]any, 0, len(row.fields))
		for _, field := range row.fields {
			values = append(values, field.Value)
		}
		return values
	}
	return row.values
}

// Lookup returns the value under key when present and not null.
func (row RawRow) Lookup(key string) (any, bool) {
	for _, field := range row.fields {
		if field.Key == key {
			return field.Value, field.Value != nil
		}
	}
	return nil, false
}

// MarshalJSON reproduces the row as received when it was parsed from JSON.
func (row RawRow) MarshalJSON() ([]byte, error) {
	if len(row.raw) > 0 {
		return row.raw, nil
	}

	switch row.shape {
	case ShapeKeyed:
		var buffer bytes.Buffer
		buffer.WriteByte('{')
		for index, field := range row.fields {
			if index > 0 {
				buffer.WriteByte(',')
			}
			key, err := json.Marshal(field.Key)
			if err != nil {
				return nil, err
			}
			value, err := json.Marshal(field.Value)
			if err != nil {
				return nil, fmt.Errorf("marshal field %s: %w", field.Key, err)
			}
			buffer.Write(key)
			buffer.WriteByte(':')
			buffer.Write(value)
		}
		buffer.WriteByte('}')
		return buffer.Bytes(), nil
	case ShapePositional:
		return json.Marshal(row.values)
	default:
		return []byte("null"), nil
	}
}

// CanonicalRow is the fixed-shape form of a RawRow. Absent fields are nil.
type CanonicalRow struct {
	Year     *int     `json:"ano"`
	Quantity *float64 `json:"quantidade"`
	DataKind *string  `json:"tipo_dado"`
}

var (
	yearKeys     = []string{"ano", "year", "f0", "0", "ano_val"}
	quantityKeys = []string{"quantidade", "quant", "qtde", "f1", "1", "quantidade_val"}
	dataKindKeys = []string{"tipo_dado", "tipo", "f2", "2"}
)

// NormalizeRow converts a raw row to a CanonicalRow. It reports false for
// unrecognized shapes, positional rows shorter than two values and rows
// whose three fields are all absent after coercion.
func NormalizeRow(row RawRow) (CanonicalRow, bool) {
	var year, quantity, dataKind any

	switch row.shape {
	case ShapeKeyed:
		year = pickFirst(row, yearKeys)
		quantity = pickFirst(row, quantityKeys)
		dataKind = pickFirst(row, dataKindKeys)

		if year == nil || quantity == nil {
			values := row.Values()
			if len(values) >= 2 {
				if year == nil {
					year = values[0]
				}
				if quantity == nil {
					quantity = values[1]
				}
				if dataKind == nil && len(values) >= 3 {
					dataKind = values[2]
				}
			}
		}
	case ShapePositional:
		if len(row.values) < 2 {
			return CanonicalRow{}, false
		}
		year = row.values[0]
		quantity = row.values[1]
		if len(row.values) > 2 {
			dataKind = row.values[2]
		}
	default:
		return CanonicalRow{}, false
	}

	canonical := CanonicalRow{
		Year:     coerceYear(year),
		Quantity: coerceQuantity(quantity),
		DataKind: coerceText(dataKind),
	}
	if canonical.Year == nil && canonical.Quantity == nil && canonical.DataKind == nil {
		return CanonicalRow{}, false
	}
	return canonical, true
}

func pickFirst(row RawRow, keys []string) any {
	for _, key := range keys {
		if value, ok := row.Lookup(key); ok {
			return value
		}
	}
	return nil
}

func coerceYear(value any) *int {
	if value == nil {
		return nil
	}
	if year, ok := toInt(value); ok {
		return &year
	}
	if number, ok := toFloat(value); ok {
		if year, ok := truncate(number); ok {
			return &year
		}
	}
	return nil
}

func coerceQuantity(value any) *float64 {
	if value == nil {
		return nil
	}
	if number, ok := toFloat(value); ok {
		return &number
	}
	return nil
}

func coerceText(value any) *string {
	if value == nil {
		return nil
	}
	text := toText(value)
	return &text
}

func toInt(value any) (int, bool) {
	switch typed := value.(type) {
	case int:
		return typed, true
	case int8:
		return int(typed), true
	case int16:
		return int(typed), true
	case int32:
		return int(typed), true
	case int64:
		return int(typed), true
	case uint8:
		return int(typed), true
	case uint16:
		return int(typed), true
	case uint32:
		return int(typed), true
	case uint64:
		if typed > math.MaxInt64 {
			return 0, false
		}
		return int(typed), true
	case bool:
		if typed {
			return 1, true
		}
		return 0, true
	case float32:
		return truncate(float64(typed))
	case float64:
		return truncate(typed)
	case json.Number:
		return parseIntText(string(typed))
	case string:
		return parseIntText(typed)
	default:
		return 0, false
	}
}

func parseIntText(text string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func truncate(number float64) (int, bool) {
	if math.IsNaN(number) || math.IsInf(number, 0) {
		return 0, false
	}
	truncated := math.Trunc(number)
	if truncated >= math.MaxInt64 || truncated < math.MinInt64 {
		return 0, false
	}
	return int(truncated), true
}

func toFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case json.Number:
		return parseFloatText(string(typed))
	case string:
		return parseFloatText(typed)
	case bool:
		if typed {
			return 1, true
		}
		return 0, true
	default:
		if integer, ok := toInt(value); ok {
			return float64(integer), true
		}
		return 0, false
	}
}

func parseFloatText(text string) (float64, bool) {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func toText(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case json.Number:
		return string(typed)
	case json.RawMessage:
		return string(typed)
	case bool:
		if typed {
			return "True"
		}
		return "False"
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}
