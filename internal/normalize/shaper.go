package normalize

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"
)

// ForecastDataKind tags forecast rows in the RPC output.
const ForecastDataKind = "previsao"

// ContainerKeys are the keys a wrapped RPC response may expose its rows
// under, in lookup order.
var ContainerKeys = []string{"data", "result", "rows"}

// ResultKind classifies a shaped RPC response.
type ResultKind int

const (
	ResultEmpty ResultKind = iota
	ResultData
	ResultRawDebug
)

func (kind ResultKind) String() string {
	switch kind {
	case ResultData:
		return "data"
	case ResultRawDebug:
		return "raw_debug"
	default:
		return "empty"
	}
}

// Result is the outcome of shaping an RPC response. Rows are returned as
// received. Raw holds the untouched payload and is only set in debug mode.
type Result struct {
	Kind    ResultKind
	Rows    []RawRow
	Raw     json.RawMessage
	Wrapped bool
}

// HasRaw reports whether the raw payload should be attached to the response.
func (result Result) HasRaw() bool {
	return result.Raw != nil
}

// Payload is a decoded RPC response body.
type Payload struct {
	raw     json.RawMessage
	rows    []RawRow
	isList  bool
	wrapped bool
}

// ParsePayload decodes an RPC response body. Lists are taken as the row
// collection; objects are unwrapped under the first truthy ContainerKeys
// entry. Anything else leaves the payload without rows.
func ParsePayload(raw []byte) Payload {
	trimmed := bytes.TrimSpace(raw)
	payload := Payload{raw: json.RawMessage(trimmed)}
	if len(trimmed) == 0 {
		payload.raw = json.RawMessage("null")
		return payload
	}
	if !gjson.ValidBytes(trimmed) {
		// non-JSON bodies are kept as a JSON string for debug output
		encoded, _ := json.Marshal(string(trimmed))
		payload.raw = encoded
		return payload
	}

	parsed := gjson.ParseBytes(trimmed)
	switch {
	case parsed.IsArray():
		payload.isList = true
		payload.rows = rowsFromArray(parsed)
	case parsed.IsObject():
		candidate := unwrapContainer(parsed)
		if candidate.IsArray() {
			payload.isList = true
			payload.wrapped = true
			payload.rows = rowsFromArray(candidate)
		}
	}
	return payload
}

// NewPayload wraps rows obtained without a JSON body, such as a direct
// database call.
func NewPayload(rows []RawRow) Payload {
	if rows == nil {
		rows = []RawRow{}
	}
	payload := Payload{rows: rows, isList: true}
	if encoded, err := json.Marshal(rows); err == nil {
		payload.raw = encoded
	}
	return payload
}

func (payload Payload) Rows() []RawRow {
	return payload.rows
}

// IsList reports whether a row collection was found.
func (payload Payload) IsList() bool {
	return payload.isList
}

func (payload Payload) Wrapped() bool {
	return payload.wrapped
}

func (payload Payload) Raw() json.RawMessage {
	return payload.raw
}

func rowsFromArray(array gjson.Result) []RawRow {
	rows := make([]RawRow, 0)
	array.ForEach(func(_, value gjson.Result) bool {
		rows = append(rows, rowFromResult(value))
		return true
	})
	return rows
}

// unwrapContainer returns the first truthy container value, or the last
// container value when none is truthy.
func unwrapContainer(object gjson.Result) gjson.Result {
	var candidate gjson.Result
	for _, key := range ContainerKeys {
		candidate = object.Get(key)
		if truthy(candidate) {
			return candidate
		}
	}
	return candidate
}

func truthy(value gjson.Result) bool {
	switch value.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return value.Float() != 0
	case gjson.String:
		return value.Str != ""
	case gjson.JSON:
		found := false
		value.ForEach(func(_, _ gjson.Result) bool {
			found = true
			return false
		})
		return found
	default:
		return value.Exists()
	}
}

// IsDegenerateForecast reports whether rows is a single forecast row with a
// zero or absent quantity, which means the RPC found no history.
func IsDegenerateForecast(rows []RawRow) bool {
	if len(rows) != 1 {
		return false
	}
	canonical, ok := NormalizeRow(rows[0])
	if !ok || canonical.DataKind == nil || *canonical.DataKind != ForecastDataKind {
		return false
	}
	return canonical.Quantity == nil || *canonical.Quantity == 0
}

// Shape decides whether rows carry data. Empty collections and a single
// degenerate forecast row are empty results; anything else is returned
// unmodified. In debug mode raw is attached to the result.
func Shape(rows []RawRow, debug bool) Result {
	return shape(rows, debug, nil, false)
}

// ShapePayload is Shape over a decoded RPC response. A payload without a
// row collection is an empty result.
func ShapePayload(payload Payload, debug bool) Result {
	if !payload.isList {
		return emptyResult(debug, payload.raw)
	}
	return shape(payload.rows, debug, payload.raw, payload.wrapped)
}

func shape(rows []RawRow, debug bool, raw json.RawMessage, wrapped bool) Result {
	if debug && raw == nil {
		encoded, err := json.Marshal(rowsOrEmpty(rows))
		if err == nil {
			raw = encoded
		}
	}

	if len(rows) == 0 || IsDegenerateForecast(rows) {
		return emptyResult(debug, raw)
	}

	result := Result{Kind: ResultData, Rows: rows, Wrapped: wrapped}
	if debug {
		result.Kind = ResultRawDebug
		result.Raw = raw
	}
	return result
}

func emptyResult(debug bool, raw json.RawMessage) Result {
	result := Result{Kind: ResultEmpty}
	if debug {
		result.Raw = raw
		if result.Raw == nil {
			result.Raw = json.RawMessage("null")
		}
	}
	return result
}

func rowsOrEmpty(rows []RawRow) []RawRow {
	if rows == nil {
		return []RawRow{}
	}
	return rows
}
