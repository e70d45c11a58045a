package logging

import (
	"bytes"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ownedFields returns fields whose values no longer refer to memory the caller may change after
// the log call returns. Scalars and strings are kept as they are. Byte slices are copied.
// Marshalers, stringers and errors are evaluated right away, and reflected values are encoded
// to JSON.
func ownedFields(fields []zapcore.Field) []zapcore.Field {
	owned := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		owned = appendOwned(owned, f)
	}
	return owned
}

func appendOwned(owned []zapcore.Field, f zapcore.Field) []zapcore.Field {
	switch f.Type {
	case zapcore.ByteStringType, zapcore.BinaryType:
		if b, ok := f.Interface.([]byte); ok && b != nil {
			f.Interface = append([]byte(nil), b...)
		}
		return append(owned, f)
	case zapcore.ReflectType:
		return append(owned, reflectedField(f))
	case zapcore.ArrayMarshalerType, zapcore.ObjectMarshalerType, zapcore.InlineMarshalerType,
		zapcore.StringerType, zapcore.ErrorType:
		return append(owned, evaluatedFields(f)...)
	default:
		return append(owned, f)
	}
}

// evaluatedFields runs the field's marshaling code into a map. A field can produce more than one
// entry (errors add "<key>Verbose", failed marshalers add "<key>Error"); they are returned
// sorted by key.
func evaluatedFields(f zapcore.Field) []zapcore.Field {
	enc := zapcore.NewMapObjectEncoder()
	f.AddTo(enc)
	keys := maps.Keys(enc.Fields)
	slices.Sort(keys)
	ret := make([]zapcore.Field, 0, len(keys))
	for _, k := range keys {
		ret = append(ret, zap.Any(k, ownedValue(enc.Fields[k])))
	}
	return ret
}

func reflectedField(f zapcore.Field) zapcore.Field {
	if f.Interface == nil {
		return f
	}
	raw, err := encodeJSON(f.Interface)
	if err != nil {
		return zap.String(f.Key+"Error", err.Error())
	}
	return zap.Reflect(f.Key, raw)
}

func encodeJSON(v interface{}) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ownedValue copies what a MapObjectEncoder stored without copying: nested byte slices and
// reflected values.
func ownedValue(v interface{}) interface{} {
	switch v := v.(type) {
	case nil, string, bool, time.Time, time.Duration,
		int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64, complex64, complex128:
		return v
	case []byte:
		return append([]byte(nil), v...)
	case []interface{}:
		ret := make([]interface{}, len(v))
		for i, e := range v {
			ret[i] = ownedValue(e)
		}
		return ret
	case map[string]interface{}:
		ret := make(map[string]interface{}, len(v))
		for k, e := range v {
			ret[k] = ownedValue(e)
		}
		return ret
	default:
		raw, err := encodeJSON(v)
		if err != nil {
			return err.Error()
		}
		return raw
	}
}
