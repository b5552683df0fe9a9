package contract

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strconv"

	"go.dedis.ch/stela/crypto"
	"go.dedis.ch/stela/xdr"
	"golang.org/x/xerrors"
)

// ParseValue decodes a command-line token into the value matching the
// declared parameter type. Scalars use their plain text form: decimal for
// numerics, hexadecimal for byte-strings, the raw name for symbols and the
// text encoding for account identifiers. Lists and maps use JSON, with the
// same rules applied to the nested items.
func ParseValue(token string, t Type) (xdr.Value, error) {
	switch t.Kind {
	case TypeU32:
		v, err := strconv.ParseUint(token, 10, 32)
		if err != nil {
			return xdr.Value{}, xerrors.Errorf("invalid u32 literal: %v", err)
		}

		return xdr.U32Value(uint32(v)), nil
	case TypeU64:
		v, err := strconv.ParseUint(token, 10, 64)
		if err != nil {
			return xdr.Value{}, xerrors.Errorf("invalid u64 literal: %v", err)
		}

		return xdr.U64Value(v), nil
	case TypeI32:
		v, err := strconv.ParseInt(token, 10, 32)
		if err != nil {
			return xdr.Value{}, xerrors.Errorf("invalid i32 literal: %v", err)
		}

		return xdr.I32Value(int32(v)), nil
	case TypeI64:
		v, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return xdr.Value{}, xerrors.Errorf("invalid i64 literal: %v", err)
		}

		return xdr.I64Value(v), nil
	case TypeBool:
		switch token {
		case "true":
			return xdr.BoolValue(true), nil
		case "false":
			return xdr.BoolValue(false), nil
		default:
			return xdr.Value{}, xerrors.Errorf("invalid boolean literal '%s'", token)
		}
	case TypeBytes:
		data, err := hex.DecodeString(token)
		if err != nil {
			return xdr.Value{}, xerrors.Errorf("invalid byte-string literal: %v", err)
		}

		return xdr.BytesValue(data), nil
	case TypeSymbol:
		sym, err := xdr.NewSymbol(token)
		if err != nil {
			return xdr.Value{}, err
		}

		return xdr.SymbolValue(sym), nil
	case TypeAccount:
		id, err := crypto.DecodeAddress(token)
		if err != nil {
			return xdr.Value{}, err
		}

		return xdr.AccountValue(xdr.AccountID(id)), nil
	case TypeVec, TypeMap:
		return parseComposite(token, t)
	default:
		return xdr.Value{}, xerrors.Errorf("unsupported parameter type %d", t.Kind)
	}
}

func parseComposite(token string, t Type) (xdr.Value, error) {
	dec := json.NewDecoder(bytes.NewBufferString(token))
	dec.UseNumber()

	var raw interface{}

	err := dec.Decode(&raw)
	if err != nil {
		return xdr.Value{}, xerrors.Errorf("invalid JSON literal: %v", err)
	}

	return fromJSON(raw, t)
}

// fromJSON converts a decoded JSON item into the value matching the declared
// type.
func fromJSON(raw interface{}, t Type) (xdr.Value, error) {
	switch item := raw.(type) {
	case json.Number:
		return ParseValue(item.String(), t)
	case string:
		return ParseValue(item, t)
	case bool:
		if t.Kind != TypeBool {
			return xdr.Value{}, xerrors.Errorf("unexpected boolean for type %d", t.Kind)
		}

		return xdr.BoolValue(item), nil
	case []interface{}:
		if t.Kind != TypeVec {
			return xdr.Value{}, xerrors.Errorf("unexpected list for type %d", t.Kind)
		}

		items := make([]xdr.Value, len(item))
		for i, elem := range item {
			value, err := fromJSON(elem, *t.Elem)
			if err != nil {
				return xdr.Value{}, xerrors.Errorf("item %d: %v", i, err)
			}

			items[i] = value
		}

		return xdr.VecValue(items...), nil
	case map[string]interface{}:
		if t.Kind != TypeMap {
			return xdr.Value{}, xerrors.Errorf("unexpected object for type %d", t.Kind)
		}

		entries := make([]xdr.MapEntry, 0, len(item))
		for name, elem := range item {
			key, err := ParseValue(name, *t.Key)
			if err != nil {
				return xdr.Value{}, xerrors.Errorf("key '%s': %v", name, err)
			}

			val, err := fromJSON(elem, *t.Val)
			if err != nil {
				return xdr.Value{}, xerrors.Errorf("entry '%s': %v", name, err)
			}

			entries = append(entries, xdr.MapEntry{Key: key, Val: val})
		}

		return xdr.MapValue(entries)
	default:
		return xdr.Value{}, xerrors.Errorf("unsupported JSON item %T", raw)
	}
}

// FormatValue renders a value to a human-readable string, following the same
// conventions as the parsing rules.
func FormatValue(v xdr.Value) (string, error) {
	switch v.Kind {
	case xdr.KindU32:
		return strconv.FormatUint(uint64(v.U32), 10), nil
	case xdr.KindU64:
		return strconv.FormatUint(v.U64, 10), nil
	case xdr.KindI32:
		return strconv.FormatInt(int64(v.I32), 10), nil
	case xdr.KindI64:
		return strconv.FormatInt(v.I64, 10), nil
	case xdr.KindStatic:
		switch v.Static {
		case xdr.StaticVoid:
			return "null", nil
		case xdr.StaticTrue:
			return "true", nil
		case xdr.StaticFalse:
			return "false", nil
		default:
			return "", xerrors.Errorf("cannot render static value %d", v.Static)
		}
	case xdr.KindBytes:
		return hex.EncodeToString(v.Bytes), nil
	case xdr.KindSymbol:
		return string(v.Symbol), nil
	case xdr.KindAccount:
		return crypto.EncodeAddress([32]byte(v.Account)), nil
	case xdr.KindVec:
		parts := make([]json.RawMessage, len(v.Vec))
		for i, item := range v.Vec {
			part, err := formatJSON(item)
			if err != nil {
				return "", err
			}

			parts[i] = part
		}

		return marshalJSON(parts)
	case xdr.KindMap:
		object := make(map[string]json.RawMessage, len(v.Map))
		for _, entry := range v.Map {
			name, err := FormatValue(entry.Key)
			if err != nil {
				return "", err
			}

			part, err := formatJSON(entry.Val)
			if err != nil {
				return "", err
			}

			object[name] = part
		}

		return marshalJSON(object)
	default:
		return "", xerrors.Errorf("cannot render value of kind %d", v.Kind)
	}
}

// formatJSON renders a value as a JSON item so it can nest in a list or map
// rendering.
func formatJSON(v xdr.Value) (json.RawMessage, error) {
	switch v.Kind {
	case xdr.KindU32, xdr.KindU64, xdr.KindI32, xdr.KindI64,
		xdr.KindStatic, xdr.KindVec, xdr.KindMap:

		s, err := FormatValue(v)
		if err != nil {
			return nil, err
		}

		return json.RawMessage(s), nil
	default:
		s, err := FormatValue(v)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(s)
		if err != nil {
			return nil, xerrors.Errorf("couldn't marshal: %v", err)
		}

		return json.RawMessage(data), nil
	}
}

func marshalJSON(item interface{}) (string, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return "", xerrors.Errorf("couldn't marshal: %v", err)
	}

	return string(data), nil
}
