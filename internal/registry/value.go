package registry

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is a registry value type. The numbers match the Win32 REG_* constants.
type Kind uint32

const (
	KindString       Kind = 1
	KindExpandString Kind = 2
	KindBinary       Kind = 3
	KindDWord        Kind = 4
	KindMultiString  Kind = 7
	KindQWord        Kind = 11
)

var kindNames = map[Kind]string{
	KindString:       "string",
	KindExpandString: "expand_string",
	KindBinary:       "binary",
	KindDWord:        "dword",
	KindMultiString:  "multi_string",
	KindQWord:        "qword",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint32(k))
}

// ParseKind accepts the names used by Kind.String, the REG_* names and the
// short forms regedit exports use.
func ParseKind(s string) (Kind, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "reg_") {
	case "string", "sz":
		return KindString, nil
	case "expand_string", "expand_sz", "expandstring":
		return KindExpandString, nil
	case "binary", "hex":
		return KindBinary, nil
	case "dword", "dword_little_endian":
		return KindDWord, nil
	case "multi_string", "multi_sz", "multistring":
		return KindMultiString, nil
	case "qword", "qword_little_endian":
		return KindQWord, nil
	default:
		return 0, fmt.Errorf("unknown registry value kind %q", s)
	}
}

func (k Kind) integer() bool { return k == KindDWord || k == KindQWord }
func (k Kind) text() bool    { return k == KindString || k == KindExpandString }

// Value is typed registry data.
type Value struct {
	kind Kind
	num  uint64
	str  string
	strs []string
	bin  []byte
}

func DWord(v uint32) Value        { return Value{kind: KindDWord, num: uint64(v)} }
func QWord(v uint64) Value        { return Value{kind: KindQWord, num: v} }
func String(s string) Value       { return Value{kind: KindString, str: s} }
func ExpandString(s string) Value { return Value{kind: KindExpandString, str: s} }

func MultiString(ss ...string) Value {
	return Value{kind: KindMultiString, strs: append([]string(nil), ss...)}
}

func Binary(b []byte) Value {
	return Value{kind: KindBinary, bin: append([]byte(nil), b...)}
}

func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether v is the zero Value (no kind).
func (v Value) IsZero() bool { return v.kind == 0 }

// Int returns the data of a DWORD or QWORD value.
func (v Value) Int() uint64 { return v.num }

// Text returns the data of a string value.
func (v Value) Text() string { return v.str }

func (v Value) Strings() []string { return append([]string(nil), v.strs...) }
func (v Value) Bytes() []byte     { return append([]byte(nil), v.bin...) }

// Equal compares data, treating DWORD and QWORD as one numeric family and
// SZ and EXPAND_SZ as one case-insensitive string family.
func (v Value) Equal(o Value) bool {
	switch {
	case v.kind.integer() && o.kind.integer():
		return v.num == o.num
	case v.kind.text() && o.kind.text():
		return strings.EqualFold(v.str, o.str)
	case v.kind != o.kind:
		return false
	case v.kind == KindMultiString:
		if len(v.strs) != len(o.strs) {
			return false
		}
		for i := range v.strs {
			if !strings.EqualFold(v.strs[i], o.strs[i]) {
				return false
			}
		}
		return true
	case v.kind == KindBinary:
		return bytes.Equal(v.bin, o.bin)
	default:
		return v.kind == 0
	}
}

// String renders the data for display.
func (v Value) String() string {
	switch v.kind {
	case KindDWord, KindQWord:
		return strconv.FormatUint(v.num, 10)
	case KindString, KindExpandString:
		return v.str
	case KindMultiString:
		return strings.Join(v.strs, "; ")
	case KindBinary:
		return hex.EncodeToString(v.bin)
	default:
		return "<none>"
	}
}

type valueJSON struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	var data any
	switch v.kind {
	case KindDWord, KindQWord:
		data = v.num
	case KindString, KindExpandString:
		data = v.str
	case KindMultiString:
		data = v.strs
	case KindBinary:
		data = v.bin
	default:
		return []byte("null"), nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueJSON{Kind: v.kind.String(), Data: raw})
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Value{}
		return nil
	}
	var aux valueJSON
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	kind, err := ParseKind(aux.Kind)
	if err != nil {
		return err
	}

	out := Value{kind: kind}
	switch kind {
	case KindDWord, KindQWord:
		err = json.Unmarshal(aux.Data, &out.num)
	case KindString, KindExpandString:
		err = json.Unmarshal(aux.Data, &out.str)
	case KindMultiString:
		err = json.Unmarshal(aux.Data, &out.strs)
	case KindBinary:
		err = json.Unmarshal(aux.Data, &out.bin)
	}
	if err != nil {
		return fmt.Errorf("decode %s value: %w", kind, err)
	}
	*v = out
	return nil
}

// ParseValue converts a loosely typed scalar, as decoded from YAML or JSON,
// into a Value of the given kind. Integers may be given as numbers, decimal
// strings or 0x-prefixed hex strings; binary data as a hex string (commas
// allowed) or a list of byte values.
func ParseValue(kind Kind, raw any) (Value, error) {
	switch kind {
	case KindDWord:
		n, err := toUint(raw)
		if err != nil {
			return Value{}, err
		}
		if n > math.MaxUint32 {
			return Value{}, fmt.Errorf("dword value %d out of range", n)
		}
		return DWord(uint32(n)), nil
	case KindQWord:
		n, err := toUint(raw)
		if err != nil {
			return Value{}, err
		}
		return QWord(n), nil
	case KindString, KindExpandString:
		var s string
		switch t := raw.(type) {
		case string:
			s = t
		case nil:
			return Value{}, fmt.Errorf("missing %s value", kind)
		default:
			s = fmt.Sprint(t)
		}
		return Value{kind: kind, str: s}, nil
	case KindMultiString:
		switch t := raw.(type) {
		case []string:
			return MultiString(t...), nil
		case []any:
			ss := make([]string, len(t))
			for i, e := range t {
				ss[i] = fmt.Sprint(e)
			}
			return MultiString(ss...), nil
		case string:
			return MultiString(t), nil
		}
		return Value{}, fmt.Errorf("cannot use %T as multi_string", raw)
	case KindBinary:
		switch t := raw.(type) {
		case []byte:
			return Binary(t), nil
		case string:
			b, err := hex.DecodeString(strings.NewReplacer(",", "", " ", "").Replace(t))
			if err != nil {
				return Value{}, fmt.Errorf("decode binary value: %w", err)
			}
			return Binary(b), nil
		case []any:
			b := make([]byte, len(t))
			for i, e := range t {
				n, err := toUint(e)
				if err != nil || n > 0xff {
					return Value{}, fmt.Errorf("binary element %d is not a byte", i)
				}
				b[i] = byte(n)
			}
			return Binary(b), nil
		}
		return Value{}, fmt.Errorf("cannot use %T as binary", raw)
	default:
		return Value{}, fmt.Errorf("unsupported value kind %s", kind)
	}
}

func toUint(raw any) (uint64, error) {
	switch t := raw.(type) {
	case int:
		if t < 0 {
			return 0, fmt.Errorf("negative value %d", t)
		}
		return uint64(t), nil
	case int64:
		if t < 0 {
			return 0, fmt.Errorf("negative value %d", t)
		}
		return uint64(t), nil
	case uint32:
		return uint64(t), nil
	case uint64:
		return t, nil
	case float64:
		if t < 0 || t != math.Trunc(t) {
			return 0, fmt.Errorf("value %v is not a non-negative integer", t)
		}
		return uint64(t), nil
	case string:
		s := strings.TrimSpace(t)
		if strings.HasPrefix(strings.ToLower(s), "0x") {
			return strconv.ParseUint(s[2:], 16, 64)
		}
		return strconv.ParseUint(s, 10, 64)
	case nil:
		return 0, fmt.Errorf("missing integer value")
	default:
		return 0, fmt.Errorf("cannot use %T as integer", raw)
	}
}
