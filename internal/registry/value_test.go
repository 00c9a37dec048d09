package registry

import (
	"encoding/json"
	"testing"
)

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"dword":         KindDWord,
		"REG_DWORD":     KindDWord,
		"qword":         KindQWord,
		"sz":            KindString,
		"string":        KindString,
		"REG_EXPAND_SZ": KindExpandString,
		"multi_sz":      KindMultiString,
		"hex":           KindBinary,
		" Binary ":      KindBinary,
	}
	for in, want := range tests {
		got, err := ParseKind(in)
		if err != nil {
			t.Errorf("ParseKind(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseKind(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseKind("float"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"dword equal", DWord(1), DWord(1), true},
		{"dword differs", DWord(1), DWord(0), false},
		{"dword vs qword", DWord(5), QWord(5), true},
		{"string case", String("Deny"), String("deny"), true},
		{"string vs expand", String(`%SystemRoot%`), ExpandString(`%systemroot%`), true},
		{"string vs dword", String("1"), DWord(1), false},
		{"multi", MultiString("a", "b"), MultiString("A", "B"), true},
		{"multi length", MultiString("a"), MultiString("a", "b"), false},
		{"binary", Binary([]byte{1, 2}), Binary([]byte{1, 2}), true},
		{"binary differs", Binary([]byte{1, 2}), Binary([]byte{2, 1}), false},
		{"zero", Value{}, Value{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("%v.Equal(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestValueJSON(t *testing.T) {
	data, err := json.Marshal(DWord(38))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"kind":"dword","data":38}` {
		t.Errorf("marshal = %s", data)
	}

	var v Value
	if err := json.Unmarshal([]byte(`{"kind":"multi_string","data":["a","b"]}`), &v); err != nil {
		t.Fatal(err)
	}
	if v.Kind() != KindMultiString || len(v.Strings()) != 2 {
		t.Errorf("unmarshal = %#v", v)
	}

	data, err = json.Marshal(Value{})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "null" {
		t.Errorf("zero value marshals as %s, want null", data)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		raw  any
		want Value
	}{
		{"yaml int", KindDWord, 1, DWord(1)},
		{"json float", KindDWord, float64(4294967295), DWord(0xffffffff)},
		{"hex string", KindDWord, "0xffffffff", DWord(0xffffffff)},
		{"decimal string", KindQWord, "42", QWord(42)},
		{"string", KindString, "Deny", String("Deny")},
		{"number as string", KindString, 0, String("0")},
		{"multi list", KindMultiString, []any{"a", "b"}, MultiString("a", "b")},
		{"binary hex", KindBinary, "90,12,03,80", Binary([]byte{0x90, 0x12, 0x03, 0x80})},
		{"binary list", KindBinary, []any{1, 255}, Binary([]byte{1, 255})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue(tt.kind, tt.raw)
			if err != nil {
				t.Fatalf("ParseValue: %v", err)
			}
			if got.Kind() != tt.want.Kind() || !got.Equal(tt.want) {
				t.Errorf("ParseValue(%v, %v) = %v (%v), want %v", tt.kind, tt.raw, got, got.Kind(), tt.want)
			}
		})
	}

	bad := []struct {
		kind Kind
		raw  any
	}{
		{KindDWord, -1},
		{KindDWord, 1.5},
		{KindDWord, uint64(1) << 33},
		{KindDWord, nil},
		{KindBinary, "zz"},
		{KindBinary, []any{256}},
		{KindString, nil},
	}
	for _, b := range bad {
		if _, err := ParseValue(b.kind, b.raw); err == nil {
			t.Errorf("ParseValue(%v, %#v) should fail", b.kind, b.raw)
		}
	}
}
