package registry

import (
	"errors"
	"runtime"
	"testing"
)

func TestHandlerSilentAPI(t *testing.T) {
	h := NewHandler(NewMemStore(), nil)
	path := `HKCU\Software\Microsoft\Windows\CurrentVersion\AdvertisingInfo`

	if _, ok := h.Get(path, "Enabled"); ok {
		t.Fatal("Get on empty store should report no value")
	}
	if !h.Set(path, "Enabled", DWord(0)) {
		t.Fatal("Set failed")
	}
	v, ok := h.Get(path, "Enabled")
	if !ok || v.Int() != 0 || v.Kind() != KindDWord {
		t.Errorf("Get = %v, %v", v, ok)
	}
	if !h.Delete(path, "Enabled") {
		t.Error("Delete failed")
	}
	if !h.Delete(path, "Enabled") {
		t.Error("Delete of an absent value should succeed")
	}
	if !h.DeleteKey(`HKCU\Software\Microsoft`) {
		t.Error("DeleteKey failed")
	}
	if !h.DeleteKey(`HKCU\Software\Microsoft`) {
		t.Error("DeleteKey of an absent key should succeed")
	}
}

func TestHandlerBadPath(t *testing.T) {
	h := NewHandler(NewMemStore(), nil)

	if h.Set(`NOPE\Software`, "x", DWord(1)) {
		t.Error("Set with unknown hive should fail")
	}
	if _, ok := h.Get(`NOPE\Software`, "x"); ok {
		t.Error("Get with unknown hive should fail")
	}
	if _, err := h.Lookup(`NOPE\Software`, "x"); !errors.Is(err, ErrBadHive) {
		t.Errorf("Lookup error = %v, want ErrBadHive", err)
	}
}

func TestHandlerExistsAndSubKeys(t *testing.T) {
	h := NewHandler(NewMemStore(), nil)
	parent := `HKLM\SYSTEM\CurrentControlSet\Services\Tcpip\Parameters\Interfaces`
	h.Set(parent+`\{A}`, "TcpAckFrequency", DWord(1))
	h.Set(parent+`\{B}`, "TcpAckFrequency", DWord(1))

	ok, err := h.Exists(parent)
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	ok, err = h.Exists(parent + `\{C}`)
	if err != nil || ok {
		t.Errorf("Exists missing = %v, %v", ok, err)
	}
	subs, err := h.SubKeys(parent)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 || subs[0] != "{A}" || subs[1] != "{B}" {
		t.Errorf("SubKeys = %v", subs)
	}
	if _, err := h.Lookup(parent+`\{A}`, "missing"); !errors.Is(err, ErrNotExist) {
		t.Errorf("Lookup missing = %v", err)
	}
}

func TestSystemStoreUnsupportedOffWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("system store is live on windows")
	}
	h := NewHandler(NewSystemStore(), nil)
	if h.Set(`HKCU\Software\ASXHub`, "x", DWord(1)) {
		t.Error("Set should fail off windows")
	}
	if _, ok := h.Get(`HKCU\Software\ASXHub`, "x"); ok {
		t.Error("Get should report no value off windows")
	}
	if err := h.Write(`HKCU\Software\ASXHub`, "x", DWord(1)); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Write error = %v, want ErrUnsupported", err)
	}
}
