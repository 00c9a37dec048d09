package registry

import (
	"errors"
	"reflect"
	"testing"
)

func TestMemStoreCaseInsensitive(t *testing.T) {
	m := NewMemStore()
	k := MustParseKey(`HKCU\Software\Test`)

	if err := m.SetValue(k, "Enabled", DWord(1)); err != nil {
		t.Fatal(err)
	}
	v, err := m.GetValue(MustParseKey(`hkey_current_user\SOFTWARE\test`), "ENABLED")
	if err != nil {
		t.Fatalf("case-insensitive lookup failed: %v", err)
	}
	if v.Int() != 1 {
		t.Errorf("got %v, want 1", v)
	}

	names, _ := m.ValueNames(k)
	if !reflect.DeepEqual(names, []string{"Enabled"}) {
		t.Errorf("ValueNames = %v, want original casing", names)
	}
}

func TestMemStoreCreatesParents(t *testing.T) {
	m := NewMemStore()
	if err := m.SetValue(MustParseKey(`HKLM\A\B\C`), "x", String("y")); err != nil {
		t.Fatal(err)
	}

	subs, err := m.SubKeys(MustParseKey(`HKLM\A`))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(subs, []string{"B"}) {
		t.Errorf("SubKeys = %v, want [B]", subs)
	}
	if !m.HasKey(MustParseKey(`HKLM\A\B`)) {
		t.Error("intermediate key should exist")
	}
}

func TestMemStoreDelete(t *testing.T) {
	m := NewMemStore()
	root := MustParseKey(`HKLM\Root`)
	_ = m.SetValue(root.Join("Child"), "v", DWord(1))
	_ = m.SetValue(root.Join(`Child\Grand`), "v", DWord(2))
	_ = m.SetValue(MustParseKey(`HKLM\RootSibling`), "v", DWord(3))

	if err := m.DeleteValue(root, "missing"); !errors.Is(err, ErrNotExist) {
		t.Errorf("DeleteValue missing = %v, want ErrNotExist", err)
	}
	if err := m.DeleteKey(root); err != nil {
		t.Fatal(err)
	}
	if m.HasKey(root.Join(`Child\Grand`)) {
		t.Error("DeleteKey should be recursive")
	}
	if !m.HasKey(MustParseKey(`HKLM\RootSibling`)) {
		t.Error("DeleteKey removed a sibling sharing the name prefix")
	}
	if err := m.DeleteKey(root); !errors.Is(err, ErrNotExist) {
		t.Errorf("second DeleteKey = %v, want ErrNotExist", err)
	}
	if _, err := m.GetValue(root.Join("Child"), "v"); !errors.Is(err, ErrNotExist) {
		t.Errorf("GetValue after delete = %v", err)
	}
}

func TestMemStoreDeleteHiveKeepsHive(t *testing.T) {
	m := NewMemStore()
	_ = m.SetValue(MustParseKey(`HKCU\Software`), "v", DWord(1))
	if err := m.DeleteKey(Key{Hive: CurrentUser}); err != nil {
		t.Fatal(err)
	}
	subs, err := m.SubKeys(Key{Hive: CurrentUser})
	if err != nil {
		t.Fatalf("hive should still exist: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("SubKeys = %v, want empty", subs)
	}
}
