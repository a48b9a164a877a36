package main

import (
	"strings"
	"testing"
)

func TestFlagParsers(t *testing.T) {
	for in, want := range map[string]switchMode{"": switchAuto, "AUTO": switchAuto, " on ": switchOn, "off": switchOff} {
		got, err := readSwitch("ui", in)
		if err != nil || got != want {
			t.Errorf("readSwitch(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := readSwitch("color", "maybe"); err == nil || !strings.Contains(err.Error(), "--color") {
		t.Fatalf("readSwitch accepted maybe: %v", err)
	}
	if !switchOn.enabled(nil) || switchOff.enabled(nil) {
		t.Fatalf("explicit modes must ignore the terminal")
	}
	if _, err := readDiagFormat("sarif"); err == nil {
		t.Fatalf("readDiagFormat accepted sarif")
	}
	if f, err := readDiagFormat("short"); err != nil || f != diagFormatShort {
		t.Fatalf("readDiagFormat(short) = %q, %v", f, err)
	}
}

func TestGuardCatchesPanics(t *testing.T) {
	err := guard(func() error { panic("ir: label 3 placed twice") })
	ice, ok := err.(*internalError)
	if !ok || !strings.Contains(ice.Error(), "label 3 placed twice") {
		t.Fatalf("guard returned %v", err)
	}
	if err := guard(func() error { return nil }); err != nil {
		t.Fatalf("guard(nil) = %v", err)
	}
}

func TestPlainVersionHasNoEscapes(t *testing.T) {
	v := plainVersion()
	if strings.ContainsRune(v, '\x1b') || !strings.HasPrefix(v, "0.1.0") {
		t.Fatalf("plainVersion() = %q", v)
	}
}
