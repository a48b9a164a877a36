package main

import (
	"fmt"
	"os"
	"strings"
)

// switchMode is the auto|on|off value of --color and --ui.
type switchMode uint8

const (
	switchAuto switchMode = iota
	switchOn
	switchOff
)

var switchNames = [...]string{switchAuto: "auto", switchOn: "on", switchOff: "off"}

func (s switchMode) String() string { return switchNames[s] }

func readSwitch(flag, value string) (switchMode, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return switchAuto, nil
	}
	for i, name := range switchNames {
		if v == name {
			return switchMode(i), nil
		}
	}
	return switchAuto, fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
}

// enabled resolves auto against whether f is a terminal.
func (s switchMode) enabled(f *os.File) bool {
	if s == switchAuto {
		return isTerminal(f)
	}
	return s == switchOn
}
