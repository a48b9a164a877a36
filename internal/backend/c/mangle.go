package c

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Mangle turns a source-level name into a C identifier `<lang>__<name>`.
// The name is NFC-normalised first so canonically equal spellings agree;
// every rune outside [A-Za-z0-9_] is written as _uXXXX_.
func Mangle(lang, name string) string {
	var sb strings.Builder
	sb.WriteString(lang)
	sb.WriteString("__")
	writeEscaped(&sb, norm.NFC.String(name))
	return sb.String()
}

func writeEscaped(sb *strings.Builder, s string) {
	for _, r := range s {
		if isIdentRune(r) {
			sb.WriteRune(r)
			continue
		}
		fmt.Fprintf(sb, "_u%04X_", r)
	}
}

func isIdentRune(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

// isCIdent reports names that can be used in C unchanged.
func isCIdent(s string) bool {
	if s == "" || ('0' <= s[0] && s[0] <= '9') {
		return false
	}
	for _, r := range s {
		if !isIdentRune(r) {
			return false
		}
	}
	return !cKeywords[s]
}

var cKeywords = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extern": true, "float": true, "for": true, "goto": true,
	"if": true, "inline": true, "int": true, "long": true, "register": true,
	"restrict": true, "return": true, "short": true, "signed": true, "sizeof": true,
	"static": true, "struct": true, "switch": true, "typedef": true, "union": true,
	"unsigned": true, "void": true, "volatile": true, "while": true, "main": true,
	"bool": true, "true": true, "false": true,
}

// prelude macros and typedefs are taken too
func init() {
	for _, name := range primNames {
		cKeywords[name] = true
	}
}
