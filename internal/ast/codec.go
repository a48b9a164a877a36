package ast

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Format selects the serialization of a Namespace.
type Format uint8

const (
	FormatJSON Format = iota
	FormatMsgpack
)

// ErrUnknownFormat is returned for unrecognised file extensions.
var ErrUnknownFormat = errors.New("unknown tree format")

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".msgpack", ".mpk":
		return FormatMsgpack, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Decode reads one Namespace from r.
func Decode(r io.Reader, format Format) (*Namespace, error) {
	ns := &Namespace{}
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(ns); err != nil {
			return nil, err
		}
	case FormatMsgpack:
		dec := msgpack.NewDecoder(r)
		dec.SetCustomStructTag("json")
		if err := dec.Decode(ns); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnknownFormat
	}
	return ns, nil
}

// Encode writes ns to w.
func Encode(w io.Writer, ns *Namespace, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ns)
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		return enc.Encode(ns)
	}
	return ErrUnknownFormat
}

// Load reads a serialized tree, choosing the decoder by extension.
func Load(path string) (*Namespace, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- path is provided by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ns, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if ns.Name == "" {
		ns.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return ns, nil
}

// Save writes ns next to path atomically.
func Save(path string, ns *Namespace) (err error) {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), ".tree-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()
	if err = Encode(f, ns, format); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), path)
}
