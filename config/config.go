// Package config reads and writes the INI workspace record that marks
// a directory as a grove workspace and declares its identifier scheme.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-ini/ini"
)

const (
	// FileName is the workspace record written by grove.
	FileName = "grove.rc"
	// LegacyFileName is an accepted alias, read but never written.
	LegacyFileName = ".groverc"

	section = "workspace"
	keyID   = "attrs_id"
)

// Record is the parsed workspace configuration.
type Record struct {
	// SchemeName is the registered name of the bound identifier scheme.
	SchemeName string
	// Extra holds unrecognized keys of the workspace section so that a
	// rewrite never drops them.
	Extra map[string]string
}

// Reserved reports whether name collides with one of the record file
// names. Identifier schemes must never emit these.
func Reserved(name string) bool {
	return name == FileName || name == LegacyFileName
}

// Exists reports whether root carries a workspace record.
func Exists(root string) bool {
	for _, name := range []string{FileName, LegacyFileName} {
		if info, err := os.Stat(filepath.Join(root, name)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// Read loads the workspace record of root, preferring the primary file
// name over the legacy alias.
func Read(root string) (*Record, error) {
	var lastErr error
	for _, name := range []string{FileName, LegacyFileName} {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				lastErr = err
			}
			continue
		}

		f, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("grove: parse %s: %w", path, err)
		}

		rec := &Record{Extra: make(map[string]string)}
		for _, key := range f.Section(section).Keys() {
			if key.Name() == keyID {
				rec.SchemeName = key.String()
				continue
			}
			rec.Extra[key.Name()] = key.String()
		}

		if rec.SchemeName == "" {
			return nil, fmt.Errorf("grove: %s: missing %s.%s", path, section, keyID)
		}
		return rec, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("grove: read workspace record: %w", lastErr)
	}
	return nil, fmt.Errorf("grove: %s: no workspace record", root)
}

// Write persists the record as the primary file name under root.
func Write(root string, rec *Record) error {
	f := ini.Empty()

	sec := f.Section(section)
	if _, err := sec.NewKey(keyID, rec.SchemeName); err != nil {
		return fmt.Errorf("grove: write workspace record: %w", err)
	}
	for name, value := range rec.Extra {
		if _, err := sec.NewKey(name, value); err != nil {
			return fmt.Errorf("grove: write workspace record: %w", err)
		}
	}

	if err := f.SaveTo(filepath.Join(root, FileName)); err != nil {
		return fmt.Errorf("grove: write workspace record: %w", err)
	}
	return nil
}
