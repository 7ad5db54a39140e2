// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package config persists the named controller targets of the omada CLI.
//
// Targets live in a YAML file (~/.omada.yaml by default). Reading goes
// through koanf so that OMADA_ environment variables can override or add
// targets; writing always serializes the file-backed store only.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

const (
	// EnvPrefix is the prefix of environment variables read by LoadWithEnv
	EnvPrefix = "OMADA_"

	// EnvConfigPath overrides the location of the config file
	EnvConfigPath = EnvPrefix + "CONFIG"

	// DefaultFileName is the config file name in the user's home directory
	DefaultFileName = ".omada.yaml"

	// DefaultSite is the site used by targets created without one
	DefaultSite = "Default"
)

var (
	// ErrTargetNotFound is returned when a named target does not exist
	ErrTargetNotFound = errors.New("target not found")

	// ErrNoTarget is returned when no target was named and no default is set
	ErrNoTarget = errors.New("no target specified, and no default target has been configured")
)

// Target holds what is needed to reach one controller site
type Target struct {
	URL       string `koanf:"url" yaml:"url"`
	Username  string `koanf:"username" yaml:"username"`
	Password  string `koanf:"password" yaml:"password"`
	Site      string `koanf:"site" yaml:"site"`
	VerifySSL bool   `koanf:"verify_ssl" yaml:"verify_ssl"`
}

// Store is the content of the config file
type Store struct {
	DefaultTarget string            `koanf:"default_target" yaml:"default_target,omitempty"`
	Targets       map[string]Target `koanf:"targets" yaml:"targets,omitempty"`
}

// DefaultPath returns the config file location
//
// OMADA_CONFIG wins over ~/.omada.yaml.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, DefaultFileName), nil
}

// Load reads the store from path
//
// A missing file yields an empty store.
func Load(path string) (*Store, error) {
	return load(path, false)
}

// LoadWithEnv reads the store from path and applies OMADA_ environment overrides
//
// Nested keys are separated by a double underscore:
// OMADA_DEFAULT_TARGET=home, OMADA_TARGETS__HOME__URL=https://10.0.0.2:8043.
// Stores loaded this way must not be saved.
func LoadWithEnv(path string) (*Store, error) {
	return load(path, true)
}

func load(path string, withEnv bool) (*Store, error) {
	k := koanf.New(".")

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config file %s: %w", path, err)
	}

	if withEnv {
		if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
			return nil, fmt.Errorf("load env: %w", err)
		}
	}

	var s Store
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if s.Targets == nil {
		s.Targets = map[string]Target{}
	}
	for name, t := range s.Targets {
		// certificates are verified unless a target opts out
		if !k.Exists("targets." + name + ".verify_ssl") {
			t.VerifySSL = true
		}
		if t.Site == "" {
			t.Site = DefaultSite
		}
		s.Targets[name] = t
	}
	return &s, nil
}

// envKey maps OMADA_TARGETS__HOME__URL to targets.home.url and drops
// variables that are not part of the store.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if key == "default_target" || strings.HasPrefix(key, "targets.") {
		return key
	}
	return ""
}

// Save writes the store to path with mode 0600
//
// The file is replaced atomically; parent directories are created.
func (s *Store) Save(path string) error {
	data, err := yamlv3.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".omada-*.yaml")
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod config file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	return nil
}

// Resolve returns the named target, or the default target when name is empty
func (s *Store) Resolve(name string) (string, Target, error) {
	if name == "" {
		name = s.DefaultTarget
		if name == "" {
			return "", Target{}, ErrNoTarget
		}
	}
	t, ok := s.Targets[name]
	if !ok {
		return "", Target{}, fmt.Errorf("%w: %q", ErrTargetNotFound, name)
	}
	return name, t, nil
}

// Get returns the named target
func (s *Store) Get(name string) (Target, bool) {
	t, ok := s.Targets[name]
	return t, ok
}

// Set adds or replaces a target
//
// The target becomes the default when makeDefault is set or when the store
// has no default yet.
func (s *Store) Set(name string, t Target, makeDefault bool) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if s.Targets == nil {
		s.Targets = map[string]Target{}
	}
	s.Targets[name] = t
	if makeDefault || s.DefaultTarget == "" {
		s.DefaultTarget = name
	}
	return nil
}

// Delete removes a target, clearing the default if it pointed there
func (s *Store) Delete(name string) error {
	if _, ok := s.Targets[name]; !ok {
		return fmt.Errorf("%w: %q", ErrTargetNotFound, name)
	}
	delete(s.Targets, name)
	if s.DefaultTarget == name {
		s.DefaultTarget = ""
	}
	return nil
}

// SetDefault makes an existing target the default
func (s *Store) SetDefault(name string) error {
	if _, ok := s.Targets[name]; !ok {
		return fmt.Errorf("%w: %q", ErrTargetNotFound, name)
	}
	s.DefaultTarget = name
	return nil
}

// Names returns the target names in sorted order
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.Targets))
	for name := range s.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateName checks that a target name can be stored and addressed from the environment
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("target name cannot be empty")
	}
	if strings.ContainsAny(name, ". \t") {
		return fmt.Errorf("invalid target name %q: must not contain dots or whitespace", name)
	}
	return nil
}
