// Copyright (c) 2025, Arkon Labs.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arkonlabs/arkon/pkg/defaults"
)

// Duration wraps time.Duration with YAML support for human-readable
// values like "30s" or "2m".
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String implements fmt.Stringer.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config carries every tunable the boot-parameter subsystem needs. It is
// an explicit value injected into constructors; there is no module-level
// state, so tests run against isolated temp directories.
type Config struct {
	// StateDir is the root for persisted state (profiles, transaction
	// journal).
	StateDir string `yaml:"stateDir"`

	// GrubDefaultsPath is the GRUB defaults file holding
	// GRUB_CMDLINE_LINUX.
	GrubDefaultsPath string `yaml:"grubDefaultsPath"`

	// GrubConfigPath is the generated GRUB config passed to
	// grub2-mkconfig -o.
	GrubConfigPath string `yaml:"grubConfigPath"`

	// ECoreFreqRatio classifies cores below ratio * modal frequency as
	// efficiency cores.
	ECoreFreqRatio float64 `yaml:"eCoreFreqRatio"`

	// ECoreFallbackFraction is the trailing fraction of logical CPUs a
	// heuristic caller may treat as efficiency cores without frequency
	// data.
	ECoreFallbackFraction float64 `yaml:"eCoreFallbackFraction"`

	// ApplyMaxRetries is the number of retries after a transient apply
	// failure.
	ApplyMaxRetries int `yaml:"applyMaxRetries"`

	// ApplyRetryBackoff is the initial backoff between retries, doubled
	// each attempt.
	ApplyRetryBackoff Duration `yaml:"applyRetryBackoff"`

	// TransactionWaitCeiling bounds the total wait on an in-progress
	// rpm-ostree transaction.
	TransactionWaitCeiling Duration `yaml:"transactionWaitCeiling"`

	// TransactionPollInterval paces rpm-ostree status polls during the
	// bounded wait.
	TransactionPollInterval Duration `yaml:"transactionPollInterval"`
}

// Default returns a Config with production defaults.
func Default() *Config {
	return &Config{
		StateDir:                "/var/lib/arkon",
		GrubDefaultsPath:        "/etc/default/grub",
		GrubConfigPath:          "/boot/grub2/grub.cfg",
		ECoreFreqRatio:          defaults.ECoreFreqRatio,
		ECoreFallbackFraction:   defaults.ECoreFallbackFraction,
		ApplyMaxRetries:         defaults.ApplyMaxRetries,
		ApplyRetryBackoff:       Duration(defaults.ApplyRetryBackoff),
		TransactionWaitCeiling:  Duration(defaults.TransactionWaitCeiling),
		TransactionPollInterval: Duration(defaults.TransactionPollInterval),
	}
}

// Load reads a YAML config file and overlays it on the defaults. A
// missing path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that tunables are in sane ranges.
func (c *Config) Validate() error {
	if c.StateDir == "" {
		return fmt.Errorf("stateDir must not be empty")
	}
	if c.ECoreFreqRatio <= 0 || c.ECoreFreqRatio >= 1 {
		return fmt.Errorf("eCoreFreqRatio %v out of range (0,1)", c.ECoreFreqRatio)
	}
	if c.ECoreFallbackFraction <= 0 || c.ECoreFallbackFraction > 0.5 {
		return fmt.Errorf("eCoreFallbackFraction %v out of range (0,0.5]", c.ECoreFallbackFraction)
	}
	if c.ApplyMaxRetries < 0 {
		return fmt.Errorf("applyMaxRetries must not be negative")
	}
	if c.TransactionWaitCeiling <= 0 || c.TransactionPollInterval <= 0 {
		return fmt.Errorf("transaction wait parameters must be positive")
	}
	if c.TransactionPollInterval > c.TransactionWaitCeiling {
		return fmt.Errorf("transactionPollInterval %v exceeds wait ceiling %v",
			c.TransactionPollInterval, c.TransactionWaitCeiling)
	}
	return nil
}

// ProfileDir is where named profile snapshots are persisted.
func (c *Config) ProfileDir() string {
	return filepath.Join(c.StateDir, "kernel-profiles")
}

// JournalPath is the transaction audit journal file.
func (c *Config) JournalPath() string {
	return filepath.Join(c.StateDir, "transactions.jsonl")
}
