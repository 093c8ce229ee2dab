// Package config loads the emulator settings file. Every field is
// optional; Default supplies the values a missing field takes.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/alirzasahb/PumpkinOS/guest"
	"github.com/alirzasahb/PumpkinOS/hostfs"
	"github.com/alirzasahb/PumpkinOS/m68k"
	"gopkg.in/yaml.v2"
)

type Trace struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Config struct {
	LogLevel        string            `yaml:"log_level"`
	LogModules      string            `yaml:"log_modules"`
	Backend         string            `yaml:"backend"`
	SliceCycles     int               `yaml:"slice_cycles"`
	ArenaSize       uint32            `yaml:"arena_size"`
	AddressBits     int               `yaml:"address_bits"`
	Drives          map[string]string `yaml:"drives"` // letter to host directory
	DefaultDrive    string            `yaml:"default_drive"`
	ConsoleTimeout  time.Duration     `yaml:"console_timeout"`
	Trace           Trace             `yaml:"trace"`
	DisassembleText bool              `yaml:"disassemble_text"`
	Screenshot      string            `yaml:"screenshot"`
}

func Default() *Config {
	return &Config{
		LogLevel:       "info",
		Backend:        m68k.BackendInterpreter,
		SliceCycles:    m68k.DefaultSlice,
		ArenaSize:      guest.DefaultSize,
		AddressBits:    24,
		Drives:         map[string]string{},
		DefaultDrive:   "C",
		ConsoleTimeout: 20 * time.Millisecond,
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Drives == nil {
		cfg.Drives = map[string]string{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case m68k.BackendInterpreter, m68k.BackendUnicorn:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.SliceCycles <= 0 {
		return fmt.Errorf("slice_cycles must be positive, got %d", c.SliceCycles)
	}
	if c.AddressBits != 24 && c.AddressBits != 32 {
		return fmt.Errorf("address_bits must be 24 or 32, got %d", c.AddressBits)
	}
	for letter := range c.Drives {
		if _, err := driveNumber(letter); err != nil {
			return err
		}
	}
	if _, err := driveNumber(c.DefaultDrive); err != nil {
		return err
	}
	return nil
}

func driveNumber(letter string) (int, error) {
	letter = strings.TrimSuffix(strings.ToUpper(letter), ":")
	if len(letter) == 1 {
		if n, ok := hostfs.DriveNumber(letter[0]); ok {
			return n, nil
		}
	}
	return 0, fmt.Errorf("bad drive letter %q", letter)
}

// Drive returns the number of the default drive.
func (c *Config) Drive() int {
	n, _ := driveNumber(c.DefaultDrive)
	return n
}

// Mount builds the drive table, mounting drives in letter order.
func (c *Config) Mount() (*hostfs.Drives, error) {
	d := hostfs.New()
	letters := make([]string, 0, len(c.Drives))
	for l := range c.Drives {
		letters = append(letters, l)
	}
	sort.Strings(letters)
	for _, l := range letters {
		n, err := driveNumber(l)
		if err != nil {
			return nil, err
		}
		if err := d.Mount(n, c.Drives[l]); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// SetDrive maps letter to dir, replacing any earlier mapping.
func (c *Config) SetDrive(letter, dir string) error {
	n, err := driveNumber(letter)
	if err != nil {
		return err
	}
	c.Drives[string(hostfs.Letter(n))] = dir
	return nil
}
