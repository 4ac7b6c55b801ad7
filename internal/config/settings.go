package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/OsbornePro/WinCore/internal/codepage"
)

type Settings struct {
	Version int `yaml:"version"`
	Bridge  BridgeSettings
	Locale  LocaleSettings
	Limits  LimitSettings
}

type BridgeSettings struct {
	Network    string `yaml:"network"`
	Address    string `yaml:"address"`
	SealFrames bool   `yaml:"seal_frames"`
}

type LocaleSettings struct {
	AnsiCodePage  uint32 `yaml:"ansi_code_page"`
	InputCodePage uint32 `yaml:"input_code_page"`
}

type LimitSettings struct {
	MaxProcEntries int `yaml:"max_proc_entries"`
}

func Default() *Settings {
	return &Settings{
		Version: 1,
		Bridge: BridgeSettings{
			Network:    "unix",
			Address:    "/run/wincored/bridge.sock",
			SealFrames: true,
		},
		Locale: LocaleSettings{
			AnsiCodePage:  uint32(codepage.Latin1),
			InputCodePage: uint32(codepage.Latin1),
		},
	}
}

// Load reads config.yaml. Missing fields keep defaults.
func Load(path string) (*Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := Default()
	if err := yaml.Unmarshal(b, s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes config.yaml
func Save(path string, s *Settings) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}

func (s *Settings) Validate() error {
	if !codepage.Known(codepage.ID(s.Locale.AnsiCodePage)) {
		return fmt.Errorf("unknown ansi_code_page %d", s.Locale.AnsiCodePage)
	}
	if !codepage.Known(codepage.ID(s.Locale.InputCodePage)) {
		return fmt.Errorf("unknown input_code_page %d", s.Locale.InputCodePage)
	}
	if s.Limits.MaxProcEntries < 0 {
		return fmt.Errorf("max_proc_entries must not be negative")
	}
	return nil
}
