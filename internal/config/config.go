package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/sheetmark-cli/internal/utils"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const dirName = ".sheetmark"

// Global configuration structure.
type Global struct {
	DefaultLabel  string `mapstructure:"default_label" yaml:"default_label"`
	CaseSensitive bool   `mapstructure:"case_sensitive" yaml:"case_sensitive"`
	WholeCell     bool   `mapstructure:"whole_cell" yaml:"whole_cell"`
	OutputSuffix  string `mapstructure:"output_suffix" yaml:"output_suffix"`
	PreviewRows   int    `mapstructure:"preview_rows" yaml:"preview_rows"`
	SheetIndex    int    `mapstructure:"sheet_index" yaml:"sheet_index"`
	// CSVDelimiter is a single character; empty means derive from the extension.
	CSVDelimiter string `mapstructure:"csv_delimiter" yaml:"csv_delimiter"`
	PresetsDir   string `mapstructure:"presets_dir" yaml:"presets_dir"`
}

// Delimiter returns the configured CSV delimiter, or 0 for auto.
func (c *Global) Delimiter() rune {
	if c == nil || c.CSVDelimiter == "" {
		return 0
	}
	if c.CSVDelimiter == `\t` {
		return '\t'
	}
	return []rune(c.CSVDelimiter)[0]
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.sheetmark/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := homeDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SHEETMARK")
	v.AutomaticEnv()

	v.SetDefault("default_label", "")
	v.SetDefault("case_sensitive", false)
	v.SetDefault("whole_cell", false)
	v.SetDefault("output_suffix", "_processed")
	v.SetDefault("preview_rows", 5)
	v.SetDefault("sheet_index", 1)
	v.SetDefault("csv_delimiter", "")
	v.SetDefault("presets_dir", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; a malformed one is not.
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.PresetsDir == "" {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		c.PresetsDir = filepath.Join(dir, "presets")
	} else {
		dir, err := utils.ExpandHome(c.PresetsDir)
		if err != nil {
			return nil, err
		}
		c.PresetsDir = dir
	}
	if c.OutputSuffix == "" {
		c.OutputSuffix = "_processed"
	}
	if c.SheetIndex < 1 {
		c.SheetIndex = 1
	}
	if c.PreviewRows < 0 {
		c.PreviewRows = 0
	}
	if len([]rune(c.CSVDelimiter)) > 1 && c.CSVDelimiter != `\t` {
		return nil, fmt.Errorf("csv_delimiter must be a single character, got %q", c.CSVDelimiter)
	}
	return &c, nil
}

func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}
