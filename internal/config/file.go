package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"gamlvalidate/internal/flags"
)

// File is the on-disk YAML configuration. Nil fields are unset.
type File struct {
	Extension *string  `yaml:"extension"`
	SkipDirs  []string `yaml:"skip_dirs"`

	Schema struct {
		GitHubAPI         *bool   `yaml:"github_api"`
		Auth              *bool   `yaml:"auth"`
		ExpectedReference *string `yaml:"expected_reference"`
		Draft             *string `yaml:"draft"`
	} `yaml:"schema"`

	Output struct {
		ResultsDir    *string `yaml:"results_dir"`
		ConsoleFormat *string `yaml:"console_format"`
		NoColor       *bool   `yaml:"no_color"`
		MetricsFile   *string `yaml:"metrics_file"`
	} `yaml:"output"`

	LogLevel *string `yaml:"log_level"`
}

// LoadFile decodes path. Unknown keys are rejected so typos surface early.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return &f, nil
}

// FindFile returns explicit when set, otherwise DefaultFileName inside root
// if it exists. "" means no config file.
func FindFile(explicit, root string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	candidate := filepath.Join(root, DefaultFileName)
	info, err := os.Stat(candidate)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("stat %s: %w", candidate, err)
	}
	if info.IsDir() {
		return "", nil
	}
	return candidate, nil
}

// Apply copies file values into c for every setting whose flag was not
// explicitly changed on the command line.
func (c *Config) Apply(f *File, changed func(flag string) bool) {
	if f == nil {
		return
	}
	if changed == nil {
		changed = func(string) bool { return false }
	}

	setString := func(flag string, dst *string, v *string) {
		if v != nil && !changed(flag) {
			*dst = *v
		}
	}
	setBool := func(flag string, dst *bool, v *bool) {
		if v != nil && !changed(flag) {
			*dst = *v
		}
	}

	setString(flags.FlagExtension, &c.Input.Extension, f.Extension)
	if f.SkipDirs != nil && !changed(flags.FlagSkipDir) {
		c.Input.SkipDirs = append([]string(nil), f.SkipDirs...)
	}

	setBool(flags.FlagGitHubAPI, &c.Schema.GitHubAPI, f.Schema.GitHubAPI)
	setBool(flags.FlagAuth, &c.Schema.Auth, f.Schema.Auth)
	setString(flags.FlagExpectedSchema, &c.Schema.ExpectedReference, f.Schema.ExpectedReference)
	setString(flags.FlagDraft, &c.Schema.Draft, f.Schema.Draft)

	setString(flags.FlagResultsDir, &c.Output.ResultsDir, f.Output.ResultsDir)
	setString(flags.FlagConsoleFormat, &c.Output.ConsoleFormat, f.Output.ConsoleFormat)
	setBool(flags.FlagNoColor, &c.Output.NoColor, f.Output.NoColor)
	setString(flags.FlagMetricsFile, &c.Output.MetricsFile, f.Output.MetricsFile)

	setString(flags.FlagLogLevel, &c.Runtime.LogLevel, f.LogLevel)
}
