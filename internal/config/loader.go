package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default site file name.
const DefaultConfigFile = ".sitegrab"

var (
	// ErrConfigNotFound is returned when the site file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidPattern is returned when a site file glob cannot be compiled.
	ErrInvalidPattern = errors.New("invalid URL pattern")
)

// LoadConfigFile reads and validates a site file.
// A missing file yields ErrConfigNotFound.
func LoadConfigFile(filename string) (*File, error) {
	data, err := os.ReadFile(filename) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return ParseConfig(bytes.NewReader(data))
}

// ParseConfig decodes a site file from r. Unknown keys are rejected so
// that typos do not silently disable a filter.
func ParseConfig(r io.Reader) (*File, error) {
	var cf File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse site file: %w", err)
	}
	if cf.Sites == nil {
		cf.Sites = make(map[string]SiteConfig)
	}
	if err := cf.validate(); err != nil {
		return nil, err
	}
	return &cf, nil
}

func (cf *File) validate() error {
	check := func(owner string, sc SiteConfig) error {
		for _, patterns := range [][]string{sc.IgnorePatterns, sc.FollowPatterns} {
			for _, p := range patterns {
				if _, err := path.Match(p, "/"); err != nil {
					return fmt.Errorf("%w %q in %s: %w", ErrInvalidPattern, p, owner, err)
				}
			}
		}
		return nil
	}
	if err := check("defaults", cf.Defaults); err != nil {
		return err
	}
	for domain, sc := range cf.Sites {
		if err := check(domain, sc); err != nil {
			return err
		}
	}
	return nil
}

// XDGConfigFileName is the site file name inside XDGConfigDir.
const XDGConfigFileName = "config.yaml"

// FindConfigFile searches for the site file in the following order:
// 1. configPath, when given
// 2. .sitegrab in the current directory
// 3. .sitegrab in the user's home directory
// 4. config.yaml in the XDG config directory
//
// It returns an empty string when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	for _, c := range configSearchPaths() {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// configSearchPaths lists the implicit site file locations in lookup order.
func configSearchPaths() []string {
	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	return append(candidates, filepath.Join(XDGConfigDir(), XDGConfigFileName))
}

// LoadSiteConfigs locates the site file for c and stores it in
// c.SiteConfigs. A missing file is only an error when the user named one
// explicitly.
func (c *Config) LoadSiteConfigs() error {
	found := FindConfigFile(c.ConfigFilePath)
	if found == "" {
		if c.ConfigFilePath != "" {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, c.ConfigFilePath)
		}
		return nil
	}
	cf, err := LoadConfigFile(found)
	if err != nil {
		return err
	}
	c.SiteConfigs = cf
	return nil
}
