package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600

	DomainDesktour = "desktour"
	DomainCamera   = "camera"

	relatedLimitDefault   = 6
	minMatchedTagsDefault = 1
	pageSizeDefault       = 20
)

// Config represents app config object.
type Config struct {
	Domains map[string]*Domain `yaml:"domains" json:"domains" validate:"required,min=1,dive,required"`
	YouTube YouTube            `yaml:"youtube" json:"youtube"`
}

// Domain holds the per-vertical catalog settings. PriceRanges is ordered from
// cheapest to most expensive bracket.
type Domain struct {
	PriceRanges    []string `yaml:"price_ranges" json:"price_ranges" validate:"required,min=1,unique,dive,required"`
	Categories     []string `yaml:"categories" json:"categories" validate:"dive,required"`
	Tags           []string `yaml:"tags" json:"tags" validate:"dive,required"`
	RelatedLimit   int      `yaml:"related_limit" json:"related_limit" validate:"min=0"`
	MinMatchedTags int      `yaml:"min_matched_tags" json:"min_matched_tags" validate:"min=0"`
	PageSize       int      `yaml:"page_size" json:"page_size" validate:"min=0,max=500"`
}

// YouTube holds the OAuth client used for source metadata refresh.
type YouTube struct {
	ClientID     string `yaml:"client_id" json:"client_id,omitempty"`
	ClientSecret string `yaml:"client_secret" json:"-"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func getDefaultConfig() *Config {
	return &Config{
		Domains: map[string]*Domain{
			DomainDesktour: {
				PriceRanges: []string{
					"under_5000",
					"5000_10000",
					"10000_30000",
					"30000_50000",
					"over_50000",
				},
				Categories: []string{
					"keyboard", "mouse", "monitor", "desk", "chair",
					"headphones", "microphone", "webcam", "lighting", "speaker",
				},
				Tags: []string{
					"minimal", "white", "black", "wood", "rgb",
					"ergonomic", "wireless", "compact", "gaming", "productivity",
				},
				RelatedLimit:   relatedLimitDefault,
				MinMatchedTags: minMatchedTagsDefault,
				PageSize:       pageSizeDefault,
			},
			DomainCamera: {
				PriceRanges: []string{
					"under_50000",
					"50000_100000",
					"100000_200000",
					"200000_300000",
					"over_300000",
				},
				Categories: []string{
					"body", "lens", "tripod", "gimbal", "bag", "strap", "filter", "light",
				},
				Tags: []string{
					"vlog", "travel", "portrait", "landscape", "street",
					"wildlife", "cinema", "beginner",
				},
				RelatedLimit:   relatedLimitDefault,
				MinMatchedTags: minMatchedTagsDefault,
				PageSize:       pageSizeDefault,
			},
		},
	}
}

// Validate checks the config and fills in defaults for zero values.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config required")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for _, d := range c.Domains {
		if d.RelatedLimit == 0 {
			d.RelatedLimit = relatedLimitDefault
		}
		if d.PageSize == 0 {
			d.PageSize = pageSizeDefault
		}
	}
	return nil
}

// GetDomain returns settings for the named domain.
func (c *Config) GetDomain(name string) (*Domain, error) {
	if c == nil {
		return nil, errors.New("config required")
	}
	d, ok := c.Domains[strings.ToLower(strings.TrimSpace(name))]
	if !ok || d == nil {
		return nil, fmt.Errorf("unknown domain: %q (permitted options: %v)", name, c.DomainNames())
	}
	return d, nil
}

// DomainNames returns the configured domain names in sorted order.
func (c *Config) DomainNames() []string {
	list := make([]string, 0, len(c.Domains))
	for k := range c.Domains {
		list = append(list, k)
	}
	slices.Sort(list)
	return list
}

func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file: %s: %w", configFileName, err)
	}
	return nil
}

// ReadOrCreate reads app config from directory or creates a new one.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dirPath, dirMode); err != nil {
			return nil, fmt.Errorf("failed to create dir: %s: %w", dirPath, err)
		}
	}

	path := filepath.Join(dirPath, configFileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(dirPath, getDefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	return Read(path)
}

// Read parses and validates a config file.
func Read(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	return &c, nil
}

// GetOrCreateHomeDir returns the app directory under the current user home.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("failed to get user home dir: %w", err)
	}

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, fmt.Errorf("failed to create dir: %s: %w", dir, err)
		}
		created = true
	}
	return dir, created, nil
}
