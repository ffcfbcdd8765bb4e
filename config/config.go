// Package config provides YAML configuration parsing for miDeployer.
//
// This package enables running miDeployer as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: miDeployer
//	port: 8080
//	tick_interval: 1s
//	countdown: 9
//	users_file: users.json
//
//	products:
//	  - name: CorporateTube
//	    servers:
//	      - test.qa1.corporate.tube
//	      - test.${QA_DOMAIN:-corporate.tube}
//
//	grids:
//	  - name: WebCast
//	    host_template: "webcast-{{.env}}.movingimage.com"
//	    dimensions:
//	      env: [stg, qa1]
//
// A .env file next to the configuration file is loaded before variables
// are expanded. Variables already present in the environment win.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"text/template"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort         = 8080
	defaultTickInterval = time.Second
	defaultCountdown    = 9

	// minTickInterval keeps a typo like "1ms" from spinning every card.
	minTickInterval = 10 * time.Millisecond
)

// Config is the root configuration structure for miDeployer.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "miDeployer" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// TickInterval is the length of one countdown step.
	// Accepts duration strings like "1s", "500ms". Defaults to 1s.
	TickInterval Duration `yaml:"tick_interval"`

	// Countdown is the number of ticks a deploy takes. Defaults to 9.
	Countdown int `yaml:"countdown"`

	// UsersFile is a JSON users directory, relative to the config file.
	// Supports environment variable substitution.
	UsersFile string `yaml:"users_file"`

	// Users is an inline users directory. Mutually exclusive with UsersFile.
	Users []UserConfig `yaml:"users"`

	// Products lists servers explicitly.
	Products []ProductConfig `yaml:"products"`

	// Grids defines products whose servers expand via cartesian product.
	Grids []GridConfig `yaml:"grids"`

	// baseDir is the directory relative paths are resolved against.
	baseDir string
}

// UserConfig is one entry of an inline users directory.
type UserConfig struct {
	ID        string `yaml:"id"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

// ProductConfig defines a product and its servers.
type ProductConfig struct {
	// Name is the heading shown above the product's servers.
	Name string `yaml:"name"`

	// Servers are bare hostnames, shown in order.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	Servers []string `yaml:"servers"`
}

// GridConfig defines a product whose servers expand via cartesian product.
//
// For example, with dimensions {env: [qa1, qa2], app: [api, web]},
// the grid expands to 4 servers.
type GridConfig struct {
	// Name is the product name.
	Name string `yaml:"name"`

	// HostTemplate is a Go template for generating hostnames.
	// Dimension keys are available as template variables: {{.env}}
	// Supports environment variable substitution in the template.
	HostTemplate string `yaml:"host_template"`

	// Dimensions maps dimension names to their possible values.
	Dimensions map[string][]string `yaml:"dimensions"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// BaseDir returns the directory relative paths in the config resolve
// against. It is the config file's directory for [Load] and "" for [Parse].
func (c *Config) BaseDir() string {
	return c.baseDir
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// A .env file in the same directory is loaded first, without overriding
// variables that are already set. Returns an error if either file cannot
// be read or parsed.
func Load(path string) (*Config, error) {
	dir := filepath.Dir(path)

	if err := loadDotEnv(filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.baseDir = dir
	return cfg, nil
}

// loadDotEnv loads path into the environment if it exists.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in servers, host templates and
// users_file. Defaults are applied for Port (8080), TickInterval (1s)
// and Countdown (9).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = Duration(defaultTickInterval)
	}
	if cfg.Countdown == 0 {
		cfg.Countdown = defaultCountdown
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.TickInterval.Duration() < minTickInterval {
		return fmt.Errorf("tick_interval must be at least %s, got %s", minTickInterval, c.TickInterval.Duration())
	}
	if c.Countdown < 1 {
		return fmt.Errorf("countdown must be at least 1, got %d", c.Countdown)
	}

	if err := c.validateUsers(); err != nil {
		return err
	}

	for i := range c.Products {
		p := &c.Products[i]

		if p.Name == "" {
			return fmt.Errorf("products[%d]: name is required", i)
		}
		if len(p.Servers) == 0 {
			return fmt.Errorf("products[%d] (%s): at least one server is required", i, p.Name)
		}
		for j, host := range p.Servers {
			expanded, err := expandEnvVars(host)
			if err != nil {
				return fmt.Errorf("products[%d] (%s): servers[%d]: %w", i, p.Name, j, err)
			}
			if expanded == "" {
				return fmt.Errorf("products[%d] (%s): servers[%d] is empty", i, p.Name, j)
			}
			p.Servers[j] = expanded
		}
	}

	for i := range c.Grids {
		g := &c.Grids[i]

		if g.Name == "" {
			return fmt.Errorf("grids[%d]: name is required", i)
		}

		if g.HostTemplate == "" {
			return fmt.Errorf("grids[%d] (%s): host_template is required", i, g.Name)
		}
		expanded, err := expandEnvVars(g.HostTemplate)
		if err != nil {
			return fmt.Errorf("grids[%d] (%s): host_template: %w", i, g.Name, err)
		}
		g.HostTemplate = expanded

		// fail fast before SDK tries to use invalid template
		if _, err := template.New("").Parse(g.HostTemplate); err != nil {
			return fmt.Errorf("grids[%d] (%s): invalid host_template: %w", i, g.Name, err)
		}

		if len(g.Dimensions) == 0 {
			return fmt.Errorf("grids[%d] (%s): at least one dimension is required", i, g.Name)
		}
		for dimName, dimValues := range g.Dimensions {
			if len(dimValues) == 0 {
				return fmt.Errorf("grids[%d] (%s): dimension %q has no values", i, g.Name, dimName)
			}
			seen := make(map[string]struct{}, len(dimValues))
			for _, v := range dimValues {
				if _, exists := seen[v]; exists {
					return fmt.Errorf("grids[%d] (%s): dimension %q has duplicate value %q", i, g.Name, dimName, v)
				}
				seen[v] = struct{}{}
			}
		}
	}

	return nil
}

func (c *Config) validateUsers() error {
	if c.UsersFile != "" && len(c.Users) > 0 {
		return errors.New("users_file and users are mutually exclusive")
	}

	if c.UsersFile != "" {
		expanded, err := expandEnvVars(c.UsersFile)
		if err != nil {
			return fmt.Errorf("users_file: %w", err)
		}
		c.UsersFile = expanded
	}

	seen := make(map[string]struct{}, len(c.Users))
	for i, u := range c.Users {
		if u.ID == "" {
			return fmt.Errorf("users[%d]: id is required", i)
		}
		if _, exists := seen[u.ID]; exists {
			return fmt.Errorf("users[%d]: duplicate id %q", i, u.ID)
		}
		seen[u.ID] = struct{}{}
	}
	return nil
}
