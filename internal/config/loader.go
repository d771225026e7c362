package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/sulink/internal/access"
	"github.com/mattjoyce/sulink/internal/dispatch"
)

// DefaultPath is used when neither --config nor $SULINK_CONFIG is set.
const DefaultPath = "/data/adb/sulink/config.yaml"

// EnvPath names the environment variable that overrides DefaultPath.
const EnvPath = "SULINK_CONFIG"

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// packagePattern accepts Java package names.
var packagePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z][A-Za-z0-9_]*)+$`)

// Resolve picks the config path: the flag value, then $SULINK_CONFIG, then
// DefaultPath.
func Resolve(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads, verifies and parses the configuration at path. A missing file
// at the default location yields Defaults(); any other missing file is an
// error.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", path, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultPath {
			return Defaults(), nil
		}
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	if err := VerifyConfigHash(absPath); err != nil {
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	return cfg, nil
}

// Parse overlays YAML data on Defaults() and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(interpolateEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(cfg.Service.LogLevel)] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}
	if f := cfg.Service.LogFormat; f != "json" && f != "text" {
		return fmt.Errorf("service.log_format must be json or text (got %q)", f)
	}

	if !packagePattern.MatchString(cfg.Manager.Package) {
		return fmt.Errorf("manager.package must be a package name (got %q)", cfg.Manager.Package)
	}
	if cfg.Manager.Component == "" || strings.Contains(cfg.Manager.Component, "/") {
		return fmt.Errorf("manager.component must be a class name without '/' (got %q)", cfg.Manager.Component)
	}

	l := cfg.Launcher
	for name, v := range map[string]string{
		"launcher.path":               l.Path,
		"launcher.bindir":             l.BinDir,
		"launcher.content_class":      l.ContentClass,
		"launcher.content_classpath":  l.ContentClasspath,
		"launcher.activity_class":     l.ActivityClass,
		"launcher.activity_classpath": l.ActivityClasspath,
	} {
		if v == "" {
			return fmt.Errorf("%s is required", name)
		}
		if strings.Contains(v, "${") {
			return fmt.Errorf("%s has unresolved environment variable: %s", name, v)
		}
	}
	if !filepath.IsAbs(l.Path) {
		return fmt.Errorf("launcher.path must be absolute (got %q)", l.Path)
	}

	if _, err := access.ParseMultiuserMode(cfg.Access.MultiuserMode); err != nil {
		return fmt.Errorf("access.multiuser_mode: %w", err)
	}
	if cfg.Access.DefaultShell == "" {
		return fmt.Errorf("access.default_shell is required")
	}

	return nil
}

// MultiuserMode returns the parsed access.multiuser_mode. The value was
// checked by validate.
func (c *Config) MultiuserMode() access.MultiuserMode {
	m, _ := access.ParseMultiuserMode(c.Access.MultiuserMode)
	return m
}

// ManagerIdentity returns the configured manager.
func (c *Config) ManagerIdentity() access.Manager {
	return access.Manager{Package: c.Manager.Package}
}

// DispatchLauncher maps launcher and manager settings onto dispatch.Launcher.
func (c *Config) DispatchLauncher() dispatch.Launcher {
	return dispatch.Launcher{
		Path:              c.Launcher.Path,
		BinDir:            c.Launcher.BinDir,
		ContentClass:      c.Launcher.ContentClass,
		ContentClasspath:  c.Launcher.ContentClasspath,
		ActivityClass:     c.Launcher.ActivityClass,
		ActivityClasspath: c.Launcher.ActivityClasspath,
		ComponentClass:    c.Manager.Component,
	}
}
