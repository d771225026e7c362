package config

import "github.com/mattjoyce/sulink/internal/dispatch"

// Config represents the complete sulink configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Manager  ManagerConfig  `yaml:"manager"`
	Launcher LauncherConfig `yaml:"launcher"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Access   AccessConfig   `yaml:"access"`
	Journal  JournalConfig  `yaml:"journal"`
}

// ServiceConfig defines logging settings.
type ServiceConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// ManagerConfig identifies the manager application.
type ManagerConfig struct {
	Package string `yaml:"package"`
	// Component is the activity class used for the final component target.
	Component string `yaml:"component"`
}

// LauncherConfig locates the platform launcher and its tool archives.
type LauncherConfig struct {
	Path              string `yaml:"path"`
	BinDir            string `yaml:"bindir"`
	ContentClass      string `yaml:"content_class"`
	ContentClasspath  string `yaml:"content_classpath"`
	ActivityClass     string `yaml:"activity_class"`
	ActivityClasspath string `yaml:"activity_classpath"`
}

// DeliveryConfig tunes the success test of synchronous tiers.
type DeliveryConfig struct {
	// IgnoreExitStatus restores the output-only success test.
	IgnoreExitStatus bool `yaml:"ignore_exit_status"`
}

// AccessConfig mirrors the broker settings the delivery layer needs.
type AccessConfig struct {
	MultiuserMode string `yaml:"multiuser_mode"` // owner_only | owner_managed | user
	DefaultShell  string `yaml:"default_shell"`
}

// JournalConfig defines the optional delivery journal.
type JournalConfig struct {
	// Path is the SQLite file; empty disables the journal.
	Path string `yaml:"path"`
}

// Defaults returns a Config for a stock Android system.
func Defaults() *Config {
	l := dispatch.DefaultLauncher()
	return &Config{
		Service: ServiceConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
		Manager: ManagerConfig{
			Package:   "com.topjohnwu.magisk",
			Component: l.ComponentClass,
		},
		Launcher: LauncherConfig{
			Path:              l.Path,
			BinDir:            l.BinDir,
			ContentClass:      l.ContentClass,
			ContentClasspath:  l.ContentClasspath,
			ActivityClass:     l.ActivityClass,
			ActivityClasspath: l.ActivityClasspath,
		},
		Access: AccessConfig{
			MultiuserMode: "owner_only",
			DefaultShell:  "/system/bin/sh",
		},
	}
}
