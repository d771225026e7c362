package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/sulink/internal/lock"
)

// ChecksumFile is the manifest name, stored next to the config file.
const ChecksumFile = ".checksums"

// ChecksumManifest maps config file basenames to BLAKE3 hashes.
type ChecksumManifest struct {
	Version     int               `yaml:"version"`
	GeneratedAt string            `yaml:"generated_at"`
	Hashes      map[string]string `yaml:"hashes"`
}

// HashUpdateReport captures checksum generation details for a config file.
type HashUpdateReport struct {
	ConfigPath   string
	ChecksumPath string
	Hash         string
	Written      bool
}

// ComputeBlake3Hash computes the BLAKE3 hash of a file.
func ComputeBlake3Hash(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// VerifyFileHash verifies a file against an expected BLAKE3 hash.
func VerifyFileHash(filePath, expectedHash string) error {
	actualHash, err := ComputeBlake3Hash(filePath)
	if err != nil {
		return fmt.Errorf("failed to compute hash: %w", err)
	}

	if actualHash != expectedHash {
		return fmt.Errorf("hash mismatch for %s: expected %s, got %s",
			filepath.Base(filePath), expectedHash, actualHash)
	}

	return nil
}

// Lock hashes the config file and records it in the manifest next to it,
// keeping entries for other files. With dryRun nothing is written.
func Lock(configPath string, dryRun bool) (*HashUpdateReport, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}
	dir := filepath.Dir(absPath)

	hash, err := ComputeBlake3Hash(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", absPath, err)
	}

	report := &HashUpdateReport{
		ConfigPath:   absPath,
		ChecksumPath: filepath.Join(dir, ChecksumFile),
		Hash:         hash,
	}
	if dryRun {
		return report, nil
	}

	fl, err := lock.Acquire(report.ChecksumPath + ".lock")
	if err != nil {
		return nil, fmt.Errorf("failed to lock checksums: %w", err)
	}
	defer func() { _ = fl.Release() }()

	manifest, err := LoadChecksums(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		manifest = &ChecksumManifest{Version: 1, Hashes: make(map[string]string)}
	case err != nil:
		return nil, err
	}
	manifest.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	manifest.Hashes[filepath.Base(absPath)] = hash

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checksums: %w", err)
	}

	// Write with restrictive permissions (contains expected hashes)
	if err := os.WriteFile(report.ChecksumPath, data, 0600); err != nil {
		return nil, fmt.Errorf("failed to write checksums: %w", err)
	}
	report.Written = true

	return report, nil
}

// LoadChecksums reads the manifest from a config directory.
func LoadChecksums(configDir string) (*ChecksumManifest, error) {
	checksumPath := filepath.Join(configDir, ChecksumFile)

	data, err := os.ReadFile(checksumPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("checksums file not found (run 'sulink config lock'): %w", err)
		}
		return nil, fmt.Errorf("failed to read checksums: %w", err)
	}

	var manifest ChecksumManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse checksums: %w", err)
	}

	if manifest.Version != 1 {
		return nil, fmt.Errorf("unsupported checksums version: %d", manifest.Version)
	}
	if manifest.Hashes == nil {
		manifest.Hashes = make(map[string]string)
	}

	return &manifest, nil
}

// VerifyConfigHash checks path against the manifest in its directory. A
// directory without a manifest is not verified.
func VerifyConfigHash(path string) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(filepath.Join(dir, ChecksumFile)); os.IsNotExist(err) {
		return nil
	}

	manifest, err := LoadChecksums(dir)
	if err != nil {
		return err
	}

	basename := filepath.Base(path)
	expectedHash, ok := manifest.Hashes[basename]
	if !ok {
		return fmt.Errorf("config file %s has no hash in checksums at %s\n"+
			"Run: sulink config lock --config %s", basename, dir, path)
	}

	if err := VerifyFileHash(path, expectedHash); err != nil {
		return fmt.Errorf("config verification failed for %s: %w\n"+
			"This indicates tampering or unauthorized modification.\n"+
			"If you edited this file intentionally, run: sulink config lock --config %s", path, err, path)
	}
	return nil
}
