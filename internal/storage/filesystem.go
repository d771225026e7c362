package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSClass groups filesystems by whether SQLite locking can be trusted on them.
type FSClass int

const (
	// FSLocal is a block-backed filesystem such as f2fs or ext4 under /data.
	// Unrecognised types are treated as local.
	FSLocal FSClass = iota
	// FSSharedStorage is Android emulated storage (/sdcard and friends).
	FSSharedStorage
	// FSNetwork is a remote mount.
	FSNetwork
)

func (c FSClass) String() string {
	switch c {
	case FSLocal:
		return "local"
	case FSSharedStorage:
		return "shared storage"
	case FSNetwork:
		return "network"
	default:
		return fmt.Sprintf("fsclass(%d)", int(c))
	}
}

var fsClasses = map[string]FSClass{
	"sdcardfs": FSSharedStorage,
	"esdfs":    FSSharedStorage,
	"fuse":     FSSharedStorage,
	"afpfs":    FSNetwork,
	"cifs":     FSNetwork,
	"nfs":      FSNetwork,
	"smbfs":    FSNetwork,
	"smb2":     FSNetwork,
	"webdav":   FSNetwork,
}

func classify(fsType string) FSClass {
	if c, ok := fsClasses[strings.ToLower(strings.TrimSpace(fsType))]; ok {
		return c
	}
	return FSLocal
}

// Filesystem describes the filesystem a journal file lives, or would live, on.
type Filesystem struct {
	// Path is the nearest existing ancestor that was inspected.
	Path  string
	Type  string
	Class FSClass
}

// CheckJournal reports whether a journal database may be placed here.
func (f Filesystem) CheckJournal() error {
	switch f.Class {
	case FSLocal:
		return nil
	case FSSharedStorage:
		return fmt.Errorf("journal.path is on Android shared storage (%s at %s); "+
			"it is readable by apps and its locking is unreliable. Use a path under /data/adb", f.Type, f.Path)
	default:
		return fmt.Errorf("journal.path is on %s filesystem %s at %s; "+
			"SQLite needs local locking. Use a path under /data/adb", f.Class, f.Type, f.Path)
	}
}

// InspectFilesystem finds the filesystem that holds path. path need not exist.
func InspectFilesystem(path string) (Filesystem, error) {
	return inspectWith(path, detectFilesystemType)
}

func inspectWith(path string, detect func(string) (string, error)) (Filesystem, error) {
	if path == "" {
		return Filesystem{}, fmt.Errorf("journal path is empty")
	}
	existing, err := nearestExisting(path)
	if err != nil {
		return Filesystem{}, err
	}
	fsType, err := detect(existing)
	if err != nil {
		return Filesystem{}, fmt.Errorf("detect filesystem of %s: %w", existing, err)
	}
	return Filesystem{Path: existing, Type: fsType, Class: classify(fsType)}, nil
}

func nearestExisting(path string) (string, error) {
	p, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	for {
		_, err := os.Stat(p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", p, err)
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", fmt.Errorf("no existing parent for %s", path)
		}
		p = parent
	}
}
