package storage

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		fs   string
		want FSClass
	}{
		{"f2fs", FSLocal},
		{"ext4", FSLocal},
		{"0x1234", FSLocal},
		{"sdcardfs", FSSharedStorage},
		{"ESDFS", FSSharedStorage},
		{"fuse", FSSharedStorage},
		{"nfs", FSNetwork},
		{" smb2 ", FSNetwork},
	}
	for _, tc := range cases {
		if got := classify(tc.fs); got != tc.want {
			t.Errorf("classify(%q) = %v, want %v", tc.fs, got, tc.want)
		}
	}
}

func TestInspectUsesNearestExistingPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	var inspected string
	fs, err := inspectWith(filepath.Join(root, "a", "b", "journal.db"), func(p string) (string, error) {
		inspected = p
		return "f2fs", nil
	})
	if err != nil {
		t.Fatalf("inspectWith: %v", err)
	}
	if inspected != root || fs.Path != root {
		t.Fatalf("inspected %q (Path %q), want %q", inspected, fs.Path, root)
	}
	if fs.Class != FSLocal {
		t.Fatalf("Class = %v, want local", fs.Class)
	}
	if err := fs.CheckJournal(); err != nil {
		t.Fatalf("CheckJournal on f2fs: %v", err)
	}
}

func TestInspectDetectorError(t *testing.T) {
	t.Parallel()

	_, err := inspectWith(t.TempDir(), func(string) (string, error) {
		return "", errors.New("boom")
	})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v, want detector error", err)
	}
	if _, err := inspectWith("", nil); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestCheckJournalRejectsSharedAndNetwork(t *testing.T) {
	t.Parallel()

	shared := Filesystem{Path: "/storage/emulated/0", Type: "sdcardfs", Class: FSSharedStorage}
	err := shared.CheckJournal()
	if err == nil {
		t.Fatal("expected shared storage to be rejected")
	}
	for _, want := range []string{"shared storage", "sdcardfs", "/data/adb"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}

	remote := Filesystem{Path: "/mnt/nas", Type: "nfs", Class: FSNetwork}
	err = remote.CheckJournal()
	if err == nil || !strings.Contains(err.Error(), "network filesystem nfs") {
		t.Fatalf("err = %v, want network rejection", err)
	}
}

func TestInspectFilesystemTempDir(t *testing.T) {
	t.Parallel()

	fs, err := InspectFilesystem(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("InspectFilesystem: %v", err)
	}
	if fs.Type == "" {
		t.Fatal("empty filesystem type")
	}
}
