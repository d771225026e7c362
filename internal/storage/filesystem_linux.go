//go:build linux

package storage

import (
	"fmt"
	"syscall"
)

// Superblock magics from statfs(2), limited to what a device or a test host
// is likely to put a journal on.
var fsMagics = map[uint64]string{
	0xEF53:     "ext4",
	0xF2F52010: "f2fs",
	0x01021994: "tmpfs",
	0x794C7630: "overlayfs",
	0x9123683E: "btrfs",
	0x58465342: "xfs",
	0x5DCA2DF5: "sdcardfs",
	0x00E5D5F5: "esdfs",
	0x65735546: "fuse",
	0x6969:     "nfs",
	0xFF534D42: "cifs",
	0x517B:     "smbfs",
	0xFE534D42: "smb2",
}

func detectFilesystemType(path string) (string, error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return "", fmt.Errorf("statfs: %w", err)
	}
	magic := uint64(uint32(st.Type))
	if name, ok := fsMagics[magic]; ok {
		return name, nil
	}
	return fmt.Sprintf("0x%x", magic), nil
}
