//go:build !windows

package pathguard

import (
	"fmt"
	"os"
	"syscall"
)

func ownerWritable(info os.FileInfo) bool {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	return info.Mode().Perm()&0o200 != 0 && stat.Uid == uint32(os.Getuid())
}

func checkHardlinkPlatform(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // not-yet-created path: nothing to link-check
		}
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil
	}
	if stat.Nlink > 1 {
		return fmt.Errorf("refusing to operate on hardlinked file (nlink=%d): %s", stat.Nlink, path)
	}
	return nil
}
