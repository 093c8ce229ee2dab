//go:build unix

package hostfs

import (
	"fmt"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
	"golang.org/x/sys/unix"
)

// Free reports the capacity of the file system behind drive.
func (d *Drives) Free(drive int) (Space, error) {
	root, err := d.Root(drive)
	if err != nil {
		return Space{}, err
	}
	var st unix.Statfs_t
	if err := unix.Statfs(root, &st); err != nil {
		return Space{}, fmt.Errorf("statfs %s: %v: %w", root, err, emuerrors.ErrHAccess)
	}
	return clampSpace(uint64(st.Bfree), uint64(st.Blocks), uint64(st.Bsize)), nil
}
