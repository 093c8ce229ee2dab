//go:build !unix

package hostfs

// Free reports a fixed capacity where the host offers no statfs.
func (d *Drives) Free(drive int) (Space, error) {
	if _, err := d.Root(drive); err != nil {
		return Space{}, err
	}
	return clampSpace(1<<15, 1<<16, 512), nil
}
