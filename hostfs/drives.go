// Package hostfs maps TOS drive letters onto host directories and
// resolves guest paths against them.
package hostfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
	"github.com/alirzasahb/PumpkinOS/log"
)

// MaxDrives covers A: to P:.
const MaxDrives = 16

// Drives is the drive table of one process.
type Drives struct {
	mu      sync.RWMutex
	roots   [MaxDrives]string
	cwd     [MaxDrives][]string // current directory components per drive
	current int
}

func New() *Drives { return &Drives{} }

// Letter returns the drive letter for a drive number.
func Letter(drive int) byte { return byte('A' + drive) }

// DriveNumber parses a drive letter, case-insensitively.
func DriveNumber(letter byte) (int, bool) {
	n := int(letter|0x20) - 'a'
	return n, n >= 0 && n < MaxDrives
}

// Mount maps drive to the host directory dir.
func (d *Drives) Mount(drive int, dir string) error {
	if drive < 0 || drive >= MaxDrives {
		return fmt.Errorf("drive %d: %w", drive, emuerrors.ErrHDrive)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("mount %c: %w", Letter(drive), err)
	}
	fi, err := os.Stat(abs)
	if err != nil || !fi.IsDir() {
		return fmt.Errorf("mount %c: %s is not a directory: %w", Letter(drive), abs, emuerrors.ErrHPath)
	}
	d.mu.Lock()
	d.roots[drive] = abs
	d.cwd[drive] = nil
	d.mu.Unlock()
	log.Debug(log.HostMonitoring, "drive mounted", "drive", string(Letter(drive)), "dir", abs)
	return nil
}

// Mounted reports whether drive has a host directory.
func (d *Drives) Mounted(drive int) bool {
	if drive < 0 || drive >= MaxDrives {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.roots[drive] != ""
}

// Root returns the host directory behind drive.
func (d *Drives) Root(drive int) (string, error) {
	if !d.Mounted(drive) {
		return "", fmt.Errorf("drive %d: %w", drive, emuerrors.ErrHDrive)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.roots[drive], nil
}

// Map returns the bit mask of mounted drives, bit 0 for A:.
func (d *Drives) Map() uint32 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var m uint32
	for i, r := range d.roots {
		if r != "" {
			m |= 1 << i
		}
	}
	return m
}

func (d *Drives) Current() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current
}

// SetCurrent selects the default drive.
func (d *Drives) SetCurrent(drive int) error {
	if !d.Mounted(drive) {
		return fmt.Errorf("drive %d: %w", drive, emuerrors.ErrHDrive)
	}
	d.mu.Lock()
	d.current = drive
	d.mu.Unlock()
	return nil
}

// Path returns the current directory of drive (0 meaning the default
// drive, 1 A:, and so on) in TOS form, "\" for the root.
func (d *Drives) Path(drive int) (string, error) {
	if drive == 0 {
		drive = d.Current()
	} else {
		drive--
	}
	if !d.Mounted(drive) {
		return "", fmt.Errorf("drive %d: %w", drive, emuerrors.ErrHDrive)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return `\` + strings.Join(d.cwd[drive], `\`), nil
}

// SetPath changes the current directory of the drive named in p, or of
// the default drive.
func (d *Drives) SetPath(p string) error {
	drive, parts, err := d.split(p)
	if err != nil {
		return err
	}
	host, resolved, err := d.walk(drive, parts)
	if err != nil {
		return err
	}
	fi, err := os.Stat(host)
	if err != nil || !fi.IsDir() {
		return fmt.Errorf("%s: %w", p, emuerrors.ErrHPath)
	}
	d.mu.Lock()
	d.cwd[drive] = resolved
	d.mu.Unlock()
	return nil
}

// Resolve translates a TOS path into a host path. Existing components are
// matched case-insensitively. The final component need not exist.
func (d *Drives) Resolve(p string) (string, error) {
	drive, parts, err := d.split(p)
	if err != nil {
		return "", err
	}
	host, _, err := d.walk(drive, parts)
	return host, err
}

// split parses the drive prefix and folds "." and ".." against the
// current directory. Climbing above the root is an error.
func (d *Drives) split(p string) (int, []string, error) {
	drive := d.Current()
	if len(p) >= 2 && p[1] == ':' {
		n, ok := DriveNumber(p[0])
		if !ok {
			return 0, nil, fmt.Errorf("%q: %w", p, emuerrors.ErrHDrive)
		}
		drive, p = n, p[2:]
	}
	if !d.Mounted(drive) {
		return 0, nil, fmt.Errorf("%q: %w", p, emuerrors.ErrHDrive)
	}

	var parts []string
	p = strings.ReplaceAll(p, "/", `\`)
	if !strings.HasPrefix(p, `\`) {
		d.mu.RLock()
		parts = append(parts, d.cwd[drive]...)
		d.mu.RUnlock()
	}
	for _, c := range strings.Split(p, `\`) {
		switch c {
		case "", ".":
		case "..":
			if len(parts) == 0 {
				return 0, nil, fmt.Errorf("%q escapes drive root: %w", p, emuerrors.ErrHPath)
			}
			parts = parts[:len(parts)-1]
		default:
			parts = append(parts, c)
		}
	}
	return drive, parts, nil
}

// walk resolves parts under the drive root, returning the host path and
// the components as spelled on the host.
func (d *Drives) walk(drive int, parts []string) (string, []string, error) {
	root, err := d.Root(drive)
	if err != nil {
		return "", nil, err
	}
	host := root
	resolved := make([]string, 0, len(parts))
	for i, c := range parts {
		name, ok := lookup(host, c)
		if !ok {
			if i < len(parts)-1 {
				return "", nil, fmt.Errorf("%s in %s: %w", c, host, emuerrors.ErrHPath)
			}
			name = c
		}
		host = filepath.Join(host, name)
		resolved = append(resolved, name)
	}
	return host, resolved, nil
}

// lookup finds name in dir ignoring case, preferring an exact match.
func lookup(dir, name string) (string, bool) {
	if _, err := os.Lstat(filepath.Join(dir, name)); err == nil {
		return name, true
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if strings.EqualFold(e.Name(), name) {
			return e.Name(), true
		}
	}
	return "", false
}
