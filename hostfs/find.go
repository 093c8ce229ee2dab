package hostfs

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
)

// File attribute bits.
const (
	AttrReadOnly = 0x01
	AttrHidden   = 0x02
	AttrSystem   = 0x04
	AttrVolume   = 0x08
	AttrDir      = 0x10
	AttrArchive  = 0x20
)

// Entry is one directory search result.
type Entry struct {
	Name    string // host name, upper-cased
	Host    string
	Size    int64
	Attr    uint8
	ModTime time.Time
}

// Match applies a TOS wildcard pattern to name. "*.*" matches every name,
// with or without an extension.
func Match(pattern, name string) bool {
	pattern, name = strings.ToUpper(pattern), strings.ToUpper(name)
	if pattern == "*.*" || pattern == "*" {
		return true
	}
	if ok, err := path.Match(pattern, name); err == nil && ok {
		return true
	}
	// FOO.* also matches FOO
	if strings.HasSuffix(pattern, ".*") && !strings.Contains(name, ".") {
		ok, _ := path.Match(strings.TrimSuffix(pattern, ".*"), name)
		return ok
	}
	return false
}

// Attributes derives TOS attributes from host file info.
func Attributes(fi os.FileInfo) uint8 {
	var a uint8
	if fi.IsDir() {
		a |= AttrDir
	}
	if fi.Mode().Perm()&0o200 == 0 {
		a |= AttrReadOnly
	}
	if strings.HasPrefix(fi.Name(), ".") {
		a |= AttrHidden
	}
	return a
}

// Glob lists the entries matching the TOS pattern p whose attributes are
// allowed by attr. Plain files always match; hidden, system and directory
// entries need their bit set in attr.
func (d *Drives) Glob(p string, attr uint8) ([]Entry, error) {
	dir, pattern := `.`, p
	if i := strings.LastIndexAny(p, `\:`); i >= 0 {
		dir, pattern = p[:i+1], p[i+1:]
		if strings.HasSuffix(dir, ":") {
			dir += "."
		}
	}
	if pattern == "" {
		pattern = "*.*"
	}
	host, err := d.Resolve(dir)
	if err != nil {
		return nil, err
	}
	ents, err := os.ReadDir(host)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, emuerrors.ErrHPath)
	}

	var out []Entry
	for _, e := range ents {
		if !Match(pattern, e.Name()) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		a := Attributes(fi)
		if a&(AttrHidden|AttrSystem|AttrDir)&^attr != 0 {
			continue
		}
		out = append(out, Entry{
			Name:    strings.ToUpper(e.Name()),
			Host:    host + string(os.PathSeparator) + e.Name(),
			Size:    fi.Size(),
			Attr:    a,
			ModTime: fi.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", p, emuerrors.ErrHNotFound)
	}
	return out, nil
}

// DOSTime packs t into the GEMDOS time and date words.
func DOSTime(t time.Time) (tm uint16, date uint16) {
	tm = uint16(t.Hour()<<11 | t.Minute()<<5 | t.Second()/2)
	y := t.Year() - 1980
	if y < 0 {
		y = 0
	}
	date = uint16(y<<9 | int(t.Month())<<5 | t.Day())
	return tm, date
}

// FromDOSTime is the inverse of DOSTime in the local zone.
func FromDOSTime(tm, date uint16) time.Time {
	return time.Date(int(date>>9)+1980, time.Month(date>>5&0x0F), int(date&0x1F),
		int(tm>>11), int(tm>>5&0x3F), int(tm&0x1F)*2, 0, time.Local)
}
