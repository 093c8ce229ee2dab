package hostfs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdrive(t *testing.T) (*Drives, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Games", "Saves"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Games", "TETRIS.PRG"), []byte("prg"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Games", "notes"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden"), nil, 0o644))

	d := New()
	require.NoError(t, d.Mount(2, root))
	require.NoError(t, d.SetCurrent(2))
	return d, root
}

func TestResolve(t *testing.T) {
	d, root := mkdrive(t)

	cases := []struct {
		in   string
		want string
	}{
		{`C:\README.TXT`, filepath.Join(root, "readme.txt")},
		{`\games\tetris.prg`, filepath.Join(root, "Games", "TETRIS.PRG")},
		{`games\new.dat`, filepath.Join(root, "Games", "new.dat")},
		{`c:/GAMES/SAVES/..\notes`, filepath.Join(root, "Games", "notes")},
		{`C:\`, root},
	}
	for _, tc := range cases {
		got, err := d.Resolve(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestResolveErrors(t *testing.T) {
	d, _ := mkdrive(t)

	_, err := d.Resolve(`\..\etc\passwd`)
	assert.True(t, errors.Is(err, emuerrors.ErrHPath))
	_, err = d.Resolve(`A:\X`)
	assert.True(t, errors.Is(err, emuerrors.ErrHDrive))
	_, err = d.Resolve(`\missing\file`)
	assert.True(t, errors.Is(err, emuerrors.ErrHPath))
	_, err = d.Resolve(`?:\X`)
	assert.True(t, errors.Is(err, emuerrors.ErrHDrive))
	assert.True(t, errors.Is(d.SetCurrent(5), emuerrors.ErrHDrive))
	assert.Error(t, d.Mount(3, filepath.Join(t.TempDir(), "nope")))
}

func TestCurrentPath(t *testing.T) {
	d, root := mkdrive(t)

	p, err := d.Path(0)
	require.NoError(t, err)
	assert.Equal(t, `\`, p)

	require.NoError(t, d.SetPath(`\GAMES\saves`))
	p, err = d.Path(3)
	require.NoError(t, err)
	assert.Equal(t, `\Games\Saves`, p)

	host, err := d.Resolve(`..\tetris.prg`)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Games", "TETRIS.PRG"), host)

	assert.True(t, errors.Is(d.SetPath(`\readme.txt`), emuerrors.ErrHPath))
	assert.Equal(t, uint32(1<<2), d.Map())
}

func TestMatch(t *testing.T) {
	cases := []struct {
		pattern, name string
		want          bool
	}{
		{"*.*", "README.TXT", true},
		{"*.*", "notes", true},
		{"*.TXT", "readme.txt", true},
		{"*.TXT", "readme.doc", false},
		{"TET??S.PRG", "TETRIS.PRG", true},
		{"NOTES.*", "notes", true},
		{"A*", "b", false},
	}
	for _, tc := range cases {
		if got := Match(tc.pattern, tc.name); got != tc.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tc.pattern, tc.name, got, tc.want)
		}
	}
}

func TestGlob(t *testing.T) {
	d, _ := mkdrive(t)

	ents, err := d.Glob(`C:\*.*`, 0)
	require.NoError(t, err)
	require.Len(t, ents, 1)
	assert.Equal(t, "README.TXT", ents[0].Name)
	assert.Equal(t, int64(2), ents[0].Size)

	ents, err = d.Glob(`*.*`, AttrDir|AttrHidden)
	require.NoError(t, err)
	names := []string{}
	for _, e := range ents {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{".HIDDEN", "GAMES", "README.TXT"}, names)
	assert.Equal(t, uint8(AttrDir), ents[1].Attr&AttrDir)

	ents, err = d.Glob(`\GAMES\*.PRG`, 0)
	require.NoError(t, err)
	assert.Equal(t, "TETRIS.PRG", ents[0].Name)

	_, err = d.Glob(`\*.BAS`, 0)
	assert.True(t, errors.Is(err, emuerrors.ErrHNotFound))
}

func TestDOSTime(t *testing.T) {
	ts := time.Date(1992, time.March, 14, 15, 9, 26, 0, time.Local)
	tm, date := DOSTime(ts)
	assert.Equal(t, uint16(15<<11|9<<5|13), tm)
	assert.Equal(t, uint16(12<<9|3<<5|14), date)
	assert.Equal(t, ts, FromDOSTime(tm, date))
}

func TestFree(t *testing.T) {
	d, _ := mkdrive(t)
	sp, err := d.Free(2)
	require.NoError(t, err)
	assert.Equal(t, uint32(512), sp.SectorSize)
	assert.NotZero(t, sp.TotalClusters)
	_, err = d.Free(0)
	assert.True(t, errors.Is(err, emuerrors.ErrHDrive))
}
