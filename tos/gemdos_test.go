package tos

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alirzasahb/PumpkinOS/api"
	"github.com/alirzasahb/PumpkinOS/hostfs"
	"github.com/alirzasahb/PumpkinOS/trap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idle(t *testing.T, mod ...func(*Options)) *fixture {
	return newFixture(t, code(t, "4E75"), mod...)
}

// buffer reserves n bytes of guest heap.
func (f *fixture) buffer(t *testing.T, n uint32) uint32 {
	t.Helper()
	addr, err := f.p.Image().Reserve(n)
	require.NoError(t, err)
	return addr
}

func TestFileRoundTrip(t *testing.T) {
	f := idle(t)
	mem := f.p.Memory()

	h, err := api.Fcreate(f.p, `C:\OUT.TXT`, 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, h, int32(firstHandle))

	buf := f.buffer(t, 64)
	mem.WriteBytes(buf, []byte("hello, tos"))
	n, err := api.Fwrite(f.p, uint16(h), 10, buf)
	require.NoError(t, err)
	assert.Equal(t, int32(10), n)
	rc, err := api.Fclose(f.p, uint16(h))
	require.NoError(t, err)
	assert.Equal(t, EOK, rc)

	data, err := os.ReadFile(filepath.Join(f.dir, "OUT.TXT"))
	require.NoError(t, err)
	assert.Equal(t, "hello, tos", string(data))

	h, err = api.Fopen(f.p, "out.txt", 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, h, int32(firstHandle))
	pos, err := api.Fseek(f.p, 7, uint16(h), 0)
	require.NoError(t, err)
	assert.Equal(t, int32(7), pos)
	out := f.buffer(t, 64)
	n, err = api.Fread(f.p, uint16(h), 64, out)
	require.NoError(t, err)
	assert.Equal(t, int32(3), n)
	assert.Equal(t, "tos", string(mem.ReadBytes(out, 3)))

	pos, err = api.Fseek(f.p, uint32(0xFFFFFFF0), uint16(h), 0)
	require.NoError(t, err)
	assert.Equal(t, ERANGE, pos)
	_, err = api.Fclose(f.p, uint16(h))
	require.NoError(t, err)

	rc, err = api.Fclose(f.p, uint16(h))
	require.NoError(t, err)
	assert.Equal(t, EIHNDL, rc)

	rc, err = api.Fdelete(f.p, `C:\OUT.TXT`)
	require.NoError(t, err)
	assert.Equal(t, EOK, rc)
	_, statErr := os.Stat(filepath.Join(f.dir, "OUT.TXT"))
	assert.True(t, os.IsNotExist(statErr))

	rc, err = api.Fopen(f.p, "missing.txt", 0)
	require.NoError(t, err)
	assert.Equal(t, EFILNF, rc)
	rc, err = api.Fopen(f.p, `NODIR\X.TXT`, 0)
	require.NoError(t, err)
	assert.Equal(t, EPTHNF, rc)
	rc, err = api.Fopen(f.p, `Q:\X.TXT`, 0)
	require.NoError(t, err)
	assert.Equal(t, EDRIVE, rc)
}

func TestStandardHandles(t *testing.T) {
	f := idle(t)
	buf := f.buffer(t, 16)
	f.p.Memory().WriteBytes(buf, []byte("out"))

	n, err := api.Fwrite(f.p, uint16(HandleConOut), 3, buf)
	require.NoError(t, err)
	assert.Equal(t, int32(3), n)
	assert.Equal(t, "out", f.out.String())

	h, err := f.p.Invoke(VecGEMDOS, 0x45, trap.W(uint16(HandleConOut)))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, int32(h), int32(firstHandle))

	rc, err := api.Fwrite(f.p, 99, 3, buf)
	require.NoError(t, err)
	assert.Equal(t, EIHNDL, rc)
}

func TestDirectories(t *testing.T) {
	f := idle(t)
	mem := f.p.Memory()

	rc, err := api.Dcreate(f.p, `\SUB`)
	require.NoError(t, err)
	assert.Equal(t, EOK, rc)
	assert.DirExists(t, filepath.Join(f.dir, "SUB"))

	rc, err = api.Dsetpath(f.p, `\SUB`)
	require.NoError(t, err)
	assert.Equal(t, EOK, rc)

	buf := f.buffer(t, 128)
	rc, err = api.Dgetpath(f.p, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, EOK, rc)
	assert.Equal(t, `\SUB`, mem.ReadCString(buf, 128))

	rc, err = api.Dsetpath(f.p, `\NOPE`)
	require.NoError(t, err)
	assert.Equal(t, EPTHNF, rc)

	rc, err = api.Dsetpath(f.p, `\`)
	require.NoError(t, err)
	assert.Equal(t, EOK, rc)
	_, err = api.Dgetpath(f.p, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "", mem.ReadCString(buf, 128))

	rc, err = api.Ddelete(f.p, `\SUB`)
	require.NoError(t, err)
	assert.Equal(t, EOK, rc)
	assert.NoDirExists(t, filepath.Join(f.dir, "SUB"))
}

func TestFsfirstFsnext(t *testing.T) {
	f := idle(t)
	mem := f.p.Memory()
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "b.txt"), []byte("12345"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "a.txt"), []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "c.prg"), nil, 0o644))

	dta, err := api.Fgetdta(f.p)
	require.NoError(t, err)

	var names []string
	rc, err := api.Fsfirst(f.p, `C:\*.TXT`, 0)
	require.NoError(t, err)
	for rc == EOK {
		names = append(names, mem.ReadCString(dta+dtaName, 14))
		rc, err = api.Fsnext(f.p)
		require.NoError(t, err)
	}
	assert.Equal(t, ENMFIL, rc)
	assert.Equal(t, []string{"A.TXT", "B.TXT"}, names)
	assert.Equal(t, uint32(5), mem.Read32(dta+dtaSize), "DTA keeps the last match")

	rc, err = api.Fsfirst(f.p, "*.DOC", 0)
	require.NoError(t, err)
	assert.Equal(t, EFILNF, rc)
}

func TestFsetdtaUpdatesBasePage(t *testing.T) {
	f := idle(t)
	buf := f.buffer(t, dtaLen)
	require.NoError(t, api.Fsetdta(f.p, buf))
	dta, err := api.Fgetdta(f.p)
	require.NoError(t, err)
	assert.Equal(t, buf, dta)
	assert.Equal(t, buf, f.p.Memory().Read32(f.p.Image().BasePage.Addr+0x20))
}

func TestMemoryCalls(t *testing.T) {
	f := idle(t)
	largest, err := api.Malloc(f.p, 0xFFFFFFFF)
	require.NoError(t, err)
	assert.Equal(t, f.p.heap.Largest(), largest)

	block, err := api.Malloc(f.p, 100)
	require.NoError(t, err)
	require.NotZero(t, block)

	rc, err := f.p.Invoke(VecGEMDOS, 0x4A, trap.W(0), trap.L(block), trap.L(4096))
	require.NoError(t, err)
	assert.Equal(t, EGSBF, int32(rc))
	rc, err = f.p.Invoke(VecGEMDOS, 0x4A, trap.W(0), trap.L(block), trap.L(16))
	require.NoError(t, err)
	assert.Equal(t, EOK, int32(rc))

	code, err := api.Mfree(f.p, block)
	require.NoError(t, err)
	assert.Equal(t, EOK, code)
	code, err = api.Mfree(f.p, block)
	require.NoError(t, err)
	assert.Equal(t, EIMBA, code)

	none, err := api.Malloc(f.p, 64<<20)
	require.NoError(t, err)
	assert.Zero(t, none)
}

func TestDrivesAndVersion(t *testing.T) {
	f := idle(t)
	v, err := api.Sversion(f.p)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1500), v)

	d, err := api.Dgetdrv(f.p)
	require.NoError(t, err)
	assert.Equal(t, int32(driveC), d)

	m, err := api.Dsetdrv(f.p, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1<<driveC), m, "an unmounted drive is not selected")
	d, err = api.Dgetdrv(f.p)
	require.NoError(t, err)
	assert.Equal(t, int32(driveC), d)
}

func TestClockOffset(t *testing.T) {
	f := idle(t)
	want := time.Date(1991, 3, 14, 0, 0, 0, 0, time.Local)
	_, date := hostfs.DOSTime(want)
	_, err := f.p.Invoke(VecGEMDOS, 0x2B, trap.W(date))
	require.NoError(t, err)
	got, err := api.Tgetdate(f.p)
	require.NoError(t, err)
	assert.Equal(t, uint32(date), got)
}

func TestConsoleCalls(t *testing.T) {
	f := idle(t, func(o *Options) { o.Stdin = strings.NewReader("hello\nz") })
	mem := f.p.Memory()

	buf := f.buffer(t, 16)
	mem.Write8(buf, 10)
	n, err := f.p.Invoke(VecGEMDOS, 0x0A, trap.L(buf))
	require.NoError(t, err)
	assert.Equal(t, uint32(5), n)
	assert.Equal(t, uint8(5), mem.Read8(buf+1))
	assert.Equal(t, "hello", string(mem.ReadBytes(buf+2, 5)))

	c, err := f.p.Invoke(VecGEMDOS, 0x07)
	require.NoError(t, err)
	assert.Equal(t, uint32('z'), c)

	c, err = f.p.Invoke(VecGEMDOS, 0x07)
	require.NoError(t, err)
	assert.Zero(t, c, "end of input reads as 0")

	require.NoError(t, api.Cconout(f.p, '!'))
	assert.Equal(t, "hello\r\n!", f.out.String())
}

func TestFcntl(t *testing.T) {
	f := idle(t)
	buf := f.buffer(t, 4)
	rc, err := f.p.Invoke(VecGEMDOS, 0x104, trap.W(0), trap.L(buf), trap.W(fcntlTIOCGPGRP))
	require.NoError(t, err)
	assert.Zero(t, rc)
	assert.Equal(t, uint32(1), f.p.Memory().Read32(buf))

	rc, err = f.p.Invoke(VecGEMDOS, 0x104, trap.W(0), trap.L(buf), trap.W(1))
	require.NoError(t, err)
	assert.Equal(t, EINVFN, int32(rc))
}

func TestPterm0ThroughInvoke(t *testing.T) {
	f := idle(t)
	err := api.Pterm0(f.p)
	var exit *trap.ExitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, int32(0), exit.Code)
}

func TestFforceRedirectsStandardOutput(t *testing.T) {
	f := idle(t)
	h, err := api.Fcreate(f.p, "LOG.TXT", 0)
	require.NoError(t, err)
	rc, err := f.p.Invoke(VecGEMDOS, 0x46, trap.W(uint16(HandleConOut)), trap.W(uint16(h)))
	require.NoError(t, err)
	assert.Equal(t, EOK, int32(rc))

	buf := f.buffer(t, 8)
	f.p.Memory().WriteBytes(buf, []byte("log"))
	_, err = api.Fwrite(f.p, uint16(HandleConOut), 3, buf)
	require.NoError(t, err)
	assert.Empty(t, f.out.String())

	_, err = api.Fclose(f.p, uint16(h))
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(f.dir, "LOG.TXT"))
	require.NoError(t, err)
	assert.Equal(t, "log", string(data))

	_, err = api.Fwrite(f.p, uint16(HandleConOut), 3, buf)
	require.NoError(t, err)
	assert.Equal(t, "log", f.out.String(), "closing the target drops the redirection")
}
