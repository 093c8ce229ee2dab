package surface

import (
	"image"
	"image/color"

	"github.com/alirzasahb/PumpkinOS/guest"
)

// ST high resolution.
const (
	Width  = 640
	Height = 400
	Stride = Width / 8
	Size   = Stride * Height // 32000

	CellWidth  = 8
	CellHeight = 16
)

// Mode is a VDI writing mode.
type Mode int

const (
	Replace Mode = iota + 1
	Transparent
	XOR
	ReverseTransparent
)

// Mono is a 1 bit per pixel view of Size bytes of guest memory. A set bit
// is a black pixel.
type Mono struct {
	mem  *guest.Memory
	base uint32
	clip Rect
	mode Mode
}

// Screen is the whole framebuffer.
var Screen = Rect{W: Width, H: Height}

func NewMono(mem *guest.Memory, base uint32) *Mono {
	return &Mono{mem: mem, base: base, clip: Screen, mode: Replace}
}

func (m *Mono) Base() uint32 { return m.base }

func (m *Mono) SetBase(base uint32) { m.base = base }

func (m *Mono) Clip() Rect { return m.clip }

// SetClip restricts drawing to r intersected with the screen.
func (m *Mono) SetClip(r Rect) { m.clip = r.Intersect(Screen) }

func (m *Mono) ResetClip() { m.clip = Screen }

func (m *Mono) Mode() Mode { return m.mode }

func (m *Mono) SetMode(mode Mode) {
	if mode < Replace || mode > ReverseTransparent {
		mode = Replace
	}
	m.mode = mode
}

func (m *Mono) addr(x, y int) (uint32, uint8) {
	return m.base + uint32(y*Stride+x/8), 0x80 >> (x & 7)
}

// Pixel returns 1 for a black pixel, 0 otherwise and for points off screen.
func (m *Mono) Pixel(x, y int) int {
	if !Screen.Contains(x, y) {
		return 0
	}
	a, bit := m.addr(x, y)
	if m.mem.Read8(a)&bit != 0 {
		return 1
	}
	return 0
}

// Plot draws one pixel of color c through the clip and writing mode.
func (m *Mono) Plot(x, y, c int) {
	if !m.clip.Contains(x, y) {
		return
	}
	a, bit := m.addr(x, y)
	v := m.mem.Read8(a)
	on := c&1 != 0
	switch m.mode {
	case Replace:
		if on {
			v |= bit
		} else {
			v &^= bit
		}
	case Transparent:
		if on {
			v |= bit
		}
	case XOR:
		if on {
			v ^= bit
		}
	case ReverseTransparent:
		if !on {
			v |= bit
		}
	}
	m.mem.Write8(a, v)
}

// Line draws from (x0,y0) to (x1,y1) inclusive.
func (m *Mono) Line(x0, y0, x1, y1, c int) {
	dx, sx := abs(x1-x0), sign(x1-x0)
	dy, sy := -abs(y1-y0), sign(y1-y0)
	e := dx + dy
	for {
		m.Plot(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// FillRect paints r.
func (m *Mono) FillRect(r Rect, c int) {
	r = r.Intersect(m.clip)
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			m.Plot(x, y, c)
		}
	}
}

// Box outlines r.
func (m *Mono) Box(r Rect, c int) {
	if r.Empty() {
		return
	}
	x2, y2 := r.X+r.W-1, r.Y+r.H-1
	m.Line(r.X, r.Y, x2, r.Y, c)
	m.Line(r.X, y2, x2, y2, c)
	m.Line(r.X, r.Y, r.X, y2, c)
	m.Line(x2, r.Y, x2, y2, c)
}

// Blit copies src to the rectangle at (dx,dy), handling overlap.
func (m *Mono) Blit(src Rect, dx, dy int) {
	src = src.Intersect(Screen)
	buf := make([]int, 0, src.W*src.H)
	for y := src.Y; y < src.Y+src.H; y++ {
		for x := src.X; x < src.X+src.W; x++ {
			buf = append(buf, m.Pixel(x, y))
		}
	}
	i := 0
	for y := 0; y < src.H; y++ {
		for x := 0; x < src.W; x++ {
			m.Plot(dx+x, dy+y, buf[i])
			i++
		}
	}
}

// Clear whitens the clip rectangle.
func (m *Mono) Clear() {
	mode := m.mode
	m.mode = Replace
	m.FillRect(m.clip, 0)
	m.mode = mode
}

// Image renders the framebuffer as a grayscale image.
func (m *Mono) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, Width, Height))
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			v := uint8(0xFF)
			if m.Pixel(x, y) != 0 {
				v = 0
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
