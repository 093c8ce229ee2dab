// Package surface draws into the monochrome ST framebuffer held in guest
// memory and owns the single host display it is shown on.
package surface

// Rect is a rectangle with its origin at the top left.
type Rect struct {
	X, Y int
	W, H int
}

// R builds a rectangle from two corners in either order, inclusive.
func R(x1, y1, x2, y2 int) Rect {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Rect{X: x1, Y: y1, W: x2 - x1 + 1, H: y2 - y1 + 1}
}

func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

func (r Rect) Inset(n int) Rect {
	return Rect{X: r.X + n, Y: r.Y + n, W: r.W - 2*n, H: r.H - 2*n}
}

func (r Rect) Offset(dx, dy int) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Intersect returns the overlap of r and o, or the zero Rect.
func (r Rect) Intersect(o Rect) Rect {
	ax1, ay1, ax2, ay2 := r.corners()
	bx1, by1, bx2, by2 := o.corners()
	cx1, cy1 := max(ax1, bx1), max(ay1, by1)
	cx2, cy2 := min(ax2, bx2), min(ay2, by2)
	if cx1 > cx2 || cy1 > cy2 {
		return Rect{}
	}
	return Rect{X: cx1, Y: cy1, W: cx2 - cx1 + 1, H: cy2 - cy1 + 1}
}

func (r Rect) corners() (x1, y1, x2, y2 int) {
	x1, x2 = r.X, r.X+r.W-1
	y1, y2 = r.Y, r.Y+r.H-1
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return
}
