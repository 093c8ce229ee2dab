package surface

import (
	"fmt"
	"image/png"
	"io"
	"sync"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
	"github.com/alirzasahb/PumpkinOS/log"
)

// Display is the host screen. Exactly one process owns it at a time.
type Display struct {
	mu     sync.Mutex
	owner  string
	screen *Mono
}

var (
	shared     *Display
	sharedOnce sync.Once
)

// Shared returns the process-wide display.
func Shared() *Display {
	sharedOnce.Do(func() { shared = &Display{} })
	return shared
}

// Acquire makes owner the foreground process showing screen. It fails
// while another owner holds the display.
func (d *Display) Acquire(owner string, screen *Mono) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.owner != "" && d.owner != owner {
		return fmt.Errorf("display held by %s: %w", d.owner, emuerrors.ErrHAccess)
	}
	d.owner = owner
	d.screen = screen
	log.Debug(log.HostMonitoring, "display acquired", "owner", owner)
	return nil
}

// Release gives the display up if owner holds it.
func (d *Display) Release(owner string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.owner != owner {
		return
	}
	d.owner = ""
	d.screen = nil
	log.Debug(log.HostMonitoring, "display released", "owner", owner)
}

func (d *Display) Owner() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.owner
}

// Draw runs fn with exclusive access to the foreground screen if owner
// holds it. It reports whether fn ran.
func (d *Display) Draw(owner string, fn func(*Mono)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.owner != owner || d.screen == nil {
		return false
	}
	fn(d.screen)
	return true
}

// WritePNG encodes the foreground screen.
func (d *Display) WritePNG(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.screen == nil {
		return fmt.Errorf("no foreground screen: %w", emuerrors.ErrHNotFound)
	}
	return png.Encode(w, d.screen.Image())
}
