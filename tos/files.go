package tos

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
)

// Standard GEMDOS handles.
const (
	HandleConIn  int16 = 0
	HandleConOut int16 = 1
	HandleAux    int16 = 2
	HandlePrn    int16 = 3

	firstHandle = 6
	maxHandles  = 40
)

type fileKind int

const (
	kindHost fileKind = iota
	kindConsole
	kindAux
	kindPrn
)

type openFile struct {
	kind fileKind
	f    *os.File
	name string
}

// Files is the handle table of one process.
type Files struct {
	mu     sync.Mutex
	slots  map[int16]*openFile
	forced map[int16]int16 // standard handle redirections
}

func NewFiles() *Files {
	return &Files{slots: make(map[int16]*openFile), forced: make(map[int16]int16)}
}

func stdFile(h int16) (*openFile, bool) {
	switch h {
	case HandleConIn, HandleConOut:
		return &openFile{kind: kindConsole, name: "CON:"}, true
	case HandleAux:
		return &openFile{kind: kindAux, name: "AUX:"}, true
	case HandlePrn:
		return &openFile{kind: kindPrn, name: "PRN:"}, true
	}
	return nil, false
}

// Add registers of under the lowest free handle.
func (fs *Files) Add(of *openFile) (int16, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.slots) >= maxHandles {
		return 0, fmt.Errorf("%d files open: %w", len(fs.slots), emuerrors.ErrHNoHandles)
	}
	for h := int16(firstHandle); ; h++ {
		if _, used := fs.slots[h]; !used {
			fs.slots[h] = of
			return h, nil
		}
	}
}

// Get resolves h, following Fforce redirections of standard handles.
func (fs *Files) Get(h int16) (*openFile, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if to, ok := fs.forced[h]; ok {
		h = to
	}
	if of, ok := fs.slots[h]; ok {
		return of, nil
	}
	if of, ok := stdFile(h); ok {
		return of, nil
	}
	return nil, fmt.Errorf("handle %d: %w", h, emuerrors.ErrHBadHandle)
}

// Close releases h. Standard handles close without effect.
func (fs *Files) Close(h int16) error {
	if h >= 0 && h < firstHandle {
		fs.mu.Lock()
		delete(fs.forced, h)
		fs.mu.Unlock()
		return nil
	}
	fs.mu.Lock()
	of, ok := fs.slots[h]
	delete(fs.slots, h)
	for std, to := range fs.forced {
		if to == h {
			delete(fs.forced, std)
		}
	}
	fs.mu.Unlock()
	if !ok {
		return fmt.Errorf("handle %d: %w", h, emuerrors.ErrHBadHandle)
	}
	if of.f != nil && !fs.shared(of) {
		return of.f.Close()
	}
	return nil
}

// shared reports whether another handle still refers to the same file.
func (fs *Files) shared(of *openFile) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, o := range fs.slots {
		if o.f != nil && o.f == of.f {
			return true
		}
	}
	return false
}

// Dup gives std a second, non-standard handle.
func (fs *Files) Dup(std int16) (int16, error) {
	if std < 0 || std >= firstHandle {
		return 0, fmt.Errorf("handle %d is not standard: %w", std, emuerrors.ErrHBadHandle)
	}
	of, err := fs.Get(std)
	if err != nil {
		return 0, err
	}
	return fs.Add(of)
}

// Force redirects the standard handle std to h.
func (fs *Files) Force(std, h int16) error {
	if std < 0 || std >= firstHandle {
		return fmt.Errorf("handle %d is not standard: %w", std, emuerrors.ErrHBadHandle)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.slots[h]; !ok {
		if _, ok := stdFile(h); !ok {
			return fmt.Errorf("handle %d: %w", h, emuerrors.ErrHBadHandle)
		}
	}
	fs.forced[std] = h
	return nil
}

// Open returns the open host handles in ascending order.
func (fs *Files) Open() []int16 {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]int16, 0, len(fs.slots))
	for h := range fs.slots {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CloseAll releases every handle and returns the first close error.
func (fs *Files) CloseAll() error {
	var first error
	for _, h := range fs.Open() {
		if err := fs.Close(h); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func seekWhence(mode uint16) (int, bool) {
	switch mode {
	case 0:
		return io.SeekStart, true
	case 1:
		return io.SeekCurrent, true
	case 2:
		return io.SeekEnd, true
	}
	return 0, false
}
