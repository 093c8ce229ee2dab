package tos

import (
	"io"
	"sync"
	"time"

	"github.com/alirzasahb/PumpkinOS/log"
	"github.com/alirzasahb/PumpkinOS/trap"
)

// DefaultConsoleTimeout bounds how long a console read waits inside one
// trap before yielding back to the host loop.
const DefaultConsoleTimeout = 20 * time.Millisecond

// Console connects the guest's character devices to host streams. Input
// is pumped by a goroutine so reads can time out instead of blocking the
// process.
type Console struct {
	out     io.Writer
	timeout time.Duration

	in        chan byte
	done      chan struct{}
	closeOnce sync.Once
	peek      []byte
	eof       bool
	outMu     sync.Mutex
	line      []byte // partial Cconrs input
}

// NewConsole starts pumping in. A nil reader behaves as an empty stream.
func NewConsole(in io.Reader, out io.Writer, timeout time.Duration) *Console {
	if out == nil {
		out = io.Discard
	}
	if timeout <= 0 {
		timeout = DefaultConsoleTimeout
	}
	c := &Console{out: out, timeout: timeout, in: make(chan byte, 256), done: make(chan struct{})}
	if in == nil {
		close(c.in)
		return c
	}
	go c.pump(in)
	return c
}

func (c *Console) pump(r io.Reader) {
	defer close(c.in)
	buf := make([]byte, 256)
	for {
		select {
		case <-c.done:
			return
		default:
		}
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			select {
			case c.in <- b:
			case <-c.done:
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Warn(log.TOSMonitoring, "console input failed", "err", err)
			}
			return
		}
	}
}

// Close stops the pump. A pump blocked in Read exits once that Read
// returns.
func (c *Console) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Ready reports whether a byte can be read without waiting.
func (c *Console) Ready() bool {
	if len(c.peek) > 0 {
		return true
	}
	select {
	case b, ok := <-c.in:
		if !ok {
			c.eof = true
			return false
		}
		c.peek = append(c.peek, b)
		return true
	default:
		return false
	}
}

// EOF reports whether input is exhausted.
func (c *Console) EOF() bool {
	return len(c.peek) == 0 && c.eof
}

// TryRead returns a byte if one is immediately available.
func (c *Console) TryRead() (byte, bool) {
	if !c.Ready() {
		return 0, false
	}
	b := c.peek[0]
	c.peek = c.peek[1:]
	return b, true
}

// ReadByte waits up to the timeout for input. It returns trap.ErrWouldBlock
// on timeout and io.EOF once input is exhausted.
func (c *Console) ReadByte() (byte, error) {
	if b, ok := c.TryRead(); ok {
		return b, nil
	}
	if c.eof {
		return 0, io.EOF
	}
	t := time.NewTimer(c.timeout)
	defer t.Stop()
	select {
	case b, ok := <-c.in:
		if !ok {
			c.eof = true
			return 0, io.EOF
		}
		return b, nil
	case <-t.C:
		return 0, trap.ErrWouldBlock
	}
}

func (c *Console) Write(p []byte) (int, error) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	return c.out.Write(p)
}

func (c *Console) WriteByte(b byte) error {
	_, err := c.Write([]byte{b})
	return err
}

// ReadLine accumulates input until CR or LF, echoing as it goes. Partial
// lines survive a trap.ErrWouldBlock so the retried call continues them.
func (c *Console) ReadLine(max int) (string, error) {
	for len(c.line) < max {
		b, err := c.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch b {
		case '\r', '\n':
			c.Write([]byte("\r\n"))
			return c.takeLine(), nil
		case 8:
			if len(c.line) > 0 {
				c.line = c.line[:len(c.line)-1]
				c.Write([]byte{8, ' ', 8})
			}
			continue
		}
		c.line = append(c.line, b)
		c.WriteByte(b)
	}
	return c.takeLine(), nil
}

func (c *Console) takeLine() string {
	s := string(c.line)
	c.line = c.line[:0]
	return s
}
