package m68k

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xlab/treeprint"
)

// Region is a run of instructions laid out back to back.
type Region struct {
	Start        uint32
	End          uint32
	Instructions []Instruction
}

// Gap is a byte range reached by no decoded control path.
type Gap struct {
	Start uint32
	End   uint32
	Bytes []byte
}

// Listing is the result of a reachability disassembly of [Start, End).
type Listing struct {
	Start        uint32
	End          uint32
	Instructions []Instruction
	Regions      []Region
	Gaps         []Gap
}

// DisassembleRange decodes every instruction reachable from start without
// leaving [start, end). It follows branches, calls and DBcc loops with an
// explicit worklist, so arbitrarily long call chains cannot exhaust the Go
// stack, and never decodes the same address twice.
func DisassembleRange(start, end uint32, read16 func(uint32) uint16) *Listing {
	l := &Listing{Start: start, End: end}
	inRange := func(a uint32) bool { return a >= start && a < end && a&1 == 0 }

	visited := make(map[uint32]bool)
	work := []uint32{start}
	for len(work) > 0 {
		addr := work[len(work)-1]
		work = work[:len(work)-1]
		for inRange(addr) && !visited[addr] {
			visited[addr] = true
			in := Decode(addr, read16)
			l.Instructions = append(l.Instructions, in)
			next := addr + in.Size
			switch in.Flow {
			case FlowNext:
				addr = next
				continue
			case FlowBranch, FlowCall:
				if in.HasTarget && inRange(in.Target) && !visited[in.Target] {
					work = append(work, in.Target)
				}
				addr = next
				continue
			case FlowJump:
				if in.HasTarget && inRange(in.Target) && !visited[in.Target] {
					work = append(work, in.Target)
				}
			}
			break
		}
	}

	sort.Slice(l.Instructions, func(i, j int) bool { return l.Instructions[i].PC < l.Instructions[j].PC })
	l.buildRegions()
	l.buildGaps(read16)
	return l
}

func (l *Listing) buildRegions() {
	for _, in := range l.Instructions {
		n := len(l.Regions)
		if n > 0 && l.Regions[n-1].End == in.PC {
			r := &l.Regions[n-1]
			r.Instructions = append(r.Instructions, in)
			r.End = in.PC + in.Size
			continue
		}
		l.Regions = append(l.Regions, Region{Start: in.PC, End: in.PC + in.Size, Instructions: []Instruction{in}})
	}
}

func (l *Listing) buildGaps(read16 func(uint32) uint16) {
	read8 := func(a uint32) byte {
		w := read16(a &^ 1)
		if a&1 == 0 {
			return byte(w >> 8)
		}
		return byte(w)
	}
	cursor := l.Start
	emit := func(to uint32) {
		if to <= cursor {
			return
		}
		g := Gap{Start: cursor, End: to}
		for a := cursor; a < to; a++ {
			g.Bytes = append(g.Bytes, read8(a))
		}
		l.Gaps = append(l.Gaps, g)
	}
	for _, r := range l.Regions {
		emit(r.Start)
		if r.End > cursor {
			cursor = r.End
		}
	}
	emit(l.End)
}

// WriteTo prints the listing in address order, instructions and gap dumps
// interleaved.
func (l *Listing) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	gi := 0
	for _, r := range l.Regions {
		for gi < len(l.Gaps) && l.Gaps[gi].Start < r.Start {
			writeGap(&b, l.Gaps[gi])
			gi++
		}
		for _, in := range r.Instructions {
			fmt.Fprintf(&b, "0x%08X: %s\n", in.PC, in.Text)
		}
	}
	for ; gi < len(l.Gaps); gi++ {
		writeGap(&b, l.Gaps[gi])
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func writeGap(b *strings.Builder, g Gap) {
	for off := 0; off < len(g.Bytes); off += 16 {
		endOff := off + 16
		if endOff > len(g.Bytes) {
			endOff = len(g.Bytes)
		}
		fmt.Fprintf(b, "0x%08X: ", g.Start+uint32(off))
		for _, c := range g.Bytes[off:endOff] {
			fmt.Fprintf(b, "%02X ", c)
		}
		b.WriteString("\n")
	}
}

// Tree renders the regions and gaps as a tree.
func (l *Listing) Tree() treeprint.Tree {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("code 0x%08X-0x%08X, %d instructions", l.Start, l.End, len(l.Instructions)))
	for _, r := range l.Regions {
		branch := tree.AddBranch(fmt.Sprintf("region 0x%08X-0x%08X", r.Start, r.End))
		for _, in := range r.Instructions {
			branch.AddNode(fmt.Sprintf("0x%08X %s", in.PC, in.Text))
		}
	}
	for _, g := range l.Gaps {
		tree.AddNode(fmt.Sprintf("gap 0x%08X-0x%08X (%d bytes)", g.Start, g.End, len(g.Bytes)))
	}
	return tree
}
