package m68k

import (
	"fmt"
	"strings"
)

// Flow classifies how an instruction transfers control.
type Flow int

const (
	FlowNext   Flow = iota // falls through
	FlowJump               // unconditional, no fall-through
	FlowBranch             // conditional, target and fall-through
	FlowCall               // subroutine call, target and fall-through
	FlowReturn             // RTS/RTE/RTR
	FlowStop               // computed jump or undecodable
)

// Instruction is one decoded opcode.
type Instruction struct {
	PC        uint32
	Size      uint32
	Text      string
	Flow      Flow
	Target    uint32
	HasTarget bool
}

type dasm struct {
	pc     uint32
	read16 func(uint32) uint16
	bad    bool
}

func (d *dasm) word() uint16 {
	v := d.read16(d.pc)
	d.pc += 2
	return v
}

func (d *dasm) long() uint32 {
	hi := uint32(d.word())
	return hi<<16 | uint32(d.word())
}

func hex(v uint32) string { return fmt.Sprintf("$%x", v) }

func signedHex(v int32) string {
	if v < 0 {
		return fmt.Sprintf("-$%x", -int64(v))
	}
	return fmt.Sprintf("$%x", v)
}

var sizeSuffix = map[int]string{1: ".b", 2: ".w", 4: ".l"}

var condNames = [16]string{"t", "f", "hi", "ls", "cc", "cs", "ne", "eq", "vc", "vs", "pl", "mi", "ge", "lt", "gt", "le"}

func (d *dasm) index(base string) string {
	ext := d.word()
	reg := "D"
	if ext&0x8000 != 0 {
		reg = "A"
	}
	sz := ".w"
	if ext&0x0800 != 0 {
		sz = ".l"
	}
	scale := ""
	if s := (ext >> 9) & 3; s != 0 {
		scale = fmt.Sprintf("*%d", 1<<s)
	}
	return fmt.Sprintf("(%s,%s,%s%d%s%s)", signedHex(int32(int8(ext))), base, reg, (ext>>12)&7, sz, scale)
}

// ea renders an effective address and consumes its extension words.
func (d *dasm) ea(mode, reg uint16, size int) string {
	switch mode {
	case modeDn:
		return fmt.Sprintf("D%d", reg)
	case modeAn:
		return fmt.Sprintf("A%d", reg)
	case modeInd:
		return fmt.Sprintf("(A%d)", reg)
	case modePostInc:
		return fmt.Sprintf("(A%d)+", reg)
	case modePreDec:
		return fmt.Sprintf("-(A%d)", reg)
	case modeDisp:
		return fmt.Sprintf("(%s,A%d)", signedHex(int32(int16(d.word()))), reg)
	case modeIndex:
		return d.index(fmt.Sprintf("A%d", reg))
	}
	switch reg {
	case extAbsW:
		return hex(uint32(d.word())) + ".w"
	case extAbsL:
		return hex(d.long()) + ".l"
	case extPCDisp:
		base := d.pc
		disp := int32(int16(d.word()))
		return fmt.Sprintf("(%s,PC); (%s)", signedHex(disp), hex(base+uint32(disp)))
	case extPCIndex:
		return d.index("PC")
	case extImm:
		switch size {
		case 1:
			return "#" + hex(uint32(d.word())&0xFF)
		case 2:
			return "#" + hex(uint32(d.word()))
		default:
			return "#" + hex(d.long())
		}
	}
	d.bad = true
	return "?"
}

// target of a control-mode operand when it is statically known
func (d *dasm) absTarget(mode, reg uint16) (string, uint32, bool) {
	if mode == modeExtended {
		switch reg {
		case extAbsW:
			t := signExtend(uint32(d.word()), 2)
			return hex(t) + ".w", t, true
		case extAbsL:
			t := d.long()
			return hex(t) + ".l", t, true
		case extPCDisp:
			base := d.pc
			t := base + signExtend(uint32(d.word()), 2)
			return fmt.Sprintf("(%s,PC)", signedHex(int32(t-base))), t, true
		}
	}
	return d.ea(mode, reg, 4), 0, false
}

func regList(list uint16, reversed bool) string {
	var parts []string
	names := func(i int) string {
		if i < 8 {
			return fmt.Sprintf("D%d", i)
		}
		return fmt.Sprintf("A%d", i-8)
	}
	for i := 0; i < 16; {
		bit := i
		if reversed {
			bit = 15 - i
		}
		if list&(1<<uint(bit)) == 0 {
			i++
			continue
		}
		j := i
		for j+1 < 16 && (j+1)%8 != 0 {
			nb := j + 1
			if reversed {
				nb = 15 - (j + 1)
			}
			if list&(1<<uint(nb)) == 0 {
				break
			}
			j++
		}
		if j > i {
			parts = append(parts, names(i)+"-"+names(j))
		} else {
			parts = append(parts, names(i))
		}
		i = j + 1
	}
	return strings.Join(parts, "/")
}

func ins(mn string, ops ...string) string {
	if len(ops) == 0 {
		return mn
	}
	return fmt.Sprintf("%-8s%s", mn, strings.Join(ops, ", "))
}

// Decode decodes the instruction at pc without side effects on guest state.
func Decode(pc uint32, read16 func(uint32) uint16) Instruction {
	d := &dasm{pc: pc, read16: read16}
	op := d.word()
	out := Instruction{PC: pc}
	out.Text = d.decode(op, &out)
	if d.bad {
		out.Text = ins("dc.w", hex(uint32(op))) + "; ILLEGAL"
		out.Flow = FlowStop
		out.HasTarget = false
		d.pc = pc + 2
	}
	out.Size = d.pc - pc
	return out
}

// Disassemble returns the text and byte length of the instruction at pc.
func Disassemble(pc uint32, read16 func(uint32) uint16) (string, uint32) {
	i := Decode(pc, read16)
	return i.Text, i.Size
}

// MakeHex formats size bytes of code at pc as space separated words.
func MakeHex(read16 func(uint32) uint16, pc uint32, size uint32) string {
	var b strings.Builder
	for i := uint32(0); i < size; i += 2 {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%04X", read16(pc+i))
	}
	return b.String()
}

func (d *dasm) decode(op uint16, out *Instruction) string {
	switch op >> 12 {
	case 0x0:
		return d.decode0(op)
	case 0x1, 0x2, 0x3:
		size := moveSizes[op>>12]
		src := d.ea((op>>3)&7, op&7, size)
		dmode := (op >> 6) & 7
		if dmode == modeAn {
			return ins("movea"+sizeSuffix[size], src, fmt.Sprintf("A%d", (op>>9)&7))
		}
		return ins("move"+sizeSuffix[size], src, d.ea(dmode, (op>>9)&7, size))
	case 0x4:
		return d.decode4(op, out)
	case 0x5:
		return d.decode5(op, out)
	case 0x6:
		return d.decode6(op, out)
	case 0x7:
		return ins("moveq", "#"+signedHex(int32(int8(op))), fmt.Sprintf("D%d", (op>>9)&7))
	case 0x8:
		return d.decodeLogicArith(op, "or", "divu", "divs", "sbcd")
	case 0x9:
		return d.decodeAddSub(op, "sub")
	case 0xA:
		out.Flow = FlowNext
		return ins("dc.w", hex(uint32(op))) + "; opcode 1010"
	case 0xB:
		return d.decodeB(op)
	case 0xC:
		return d.decodeC(op)
	case 0xD:
		return d.decodeAddSub(op, "add")
	case 0xE:
		return d.decodeShift(op)
	}
	out.Flow = FlowStop
	return ins("dc.w", hex(uint32(op))) + "; opcode 1111"
}

func (d *dasm) decode0(op uint16) string {
	switch op {
	case 0x003C:
		return ins("ori", "#"+hex(uint32(d.word())&0xFF), "CCR")
	case 0x023C:
		return ins("andi", "#"+hex(uint32(d.word())&0xFF), "CCR")
	case 0x0A3C:
		return ins("eori", "#"+hex(uint32(d.word())&0xFF), "CCR")
	case 0x007C:
		return ins("ori", "#"+hex(uint32(d.word())), "SR")
	case 0x027C:
		return ins("andi", "#"+hex(uint32(d.word())), "SR")
	case 0x0A7C:
		return ins("eori", "#"+hex(uint32(d.word())), "SR")
	}
	bitNames := [4]string{"btst", "bchg", "bclr", "bset"}
	mode := (op >> 3) & 7
	if op&0x0100 != 0 {
		if mode == modeAn {
			d.bad = true
			return ""
		}
		size := 1
		if mode == modeDn {
			size = 4
		}
		return ins(bitNames[(op>>6)&3], fmt.Sprintf("D%d", (op>>9)&7), d.ea(mode, op&7, size))
	}
	kind := (op >> 9) & 7
	if kind == 4 {
		bit := "#" + hex(uint32(d.word())&0xFF)
		size := 1
		if mode == modeDn {
			size = 4
		}
		return ins(bitNames[(op>>6)&3], bit, d.ea(mode, op&7, size))
	}
	size := sizeField(op)
	names := [8]string{"ori", "andi", "subi", "addi", "", "eori", "cmpi", ""}
	if size == 0 || names[kind] == "" || mode == modeAn {
		d.bad = true
		return ""
	}
	imm := d.ea(modeExtended, extImm, size)
	return ins(names[kind]+sizeSuffix[size], imm, d.ea(mode, op&7, size))
}

func (d *dasm) decode4(op uint16, out *Instruction) string {
	switch op {
	case 0x4AFC:
		out.Flow = FlowStop
		return "illegal"
	case 0x4E70:
		return "reset"
	case 0x4E71:
		return "nop"
	case 0x4E72:
		return ins("stop", "#"+hex(uint32(d.word())))
	case 0x4E73:
		out.Flow = FlowReturn
		return "rte"
	case 0x4E75:
		out.Flow = FlowReturn
		return "rts"
	case 0x4E76:
		return "trapv"
	case 0x4E77:
		out.Flow = FlowReturn
		return "rtr"
	}
	reg := op & 7
	mode := (op >> 3) & 7
	switch {
	case op&0xFFF0 == 0x4E40:
		return ins("trap", "#"+hex(uint32(op&0xF)))
	case op&0xFFF8 == 0x4E50:
		return ins("link", fmt.Sprintf("A%d", reg), "#"+signedHex(int32(int16(d.word()))))
	case op&0xFFF8 == 0x4E58:
		return ins("unlk", fmt.Sprintf("A%d", reg))
	case op&0xFFF8 == 0x4E60:
		return ins("move", fmt.Sprintf("A%d", reg), "USP")
	case op&0xFFF8 == 0x4E68:
		return ins("move", "USP", fmt.Sprintf("A%d", reg))
	case op&0xFFC0 == 0x4E80:
		s, t, ok := d.absTarget(mode, reg)
		out.Flow = FlowCall
		out.Target, out.HasTarget = t, ok
		return ins("jsr", s)
	case op&0xFFC0 == 0x4EC0:
		s, t, ok := d.absTarget(mode, reg)
		if ok {
			out.Flow = FlowJump
			out.Target, out.HasTarget = t, true
		} else {
			out.Flow = FlowStop
		}
		return ins("jmp", s)
	case op&0xFFF8 == 0x4840:
		return ins("swap", fmt.Sprintf("D%d", reg))
	case op&0xFFC0 == 0x4840:
		return ins("pea", d.ea(mode, reg, 4))
	case op&0xFFF8 == 0x4880:
		return ins("ext.w", fmt.Sprintf("D%d", reg))
	case op&0xFFF8 == 0x48C0:
		return ins("ext.l", fmt.Sprintf("D%d", reg))
	case op&0xFFF8 == 0x49C0:
		return ins("extb.l", fmt.Sprintf("D%d", reg))
	case op&0xFB80 == 0x4880:
		size := 2
		if op&0x40 != 0 {
			size = 4
		}
		list := d.word()
		if op&0x0400 == 0 {
			return ins("movem"+sizeSuffix[size], regList(list, mode == modePreDec), d.ea(mode, reg, size))
		}
		return ins("movem"+sizeSuffix[size], d.ea(mode, reg, size), regList(list, false))
	case op&0xF1C0 == 0x41C0:
		return ins("lea", d.ea(mode, reg, 4), fmt.Sprintf("A%d", (op>>9)&7))
	case op&0xF1C0 == 0x4180:
		return ins("chk.w", d.ea(mode, reg, 2), fmt.Sprintf("D%d", (op>>9)&7))
	case op&0xFFC0 == 0x40C0:
		return ins("move", "SR", d.ea(mode, reg, 2))
	case op&0xFFC0 == 0x42C0:
		return ins("move", "CCR", d.ea(mode, reg, 2))
	case op&0xFFC0 == 0x44C0:
		return ins("move", d.ea(mode, reg, 2), "CCR")
	case op&0xFFC0 == 0x46C0:
		return ins("move", d.ea(mode, reg, 2), "SR")
	case op&0xFFC0 == 0x4AC0:
		return ins("tas", d.ea(mode, reg, 1))
	case op&0xF900 == 0x4000 && sizeField(op) != 0:
		names := map[uint16]string{0x4000: "negx", 0x4200: "clr", 0x4400: "neg", 0x4600: "not"}
		size := sizeField(op)
		return ins(names[op&0xFF00]+sizeSuffix[size], d.ea(mode, reg, size))
	case op&0xFF00 == 0x4A00 && sizeField(op) != 0:
		size := sizeField(op)
		return ins("tst"+sizeSuffix[size], d.ea(mode, reg, size))
	}
	d.bad = true
	return ""
}

func (d *dasm) decode5(op uint16, out *Instruction) string {
	mode := (op >> 3) & 7
	reg := op & 7
	if op&0x00C0 == 0x00C0 {
		cond := (op >> 8) & 0xF
		if mode == modeAn {
			base := d.pc
			t := base + signExtend(uint32(d.word()), 2)
			out.Flow = FlowBranch
			out.Target, out.HasTarget = t, true
			name := "db" + condNames[cond]
			if cond == 1 {
				name = "dbra"
			}
			return ins(name, fmt.Sprintf("D%d", reg), hex(t))
		}
		return ins("s"+condNames[cond], d.ea(mode, reg, 1))
	}
	size := sizeField(op)
	data := (op >> 9) & 7
	if data == 0 {
		data = 8
	}
	name := "addq"
	if op&0x0100 != 0 {
		name = "subq"
	}
	return ins(name+sizeSuffix[size], "#"+hex(uint32(data)), d.ea(mode, reg, size))
}

func (d *dasm) decode6(op uint16, out *Instruction) string {
	cond := (op >> 8) & 0xF
	base := d.pc
	var disp uint32
	suffix := ".s"
	switch op & 0xFF {
	case 0x00:
		disp = signExtend(uint32(d.word()), 2)
		suffix = ""
	case 0xFF:
		disp = d.long()
		suffix = ".l"
	default:
		disp = signExtend(uint32(op&0xFF), 1)
	}
	t := base + disp
	out.Target, out.HasTarget = t, true
	var name string
	switch cond {
	case 0:
		name = "bra"
		out.Flow = FlowJump
	case 1:
		name = "bsr"
		out.Flow = FlowCall
	default:
		name = "b" + condNames[cond]
		out.Flow = FlowBranch
	}
	return ins(name+suffix, hex(t))
}

func (d *dasm) decodeLogicArith(op uint16, name, divu, divs, bcd string) string {
	opmode := (op >> 6) & 7
	mode := (op >> 3) & 7
	dn := fmt.Sprintf("D%d", (op>>9)&7)
	switch {
	case opmode == 3:
		return ins(divu+".w", d.ea(mode, op&7, 2), dn)
	case opmode == 7:
		return ins(divs+".w", d.ea(mode, op&7, 2), dn)
	case opmode == 4 && mode&6 == 0:
		d.bad = true
		return ""
	}
	size := sizeField(op)
	if opmode < 3 {
		return ins(name+sizeSuffix[size], d.ea(mode, op&7, size), dn)
	}
	return ins(name+sizeSuffix[size], dn, d.ea(mode, op&7, size))
}

func (d *dasm) decodeAddSub(op uint16, name string) string {
	opmode := (op >> 6) & 7
	mode := (op >> 3) & 7
	rx := (op >> 9) & 7
	switch {
	case opmode == 3 || opmode == 7:
		size := 2
		if opmode == 7 {
			size = 4
		}
		return ins(name+"a"+sizeSuffix[size], d.ea(mode, op&7, size), fmt.Sprintf("A%d", rx))
	case opmode >= 4 && mode&6 == 0:
		size := sizeField(op)
		if mode == modeAn {
			return ins(name+"x"+sizeSuffix[size], fmt.Sprintf("-(A%d)", op&7), fmt.Sprintf("-(A%d)", rx))
		}
		return ins(name+"x"+sizeSuffix[size], fmt.Sprintf("D%d", op&7), fmt.Sprintf("D%d", rx))
	}
	size := sizeField(op)
	dn := fmt.Sprintf("D%d", rx)
	if opmode < 3 {
		return ins(name+sizeSuffix[size], d.ea(mode, op&7, size), dn)
	}
	return ins(name+sizeSuffix[size], dn, d.ea(mode, op&7, size))
}

func (d *dasm) decodeB(op uint16) string {
	opmode := (op >> 6) & 7
	mode := (op >> 3) & 7
	rx := (op >> 9) & 7
	switch {
	case opmode == 3 || opmode == 7:
		size := 2
		if opmode == 7 {
			size = 4
		}
		return ins("cmpa"+sizeSuffix[size], d.ea(mode, op&7, size), fmt.Sprintf("A%d", rx))
	case opmode < 3:
		size := sizeField(op)
		return ins("cmp"+sizeSuffix[size], d.ea(mode, op&7, size), fmt.Sprintf("D%d", rx))
	case mode == modeAn:
		size := sizeField(op)
		return ins("cmpm"+sizeSuffix[size], fmt.Sprintf("(A%d)+", op&7), fmt.Sprintf("(A%d)+", rx))
	}
	size := sizeField(op)
	return ins("eor"+sizeSuffix[size], fmt.Sprintf("D%d", rx), d.ea(mode, op&7, size))
}

func (d *dasm) decodeC(op uint16) string {
	opmode := (op >> 6) & 7
	mode := (op >> 3) & 7
	rx := (op >> 9) & 7
	ry := op & 7
	switch {
	case opmode == 5 && mode == 0:
		return ins("exg", fmt.Sprintf("D%d", rx), fmt.Sprintf("D%d", ry))
	case opmode == 5 && mode == 1:
		return ins("exg", fmt.Sprintf("A%d", rx), fmt.Sprintf("A%d", ry))
	case opmode == 6 && mode == 1:
		return ins("exg", fmt.Sprintf("D%d", rx), fmt.Sprintf("A%d", ry))
	}
	return d.decodeLogicArith(op, "and", "mulu", "muls", "abcd")
}

func (d *dasm) decodeShift(op uint16) string {
	names := [4]string{"as", "ls", "rox", "ro"}
	dir := "r"
	if op&0x0100 != 0 {
		dir = "l"
	}
	if op&0x00C0 == 0x00C0 {
		if op&0x0800 != 0 {
			d.bad = true
			return ""
		}
		return ins(names[(op>>9)&3]+dir+".w", d.ea((op>>3)&7, op&7, 2))
	}
	size := sizeField(op)
	cnt := (op >> 9) & 7
	src := ""
	if op&0x0020 != 0 {
		src = fmt.Sprintf("D%d", cnt)
	} else {
		if cnt == 0 {
			cnt = 8
		}
		src = "#" + hex(uint32(cnt))
	}
	return ins(names[(op>>3)&3]+dir+sizeSuffix[size], src, fmt.Sprintf("D%d", op&7))
}
