package m68k

// Addressing modes, as encoded in the 3-bit mode field.
const (
	modeDn       = 0
	modeAn       = 1
	modeInd      = 2
	modePostInc  = 3
	modePreDec   = 4
	modeDisp     = 5
	modeIndex    = 6
	modeExtended = 7

	// register field values under modeExtended
	extAbsW    = 0
	extAbsL    = 1
	extPCDisp  = 2
	extPCIndex = 3
	extImm     = 4
)

type operandKind int

const (
	opData operandKind = iota
	opAddr
	opMem
	opImm
)

// operand is a resolved effective address. Resolving consumes extension
// words and applies (An)+ / -(An) side effects exactly once.
type operand struct {
	kind operandKind
	reg  int
	addr uint32
	imm  uint32
}

func mask(size int) uint32 {
	switch size {
	case 1:
		return 0xFF
	case 2:
		return 0xFFFF
	}
	return 0xFFFFFFFF
}

func msb(size int) uint32 {
	return 1 << (uint(size)*8 - 1)
}

func signExtend(v uint32, size int) uint32 {
	switch size {
	case 1:
		return uint32(int32(int8(v)))
	case 2:
		return uint32(int32(int16(v)))
	}
	return v
}

// sizeField decodes the common 2-bit size field (bits 7-6).
func sizeField(op uint16) int {
	switch (op >> 6) & 3 {
	case 0:
		return 1
	case 1:
		return 2
	case 2:
		return 4
	}
	return 0
}

func (c *Interpreter) indexed(base uint32) uint32 {
	ext := c.fetch16()
	reg := (ext >> 12) & 7
	var idx uint32
	if ext&0x8000 != 0 {
		idx = c.a[reg]
	} else {
		idx = c.d[reg]
	}
	if ext&0x0800 == 0 {
		idx = signExtend(idx, 2)
	}
	idx <<= (ext >> 9) & 3
	c.cost += 2
	return base + uint32(int32(int8(ext))) + idx
}

// resolve decodes mode/reg for an operand of size bytes. valid is false for
// encodings that do not exist.
func (c *Interpreter) resolve(mode, reg uint16, size int) (operand, bool) {
	r := int(reg)
	switch mode {
	case modeDn:
		return operand{kind: opData, reg: r}, true
	case modeAn:
		return operand{kind: opAddr, reg: r}, true
	case modeInd:
		return operand{kind: opMem, addr: c.a[r]}, true
	case modePostInc:
		addr := c.a[r]
		c.a[r] += stepSize(r, size)
		return operand{kind: opMem, addr: addr}, true
	case modePreDec:
		c.a[r] -= stepSize(r, size)
		c.cost += 2
		return operand{kind: opMem, addr: c.a[r]}, true
	case modeDisp:
		disp := signExtend(uint32(c.fetch16()), 2)
		return operand{kind: opMem, addr: c.a[r] + disp}, true
	case modeIndex:
		return operand{kind: opMem, addr: c.indexed(c.a[r])}, true
	}
	switch reg {
	case extAbsW:
		return operand{kind: opMem, addr: signExtend(uint32(c.fetch16()), 2)}, true
	case extAbsL:
		return operand{kind: opMem, addr: c.fetch32()}, true
	case extPCDisp:
		base := c.pc
		disp := signExtend(uint32(c.fetch16()), 2)
		return operand{kind: opMem, addr: base + disp}, true
	case extPCIndex:
		return operand{kind: opMem, addr: c.indexed(c.pc)}, true
	case extImm:
		var v uint32
		switch size {
		case 1:
			v = uint32(c.fetch16()) & 0xFF
		case 2:
			v = uint32(c.fetch16())
		default:
			v = c.fetch32()
		}
		return operand{kind: opImm, imm: v}, true
	}
	return operand{}, false
}

// byte access through A7 keeps the stack word aligned
func stepSize(reg int, size int) uint32 {
	if size == 1 && reg == 7 {
		return 2
	}
	return uint32(size)
}

func (c *Interpreter) read(o operand, size int) uint32 {
	switch o.kind {
	case opData:
		return c.d[o.reg] & mask(size)
	case opAddr:
		return c.a[o.reg] & mask(size)
	case opImm:
		return o.imm & mask(size)
	}
	return c.readMem(o.addr, size)
}

// write stores v into o. Data registers keep their upper bits; address
// registers always take a sign-extended long.
func (c *Interpreter) write(o operand, size int, v uint32) {
	switch o.kind {
	case opData:
		m := mask(size)
		c.d[o.reg] = c.d[o.reg]&^m | v&m
	case opAddr:
		c.a[o.reg] = signExtend(v&mask(size), size)
	case opMem:
		c.writeMem(o.addr, size, v&mask(size))
	}
}

// operandEA resolves the 6-bit EA field of op (bits 5-0).
func (c *Interpreter) operandEA(op uint16, size int) (operand, bool) {
	return c.resolve((op>>3)&7, op&7, size)
}

// controlAddr resolves a control addressing mode to its address, for
// LEA/PEA/JMP/JSR/MOVEM.
func (c *Interpreter) controlAddr(mode, reg uint16) (uint32, bool) {
	switch mode {
	case modeDn, modeAn, modePostInc, modePreDec:
		return 0, false
	case modeExtended:
		if reg > extPCIndex {
			return 0, false
		}
	}
	o, ok := c.resolve(mode, reg, 4)
	if !ok || o.kind != opMem {
		return 0, false
	}
	return o.addr, true
}

// writable reports whether an operand may be the destination of a data op.
func writable(o operand) bool {
	return o.kind == opData || o.kind == opMem
}
