package m68k

// group0 covers the immediate arithmetic/logic ops and the bit operations.
func (c *Interpreter) group0(op uint16) {
	if op&0x0100 != 0 {
		if (op>>3)&7 == modeAn {
			c.illegal() // MOVEP
			return
		}
		bit := c.d[(op>>9)&7]
		c.bitOp(op, bit)
		return
	}
	switch op {
	case 0x003C, 0x023C, 0x0A3C:
		c.immToCCR(op)
		return
	case 0x007C, 0x027C, 0x0A7C:
		c.immToSR(op)
		return
	}
	kind := (op >> 9) & 7
	if kind == 4 {
		bit := uint32(c.fetch16())
		c.bitOp(op, bit)
		return
	}
	size := sizeField(op)
	if size == 0 || kind == 7 {
		c.illegal()
		return
	}
	var imm uint32
	if size == 4 {
		imm = c.fetch32()
	} else {
		imm = uint32(c.fetch16()) & mask(size)
	}
	dst, ok := c.operandEA(op, size)
	if !ok || dst.kind == opAddr || dst.kind == opImm {
		c.illegal()
		return
	}
	v := c.read(dst, size)
	switch kind {
	case 0: // ORI
		v |= imm
		c.setLogic(v, size)
	case 1: // ANDI
		v &= imm
		c.setLogic(v, size)
	case 2: // SUBI
		v = c.subFlags(imm, v, 0, size, true, false)
	case 3: // ADDI
		v = c.addFlags(imm, v, 0, size, true, false)
	case 5: // EORI
		v ^= imm
		c.setLogic(v, size)
	case 6: // CMPI
		c.subFlags(imm, v, 0, size, false, false)
		return
	}
	c.write(dst, size, v)
}

func (c *Interpreter) immToCCR(op uint16) {
	imm := uint8(c.fetch16())
	ccr := uint8(c.sr)
	switch op {
	case 0x003C:
		ccr |= imm
	case 0x023C:
		ccr &= imm
	case 0x0A3C:
		ccr ^= imm
	}
	c.setCCR(ccr)
}

func (c *Interpreter) immToSR(op uint16) {
	if !c.requireSupervisor() {
		return
	}
	imm := c.fetch16()
	sr := c.sr
	switch op {
	case 0x007C:
		sr |= imm
	case 0x027C:
		sr &= imm
	case 0x0A7C:
		sr ^= imm
	}
	c.setSR(sr)
}

// bitOp implements BTST/BCHG/BCLR/BSET. Register targets use bit numbers
// modulo 32 on a long, memory targets modulo 8 on a byte.
func (c *Interpreter) bitOp(op uint16, bit uint32) {
	kind := (op >> 6) & 3
	mode := (op >> 3) & 7
	size := 1
	if mode == modeDn {
		size = 4
		bit &= 31
	} else {
		bit &= 7
	}
	dst, ok := c.operandEA(op, size)
	if !ok || dst.kind == opAddr || (dst.kind == opImm && kind != 0) {
		c.illegal()
		return
	}
	v := c.read(dst, size)
	m := uint32(1) << bit
	c.setFlag(FlagZ, v&m == 0)
	switch kind {
	case 0:
		return
	case 1:
		v ^= m
	case 2:
		v &^= m
	case 3:
		v |= m
	}
	c.write(dst, size, v)
}
