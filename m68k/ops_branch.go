package m68k

// group5 is ADDQ/SUBQ, Scc and DBcc.
func (c *Interpreter) group5(op uint16) {
	mode := (op >> 3) & 7
	reg := op & 7
	if op&0x00C0 == 0x00C0 {
		cond := (op >> 8) & 0xF
		if mode == modeAn { // DBcc
			disp := signExtend(uint32(c.fetch16()), 2)
			if c.testCondition(cond) {
				return
			}
			cnt := uint16(c.d[reg]) - 1
			c.d[reg] = c.d[reg]&0xFFFF0000 | uint32(cnt)
			if cnt != 0xFFFF {
				c.pc = c.instrPC + 2 + disp
			}
			return
		}
		var v uint32
		if c.testCondition(cond) {
			v = 0xFF
		}
		c.writeEA(op, 1, v)
		return
	}

	size := sizeField(op)
	data := uint32((op >> 9) & 7)
	if data == 0 {
		data = 8
	}
	sub := op&0x0100 != 0
	if mode == modeAn {
		if size == 1 {
			c.illegal()
			return
		}
		// address register targets are always long and leave flags alone
		if sub {
			c.a[reg] -= data
		} else {
			c.a[reg] += data
		}
		return
	}
	dst, ok := c.operandEA(op, size)
	if !ok || !writable(dst) {
		c.illegal()
		return
	}
	v := c.read(dst, size)
	if sub {
		v = c.subFlags(data, v, 0, size, true, false)
	} else {
		v = c.addFlags(data, v, 0, size, true, false)
	}
	c.write(dst, size, v)
}

// group6 is BRA/BSR/Bcc with 8, 16 or 32 bit displacements.
func (c *Interpreter) group6(op uint16) {
	cond := (op >> 8) & 0xF
	base := c.instrPC + 2
	var disp uint32
	switch op & 0xFF {
	case 0x00:
		disp = signExtend(uint32(c.fetch16()), 2)
	case 0xFF:
		disp = c.fetch32()
	default:
		disp = signExtend(uint32(op&0xFF), 1)
	}
	switch cond {
	case 0: // BRA
		c.pc = base + disp
	case 1: // BSR
		c.push32(c.pc)
		c.pc = base + disp
	default:
		if c.testCondition(cond) {
			c.pc = base + disp
			c.cost += 2
		}
	}
}

// groupA is the Line-A emulator space. The opcode itself is the vector.
func (c *Interpreter) groupA(op uint16) {
	c.trap(uint32(op))
}

// groupF is the coprocessor space, which this CPU does not have.
func (c *Interpreter) groupF(op uint16) {
	c.fatal(lineFError(op, c.instrPC))
}
