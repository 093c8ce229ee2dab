package m68k

var moveSizes = [4]int{0, 1, 4, 2}

// groupMove handles MOVE and MOVEA; the size lives in the top nibble.
func (c *Interpreter) groupMove(op uint16) {
	size := moveSizes[op>>12]
	src, ok := c.operandEA(op, size)
	if !ok {
		c.illegal()
		return
	}
	if size == 1 && src.kind == opAddr {
		c.illegal()
		return
	}
	v := c.read(src, size)
	dmode := (op >> 6) & 7
	dreg := (op >> 9) & 7
	if dmode == modeAn {
		if size == 1 {
			c.illegal()
			return
		}
		c.a[dreg] = signExtend(v, size)
		return
	}
	dst, ok := c.resolve(dmode, dreg, size)
	if !ok || !writable(dst) {
		c.illegal()
		return
	}
	c.write(dst, size, v)
	c.setLogic(v, size)
}

// group7 is MOVEQ.
func (c *Interpreter) group7(op uint16) {
	if op&0x0100 != 0 {
		c.illegal()
		return
	}
	v := signExtend(uint32(op&0xFF), 1)
	c.d[(op>>9)&7] = v
	c.setLogic(v, 4)
}
