package m68k

func (c *Interpreter) flag(f uint16) bool { return c.sr&f != 0 }

func (c *Interpreter) setFlag(f uint16, on bool) {
	if on {
		c.sr |= f
	} else {
		c.sr &^= f
	}
}

// setLogic sets N and Z from v and clears V and C. X is untouched.
func (c *Interpreter) setLogic(v uint32, size int) {
	v &= mask(size)
	c.sr &^= FlagN | FlagZ | FlagV | FlagC
	if v == 0 {
		c.sr |= FlagZ
	}
	if v&msb(size) != 0 {
		c.sr |= FlagN
	}
}

// addFlags computes res = dst + src (+ x) and its condition codes. With
// extend set, Z is only cleared, never set, as ADDX requires.
func (c *Interpreter) addFlags(src, dst uint32, x uint32, size int, setX, extend bool) uint32 {
	m := mask(size)
	src &= m
	dst &= m
	res := (src + dst + x) & m
	hi := msb(size)
	carry := ((src & dst) | ((src | dst) &^ res)) & hi
	over := ((src ^ res) & (dst ^ res)) & hi
	c.setArith(res, size, carry != 0, over != 0, setX, extend)
	return res
}

// subFlags computes res = dst - src (- x).
func (c *Interpreter) subFlags(src, dst uint32, x uint32, size int, setX, extend bool) uint32 {
	m := mask(size)
	src &= m
	dst &= m
	res := (dst - src - x) & m
	hi := msb(size)
	borrow := ((src &^ dst) | (res &^ dst) | (src & res)) & hi
	over := ((src ^ dst) & (res ^ dst)) & hi
	c.setArith(res, size, borrow != 0, over != 0, setX, extend)
	return res
}

func (c *Interpreter) setArith(res uint32, size int, carry, over, setX, extend bool) {
	c.setFlag(FlagC, carry)
	c.setFlag(FlagV, over)
	c.setFlag(FlagN, res&msb(size) != 0)
	if extend {
		if res != 0 {
			c.sr &^= FlagZ
		}
	} else {
		c.setFlag(FlagZ, res == 0)
	}
	if setX {
		c.setFlag(FlagX, carry)
	}
}

func (c *Interpreter) xbit() uint32 {
	if c.sr&FlagX != 0 {
		return 1
	}
	return 0
}

// testCondition evaluates one of the sixteen 68000 condition codes.
func (c *Interpreter) testCondition(cond uint16) bool {
	n, z, v, cy := c.flag(FlagN), c.flag(FlagZ), c.flag(FlagV), c.flag(FlagC)
	switch cond & 0xF {
	case 0x0: // T
		return true
	case 0x1: // F
		return false
	case 0x2: // HI
		return !cy && !z
	case 0x3: // LS
		return cy || z
	case 0x4: // CC
		return !cy
	case 0x5: // CS
		return cy
	case 0x6: // NE
		return !z
	case 0x7: // EQ
		return z
	case 0x8: // VC
		return !v
	case 0x9: // VS
		return v
	case 0xA: // PL
		return !n
	case 0xB: // MI
		return n
	case 0xC: // GE
		return n == v
	case 0xD: // LT
		return n != v
	case 0xE: // GT
		return !z && n == v
	}
	return z || n != v // LE
}
