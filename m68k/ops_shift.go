package m68k

const (
	shiftArith = iota
	shiftLogical
	shiftRotateX
	shiftRotate
)

// groupE is the shift and rotate family.
func (c *Interpreter) groupE(op uint16) {
	left := op&0x0100 != 0
	if op&0x00C0 == 0x00C0 {
		if op&0x0800 != 0 {
			c.illegal() // bit field ops
			return
		}
		dst, ok := c.operandEA(op, 2)
		if !ok || dst.kind != opMem {
			c.illegal()
			return
		}
		kind := int((op >> 9) & 3)
		v := c.shift(kind, left, c.read(dst, 2), 1, 2)
		c.write(dst, 2, v)
		return
	}
	size := sizeField(op)
	reg := op & 7
	count := uint32((op >> 9) & 7)
	if op&0x0020 != 0 {
		count = c.d[count] & 63
	} else if count == 0 {
		count = 8
	}
	kind := int((op >> 3) & 3)
	v := c.shift(kind, left, c.d[reg]&mask(size), count, size)
	c.write(operand{kind: opData, reg: int(reg)}, size, v)
	c.cost += 2 * int(count)
}

// shift applies count single-bit steps and sets the condition codes the way
// each instruction defines them.
func (c *Interpreter) shift(kind int, left bool, v uint32, count uint32, size int) uint32 {
	m := mask(size)
	hi := msb(size)
	v &= m
	carry := false
	overflow := false
	x := c.flag(FlagX)

	for i := uint32(0); i < count; i++ {
		if left {
			out := v&hi != 0
			v = (v << 1) & m
			switch kind {
			case shiftRotate:
				if out {
					v |= 1
				}
			case shiftRotateX:
				if x {
					v |= 1
				}
				x = out
			case shiftArith:
				if out != (v&hi != 0) {
					overflow = true
				}
			}
			carry = out
		} else {
			out := v&1 != 0
			sign := v & hi
			v >>= 1
			switch kind {
			case shiftArith:
				v |= sign
			case shiftRotate:
				if out {
					v |= hi
				}
			case shiftRotateX:
				if x {
					v |= hi
				}
				x = out
			}
			carry = out
		}
	}

	c.sr &^= FlagN | FlagZ | FlagV | FlagC
	if v == 0 {
		c.sr |= FlagZ
	}
	if v&hi != 0 {
		c.sr |= FlagN
	}
	if overflow {
		c.sr |= FlagV
	}
	switch kind {
	case shiftRotate:
		if count > 0 && carry {
			c.sr |= FlagC
		}
	case shiftRotateX:
		c.setFlag(FlagX, x)
		c.setFlag(FlagC, x)
	default:
		if count > 0 {
			c.setFlag(FlagC, carry)
			c.setFlag(FlagX, carry)
		}
	}
	return v
}
