package m68k

import (
	"fmt"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
)

func lineFError(op uint16, pc uint32) error {
	return fmt.Errorf("opcode 0x%04X at 0x%08X: %w", op, pc, emuerrors.ErrCLineF)
}

type binop int

const (
	binOr binop = iota
	binAnd
	binSub
	binAdd
)

// binary runs the shared <ea>,Dn / Dn,<ea> form of OR, AND, SUB and ADD.
func (c *Interpreter) binary(op uint16, kind binop) {
	opmode := (op >> 6) & 7
	size := sizeField(op & 0x00C0)
	dn := (op >> 9) & 7
	toEA := opmode&4 != 0

	ea, ok := c.operandEA(op, size)
	if !ok || (size == 1 && ea.kind == opAddr) {
		c.illegal()
		return
	}
	if toEA && (!writable(ea) || ea.kind == opData) {
		c.illegal()
		return
	}
	if !toEA && (kind == binOr || kind == binAnd) && ea.kind == opAddr {
		c.illegal()
		return
	}

	var src, dst uint32
	if toEA {
		src = c.d[dn] & mask(size)
		dst = c.read(ea, size)
	} else {
		src = c.read(ea, size)
		dst = c.d[dn] & mask(size)
	}

	var res uint32
	switch kind {
	case binOr:
		res = dst | src
		c.setLogic(res, size)
	case binAnd:
		res = dst & src
		c.setLogic(res, size)
	case binSub:
		res = c.subFlags(src, dst, 0, size, true, false)
	case binAdd:
		res = c.addFlags(src, dst, 0, size, true, false)
	}

	if toEA {
		c.write(ea, size, res)
	} else {
		c.write(operand{kind: opData, reg: int(dn)}, size, res)
	}
}

// addrArith is ADDA/SUBA/CMPA. The source is sign extended to a long.
func (c *Interpreter) addrArith(op uint16, kind binop, compare bool) {
	size := 2
	if op&0x0100 != 0 {
		size = 4
	}
	src, ok := c.readEA(op, size)
	if !ok {
		return
	}
	src = signExtend(src, size)
	an := (op >> 9) & 7
	switch {
	case compare:
		c.subFlags(src, c.a[an], 0, 4, false, false)
	case kind == binSub:
		c.a[an] -= src
	default:
		c.a[an] += src
	}
}

// extended is ADDX/SUBX in both register and -(Ay),-(Ax) forms.
func (c *Interpreter) extended(op uint16, sub bool) {
	size := sizeField(op)
	rx := int((op >> 9) & 7)
	ry := int(op & 7)
	var src, dst operand
	if op&0x0008 != 0 {
		src, _ = c.resolve(modePreDec, uint16(ry), size)
		dst, _ = c.resolve(modePreDec, uint16(rx), size)
	} else {
		src = operand{kind: opData, reg: ry}
		dst = operand{kind: opData, reg: rx}
	}
	s := c.read(src, size)
	d := c.read(dst, size)
	var res uint32
	if sub {
		res = c.subFlags(s, d, c.xbit(), size, true, true)
	} else {
		res = c.addFlags(s, d, c.xbit(), size, true, true)
	}
	c.write(dst, size, res)
}

// group8 is OR, DIVU, DIVS (SBCD is not implemented).
func (c *Interpreter) group8(op uint16) {
	opmode := (op >> 6) & 7
	switch {
	case opmode == 3:
		c.divide(op, false)
	case opmode == 7:
		c.divide(op, true)
	case opmode == 4 && (op>>3)&6 == 0:
		c.illegal() // SBCD
	default:
		c.binary(op, binOr)
	}
}

// group9 is SUB, SUBA and SUBX.
func (c *Interpreter) group9(op uint16) {
	opmode := (op >> 6) & 7
	switch {
	case opmode == 3 || opmode == 7:
		c.addrArith(op, binSub, false)
	case opmode >= 4 && (op>>3)&6 == 0:
		c.extended(op, true)
	default:
		c.binary(op, binSub)
	}
}

// groupD is ADD, ADDA and ADDX.
func (c *Interpreter) groupD(op uint16) {
	opmode := (op >> 6) & 7
	switch {
	case opmode == 3 || opmode == 7:
		c.addrArith(op, binAdd, false)
	case opmode >= 4 && (op>>3)&6 == 0:
		c.extended(op, false)
	default:
		c.binary(op, binAdd)
	}
}

// groupB is CMP, CMPA, CMPM and EOR.
func (c *Interpreter) groupB(op uint16) {
	opmode := (op >> 6) & 7
	dn := (op >> 9) & 7
	switch {
	case opmode == 3 || opmode == 7:
		c.addrArith(op, binSub, true)
	case opmode < 3:
		size := sizeField(op)
		src, ok := c.operandEA(op, size)
		if !ok || (size == 1 && src.kind == opAddr) {
			c.illegal()
			return
		}
		c.subFlags(c.read(src, size), c.d[dn], 0, size, false, false)
	case (op>>3)&7 == modeAn: // CMPM (Ay)+,(Ax)+
		size := sizeField(op)
		src, _ := c.resolve(modePostInc, op&7, size)
		dst, _ := c.resolve(modePostInc, dn, size)
		s := c.read(src, size)
		c.subFlags(s, c.read(dst, size), 0, size, false, false)
	default: // EOR Dn,<ea>
		size := sizeField(op)
		dst, ok := c.operandEA(op, size)
		if !ok || !writable(dst) {
			c.illegal()
			return
		}
		v := c.read(dst, size) ^ (c.d[dn] & mask(size))
		c.write(dst, size, v)
		c.setLogic(v, size)
	}
}

// groupC is AND, MULU, MULS and EXG (ABCD is not implemented).
func (c *Interpreter) groupC(op uint16) {
	opmode := (op >> 6) & 7
	mode := (op >> 3) & 7
	rx := (op >> 9) & 7
	ry := op & 7
	switch {
	case opmode == 3:
		c.multiply(op, false)
	case opmode == 7:
		c.multiply(op, true)
	case opmode == 4 && mode&6 == 0:
		c.illegal() // ABCD
	case opmode == 5 && mode == 0:
		c.d[rx], c.d[ry] = c.d[ry], c.d[rx]
	case opmode == 5 && mode == 1:
		c.a[rx], c.a[ry] = c.a[ry], c.a[rx]
	case opmode == 6 && mode == 1:
		c.d[rx], c.a[ry] = c.a[ry], c.d[rx]
	default:
		c.binary(op, binAnd)
	}
}

func (c *Interpreter) multiply(op uint16, signed bool) {
	src, ok := c.readEA(op, 2)
	if !ok {
		return
	}
	dn := (op >> 9) & 7
	var res uint32
	if signed {
		res = uint32(int32(int16(src)) * int32(int16(c.d[dn])))
	} else {
		res = (src & 0xFFFF) * (c.d[dn] & 0xFFFF)
	}
	c.d[dn] = res
	c.setLogic(res, 4)
	c.cost += 66
}

func (c *Interpreter) divide(op uint16, signed bool) {
	src, ok := c.readEA(op, 2)
	if !ok {
		return
	}
	c.cost += 136
	if src&0xFFFF == 0 {
		c.fatal(fmt.Errorf("divide at 0x%08X: %w", c.instrPC, emuerrors.ErrCDivideZero))
		return
	}
	dn := (op >> 9) & 7
	dividend := c.d[dn]
	var quot, rem uint32
	if signed {
		n := int64(int32(dividend))
		d := int64(int16(src))
		q := n / d
		if q < -32768 || q > 32767 {
			c.setFlag(FlagV, true)
			c.setFlag(FlagC, false)
			return
		}
		quot = uint32(q) & 0xFFFF
		rem = uint32(n%d) & 0xFFFF
	} else {
		d := src & 0xFFFF
		q := dividend / d
		if q > 0xFFFF {
			c.setFlag(FlagV, true)
			c.setFlag(FlagC, false)
			return
		}
		quot = q
		rem = dividend % d
	}
	c.d[dn] = rem<<16 | quot
	c.setLogic(quot, 2)
}
