package m68k

import (
	"fmt"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
)

// group4 is the miscellaneous opcode space: single-operand ops, stack
// frames, control transfer, MOVEM and the status register moves.
func (c *Interpreter) group4(op uint16) {
	switch op {
	case 0x4AFC:
		c.illegal()
		return
	case 0x4E70: // RESET
		c.requireSupervisor()
		c.cost += 128
		return
	case 0x4E71: // NOP
		return
	case 0x4E72: // STOP
		if !c.requireSupervisor() {
			return
		}
		c.setSR(c.fetch16())
		c.halt(StopBudget)
		return
	case 0x4E73: // RTE
		if !c.requireSupervisor() {
			return
		}
		sr := c.pop16()
		c.pc = c.pop32()
		c.setSR(sr)
		return
	case 0x4E75: // RTS
		c.pc = c.pop32()
		return
	case 0x4E76: // TRAPV
		if c.flag(FlagV) {
			c.fatal(fmt.Errorf("trapv at 0x%08X: %w", c.instrPC, emuerrors.ErrCPU))
		}
		return
	case 0x4E77: // RTR
		c.setCCR(uint8(c.pop16()))
		c.pc = c.pop32()
		return
	}

	reg := op & 7
	mode := (op >> 3) & 7
	switch {
	case op&0xFFF0 == 0x4E40:
		c.trap(uint32(op & 0xF))
	case op&0xFFF8 == 0x4E50: // LINK
		disp := signExtend(uint32(c.fetch16()), 2)
		c.push32(c.a[reg])
		c.a[reg] = c.a[7]
		c.a[7] += disp
	case op&0xFFF8 == 0x4E58: // UNLK
		c.a[7] = c.a[reg]
		c.a[reg] = c.pop32()
	case op&0xFFF8 == 0x4E60: // MOVE An,USP
		if c.requireSupervisor() {
			c.otherSP = c.a[reg]
		}
	case op&0xFFF8 == 0x4E68: // MOVE USP,An
		if c.requireSupervisor() {
			c.a[reg] = c.otherSP
		}
	case op&0xFFC0 == 0x4E80: // JSR
		target, ok := c.controlAddr(mode, reg)
		if !ok {
			c.illegal()
			return
		}
		c.push32(c.pc)
		c.pc = target
	case op&0xFFC0 == 0x4EC0: // JMP
		target, ok := c.controlAddr(mode, reg)
		if !ok {
			c.illegal()
			return
		}
		c.pc = target
	case op&0xFFF8 == 0x4840: // SWAP
		v := c.d[reg]<<16 | c.d[reg]>>16
		c.d[reg] = v
		c.setLogic(v, 4)
	case op&0xFFC0 == 0x4840: // PEA
		addr, ok := c.controlAddr(mode, reg)
		if !ok {
			c.illegal()
			return
		}
		c.push32(addr)
	case op&0xFFF8 == 0x4880: // EXT.W
		v := signExtend(c.d[reg]&0xFF, 1) & 0xFFFF
		c.d[reg] = c.d[reg]&0xFFFF0000 | v
		c.setLogic(v, 2)
	case op&0xFFF8 == 0x48C0: // EXT.L
		c.d[reg] = signExtend(c.d[reg]&0xFFFF, 2)
		c.setLogic(c.d[reg], 4)
	case op&0xFFF8 == 0x49C0: // EXTB.L
		c.d[reg] = signExtend(c.d[reg]&0xFF, 1)
		c.setLogic(c.d[reg], 4)
	case op&0xFB80 == 0x4880:
		c.movem(op)
	case op&0xF1C0 == 0x41C0: // LEA
		addr, ok := c.controlAddr(mode, reg)
		if !ok {
			c.illegal()
			return
		}
		c.a[(op>>9)&7] = addr
	case op&0xF1C0 == 0x4180:
		c.chk(op)
	case op&0xFFC0 == 0x40C0: // MOVE from SR
		c.writeEA(op, 2, uint32(c.sr))
	case op&0xFFC0 == 0x42C0: // MOVE from CCR
		c.writeEA(op, 2, uint32(c.sr&0xFF))
	case op&0xFFC0 == 0x44C0: // MOVE to CCR
		if v, ok := c.readEA(op, 2); ok {
			c.setCCR(uint8(v))
		}
	case op&0xFFC0 == 0x46C0: // MOVE to SR
		if !c.requireSupervisor() {
			return
		}
		if v, ok := c.readEA(op, 2); ok {
			c.setSR(uint16(v))
		}
	case op&0xFFC0 == 0x4AC0: // TAS
		dst, ok := c.operandEA(op, 1)
		if !ok || !writable(dst) {
			c.illegal()
			return
		}
		v := c.read(dst, 1)
		c.setLogic(v, 1)
		c.write(dst, 1, v|0x80)
	case op&0xF900 == 0x4000 && sizeField(op) != 0:
		c.unary(op)
	case op&0xFF00 == 0x4A00 && sizeField(op) != 0: // TST
		size := sizeField(op)
		if v, ok := c.readEA(op, size); ok {
			c.setLogic(v, size)
		}
	default:
		c.illegal()
	}
}

// unary handles NEGX, CLR, NEG and NOT (0x40, 0x42, 0x44, 0x46).
func (c *Interpreter) unary(op uint16) {
	size := sizeField(op)
	dst, ok := c.operandEA(op, size)
	if !ok || !writable(dst) {
		c.illegal()
		return
	}
	switch op & 0xFF00 {
	case 0x4000: // NEGX
		v := c.read(dst, size)
		c.write(dst, size, c.subFlags(v, 0, c.xbit(), size, true, true))
	case 0x4200: // CLR
		c.write(dst, size, 0)
		c.setLogic(0, size)
	case 0x4400: // NEG
		v := c.read(dst, size)
		c.write(dst, size, c.subFlags(v, 0, 0, size, true, false))
	case 0x4600: // NOT
		v := ^c.read(dst, size) & mask(size)
		c.write(dst, size, v)
		c.setLogic(v, size)
	}
}

func (c *Interpreter) readEA(op uint16, size int) (uint32, bool) {
	src, ok := c.operandEA(op, size)
	if !ok {
		c.illegal()
		return 0, false
	}
	return c.read(src, size), true
}

func (c *Interpreter) writeEA(op uint16, size int, v uint32) {
	dst, ok := c.operandEA(op, size)
	if !ok || !writable(dst) {
		c.illegal()
		return
	}
	c.write(dst, size, v)
}

func (c *Interpreter) chk(op uint16) {
	bound, ok := c.readEA(op, 2)
	if !ok {
		return
	}
	v := int16(c.d[(op>>9)&7])
	if v < 0 || v > int16(bound) {
		c.setFlag(FlagN, v < 0)
		c.fatal(fmt.Errorf("chk bound %d value %d at 0x%08X: %w", int16(bound), v, c.instrPC, emuerrors.ErrCPU))
	}
}

func (c *Interpreter) regN(r int) uint32 {
	if r < 8 {
		return c.d[r]
	}
	return c.a[r-8]
}

func (c *Interpreter) setRegN(r int, v uint32) {
	if r < 8 {
		c.d[r] = v
		return
	}
	c.a[r-8] = v
}

// movem transfers the registers named by the mask word. In -(An) form the
// mask is reversed (bit 0 is A7) and registers are stored from A7 down.
func (c *Interpreter) movem(op uint16) {
	size := 2
	if op&0x0040 != 0 {
		size = 4
	}
	list := c.fetch16()
	mode := (op >> 3) & 7
	reg := op & 7
	step := uint32(size)

	if op&0x0400 == 0 {
		if mode == modePreDec {
			addr := c.a[reg]
			for i := 0; i < 16; i++ {
				if list&(1<<uint(i)) == 0 {
					continue
				}
				addr -= step
				c.writeMem(addr, size, c.regN(15-i))
			}
			c.a[reg] = addr
			return
		}
		if mode == modeExtended && reg >= extPCDisp {
			c.illegal()
			return
		}
		addr, ok := c.controlAddr(mode, reg)
		if !ok {
			c.illegal()
			return
		}
		for r := 0; r < 16; r++ {
			if list&(1<<uint(r)) != 0 {
				c.writeMem(addr, size, c.regN(r))
				addr += step
			}
		}
		return
	}

	var addr uint32
	if mode == modePostInc {
		addr = c.a[reg]
	} else {
		a, ok := c.controlAddr(mode, reg)
		if !ok {
			c.illegal()
			return
		}
		addr = a
	}
	for r := 0; r < 16; r++ {
		if list&(1<<uint(r)) == 0 {
			continue
		}
		v := c.readMem(addr, size)
		if size == 2 {
			v = signExtend(v, 2)
		}
		c.setRegN(r, v)
		addr += step
	}
	if mode == modePostInc {
		c.a[reg] = addr
	}
}
