// Package trace records executed 68000 instructions as JSON Lines and compares
// two recordings to find the first point where they diverge.
package trace

// Step is one executed instruction: where it ran, what it was, and the
// register file before it executed.
type Step struct {
	Index  uint64    `json:"index"`
	PC     uint32    `json:"pc"`
	Raw    string    `json:"raw"`
	Text   string    `json:"text"`
	D      [8]uint32 `json:"d"`
	A      [8]uint32 `json:"a"`
	SR     uint16    `json:"sr"`
	Cycles uint64    `json:"cycles"`

	Trap          *uint32 `json:"trap,omitempty"`
	TrapSelector  *uint16 `json:"trapSelector,omitempty"`
	MemViolations *uint64 `json:"memViolations,omitempty"`
}

func NewStep(index uint64, pc uint32, raw, text string) *Step {
	return &Step{Index: index, PC: pc, Raw: raw, Text: text}
}

func (s *Step) SetRegisters(d, a [8]uint32, sr uint16) {
	s.D = d
	s.A = a
	s.SR = sr
}

// SetTrap marks the step as a trap instruction dispatched to vector with selector.
func (s *Step) SetTrap(vector uint32, selector uint16) {
	s.Trap = &vector
	s.TrapSelector = &selector
}

func (s *Step) SetMemViolations(n uint64) {
	s.MemViolations = &n
}
