// Package api exposes TOS functions as typed Go calls that run inside a
// guest process. The functions themselves are generated from shims.yaml.
package api

//go:generate go run ../tools/shimgen -in shims.yaml -out shims_gen.go

import (
	"fmt"

	"github.com/alirzasahb/PumpkinOS/trap"
)

// Trap vectors of the personalities reachable through shims.
const (
	VecGEMDOS = 1
	VecGEM    = 2
	VecBIOS   = 13
	VecXBIOS  = 14
)

// Invoker dispatches a call through a process's trap bridge.
type Invoker interface {
	Invoke(vector uint32, selector uint16, args ...trap.Arg) (uint32, error)
}

// Shim describes one generated function.
type Shim struct {
	Module   string
	Name     string
	Selector uint16
	Args     []string
	Ret      string
}

// Vector returns the trap vector of module.
func Vector(module string) (uint32, bool) {
	switch module {
	case "gemdos":
		return VecGEMDOS, true
	case "bios":
		return VecBIOS, true
	case "xbios":
		return VecXBIOS, true
	}
	return 0, false
}

// Lookup finds a shim by function name.
func Lookup(name string) (Shim, bool) {
	for _, s := range Shims {
		if s.Name == name {
			return s, true
		}
	}
	return Shim{}, false
}

// Pack converts loosely typed values, as produced by a script engine, into
// trap arguments following the shim's signature.
func (s Shim) Pack(values []interface{}) ([]trap.Arg, error) {
	if len(values) != len(s.Args) {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", s.Name, len(s.Args), len(values))
	}
	out := make([]trap.Arg, len(values))
	for i, v := range values {
		if s.Args[i] == "string" {
			str, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%s argument %d: want string, got %T", s.Name, i, v)
			}
			out[i] = trap.Str(str)
			continue
		}
		n, err := toInt(v)
		if err != nil {
			return nil, fmt.Errorf("%s argument %d: %w", s.Name, i, err)
		}
		if s.Args[i] == "word" {
			out[i] = trap.W(uint16(n))
		} else {
			out[i] = trap.L(uint32(n))
		}
	}
	return out, nil
}

// Call invokes the shim with values packed by Pack and converts D0 to the
// shim's result type.
func (s Shim) Call(inv Invoker, values ...interface{}) (int64, error) {
	vec, ok := Vector(s.Module)
	if !ok {
		return 0, fmt.Errorf("%s: unknown module %q", s.Name, s.Module)
	}
	args, err := s.Pack(values)
	if err != nil {
		return 0, err
	}
	d0, err := inv.Invoke(vec, s.Selector, args...)
	switch s.Ret {
	case "int32":
		return int64(int32(d0)), err
	case "void":
		return 0, err
	}
	return int64(d0), err
}

func toInt(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	}
	return 0, fmt.Errorf("want number, got %T", v)
}
