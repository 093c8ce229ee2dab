// Package emuerrors holds the coded error values shared by the loader, the CPU
// engine, the trap bridge and the OS personalities. Each message has the form
// "<code>|<Name>: <description>".
package emuerrors

import (
	"errors"
	"strings"
)

// Kinds. Specific errors below unwrap to one of these, so callers test with errors.Is.
var (
	ErrFormat       = errors.New("F0|FormatError: Executable image is malformed.")
	ErrMemory       = errors.New("M0|MemoryError: Guest arena cannot hold the program.")
	ErrUnmappedTrap = errors.New("U0|UnmappedTrap: Trap selector has no handler.")
	ErrBounds       = errors.New("B0|BoundsViolation: Guest access outside the arena or misaligned.")
	ErrHostResource = errors.New("H0|HostResourceError: Host resource could not be used.")
	ErrCPU          = errors.New("C0|CPUFault: Guest raised a fatal exception.")
)

type coded struct {
	msg  string
	kind error
}

func (e *coded) Error() string { return e.msg }
func (e *coded) Unwrap() error { return e.kind }

func newCoded(kind error, msg string) error {
	return &coded{msg: msg, kind: kind}
}

// Format (F) Errors
var (
	ErrFBadMagic       = newCoded(ErrFormat, "F1|BadMagic: Image does not start with 0x601a.")
	ErrFShortImage     = newCoded(ErrFormat, "F2|ShortImage: Image is smaller than its header and segments.")
	ErrFNegativeReloc  = newCoded(ErrFormat, "F3|NegativeReloc: Segment lengths exceed the image size.")
	ErrFRelocOutOfText = newCoded(ErrFormat, "F4|RelocOutOfRange: Relocation target lies outside text and data.")
	ErrFUnsupported    = newCoded(ErrFormat, "F5|Unsupported: Image uses a feature the loader does not handle.")
)

// Memory (M) Errors
var (
	ErrMTooLarge      = newCoded(ErrMemory, "M1|TooLarge: Segments do not fit in the arena.")
	ErrMArena         = newCoded(ErrMemory, "M2|ArenaAlloc: Arena could not be allocated.")
	ErrMHeapExhausted = newCoded(ErrMemory, "M3|HeapExhausted: No free block large enough.")
	ErrMBadBlock      = newCoded(ErrMemory, "M4|BadBlock: Address is not the start of an allocated block.")
)

// CPU (C) Errors
var (
	ErrCIllegal    = newCoded(ErrCPU, "C1|IllegalInstruction: Opcode is not implemented.")
	ErrCPrivilege  = newCoded(ErrCPU, "C2|PrivilegeViolation: Supervisor instruction in user mode.")
	ErrCDivideZero = newCoded(ErrCPU, "C3|DivideByZero: Division by zero.")
	ErrCAddress    = newCoded(ErrCPU, "C4|AddressError: Instruction fetch from an odd address.")
	ErrCLineF      = newCoded(ErrCPU, "C5|LineF: Coprocessor opcode.")
	ErrCBackend    = newCoded(ErrCPU, "C6|Backend: Execution backend is not available.")
)

// Host (H) Errors
var (
	ErrHNotFound   = newCoded(ErrHostResource, "H1|NotFound: File not found.")
	ErrHPath       = newCoded(ErrHostResource, "H2|PathNotFound: Path not found.")
	ErrHNoHandles  = newCoded(ErrHostResource, "H3|NoHandles: Too many open files.")
	ErrHAccess     = newCoded(ErrHostResource, "H4|AccessDenied: Access denied.")
	ErrHBadHandle  = newCoded(ErrHostResource, "H5|InvalidHandle: Invalid file handle.")
	ErrHDrive      = newCoded(ErrHostResource, "H6|InvalidDrive: Drive is not mapped.")
	ErrHNoMore     = newCoded(ErrHostResource, "H7|NoMoreFiles: No more files.")
	ErrHRange      = newCoded(ErrHostResource, "H8|Range: Seek out of range.")
	ErrHWouldBlock = newCoded(ErrHostResource, "H9|WouldBlock: Operation not ready.")
)

// GetErrorName extracts the name part of a coded error.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") || !strings.Contains(errStr, ":") {
		return errStr
	}
	parts := strings.SplitN(errStr, "|", 2)
	nameDesc := parts[1]
	idx := strings.Index(nameDesc, ":")
	if idx < 0 {
		return nameDesc
	}
	return strings.TrimSpace(nameDesc[:idx])
}

// GetErrorCode extracts the error code from the error message.
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") {
		return ""
	}
	parts := strings.SplitN(errStr, "|", 2)
	return strings.TrimSpace(parts[0])
}

// GetErrorCodeWithName returns "<code>_<name>", or "" for uncoded errors.
func GetErrorCodeWithName(err error) string {
	code := GetErrorCode(err)
	name := GetErrorName(err)
	if code == "" || name == "" {
		return ""
	}
	return code + "_" + name
}

// GetErrorDesc extracts the error description from the error message.
func GetErrorDesc(err error) string {
	if err == nil {
		return ""
	}
	errStr := err.Error()
	parts := strings.SplitN(errStr, ":", 2)
	if len(parts) < 2 {
		return "DESC NOT SET"
	}
	return strings.TrimSpace(parts[1])
}
