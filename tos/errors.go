package tos

import (
	"errors"
	"io/fs"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
)

// GEMDOS result codes returned in D0.
const (
	EOK    int32 = 0
	ERROR  int32 = -1
	EINVFN int32 = -32
	EFILNF int32 = -33
	EPTHNF int32 = -34
	ENHNDL int32 = -35
	EACCDN int32 = -36
	EIHNDL int32 = -37
	ENSMEM int32 = -39
	EIMBA  int32 = -40
	EDRIVE int32 = -46
	ENMFIL int32 = -49
	ERANGE int32 = -64
	EINTRN int32 = -65
	EGSBF  int32 = -67
)

// Code maps a host error onto the code a guest expects in D0.
func Code(err error) int32 {
	switch {
	case err == nil:
		return EOK
	case errors.Is(err, emuerrors.ErrHNotFound), errors.Is(err, fs.ErrNotExist):
		return EFILNF
	case errors.Is(err, emuerrors.ErrHPath):
		return EPTHNF
	case errors.Is(err, emuerrors.ErrHNoHandles):
		return ENHNDL
	case errors.Is(err, emuerrors.ErrHAccess), errors.Is(err, fs.ErrPermission), errors.Is(err, fs.ErrExist):
		return EACCDN
	case errors.Is(err, emuerrors.ErrHBadHandle), errors.Is(err, fs.ErrClosed):
		return EIHNDL
	case errors.Is(err, emuerrors.ErrMHeapExhausted):
		return ENSMEM
	case errors.Is(err, emuerrors.ErrMBadBlock):
		return EIMBA
	case errors.Is(err, emuerrors.ErrHDrive):
		return EDRIVE
	case errors.Is(err, emuerrors.ErrHNoMore):
		return ENMFIL
	case errors.Is(err, emuerrors.ErrHRange):
		return ERANGE
	case errors.Is(err, emuerrors.ErrFUnsupported):
		return EINVFN
	}
	return ERROR
}
