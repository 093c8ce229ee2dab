//go:build !unicorn

package m68k

import (
	"fmt"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
)

func newUnicornEngine(hooks Hooks, mem []byte) (Engine, error) {
	return nil, fmt.Errorf("built without the unicorn tag: %w", emuerrors.ErrCBackend)
}
