package retrieve

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/openmc-assist/internal/config"
	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
	"github.com/Aman-CERP/openmc-assist/internal/store"
)

// OpenIndex returns the index named by kind over col. chromemDir is only
// used by the chromem index.
func OpenIndex(kind string, col store.Collection, chromemDir string) (VectorIndex, error) {
	switch strings.ToLower(kind) {
	case "", config.IndexLinear:
		return NewLinearIndex(col), nil
	case config.IndexHNSW:
		return NewHNSWIndex(col), nil
	case config.IndexChromem:
		return NewChromemIndex(col, chromemDir)
	default:
		return nil, amerrors.ConfigError(fmt.Sprintf("unknown index %q", kind), nil)
	}
}
