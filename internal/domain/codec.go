package domain

import (
	"errors"
	"fmt"
)

// decodeError classifies a record decoding failure. Tag mismatches on
// embedded identifiers keep their kind; everything else becomes ErrParse.
func decodeError(entity string, err error) error {
	if errors.Is(err, ErrTypeMismatch) || errors.Is(err, ErrParse) {
		return fmt.Errorf("decode %s: %w", entity, err)
	}
	return fmt.Errorf("%w: decode %s: %v", ErrParse, entity, err)
}
