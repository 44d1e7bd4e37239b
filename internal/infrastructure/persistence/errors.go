package persistence

import (
	"errors"
	"fmt"

	"github.com/heraerp/platform/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps driver errors onto the domain taxonomy. resource names
// the table family for messages.
func translateError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if _, ok := shared.AsDomainError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.NewDomainErrorf(shared.CodeDuplicateKey, "%s already exists", resource)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.NewDomainErrorf(shared.CodeValidationFailure, "%s references a missing row", resource)
	}
	return fmt.Errorf("%s: %w", resource, err)
}
