package invoice

import (
	"fmt"

	ierr "github.com/quillbooks/quillbooks/internal/errors"
	"github.com/quillbooks/quillbooks/internal/types"
)

// NewValidationError creates a field-scoped validation error.
func NewValidationError(field, message string) error {
	return ierr.NewError(fmt.Sprintf("validation failed for field %s", field)).
		WithHint(message).
		WithReportableDetails(map[string]any{
			"field": field,
		}).
		Mark(ierr.ErrValidation)
}

// NewIllegalTransitionError creates the rejection for a document-status move
// that is not permitted from the current state.
func NewIllegalTransitionError(from, to types.DocumentStatus) error {
	return ierr.NewError("illegal document status transition").
		WithHintf("cannot move invoice from %s to %s", from, to).
		WithReportableDetails(map[string]any{
			"from": from.String(),
			"to":   to.String(),
		}).
		Mark(ierr.ErrInvalidOperation)
}
