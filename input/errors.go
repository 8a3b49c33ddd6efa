package input

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrResolutionMismatch is returned when a resolution does not answer
	// the precondition it is applied to.
	ErrResolutionMismatch = errors.New("gopenpgp: resolution does not match precondition")
	// ErrContractViolation is returned for inconsistent use of the API,
	// such as merging sign batches of different keys.
	ErrContractViolation = errors.New("gopenpgp: contract violation")
)

// MismatchError details an ErrResolutionMismatch.
type MismatchError struct {
	Field  string
	Detail string
}

func (e *MismatchError) Error() string {
	return ErrResolutionMismatch.Error() + ": " + e.Detail
}

// Is makes errors.Is match ErrResolutionMismatch.
func (e *MismatchError) Is(target error) bool {
	return target == ErrResolutionMismatch
}

func mismatch(field, format string, args ...interface{}) error {
	return &MismatchError{Field: field, Detail: fmt.Sprintf(format, args...)}
}

// ContractViolationError details an ErrContractViolation.
type ContractViolationError struct {
	Detail string
}

func (e *ContractViolationError) Error() string {
	return ErrContractViolation.Error() + ": " + e.Detail
}

// Is makes errors.Is match ErrContractViolation.
func (e *ContractViolationError) Is(target error) bool {
	return target == ErrContractViolation
}

// NewContractViolation returns a ContractViolationError.
func NewContractViolation(format string, args ...interface{}) error {
	return &ContractViolationError{Detail: fmt.Sprintf(format, args...)}
}
