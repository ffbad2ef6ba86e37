// Package errs defines the error taxonomy shared by every TrinityChain
// component: a small closed set of error kinds, each carrying a
// human-readable description, so callers can switch on Code() without
// parsing strings.
package errs

import "fmt"

// Code identifies the kind of failure a TrinityChain operation produced.
type Code int

// The error kinds named in the core's error taxonomy.
const (
	ErrInvalidBlockLinkage Code = iota
	ErrOrphanBlock
	ErrInvalidProofOfWork
	ErrInvalidMerkleRoot
	ErrInvalidTransaction
	ErrTriangleNotFound
	ErrNetworkError
	ErrStorageError
	ErrCancelled
	ErrNoSolutionFound
)

var codeNames = map[Code]string{
	ErrInvalidBlockLinkage: "ErrInvalidBlockLinkage",
	ErrOrphanBlock:         "ErrOrphanBlock",
	ErrInvalidProofOfWork:  "ErrInvalidProofOfWork",
	ErrInvalidMerkleRoot:   "ErrInvalidMerkleRoot",
	ErrInvalidTransaction:  "ErrInvalidTransaction",
	ErrTriangleNotFound:    "ErrTriangleNotFound",
	ErrNetworkError:        "ErrNetworkError",
	ErrStorageError:        "ErrStorageError",
	ErrCancelled:           "ErrCancelled",
	ErrNoSolutionFound:     "ErrNoSolutionFound",
}

// String returns the stringized name of the error code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Unknown Code (%d)", int(c))
}

// RuleError identifies an error that occurred while validating or
// applying a transaction, block, or network message. It carries a
// Code so callers can branch on the kind of failure without parsing
// the Description string.
type RuleError struct {
	Code        Code
	Description string
}

// Error satisfies the error interface.
func (e RuleError) Error() string {
	return e.Description
}

// New builds a RuleError for the given code with a formatted description.
func New(code Code, format string, args ...interface{}) RuleError {
	return RuleError{Code: code, Description: fmt.Sprintf(format, args...)}
}

// Is reports whether err is a RuleError of the given code, so callers
// can do errs.Is(err, errs.ErrOrphanBlock) regardless of wrapping.
func Is(err error, code Code) bool {
	for err != nil {
		if re, ok := err.(RuleError); ok {
			return re.Code == code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
