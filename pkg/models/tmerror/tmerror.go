package tmerror

import (
	"errors"
	"fmt"
)

const (
	TIDE_UNEXPECTED          = "TIDEU"
	TIDE_UNSUPPORTED_TABLE   = "TIDET"
	TIDE_NOT_IDENTITY_COLUMN = "TIDEI"
	TIDE_OVERFLOW            = "TIDEO"
	TIDE_COMMIT_CONFLICT     = "TIDEC"
	TIDE_NO_TABLE            = "TIDEN"
	TIDE_METADATA_ERROR      = "TIDEM"
	TIDE_GENERATED_ALWAYS    = "TIDEA"
)

var existingErrorCodeMap = map[string]string{
	TIDE_UNSUPPORTED_TABLE:   "table format does not carry identity metadata",
	TIDE_NOT_IDENTITY_COLUMN: "column is not an identity column",
	TIDE_OVERFLOW:            "int64 overflow in sequence arithmetic",
	TIDE_COMMIT_CONFLICT:     "concurrent metadata commit conflict",
	TIDE_NO_TABLE:            "no such table",
	TIDE_METADATA_ERROR:      "invalid table metadata",
	TIDE_GENERATED_ALWAYS:    "explicit value for a GENERATED ALWAYS column",
}

func GetMessageByCode(errorCode string) string {
	rep, ok := existingErrorCodeMap[errorCode]
	if ok {
		return rep
	}
	return "Unexpected error"
}

var _ error = &TideError{}

type TideError struct {
	Err error

	ErrorCode string
}

func New(errorCode string, errorMsg string) *TideError {
	return &TideError{
		Err:       errors.New(errorMsg),
		ErrorCode: errorCode,
	}
}

func Newf(errorCode string, format string, a ...any) *TideError {
	return &TideError{
		Err:       fmt.Errorf(format, a...),
		ErrorCode: errorCode,
	}
}

func (er *TideError) Error() string {
	return fmt.Sprintf("Code: %s. Name: %s. Description: %s.",
		er.ErrorCode, GetMessageByCode(er.ErrorCode), er.Err)
}

// ErrorCode extracts the tidemark error code from err, or TIDE_UNEXPECTED
// when err carries no code.
func ErrorCode(err error) string {
	var te *TideError
	if errors.As(err, &te) {
		return te.ErrorCode
	}
	return TIDE_UNEXPECTED
}

// IsConflict reports whether err is a commit conflict and the caller may
// retry from a fresh snapshot.
func IsConflict(err error) bool {
	return ErrorCode(err) == TIDE_COMMIT_CONFLICT
}
