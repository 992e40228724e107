package sdk

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	goerrors "github.com/agilira/go-errors"
)

// Kind classifies an Error. Its value is the numeric status code.
type Kind uint16

const (
	FileNotFound  Kind = 1001
	FileInvalid   Kind = 1002
	InputInvalid  Kind = 1003
	UnknownPlugin Kind = 1004
	Unsupported   Kind = 1005
	Unknown       Kind = 9999
)

var kindText = map[Kind]string{
	FileNotFound:  "file not found",
	FileInvalid:   "file is invalid",
	InputInvalid:  "input is invalid",
	UnknownPlugin: "plugin not found",
	Unsupported:   "operation not supported",
	Unknown:       "unknown",
}

// CodePrefix prefixes the go-errors codes used by the host, e.g. "C2_1004".
const CodePrefix = "C2_"

// Text returns the short status text of k.
func (k Kind) Text() string {
	if t, ok := kindText[k]; ok {
		return t
	}
	return kindText[Unknown]
}

// Code returns the go-errors code for k.
func (k Kind) Code() goerrors.ErrorCode {
	return goerrors.ErrorCode(CodePrefix + strconv.Itoa(int(k)))
}

// Error is the error shape shared by the host and plugins, whatever the
// failure originated from.
type Error struct {
	StatusCode uint16 `json:"status_code"`
	StatusText string `json:"status_text"`
	Message    string `json:"error_message"`
}

// NewError returns an Error of the given kind. Kinds without a status text
// fall back to Unknown.
func NewError(kind Kind, msg string) *Error {
	if _, ok := kindText[kind]; !ok {
		kind = Unknown
	}
	return &Error{
		StatusCode: uint16(kind),
		StatusText: kind.Text(),
		Message:    msg,
	}
}

// Errorf is NewError with a format string.
func Errorf(kind Kind, format string, args ...any) *Error {
	return NewError(kind, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.StatusText, e.Message)
}

// Kind returns the error's kind.
func (e *Error) Kind() Kind {
	return Kind(e.StatusCode)
}

// AsError normalises err into an *Error. The first *Error in the chain wins;
// host errors coded with go-errors keep their code; missing files map to
// FileNotFound; everything else becomes Unknown carrying err's message.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	var ce *goerrors.Error
	if errors.As(err, &ce) {
		if kind, ok := kindFromCode(ce.ErrorCode()); ok {
			return NewError(kind, err.Error())
		}
	}
	if errors.Is(err, fs.ErrNotExist) {
		return NewError(FileNotFound, err.Error())
	}
	return NewError(Unknown, err.Error())
}

// IsKind reports whether err normalises to kind.
func IsKind(err error, kind Kind) bool {
	e := AsError(err)
	return e != nil && e.Kind() == kind
}

func kindFromCode(code goerrors.ErrorCode) (Kind, bool) {
	n, ok := strings.CutPrefix(string(code), CodePrefix)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(n, 10, 16)
	if err != nil {
		return 0, false
	}
	kind := Kind(v)
	if _, known := kindText[kind]; !known {
		return Unknown, true
	}
	return kind, true
}
