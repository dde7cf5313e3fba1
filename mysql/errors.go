package mysql

import (
	"fmt"

	"github.com/pingcap/errors"
)

// ErrorKind classifies a protocol-level failure the way §7 of the spec
// taxonomizes them: Io, Protocol, Server, Unsupported, SchemaMissing, Parse.
type ErrorKind int

const (
	KindIo ErrorKind = iota
	KindProtocol
	KindServer
	KindUnsupported
	KindSchemaMissing
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindIo:
		return "io"
	case KindProtocol:
		return "protocol"
	case KindServer:
		return "server"
	case KindUnsupported:
		return "unsupported"
	case KindSchemaMissing:
		return "schema_missing"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Error is the single error type produced by this module's own logic
// (server ERROR packets are reported as *ServerError instead).
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds a Kind-tagged error with a formatted message.
func NewError(kind ErrorKind, format string, args ...interface{}) error {
	return errors.Trace(&Error{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// ServerError represents a MySQL/MariaDB ERROR packet (§4.4).
type ServerError struct {
	Code    uint16
	State   string
	Message string
}

func (e *ServerError) Error() string {
	if e.State != "" {
		return fmt.Sprintf("ERROR %d (%s): %s", e.Code, e.State, e.Message)
	}
	return fmt.Sprintf("ERROR %d: %s", e.Code, e.Message)
}

var (
	// ErrMalformPacket indicates structurally invalid packet contents.
	ErrMalformPacket = &Error{Kind: KindProtocol, Message: "malformed packet"}

	// ErrTableMapMissing is returned when a rows event references a
	// table_id with no preceding TableMapEvent in the decoder's cache.
	ErrTableMapMissing = &Error{Kind: KindSchemaMissing, Message: "no TableMapEvent for table_id"}
)

// IsKind reports whether err (or something it wraps) is a *Error of the
// given kind.
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		if me, ok := err.(*Error); ok {
			return me.Kind == kind
		}
		cause := errors.Cause(err)
		if cause == err {
			return false
		}
		err = cause
	}
	return false
}
