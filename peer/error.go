// Copyright (c) 2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a kind of session failure.
type ErrorCode int

// These constants are used to identify a specific Error.
const (
	// ErrConnect indicates the TCP stream to the remote peer could not be
	// established, either directly or through the configured proxy.
	ErrConnect ErrorCode = iota

	// ErrIO indicates a read or write failure on an established socket,
	// including the remote peer closing the connection.
	ErrIO

	// ErrDecode indicates a malformed frame: wrong network magic, bad
	// checksum, oversized length or a payload that does not decode.
	ErrDecode

	// ErrProtocol indicates a well-formed message that violates the
	// expected handshake or query sequence.
	ErrProtocol

	// ErrTimeout indicates a dial, read or write deadline expired.
	ErrTimeout
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrConnect:  "ErrConnect",
	ErrIO:       "ErrIO",
	ErrDecode:   "ErrDecode",
	ErrProtocol: "ErrProtocol",
	ErrTimeout:  "ErrTimeout",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error describes a failure of one stage of a session.  The caller can use
// type assertions or IsErrorCode to determine the kind of failure and
// errors.Unwrap to reach the underlying cause, if any.
type Error struct {
	Code        ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
	Err         error     // Underlying error, may be nil
}

// Error satisfies the error interface and prints human-readable errors.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Description, e.Err)
	}
	return e.Description
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// makeError creates an Error given a set of arguments.
func makeError(c ErrorCode, desc string, err error) *Error {
	return &Error{Code: c, Description: desc, Err: err}
}

// IsErrorCode returns whether or not err is, or wraps, an Error with the
// provided code.
func IsErrorCode(err error, c ErrorCode) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Code == c
}
