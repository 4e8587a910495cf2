// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package builder

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes build errors.
type ErrorKind uint8

const (
	// ErrGraphStructure indicates a missing fragment or declaration, or a
	// graph whose nodes cannot be placed in a valid stage order.
	ErrGraphStructure ErrorKind = iota

	// ErrSemanticConflict indicates two fragments disagree on the type of a
	// semantic or uniform within one shader.
	ErrSemanticConflict

	// ErrIdentifierOverflow indicates a generated identifier longer than
	// the target accepts.
	ErrIdentifierOverflow

	// ErrInternal indicates an internal builder error.
	ErrInternal
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrGraphStructure:
		return "GraphStructure"
	case ErrSemanticConflict:
		return "SemanticConflict"
	case ErrIdentifierOverflow:
		return "IdentifierOverflow"
	case ErrInternal:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// Error represents a build error.
type Error struct {
	// Kind categorizes the error.
	Kind ErrorKind

	// Message provides details about the error.
	Message string

	// Node optionally names the node the error was found at.
	Node string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("shadergraph %s at %s: %s", e.Kind, e.Node, e.Message)
	}
	return fmt.Sprintf("shadergraph %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new error without node information.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func errorf(kind ErrorKind, node, format string, args ...any) *Error {
	return &Error{Kind: kind, Node: node, Message: fmt.Sprintf(format, args...)}
}

func wrap(kind ErrorKind, node string, err error) *Error {
	return &Error{Kind: kind, Node: node, Message: err.Error(), Err: err}
}

// IsGraphStructure returns true if the error is ErrGraphStructure.
func (e *Error) IsGraphStructure() bool {
	return e.Kind == ErrGraphStructure
}

// IsSemanticConflict returns true if the error is ErrSemanticConflict.
func (e *Error) IsSemanticConflict() bool {
	return e.Kind == ErrSemanticConflict
}

// IsIdentifierOverflow returns true if the error is ErrIdentifierOverflow.
func (e *Error) IsIdentifierOverflow() bool {
	return e.Kind == ErrIdentifierOverflow
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return ErrInternal, false
}

// IsGraphStructure reports whether err is a graph structure error.
func IsGraphStructure(err error) bool {
	return isKind(err, ErrGraphStructure)
}

// IsSemanticConflict reports whether err is a semantic conflict.
func IsSemanticConflict(err error) bool {
	return isKind(err, ErrSemanticConflict)
}

// IsIdentifierOverflow reports whether err is an identifier overflow.
func IsIdentifierOverflow(err error) bool {
	return isKind(err, ErrIdentifierOverflow)
}

func isKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
