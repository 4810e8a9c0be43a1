package db

import (
	"fmt"
	"strings"
)

// ConnectionError reports that a back-end could not open or authenticate a
// connection.
type ConnectionError struct {
	Engine string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s connection failed: %v", e.Engine, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// CatalogError reports a catalog row shape the back-end could not normalize.
type CatalogError struct {
	Engine string
	Query  string
	Err    error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("%s catalog read failed (%s): %v", e.Engine, e.Query, e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

// PermissionError reports a catalog query rejected for insufficient
// privilege. The underlying engine message is preserved.
type PermissionError struct {
	Engine string
	Err    error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s permission denied: %v", e.Engine, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// catalogErr wraps a query failure, promoting privilege rejections to
// PermissionError so the orchestrator can classify them.
func catalogErr(engine, query string, err error) error {
	if isPermissionDenied(err) {
		return &PermissionError{Engine: engine, Err: err}
	}
	return &CatalogError{Engine: engine, Query: query, Err: err}
}

func isPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "access denied") ||
		strings.Contains(msg, "permission was denied") ||
		strings.Contains(msg, "insufficient privilege")
}
