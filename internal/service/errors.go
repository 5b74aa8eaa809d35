// Package service holds the domain operations behind the HTTP handlers:
// account registration and login, the idea catalog and the text ledger.
package service

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoIdeas is returned by Random when the catalog is empty.
	ErrNoIdeas = errors.New("no ideas available")
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// normalizePage applies defaults to non-positive values and caps limit.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}
