// Package repository reads and writes the tour catalog in MySQL.
package repository

import "errors"

// ErrNotFound is returned when a row lookup matches nothing.  Callers
// facing the catalog see catalog.ErrShowNotFound instead.
var ErrNotFound = errors.New("not found")
