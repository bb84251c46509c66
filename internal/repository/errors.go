// Package repository defines the MySQL-backed stores and the error values
// shared by every store implementation.  Higher layers match these with
// errors.Is to tell configuration problems (unknown airplane or user) from
// lost races (ErrConflict).
package repository

import "errors"

// ErrAirplaneNotFound is returned when no airplane record has been
// provisioned for the requested type.
var ErrAirplaneNotFound = errors.New("airplane not found")

// ErrUserNotFound is returned when writing a reservation for a user id
// that does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrConflict is returned by a compare-and-swap whose expected value no
// longer matches the stored one.  Nothing was written.
var ErrConflict = errors.New("conflict")

// ErrUsernameExists is returned when registering a duplicate username.
var ErrUsernameExists = errors.New("username already exists")
