package testutil

import (
	"time"

	"github.com/skosovsky/botsy"
)

// NewTestRegistry returns a Registry with a long timeout and panic recovery
// enabled, suitable for tests, with tools pre-registered.
func NewTestRegistry(tools ...botsy.Tool) *botsy.Registry {
	reg := botsy.NewRegistry(
		botsy.WithDefaultTimeout(30*time.Second),
		botsy.WithRecoverPanics(true),
	)
	for _, t := range tools {
		reg.Register(t)
	}
	return reg
}
