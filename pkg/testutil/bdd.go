package testutil

import "testing"

// Given, When, and Then wrap t.Run with a narrative prefix, so flow tests
// (sign in, join a room, submit a record) read as scenarios in verbose
// output without a framework behind them.

func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+desc, fn)
}
