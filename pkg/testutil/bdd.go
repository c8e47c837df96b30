package testutil

import "testing"

// Given opens a scenario subtest; Then nests an expectation inside it. The
// prefixes make `go test -run` output read as the scenario.
func Given(t *testing.T, context string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("given "+context, fn)
}

func Then(t *testing.T, outcome string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("then "+outcome, fn)
}
