package config

import (
	"os"
	"testing"
)

// chdirForTest stands in for testing.T.Chdir (Go 1.24+): it changes the
// working directory and restores the previous one when the test finishes.
func chdirForTest(t testing.TB, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
