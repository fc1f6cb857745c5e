package internal

import (
	"os"
	"path/filepath"
)

// TestMainSetup gives the executor and job-registry integration tests a
// clean, predictable environment: it clears OLDPWD and CDPATH so that cd
// tests start from a known state, and it shadows a handful of short
// placeholder command names ("a", "b", "c", "foo", "bar") on $PATH so that
// a stray "a" or "foo" in a test
// script can never resolve to an unrelated binary that happens to be
// installed on the machine running the tests.
func TestMainSetup() {
	os.Unsetenv("OLDPWD")
	os.Unsetenv("CDPATH")

	pathDir, err := os.MkdirTemp("", "simplesh-test-bin-")
	if err != nil {
		panic(err)
	}
	for _, name := range []string{"a", "b", "c", "foo", "bar"} {
		os.Unsetenv(name)
		script := filepath.Join(pathDir, name)
		if err := os.WriteFile(script, []byte("#!/bin/sh\necho NO_SUCH_COMMAND; exit 1\n"), 0o777); err != nil {
			panic(err)
		}
	}
	os.Setenv("PATH", pathDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}
