package repl

import (
	"fmt"
	"path/filepath"
)

// DefaultPrompter renders "<user>@<basename-of-cwd>> ", the prompt form
// spec.md §6 assigns to the line-input service rather than the core.
type DefaultPrompter struct {
	User string
}

func (p DefaultPrompter) Prompt(dir string) string {
	return fmt.Sprintf("%s@%s> ", p.User, filepath.Base(dir))
}
