package interp

import (
	"os"
	"testing"

	"simplesh/internal"
)

func TestMain(m *testing.M) {
	internal.TestMainSetup()
	os.Exit(m.Run())
}
