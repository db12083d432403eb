// Package tty_test tries to test ttys.
//
// The test is skipped when stdin is not a terminal (ErrNoTTY). Notably, this
// includes when run with "go test", because it redirects the test binary's
// standard streams. You can test it by building a test binary and running it
// directly:
//
//	$ go test -c && ./tty.test
package tty_test

import (
	"errors"
	"os"
	"testing"

	"github.com/dextero/evilvm/internal/tty"
)

func TestNewConsoleSeek(t *testing.T) {
	console, err := tty.NewConsole(os.Stdin, os.Stdout)
	if errors.Is(err, tty.ErrNoTTY) {
		t.Skipf("not a terminal: %s", err)
	} else if err != nil {
		t.Fatalf("NewConsole: %v", err)
	}

	defer console.Restore()

	if err := console.Seek(10, 5); err != nil {
		t.Errorf("Seek: %v", err)
	}
}
