// Package tty adapts a Unix terminal for use as Evil VM's console: raw-mode
// byte input/output behind the `in`/`out` instructions, and cursor movement
// behind `seek`[^1].
//
// [1]: See: tty(4), termios(4).
package tty

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Console is a terminal console implementing vm.CursorSeeker. It puts the
// terminal into raw mode so the machine's `in`/`out`/`seek` instructions see
// individual bytes and can position the cursor directly, rather than waiting
// on line buffering.
type Console struct {
	fd    int
	state *term.State
}

// ErrNoTTY is returned if standard input is not a terminal. In this case,
// seek is unavailable and the machine runs without a CursorSeeker.
var ErrNoTTY = errors.New("console: not a TTY")

// NewConsole puts in's file descriptor into raw mode and returns a Console
// wrapping it. Callers must call Restore to return the terminal to its
// initial state.
func NewConsole(in, out *os.File) (*Console, error) {
	fd := int(in.Fd())

	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}

	saved, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTTY, err)
	}

	c := &Console{fd: fd, state: saved}

	if err := c.setTerminalParams(1, 0); err != nil {
		_ = term.Restore(fd, saved)
		return nil, err
	}

	return c, nil
}

// Seek positions the cursor at the given column and row using the ANSI CSI
// sequence `ESC [ row ; col H`, satisfying vm.CursorSeeker.
func (c *Console) Seek(col, row int) error {
	_, err := fmt.Fprintf(os.Stdout, "\x1b[%d;%dH", row+1, col+1)
	return err
}

// Restore returns the terminal to its initial state.
func (c *Console) Restore() error {
	return term.Restore(c.fd, c.state)
}

func (c *Console) setTerminalParams(vmin, vtime byte) error {
	termIO, err := unix.IoctlGetTermios(c.fd, getTermiosIoctl)
	if err != nil {
		return err
	}

	termIO.Cc[unix.VMIN] = vmin
	termIO.Cc[unix.VTIME] = vtime

	return unix.IoctlSetTermios(c.fd, setTermiosIoctl, termIO)
}
