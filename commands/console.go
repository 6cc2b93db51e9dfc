package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/calvinmclean/speedctl"
)

// maxLineLength bounds the input buffer. Longer lines are dropped and reported as invalid.
const maxLineLength = 64

// ByteReader is a non-blocking byte source. ReadByte returns an error when nothing is buffered.
type ByteReader interface {
	ReadByte() (byte, error)
}

// Console accumulates bytes into lines and runs them as commands
type Console struct {
	in    ByteReader
	out   io.Writer
	act   Actuator
	state *speedctl.State

	buf      []byte
	overflow bool
}

// NewConsole creates a Console reading from in and printing to out. state is optional and only used
// for status output.
func NewConsole(in ByteReader, out io.Writer, act Actuator, state *speedctl.State) *Console {
	return &Console{
		in:    in,
		out:   out,
		act:   act,
		state: state,
		buf:   make([]byte, 0, maxLineLength),
	}
}

// Poll drains the buffered input, executing every complete line. It never blocks and returns the
// number of lines executed.
func (c *Console) Poll() int {
	if c.in == nil {
		return 0
	}

	n := 0
	for {
		b, err := c.in.ReadByte()
		if err != nil {
			return n
		}

		switch b {
		case '\r':
		case '\n':
			if c.overflow {
				c.invalid()
			} else {
				_ = c.Execute(string(c.buf))
			}
			c.buf = c.buf[:0]
			c.overflow = false
			n++
		default:
			if len(c.buf) >= maxLineLength {
				c.overflow = true
				continue
			}
			c.buf = append(c.buf, b)
		}
	}
}

// Execute runs a single line. Invalid lines print "Invalid Input" and the usage and return
// ErrInvalidInput.
func (c *Console) Execute(line string) error {
	verb, arg, _ := strings.Cut(strings.TrimSpace(line), " ")

	cmd, ok := lookup(verb)
	if !ok {
		c.invalid()
		return fmt.Errorf("%w: %q", ErrInvalidInput, line)
	}

	err := cmd.Run(c, arg)
	if err != nil {
		c.invalid()
		return err
	}
	return nil
}

func (c *Console) invalid() {
	c.printf("Invalid Input\n\n")
	usage(c.out)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
