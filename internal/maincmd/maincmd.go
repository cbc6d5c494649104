// Package maincmd implements the bytevm command-line host: parse flags,
// load a program from its textual assembly form, run it, and report the
// result or error.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mna/mainer"
)

const binName = "bytevm"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <path>
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <path>
       %[1]s -h|--help
       %[1]s -v|--version

Runs a bytevm program given in its textual assembly form.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --entry NAME              Entry function to run (default: main).
       --max-steps N             Abort after N dispatched instructions
                                 (default: unlimited).
       --debug                   Log each dispatched instruction to stderr.
`, binName)
)

// Cmd is the bytevm command-line entry point, driven by mainer.Parser.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	Entry    string `flag:"entry"`
	MaxSteps int    `flag:"max-steps"`
	Debug    bool   `flag:"debug"`

	args []string
}

func (c *Cmd) SetArgs(args []string)      { c.args = args }
func (c *Cmd) SetFlags(_ map[string]bool) {}

// Validate checks that exactly one program path was given, unless the
// caller only asked for help or version output.
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) != 1 {
		return errors.New("expected exactly one program path")
	}
	return nil
}

// Main is the mainer.Cmd entry point: parse flags, dispatch, and translate
// the outcome to a process exit code.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.run(ctx, stdio, c.args[0]); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return mainer.Failure
	}
	return mainer.Success
}
