package maincmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mna/mainer"

	"github.com/burdockcascade/bytevm/lang/compiler"
	"github.com/burdockcascade/bytevm/lang/machine"
)

// run loads the assembly-text program at path, executes its entry function,
// and reports the result on stdio.Stdout. ctx is honored as far as file
// loading goes; the VM run itself is synchronous and bounded by
// c.MaxSteps, not by ctx cancellation.
func (c *Cmd) run(ctx context.Context, stdio mainer.Stdio, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	program, err := compiler.Assemble(src)
	if err != nil {
		return fmt.Errorf("assemble %s: %w", path, err)
	}

	vm := machine.New()
	vm.Stdout = stdio.Stdout
	vm.MaxSteps = c.MaxSteps
	if c.Debug {
		vm.Logger = slog.New(slog.NewTextHandler(stdio.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	if err := vm.LoadProgram(program); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if err := registerDemoNatives(vm); err != nil {
		return err
	}

	result, err := vm.Run(c.Entry)
	if err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}

	if result.Halted {
		fmt.Fprintf(stdio.Stdout, "halted after %d steps (%s)\n", result.Steps, result.Elapsed)
		return nil
	}
	fmt.Fprintf(stdio.Stdout, "=> %s (%d steps, %s)\n", result.Value.String(), result.Steps, result.Elapsed)
	return nil
}
