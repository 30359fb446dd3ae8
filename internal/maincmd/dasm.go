package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/mna/saffron/lang/compiler"
)

func (c *Cmd) Dasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	progs, err := c.compileAll(ctx, args)
	if err != nil {
		return printError(stdio, err)
	}

	for i, prog := range progs {
		b, err := compiler.Dasm(prog)
		if err != nil {
			return printError(stdio, fmt.Errorf("%s: %w", args[i], err))
		}
		if _, err := stdio.Stdout.Write(b); err != nil {
			return printError(stdio, err)
		}
	}
	return nil
}
