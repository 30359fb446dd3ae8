package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/mna/saffron/lang/scanner"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	fs, toksByFile, err := scanner.ScanFiles(ctx, args...)
	for _, toks := range toksByFile {
		for _, tv := range toks {
			pos := fs.File(tv.Value.Pos).Position(tv.Value.Pos)
			fmt.Fprintf(stdio.Stdout, "%s: %s", pos, tv.Token)
			if lit := tv.Value.Raw; lit != "" {
				fmt.Fprintf(stdio.Stdout, " %s", lit)
			}
			fmt.Fprintln(stdio.Stdout)
		}
	}
	if err != nil {
		scanner.PrintError(stdio.Stderr, err)
		return err
	}
	return nil
}
