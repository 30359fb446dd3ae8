package maincmd

import (
	"context"

	"github.com/mna/mainer"
	"github.com/mna/saffron/lang/ast"
	"github.com/mna/saffron/lang/parser"
	"github.com/mna/saffron/lang/scanner"
)

func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	_, chunks, err := parser.ParseFiles(ctx, args...)
	for _, ch := range chunks {
		if perr := ast.Fprint(stdio.Stdout, ch); perr != nil {
			return printError(stdio, perr)
		}
	}
	if err != nil {
		scanner.PrintError(stdio.Stderr, err)
		return err
	}
	return nil
}
