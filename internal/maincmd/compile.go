package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/saffron/lang/compiler"
	"github.com/mna/saffron/lang/parser"
	"github.com/mna/saffron/lang/token"
	"golang.org/x/sync/errgroup"
)

// compileAll parses and compiles each file concurrently, bounded by
// c.config.Concurrency (0 lets errgroup run every file at once), and
// returns the resulting programs in file order alongside the first error
// encountered.
func (c *Cmd) compileAll(ctx context.Context, files []string) ([]*compiler.Program, error) {
	progs := make([]*compiler.Program, len(files))

	g, gctx := errgroup.WithContext(ctx)
	if c.config.Concurrency > 0 {
		g.SetLimit(c.config.Concurrency)
	}

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			src, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			// each file gets its own FileSet: token.FileSet is not safe for
			// concurrent AddFile calls, and these files don't need to share a
			// Pos address space with each other.
			fset := token.NewFileSet()
			chunk, err := parser.ParseChunk(gctx, fset, file, src)
			if err != nil {
				return err
			}
			prog, err := compiler.CompileChunk(chunk)
			if err != nil {
				if cerr, ok := err.(*compiler.Error); ok && cerr.Pos.IsValid() {
					return fmt.Errorf("%s: %w", fset.Position(cerr.Pos), err)
				}
				return fmt.Errorf("%s: %w", file, err)
			}
			for _, proto := range prog.Prototypes {
				if c.config.MaxStack > 0 && proto.MaxStack > c.config.MaxStack {
					return fmt.Errorf("%s: function %q needs %d stack slots, exceeding the configured max of %d",
						file, proto.Name, proto.MaxStack, c.config.MaxStack)
				}
			}
			progs[i] = prog
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return progs, nil
}

func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	progs, err := c.compileAll(ctx, args)
	if err != nil {
		return printError(stdio, err)
	}

	for i, prog := range progs {
		b, err := compiler.Encode(prog)
		if err != nil {
			return printError(stdio, fmt.Errorf("%s: %w", args[i], err))
		}
		if _, err := stdio.Stdout.Write(b); err != nil {
			return printError(stdio, err)
		}
	}
	return nil
}
