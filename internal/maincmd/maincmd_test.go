package maincmd_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/mna/saffron/internal/filetest"
	"github.com/mna/saffron/internal/maincmd"
	"github.com/stretchr/testify/require"
)

func fixtures(t *testing.T) []string {
	t.Helper()
	dir := filepath.Join("testdata", "in")
	var paths []string
	for _, fi := range filetest.SourceFiles(t, dir, ".lua") {
		paths = append(paths, filepath.Join(dir, fi.Name()))
	}
	require.NotEmpty(t, paths)
	return paths
}

// run invokes Cmd.Main the way cmd/saffron/main.go does: the first
// element of the args slice given to Main is the program name, mirroring
// os.Args, not a real argument.
func run(t *testing.T, c *maincmd.Cmd, args ...string) (stdout, stderr string) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	code := c.Main(append([]string{"saffron"}, args...), mainer.Stdio{Stdout: &outBuf, Stderr: &errBuf})
	require.Equal(t, mainer.Success, code, "stderr: %s", errBuf.String())
	return outBuf.String(), errBuf.String()
}

func TestTokenizeCommand(t *testing.T) {
	for _, path := range fixtures(t) {
		var c maincmd.Cmd
		out, _ := run(t, &c, "tokenize", path)
		require.Contains(t, out, "local")
		require.Contains(t, out, "eof")
	}
}

func TestParseCommand(t *testing.T) {
	for _, path := range fixtures(t) {
		var c maincmd.Cmd
		out, _ := run(t, &c, "parse", path)
		require.NotEmpty(t, out)
	}
}

func TestCompileCommand(t *testing.T) {
	for _, path := range fixtures(t) {
		var c maincmd.Cmd
		out, _ := run(t, &c, "compile", path)
		require.NotEmpty(t, out, "encoded program bytes")
	}
}

func TestDasmCommand(t *testing.T) {
	for _, path := range fixtures(t) {
		var c maincmd.Cmd
		out, _ := run(t, &c, "dasm", path)
		require.Contains(t, out, "function:")
	}
}

func TestUnknownCommand(t *testing.T) {
	var outBuf, errBuf bytes.Buffer
	var c maincmd.Cmd
	code := c.Main([]string{"saffron", "bogus", "x.lua"}, mainer.Stdio{Stdout: &outBuf, Stderr: &errBuf})
	require.Equal(t, mainer.InvalidArgs, code)
	require.Contains(t, errBuf.String(), "unknown command")
}

func TestMissingFileArgument(t *testing.T) {
	var outBuf, errBuf bytes.Buffer
	var c maincmd.Cmd
	code := c.Main([]string{"saffron", "parse"}, mainer.Stdio{Stdout: &outBuf, Stderr: &errBuf})
	require.Equal(t, mainer.InvalidArgs, code)
	require.Contains(t, errBuf.String(), "at least one file")
}

func TestHelpAndVersion(t *testing.T) {
	var c maincmd.Cmd
	c.BuildVersion = "1.0.0"
	c.BuildDate = "2026-01-01"

	out, _ := run(t, &c, "--help")
	require.Contains(t, out, "usage: saffron")

	out, _ = run(t, &c, "--version")
	require.Contains(t, out, "1.0.0")
}
