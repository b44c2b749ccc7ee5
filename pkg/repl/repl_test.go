package repl

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bradford-hamilton/iridium/pkg/config"
)

func newTestREPL() (*REPL, *bytes.Buffer) {
	r := New(config.Default())
	var out bytes.Buffer
	r.SetOutput(&out)
	return r, &out
}

func TestExecuteAssemblesLine(t *testing.T) {
	r, out := newTestREPL()

	r.Execute("load $0 #100")
	r.Execute(".registers")
	assert.Contains(t, out.String(), "100")
}

func TestExecuteHistory(t *testing.T) {
	r, out := newTestREPL()

	r.Execute("load $0 #1")
	r.Execute("inc $0")
	out.Reset()
	r.Execute(".history")

	history := out.String()
	assert.Contains(t, history, "load $0 #1")
	assert.Contains(t, history, "inc $0")
}

func TestExecuteProgramListing(t *testing.T) {
	r, out := newTestREPL()

	r.Execute("hlt")
	out.Reset()
	r.Execute(".program")
	assert.Contains(t, out.String(), "05 00 00 00")
}

func TestExecuteQuit(t *testing.T) {
	r, out := newTestREPL()
	r.Execute(".quit")
	assert.True(t, r.quit)
	assert.Contains(t, out.String(), "Farewell!")
}

func TestExecuteUnknownMetaCommand(t *testing.T) {
	r, out := newTestREPL()
	r.Execute(".bogus")
	assert.Contains(t, out.String(), "unknown command")
}

func TestExecuteParseFailure(t *testing.T) {
	r, out := newTestREPL()
	r.Execute("$5 nonsense")
	assert.Contains(t, out.String(), "unable to parse input")
}

func TestLoadFileRunsProgram(t *testing.T) {
	source := ".data\nmsg: .asciiz 'Hi'\n.code\nprts @msg\nhlt"
	path := filepath.Join(t.TempDir(), "hello.iasm")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))

	r, out := newTestREPL()
	r.Execute(".load_file " + path)
	assert.Contains(t, out.String(), "Hi")

	// Symbols from the loaded file are visible afterwards.
	out.Reset()
	r.Execute(".symbols")
	assert.Contains(t, out.String(), "msg -> 0")
}

func TestLoadFileReportsBatchDiagnostics(t *testing.T) {
	source := ".data\n.asciiz 'x'\n.code\ndup: inc $0\ndup: hlt"
	path := filepath.Join(t.TempDir(), "broken.iasm")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))

	r, out := newTestREPL()
	r.Execute(".load_file " + path)

	diagnostics := out.String()
	assert.Contains(t, diagnostics, "string constant declared without label")
	assert.Contains(t, diagnostics, `symbol "dup" already declared`)
}

func TestLoadFileMissing(t *testing.T) {
	r, out := newTestREPL()
	r.Execute(".load_file /no/such/file.iasm")
	assert.Contains(t, out.String(), "reading program file")
}

func TestExecuteClear(t *testing.T) {
	r, out := newTestREPL()
	r.Execute("load $0 #7")
	out.Reset()
	r.Execute(".clear")
	r.Execute(".registers")
	assert.NotContains(t, out.String(), "7")
}

func TestDirectiveLineRejected(t *testing.T) {
	r, out := newTestREPL()
	r.Execute(".data extra")
	assert.Contains(t, out.String(), "unknown command")

	out.Reset()
	r.Execute("somelabel: .asciiz 'nope'")
	assert.Contains(t, out.String(), "full program")
}
