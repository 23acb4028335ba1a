package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielsiegl/sqltrim/internal/filters"
	"github.com/danielsiegl/sqltrim/internal/hash"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(data)
}

const sampleDump = `PRAGMA foreign_keys=OFF;
BEGIN TRANSACTION;
CREATE TABLE dict (id INTEGER PRIMARY KEY, word TEXT);
INSERT INTO dict VALUES(1,'alpha');
INSERT INTO dict VALUES(2,UNISTR('\00e9t\00e9'));
INSERT INTO dict VALUES(3,'gamma');
COMMIT;
`

func TestCleanCommand_ExplicitRules(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "input.sql", "L1\nL2\nL3\nL4\nL5\n")
	out := filepath.Join(dir, "out.sql")

	stdout, _, err := executeCommand("clean", in, "-o", out, "--exclude-lines", "1", "--tail", "1")
	require.NoError(t, err)

	assert.Equal(t, "L2\nL3\nL4\n", readFile(t, out))
	assert.Contains(t, stdout, "total: 5, kept: 3, dropped: 2")
}

func TestCleanCommand_PresetVerifyDelete(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "input.sql", sampleDump)
	out := filepath.Join(dir, "Dict-Sqlite.sql")

	stdout, _, err := executeCommand("clean", in, "-o", out,
		"--preset", "fix-sqlite", "--verify", "--delete-source", "--report-format", "json")
	require.NoError(t, err)

	assert.Equal(t, `PRAGMA foreign_keys=OFF;
CREATE TABLE dict (id INTEGER PRIMARY KEY, word TEXT);
INSERT INTO dict VALUES(1,'alpha');
INSERT INTO dict VALUES(3,'gamma');
`, readFile(t, out))

	var sum map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &sum))
	assert.EqualValues(t, 7, sum["total"])
	assert.EqualValues(t, 4, sum["kept"])
	assert.Equal(t, true, sum["sourceDeleted"])
	require.Contains(t, sum, "verify")

	_, statErr := os.Stat(in)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCleanCommand_VerifyFailureKeepsSource(t *testing.T) {
	dir := t.TempDir()
	// nosuchfn() makes the cleaned dump fail to load.
	in := writeFile(t, dir, "input.sql", "BEGIN TRANSACTION;\nCREATE TABLE t (v TEXT);\nINSERT INTO t VALUES(nosuchfn(1));\n")
	out := filepath.Join(dir, "out.sql")

	_, _, err := executeCommand("clean", in, "-o", out, "--verify", "--delete-source")
	requireExitCode(t, err, ExitVerify)

	_, statErr := os.Stat(in)
	assert.NoError(t, statErr, "source must survive a failed verification")
}

func TestCleanCommand_NotFound(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.sql")

	_, _, err := executeCommand("clean", filepath.Join(dir, "missing.sql"), "-o", out)
	requireExitCode(t, err, ExitNotFound)
	assert.Contains(t, err.Error(), "not found")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCleanCommand_MissingInputAsOutput(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.sql")

	_, _, err := executeCommand("clean", missing, "-o", missing)
	requireExitCode(t, err, ExitNotFound)
}

func TestCheckDigest(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "out.sql", "abc\n")

	sum, err := hash.SumReader(strings.NewReader("abc\n"))
	require.NoError(t, err)
	require.NoError(t, checkDigest(p, sum))

	err = checkDigest(p, strings.Repeat("0", len(sum)))
	require.ErrorIs(t, err, filters.ErrIO)
	assert.Contains(t, err.Error(), "changed after write")

	err = checkDigest(filepath.Join(dir, "gone.sql"), sum)
	assert.ErrorIs(t, err, filters.ErrNotFound)
}

func TestCleanCommand_IOError(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "input.sql", "a\n")

	_, _, err := executeCommand("clean", in, "-o", filepath.Join(dir, "missing", "out.sql"))
	requireExitCode(t, err, ExitIO)
}

func TestCleanCommand_SamePath(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "input.sql", "a\n")

	_, _, err := executeCommand("clean", in, "-o", in)
	requireExitCode(t, err, ExitUsage)
}

func TestCleanCommand_InvalidRules(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "input.sql", "a\n")

	_, _, err := executeCommand("clean", in, "-o", filepath.Join(dir, "o.sql"), "--tail", "-1")
	requireExitCode(t, err, ExitUsage)

	_, _, err = executeCommand("clean", in, "-o", filepath.Join(dir, "o.sql"), "--preset", "bogus")
	requireExitCode(t, err, ExitUsage)
}

func TestCleanCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "input.sql", "h\nunistr(1)\nbody\nfoot\n")
	cfg := writeFile(t, dir, "cfg.yaml", "preset: header-only\nreport-format: yaml\n")
	out := filepath.Join(dir, "out.sql")

	stdout, _, err := executeCommand("--config", cfg, "clean", in, "-o", out)
	require.NoError(t, err)

	assert.Equal(t, "body\n", readFile(t, out))
	assert.True(t, strings.HasPrefix(stdout, "input: "), "report should be YAML, got %q", stdout)
}

func TestVerifyCommand(t *testing.T) {
	dir := t.TempDir()
	dump := writeFile(t, dir, "d.sql", "CREATE TABLE a (x INTEGER);\nINSERT INTO a VALUES(1);\n")

	stdout, _, err := executeCommand("verify", dump)
	require.NoError(t, err)
	assert.Contains(t, stdout, "ok: 2 statements, 1 tables (a)")
}

func TestVerifyCommand_Failure(t *testing.T) {
	dir := t.TempDir()
	dump := writeFile(t, dir, "d.sql", "CREATE TABLE a (x INTEGER);\nINSERT INTO a VALUES(nosuchfn('x'));\n")

	_, _, err := executeCommand("verify", dump)
	requireExitCode(t, err, ExitVerify)
	assert.Contains(t, err.Error(), "line 2")
}

func TestVerifyCommand_NotFound(t *testing.T) {
	_, _, err := executeCommand("verify", filepath.Join(t.TempDir(), "nope.sql"))
	requireExitCode(t, err, ExitNotFound)
}

func TestPreviewCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "input.sql", sampleDump)

	stdout, _, err := executeCommand("preview", in, "--preset", "fix-sqlite")
	require.NoError(t, err)

	assert.Contains(t, stdout, "--- "+in)
	assert.Contains(t, stdout, "-BEGIN TRANSACTION;")
	assert.Contains(t, stdout, "-INSERT INTO dict VALUES(2,UNISTR(")
	assert.Contains(t, stdout, "-COMMIT;")
	assert.NotContains(t, stdout, "-INSERT INTO dict VALUES(1,'alpha');")

	assert.Equal(t, sampleDump, readFile(t, in), "preview must not touch the input")
}

func TestPreviewCommand_NotFound(t *testing.T) {
	_, _, err := executeCommand("preview", filepath.Join(t.TempDir(), "nope.sql"))
	requireExitCode(t, err, ExitNotFound)
}

func TestWatchCommand_MissingDirectory(t *testing.T) {
	_, _, err := executeCommand("watch", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watching directory")
}

func TestCleanCommand_EmptyPatternAndNoPattern(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "input.sql", "a\nunistr(1)\nb\n")
	out := filepath.Join(dir, "out.sql")

	_, _, err := executeCommand("clean", in, "-o", out, "--pattern", "")
	require.NoError(t, err)
	assert.Empty(t, readFile(t, out), "an empty pattern matches every line")

	_, _, err = executeCommand("clean", in, "-o", out, "--no-pattern")
	require.NoError(t, err)
	assert.Equal(t, "a\nunistr(1)\nb\n", readFile(t, out))
}
