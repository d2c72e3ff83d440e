package cli

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "backfill", cmd.Use)

	for _, name := range []string{"init", "run", "migrate", "rollback", "status", "verify"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	config := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, config)
	assert.Equal(t, "", config.DefValue)
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	batch := runCmd.Flags().Lookup("batch-size")
	require.NotNil(t, batch)
	assert.Equal(t, "0", batch.DefValue)

	rateLimit := runCmd.Flags().Lookup("rate-limit")
	require.NotNil(t, rateLimit)
	assert.Equal(t, "0", rateLimit.DefValue)

	dry := runCmd.Flags().Lookup("dry-run")
	require.NotNil(t, dry)
	assert.Equal(t, "false", dry.DefValue)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := Execute(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestExecute_InvalidFormat(t *testing.T) {
	code, _, errOut := execute(t, "--format", "xml", "status")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, errOut, "invalid format")
}

func TestExecute_MissingDatabaseURL(t *testing.T) {
	t.Setenv("BACKFILL_DATABASE_URL", "")
	require.NoError(t, os.Unsetenv("BACKFILL_DATABASE_URL"))

	code, _, errOut := execute(t, "status")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, errOut, "database url is required")
}

func TestExecute_ErrorAsJSON(t *testing.T) {
	t.Setenv("BACKFILL_DATABASE_URL", "")
	require.NoError(t, os.Unsetenv("BACKFILL_DATABASE_URL"))

	code, out, _ := execute(t, "--format", "json", "status")
	assert.Equal(t, ExitCommandError, code)
	assert.JSONEq(t, `{"status":"error","error":"config: database url is required (database.url or BACKFILL_DATABASE_URL)"}`, out)
}

func TestExecute_BadArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"rollback without dot", []string{"rollback", "0065"}, "invalid key"},
		{"rollback missing arg", []string{"rollback"}, "accepts 1 arg"},
		{"verify not a number", []string{"verify", "abc"}, "invalid broadcast id"},
		{"verify zero", []string{"verify", "0"}, "invalid broadcast id"},
		{"run with args", []string{"run", "extra"}, "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := execute(t, tt.args...)
			assert.Equal(t, ExitCommandError, code)
			assert.Contains(t, errOut, tt.want)
		})
	}
}

func TestExecute_BatchSizeFlagValidated(t *testing.T) {
	t.Setenv("BACKFILL_DATABASE_URL", "postgres://unused")

	code, _, errOut := execute(t, "run", "--batch-size", "0")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, errOut, "batch_size must be positive")
}
