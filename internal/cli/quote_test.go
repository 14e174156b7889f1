package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeItemsFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestQuoteInclusiveDefaults(t *testing.T) {
	path := writeItemsFile(t, `[{"price": 88, "quantity": 2}]`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewQuoteCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "176.00", "inclusive total equals net payable")
	assert.Contains(t, output, "167.62")
	assert.Contains(t, output, "4.19 + 4.19")
}

func TestQuoteExclusiveJSON(t *testing.T) {
	path := writeItemsFile(t, `[{"price": 88, "quantity": 2}]`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewQuoteCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "--mode", "exclusive"})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "184.80", data["total"])
	assert.Equal(t, "8.80", data["tax_amount"])
	assert.Nil(t, data["net_payable"])
}

func TestQuoteDiscountFlag(t *testing.T) {
	path := writeItemsFile(t, `[{"price": 88, "quantity": 2}]`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewQuoteCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "--discount", "8.6", "--mode", "exclusive"})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "175.77", data["total"])
	assert.Equal(t, "8.37", data["tax_amount"])
	// Odd cent lands in the first half.
	assert.Equal(t, "4.19", data["tax_part_a"])
	assert.Equal(t, "4.18", data["tax_part_b"])
}

func TestQuoteMissingFile(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewQuoteCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "absent.json")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, errBuf.String(), ErrCodeInput)
}

func TestQuoteMalformedItems(t *testing.T) {
	path := writeItemsFile(t, `{"not": "an array"}`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewQuoteCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInput, resp.Error.Code)
}
