package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptsCommand_Text(t *testing.T) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"scripts"})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "extensionupdates\n")
	assert.Contains(t, out.String(), "testscript")
}

func TestScriptsCommand_JSON(t *testing.T) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--format", "json", "scripts"})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	names, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Contains(t, names, "extensionupdates")
	assert.Contains(t, names, "capsredirects")
}
