package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mowbray/fieldbot/internal/changelog"
)

func sampleRecord(t *testing.T) (string, changelog.Change) {
	t.Helper()
	change := changelog.NewChange()
	change.Added["Cite"] = changelog.Extension{"name": "Cite", "version": "1.0"}
	change.Timestamp = time.Unix(1694000000, 0).UTC()

	record, err := changelog.Encode(change)
	require.NoError(t, err)
	return record, change
}

func TestDecodeRecord_Text(t *testing.T) {
	record, _ := sampleRecord(t)
	out := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: out}

	require.NoError(t, decodeRecord(formatter, record))

	wantObserved := time.Unix(1694000000, 0).UTC().Format("2006-01-02 15:04:05 (UTC)")
	assert.Contains(t, out.String(), "Observed: "+wantObserved)
	assert.Contains(t, out.String(), "Observed: 2023-09-06 11:33:20 (UTC)")
	assert.Contains(t, out.String(), `"Cite"`)
	assert.Contains(t, out.String(), `"version": "1.0"`)
}

func TestDecodeRecord_JSON(t *testing.T) {
	record, change := sampleRecord(t)
	out := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out}

	require.NoError(t, decodeRecord(formatter, record))

	var resp struct {
		Status string           `json:"status"`
		Data   changelog.Change `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, change, resp.Data)
}

func TestDecodeRecord_FullCommentAndFileInput(t *testing.T) {
	_, change := sampleRecord(t)
	comment, err := changelog.EncodeComment(change)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "record.txt")
	require.NoError(t, os.WriteFile(path, []byte(comment+"\n"), 0o644))

	out := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: out}

	require.NoError(t, decodeRecord(formatter, path))
	assert.Contains(t, out.String(), `"Cite"`)
}

func TestDecodeRecord_VerboseFileDiagnosticsGoToErrWriter(t *testing.T) {
	_, change := sampleRecord(t)
	comment, err := changelog.EncodeComment(change)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "record.txt")
	require.NoError(t, os.WriteFile(path, []byte(comment), 0o644))

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	require.NoError(t, decodeRecord(formatter, path))

	assert.Contains(t, errOut.String(), "Read the record from file")
	// The JSON on stdout must stay parseable despite the diagnostic line.
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestDecodeRecord_Undecodable(t *testing.T) {
	out := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: out}

	err := decodeRecord(formatter, "!!! not base64 !!!")

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out.String(), "Error [E001]")
}
