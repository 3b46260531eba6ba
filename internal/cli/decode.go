package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mowbray/fieldbot/internal/changelog"
)

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <record|file>",
		Short: "Decode a stored change record",
		Long: `Decode a change record as stored in a page's history comments.

The argument is either the encoded record itself or the path of a file
containing it. The surrounding comment markup may be included; it is
stripped before decoding.

Example:
  fieldbot decode QlpoOTFBWSZTW...
  fieldbot decode record.txt --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			return decodeRecord(formatter, args[0])
		},
	}
}

func decodeRecord(formatter *OutputFormatter, arg string) error {
	record := arg
	if data, err := os.ReadFile(arg); err == nil {
		formatter.VerboseLog("Read the record from file %q (%d bytes).", arg, len(data))
		record = string(data)
	}

	record = strings.TrimSpace(record)
	record = strings.TrimPrefix(record, "<!--!<~>")
	record = strings.TrimSuffix(record, "-->")

	change, err := changelog.Decode(record)
	if err != nil {
		_ = formatter.Error("E001", fmt.Sprintf("undecodable record: %v", err), nil)
		return WrapExitError(ExitFailure, "undecodable record", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(json.RawMessage(change.String()))
	}

	indented, err := json.MarshalIndent(change, "", "  ")
	if err != nil {
		return WrapExitError(ExitFailure, "marshal decoded change", err)
	}
	observed := "unknown"
	if !change.Timestamp.IsZero() {
		observed = change.Timestamp.UTC().Format("2006-01-02 15:04:05 (UTC)")
	}
	return formatter.Success(fmt.Sprintf("Observed: %s\n%s", observed, indented))
}
