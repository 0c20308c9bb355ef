package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/wangkanai/foundation/core/audit"
	"github.com/wangkanai/foundation/core/utils"

	"github.com/spf13/cobra"
)

// decodeCmd decodes a change-set state blob into readable key/value
// lines. Reads from a file argument or stdin, for inspecting rows pulled
// straight out of the audit table.
var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode an audit state blob",
	Long: `Decodes a packed before/after state blob into key=value lines.
Reads the blob from the given file, or from stdin when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
		} else {
			data, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return fmt.Errorf("read blob: %w", err)
		}

		blob := string(data)
		var cs audit.ChangeSet
		cs.WriteChangesRaw(&blob, nil)

		values := cs.OldValuesMap()
		if len(values) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "(empty or malformed blob: no values)")
			return nil
		}

		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, utils.ToString(values[k]))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(decodeCmd)
}
