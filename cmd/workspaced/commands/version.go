package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracelay/workspaced/version"
)

// VersionCmd prints the build metadata of the running binary.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show workspaced version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		fmt.Println(info.String())
		fmt.Printf("go %s, %s\n", info.GoVersion, info.Platform)
		return nil
	},
}
