package utils

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// completionCmd represents the completion command
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Print a shell completion script",
	Long: `Print a shell completion script. For example, to load completions in every bash session:

  launchwiz utils completion bash > ~/.local/share/bash-completion/completions/launchwiz`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Run: func(cmd *cobra.Command, args []string) {
		root := cmd.Root()
		var err error
		switch args[0] {
		case "bash":
			err = root.GenBashCompletionV2(os.Stdout, true)
		case "zsh":
			err = root.GenZshCompletion(os.Stdout)
		case "fish":
			err = root.GenFishCompletion(os.Stdout, true)
		case "powershell":
			err = root.GenPowerShellCompletionWithDesc(os.Stdout)
		}
		if err != nil {
			fmt.Printf("Error generating completion script: %s\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	utilsCmd.AddCommand(completionCmd)
}
