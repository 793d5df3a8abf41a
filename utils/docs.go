package utils

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
	"github.com/spf13/viper"
)

// docsCmd represents the docs command
var docsCmd = &cobra.Command{
	Use:     "docs",
	Short:   "Generate markdown documentation or man pages for every command",
	Aliases: []string{"markdown", "md"},
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		outDir := viper.GetString("utils.docs.dir")
		err := os.MkdirAll(outDir, os.ModePerm)
		if err != nil {
			fmt.Printf("Error creating directory: %s\n", err)
			os.Exit(1)
		}
		root := cmd.Root()
		root.DisableAutoGenTag = true
		if viper.GetBool("utils.docs.man") {
			err = doc.GenManTree(root, &doc.GenManHeader{Title: "LAUNCHWIZ", Section: "1"}, outDir)
		} else {
			err = doc.GenMarkdownTree(root, outDir)
		}
		if err != nil {
			fmt.Printf("Error generating documentation: %s\n", err)
			os.Exit(1)
		}
		fmt.Println("Generated documentation in " + outDir)
	},
}

func init() {
	utilsCmd.AddCommand(docsCmd)

	docsCmd.Flags().String("dir", ".", "The destination directory to save docs in")
	_ = viper.BindPFlag("utils.docs.dir", docsCmd.Flags().Lookup("dir"))
	docsCmd.Flags().Bool("man", false, "Generate man pages instead of markdown")
	_ = viper.BindPFlag("utils.docs.man", docsCmd.Flags().Lookup("man"))
}
