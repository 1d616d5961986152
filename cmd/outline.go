package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/meysamhadeli/codebro/constants/lipgloss"
	"github.com/spf13/cobra"
)

// outlineCmd: codebro outline <path> <file>
var outlineCmd = &cobra.Command{
	Use:   "outline <path> <file>",
	Short: "Print the structural outline (functions, classes, types) of one project file.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd, args[0], false)
		if err != nil {
			return err
		}
		defer rootDependencies.Close()

		return handleOutlineCommand(cmd.Context(), os.Stdout, rootDependencies, args[1])
	},
}

func init() {
	rootCmd.AddCommand(outlineCmd)
}

func handleOutlineCommand(ctx context.Context, w io.Writer, rootDependencies *RootDependencies, relativePath string) error {
	file, ok := rootDependencies.Analyzer.ReadFile(rootDependencies.Cwd, relativePath)
	if !ok {
		return fmt.Errorf("cannot read %s", relativePath)
	}

	outline, err := rootDependencies.Analyzer.Outline(ctx, file.RelativePath, []byte(file.Content))
	if err != nil {
		return err
	}

	fmt.Fprintln(w, lipgloss.Bold.Render(file.RelativePath))
	for _, entry := range outline {
		fmt.Fprintf(w, "  %s\n", entry)
	}
	return nil
}
