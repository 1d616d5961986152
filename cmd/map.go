package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meysamhadeli/codebro/constants/lipgloss"
	"github.com/spf13/cobra"
)

// mapCmd: codebro map <path>
var mapCmd = &cobra.Command{
	Use:   "map <path>",
	Short: "Print the project map, or with --deep the files the deep scan would send.",
	Long: `The 'map' subcommand shows exactly what the model would see without calling it.
Without flags it prints the filtered file list. With --deep it prints the selected files in priority
order together with their priority and character count, and the total against the budget.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deep, _ := cmd.Flags().GetBool("deep")

		rootDependencies, err := handleRootCommand(cmd, args[0], false)
		if err != nil {
			return err
		}
		defer rootDependencies.Close()

		return handleMapCommand(os.Stdout, rootDependencies, deep)
	},
}

func init() {
	mapCmd.Flags().Bool("deep", false, "Show the deep scan selection instead of the file list")
	rootCmd.AddCommand(mapCmd)
}

func handleMapCommand(w io.Writer, rootDependencies *RootDependencies, deep bool) error {
	if !deep {
		projectMap, err := rootDependencies.Analyzer.ShallowScan(rootDependencies.Cwd)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, projectMap)
		return nil
	}

	files, err := rootDependencies.Analyzer.DeepScan(rootDependencies.Cwd)
	if err != nil {
		return err
	}

	total := 0
	width := 0
	for _, file := range files {
		if len(file.RelativePath) > width {
			width = len(file.RelativePath)
		}
	}
	for _, file := range files {
		total += file.CharCount()
		fmt.Fprintf(w, "%-*s  %4d  %7d\n", width, file.RelativePath, file.Priority, file.CharCount())
	}

	fmt.Fprintln(w, strings.Repeat("-", width+15))
	fmt.Fprintln(w, lipgloss.Info.Render(fmt.Sprintf("%d files, %d / %d characters", len(files), total, rootDependencies.Config.Scan.MaxTotalChars)))
	if warning := budgetWarning(rootDependencies); warning != "" {
		fmt.Fprintln(w, lipgloss.Yellow.Render(warning))
	}
	return nil
}

// charsPerToken is the rough number of source characters per model token.
const charsPerToken = 4

// budgetWarning is non-empty when a full deep scan budget may not fit the configured model's
// input window.
func budgetWarning(rootDependencies *RootDependencies) string {
	providerConfig := rootDependencies.Config.AIProviderConfig
	if providerConfig == nil {
		return ""
	}
	window, ok := rootDependencies.TokenManagement.MaxInputTokens(providerConfig.Provider, providerConfig.Model)
	if !ok {
		return ""
	}
	estimated := rootDependencies.Config.Scan.MaxTotalChars / charsPerToken
	if estimated <= window {
		return ""
	}
	return fmt.Sprintf("A budget of %d characters is about %d tokens, more than the %d token input window of %s.",
		rootDependencies.Config.Scan.MaxTotalChars, estimated, window, providerConfig.Model)
}
