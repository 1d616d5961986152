package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/meysamhadeli/codebro/code_analyzer"
	"github.com/meysamhadeli/codebro/code_analyzer/models"
	"github.com/meysamhadeli/codebro/constants/lipgloss"
	"github.com/meysamhadeli/codebro/providers"
	providerModels "github.com/meysamhadeli/codebro/providers/models"
	"github.com/meysamhadeli/codebro/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const analyzeContextHint = "High-level architectural planning using project map"

// analyzeCmd: codebro analyze <path>
var analyzeCmd = &cobra.Command{
	Use:   "analyze <path>",
	Short: "Ask the model for a tech-stack summary and a roadmap to make the project runnable.",
	Long: `The 'analyze' subcommand maps the project and sends the map plus its core configuration files
(package.json, tsconfig.json, vite.config.ts, server.js) to the model in a single request.
With --deep, the highest priority source files that fit in the character budget are sent instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deep, _ := cmd.Flags().GetBool("deep")

		rootDependencies, err := handleRootCommand(cmd, args[0], true)
		if err != nil {
			return err
		}
		defer rootDependencies.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		return handleAnalyzeCommand(ctx, rootDependencies, deep)
	},
}

func init() {
	analyzeCmd.Flags().Bool("deep", false, "Send the prioritised file contents within the budget instead of the core files only")
	rootCmd.AddCommand(analyzeCmd)
}

func handleAnalyzeCommand(ctx context.Context, rootDependencies *RootDependencies, deep bool) error {
	fmt.Println(lipgloss.Info.Render(fmt.Sprintf("Analyzing project at: %s", rootDependencies.Cwd)))

	mapSpinner := startSpinner("Mapping project structure...")
	projectMap, err := rootDependencies.Analyzer.ShallowScan(rootDependencies.Cwd)
	if err != nil {
		mapSpinner.fail("Failed to map directory.")
		return err
	}
	mapSpinner.succeed("Project map generated.")

	if projectMap == code_analyzer.NoFilesFound {
		fmt.Println(lipgloss.Yellow.Render("No relevant files found in the directory. Exiting."))
		return nil
	}

	var userPrompt string
	if deep {
		scanSpinner := startSpinner("Reading prioritised project files...")
		files, err := rootDependencies.Analyzer.DeepScan(rootDependencies.Cwd)
		if err != nil {
			scanSpinner.fail("Failed to read project files.")
			return err
		}
		scanSpinner.succeed(fmt.Sprintf("Selected %d files within the %d character budget.", len(files), rootDependencies.Config.Scan.MaxTotalChars))
		if warning := budgetWarning(rootDependencies); warning != "" {
			fmt.Println(lipgloss.Yellow.Render(warning))
		}
		userPrompt = rootDependencies.Analyzer.GenerateDeepAnalyzePrompt(projectMap, files)
	} else {
		fmt.Println(lipgloss.Info.Render("Reading core configuration files..."))
		var coreFiles []models.ScannedFile
		for _, fileName := range code_analyzer.CoreFiles {
			if file, ok := rootDependencies.Analyzer.ReadFile(rootDependencies.Cwd, fileName); ok {
				coreFiles = append(coreFiles, *file)
			}
		}
		userPrompt = rootDependencies.Analyzer.GenerateAnalyzePrompt(projectMap, coreFiles)
	}

	rootDependencies.ChatHistory.AddToHistory(providerModels.RoleSystem, rootDependencies.Analyzer.AnalyzeSystemPrompt())
	rootDependencies.ChatHistory.AddToHistory(providerModels.RoleUser, userPrompt)

	provider := rootDependencies.CurrentChatProvider
	aiSpinner := startSpinner(fmt.Sprintf("%s is architecting a solution...", providerDisplayName(provider.Name())))
	response, err := provider.ChatCompletionRequest(ctx, providers.WithContext(provider, analyzeContextHint, rootDependencies.ChatHistory.GetHistory()))
	if err != nil {
		aiSpinner.fail("Analysis failed.")
		rootDependencies.Logger.Debug("analysis request failed", zap.Error(err))
		return fmt.Errorf("error during AI request: %w", err)
	}
	aiSpinner.succeed("Analysis complete!")
	rootDependencies.ChatHistory.AddToHistory(providerModels.RoleAssistant, response)

	fmt.Println(lipgloss.Green.Render("\n--- Codebase Analysis and Plan ---"))
	if err := utils.RenderMarkdownWithContext(ctx, os.Stdout, response, rootDependencies.Config.Theme); err != nil {
		fmt.Println(response)
	}
	fmt.Println(lipgloss.Green.Render("----------------------------------"))

	printRoadmapSummary(rootDependencies.Analyzer.ParseRoadmap(response))

	fmt.Println(lipgloss.Info.Render("\nNext step: Run \"codebro fix <path>\" to start implementing this plan."))
	rootDependencies.TokenManagement.DisplayTokens(provider.Name(), provider.Model())
	return nil
}

func printRoadmapSummary(roadmap models.Roadmap) {
	if len(roadmap.TechStack) > 0 {
		fmt.Println(lipgloss.Bold.Render("Tech Stack: ") + strings.Join(roadmap.TechStack, ", "))
	}
	if len(roadmap.Issues) > 0 {
		fmt.Println(lipgloss.Bold.Render(fmt.Sprintf("Issues: %d", len(roadmap.Issues))))
	}
	if len(roadmap.Plan) > 0 {
		fmt.Println(lipgloss.Bold.Render(fmt.Sprintf("Plan: %d steps", len(roadmap.Plan))))
	}
}

func providerDisplayName(name string) string {
	switch name {
	case "xai", "grok":
		return "Grok"
	case "openai":
		return "ChatGPT"
	case "ollama":
		return "Local AI"
	default:
		return "AI"
	}
}
