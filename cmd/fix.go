package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"

	"github.com/meysamhadeli/codebro/code_analyzer"
	"github.com/meysamhadeli/codebro/code_analyzer/models"
	"github.com/meysamhadeli/codebro/code_writer"
	"github.com/meysamhadeli/codebro/constants/lipgloss"
	"github.com/meysamhadeli/codebro/providers"
	providerModels "github.com/meysamhadeli/codebro/providers/models"
	"github.com/meysamhadeli/codebro/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const fixContextHint = "Initial Architecture Planning"

// fixCmd: codebro fix <path>
var fixCmd = &cobra.Command{
	Use:   "fix <path>",
	Short: "Build a roadmap and implement it step by step, reviewing every file change.",
	Long: `The 'fix' subcommand asks the model for a roadmap from the project map and package.json, then
enters an interactive loop. Type 'step N' to implement a roadmap step: you choose which file the model
gets to see, review a diff of every proposed change and confirm it before anything is written.
Overwritten and deleted files are backed up first. Type 'exit' or 'quit' to leave.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd, args[0], true)
		if err != nil {
			return err
		}
		defer rootDependencies.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		go utils.GracefulShutdown(ctx, cancel, func() {
			rootDependencies.ChatHistory.ClearHistory()
		})

		return handleFixCommand(ctx, rootDependencies, bufio.NewReader(os.Stdin))
	},
}

func init() {
	rootCmd.AddCommand(fixCmd)
}

func handleFixCommand(ctx context.Context, rootDependencies *RootDependencies, reader *bufio.Reader) error {
	fmt.Println(lipgloss.Info.Render(fmt.Sprintf("Initiating Fix Mode: %s", rootDependencies.Cwd)))

	mapSpinner := startSpinner("Mapping project structure...")
	projectMap, err := rootDependencies.Analyzer.ShallowScan(rootDependencies.Cwd)
	if err != nil {
		mapSpinner.fail("Failed to map directory.")
		return err
	}
	mapSpinner.succeed("Project map generated.")

	systemPrompt, err := rootDependencies.Analyzer.FixSystemPrompt()
	if err != nil {
		return err
	}
	packageJSON, _ := rootDependencies.Analyzer.ReadFile(rootDependencies.Cwd, "package.json")

	rootDependencies.ChatHistory.AddToHistory(providerModels.RoleSystem, systemPrompt)
	rootDependencies.ChatHistory.AddToHistory(providerModels.RoleUser, rootDependencies.Analyzer.GenerateFixInitialPrompt(projectMap, packageJSON))

	provider := rootDependencies.CurrentChatProvider
	analysisSpinner := startSpinner(fmt.Sprintf("%s is architecting a solution...", providerDisplayName(provider.Name())))
	response, err := provider.ChatCompletionRequest(ctx, providers.WithContext(provider, fixContextHint, rootDependencies.ChatHistory.GetHistory()))
	if err != nil {
		analysisSpinner.fail(fmt.Sprintf("Analysis failed: %v", err))
		return err
	}
	analysisSpinner.succeed("Plan ready.")
	rootDependencies.ChatHistory.AddToHistory(providerModels.RoleAssistant, response)

	roadmap := rootDependencies.Analyzer.ParseRoadmap(response)

	fmt.Println(lipgloss.BlueSky.Render("\n--- CODEBRO ROADMAP ---"))
	if err := utils.RenderMarkdownWithContext(ctx, os.Stdout, response, rootDependencies.Config.Theme); err != nil {
		fmt.Println(response)
	}
	if len(roadmap.Plan) == 0 {
		fmt.Println(lipgloss.Yellow.Render("No numbered plan was found in the response; 'step N' commands will not match."))
	}

	for {
		userInput, err := utils.InputPromptWithContext(ctx, "\nNext action (e.g., \"step 1\", \"plan\", \"exit\"):", reader)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, utils.ErrInputClosed) {
				break
			}
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			continue
		}

		command := strings.ToLower(strings.TrimSpace(userInput))
		if command == "" {
			continue
		}

		handled, exit := findFixSubCommand(command, roadmap, rootDependencies)
		if exit {
			break
		}
		if handled {
			continue
		}

		if !strings.Contains(command, "step") {
			fmt.Println(lipgloss.Yellow.Render("Type 'step N' to implement a roadmap step, 'plan' to list it, or 'exit'."))
			continue
		}

		stepIndex, ok := code_analyzer.StepIndex(command)
		if !ok || stepIndex >= len(roadmap.Plan) {
			fmt.Println(lipgloss.Red.Render("Step not found in the current roadmap."))
			continue
		}

		if err := runFixStep(ctx, rootDependencies, reader, roadmap.Plan[stepIndex]); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, utils.ErrInputClosed) {
				break
			}
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Generation failed: %v", err)))
		}
	}

	rootDependencies.TokenManagement.DisplayTokens(provider.Name(), provider.Model())
	fmt.Println(lipgloss.Info.Render("Exiting CodeBro Fix Mode. Happy coding!"))
	return nil
}

func findFixSubCommand(command string, roadmap models.Roadmap, rootDependencies *RootDependencies) (bool, bool) {
	switch command {
	case "exit", "quit", "/exit":
		return false, true
	case "plan":
		if len(roadmap.Plan) == 0 {
			fmt.Println(lipgloss.Yellow.Render("The roadmap has no steps."))
			return true, false
		}
		var sb strings.Builder
		for i, step := range roadmap.Plan {
			sb.WriteString(fmt.Sprintf("%d. %s", i+1, step))
			if i < len(roadmap.Plan)-1 {
				sb.WriteString("\n")
			}
		}
		fmt.Println(lipgloss.BoxStyle.Render(sb.String()))
		return true, false
	case "tokens", "/token":
		provider := rootDependencies.CurrentChatProvider
		rootDependencies.TokenManagement.DisplayTokens(provider.Name(), provider.Model())
		return true, false
	case "help", "/help":
		helps := "step N  Implement step N of the roadmap\nplan  Show the roadmap steps\ntokens  Token information\nexit  Leave fix mode"
		fmt.Println(lipgloss.BoxStyle.Render(helps))
		return true, false
	default:
		return false, false
	}
}

// runFixStep sends one roadmap step with a single target file and walks through the proposed changes.
func runFixStep(ctx context.Context, rootDependencies *RootDependencies, reader *bufio.Reader, step string) error {
	fmt.Println(lipgloss.Info.Render(fmt.Sprintf("\n🚀 Implementing: %s", step)))

	targetFile, err := utils.InputPromptWithContext(ctx, "Which file should I read for this step? (e.g. src/App.tsx)", reader)
	if err != nil {
		return err
	}
	targetFile = strings.TrimSpace(targetFile)
	if targetFile == "" {
		fmt.Println(lipgloss.Yellow.Render("No file given, step skipped."))
		return nil
	}

	fileData, _ := rootDependencies.Analyzer.ReadFile(rootDependencies.Cwd, targetFile)

	rootDependencies.ChatHistory.AddToHistory(providerModels.RoleUser, rootDependencies.Analyzer.GenerateStepPrompt(step, targetFile, fileData))

	provider := rootDependencies.CurrentChatProvider
	fixSpinner := startSpinner(fmt.Sprintf("Reading %s and generating fix...", targetFile))
	response, err := provider.ChatCompletionRequest(ctx, providers.WithContext(provider, fmt.Sprintf("Applying fix to %s", targetFile), rootDependencies.ChatHistory.GetHistory()))
	if err != nil {
		fixSpinner.fail("Generation failed.")
		return err
	}
	fixSpinner.succeed(fmt.Sprintf("Changes suggested for %s.", targetFile))
	rootDependencies.ChatHistory.AddToHistory(providerModels.RoleAssistant, response)

	result := rootDependencies.Analyzer.ParseChanges(response)
	for _, diagnostic := range result.Diagnostics {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Block %d: %s", diagnostic.Segment, diagnostic.Reason)))
	}

	if len(result.Changes) == 0 {
		fmt.Println(lipgloss.Yellow.Render("No file changes found in the response."))
		if err := utils.RenderMarkdownWithContext(ctx, os.Stdout, response, rootDependencies.Config.Theme); err != nil {
			fmt.Println(response)
		}
		return nil
	}

	for _, change := range result.Changes {
		original := fileData
		if !samePath(change.File, targetFile) {
			original, _ = rootDependencies.Analyzer.ReadFile(rootDependencies.Cwd, change.File)
		}
		if err := reviewAndApplyChange(rootDependencies, reader, change, original); err != nil {
			if errors.Is(err, utils.ErrInputClosed) {
				return err
			}
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error applying changes: %v", err)))
		}
	}

	return nil
}

// reviewAndApplyChange shows the diff of one change against the content the model saw and writes
// it after confirmation. original is nil when the file did not exist.
func reviewAndApplyChange(rootDependencies *RootDependencies, reader *bufio.Reader, change models.CodeChange, original *models.ScannedFile) error {
	fmt.Println(lipgloss.Bold.Render(fmt.Sprintf("\nPROPOSED CHANGE: %s (%s)", change.File, change.Action)))

	originalContent, digest := "", ""
	if original != nil {
		originalContent, digest = original.Content, original.Digest()
	}

	newContent, err := rootDependencies.Writer.Preview(change, originalContent)
	if err != nil {
		return err
	}

	rows := code_writer.RenderDiff(originalContent, newContent)
	createsEmptyFile := original == nil && change.Action != models.ActionDelete && newContent == ""
	if !code_writer.HasChanges(rows) && !createsEmptyFile {
		fmt.Println(lipgloss.Gray.Render("No differences, nothing to apply."))
		return nil
	}

	fmt.Println(lipgloss.Bold.Render("--- Proposed Changes ---"))
	if createsEmptyFile {
		fmt.Println(lipgloss.Green.Render("+ (new empty file)"))
	} else {
		fmt.Print(code_writer.FormatDiff(rows))
	}
	fmt.Println(lipgloss.Bold.Render("------------------------"))

	accepted, err := utils.ConfirmPrompt(fmt.Sprintf("Apply this change to %s?", change.File), reader)
	if err != nil {
		return err
	}
	if !accepted {
		fmt.Println(lipgloss.Red.Render("❌ Changes rejected."))
		return nil
	}

	if err := rootDependencies.Writer.VerifyUnchanged(change.File, digest); err != nil {
		return err
	}

	backupPath, err := rootDependencies.Writer.Apply(change, newContent)
	if err != nil {
		return err
	}

	rootDependencies.Logger.Debug("change applied",
		zap.String("file", change.File),
		zap.String("action", string(change.Action)),
		zap.String("backup", backupPath))

	if change.Action == models.ActionDelete {
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔️ Deleted %s", change.File)))
	} else {
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔️ Successfully updated %s", change.File)))
	}
	if backupPath != "" {
		fmt.Println(lipgloss.Gray.Render(fmt.Sprintf("   backup: %s", backupPath)))
	}
	return nil
}

func samePath(a, b string) bool {
	return path.Clean(strings.ReplaceAll(a, "\\", "/")) == path.Clean(strings.ReplaceAll(b, "\\", "/"))
}
