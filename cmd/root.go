package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/meysamhadeli/codebro/chat_history"
	contracts_history "github.com/meysamhadeli/codebro/chat_history/contracts"
	"github.com/meysamhadeli/codebro/code_analyzer"
	contracts_analyzer "github.com/meysamhadeli/codebro/code_analyzer/contracts"
	"github.com/meysamhadeli/codebro/code_writer"
	contracts_writer "github.com/meysamhadeli/codebro/code_writer/contracts"
	"github.com/meysamhadeli/codebro/config"
	"github.com/meysamhadeli/codebro/constants/lipgloss"
	"github.com/meysamhadeli/codebro/providers"
	contracts_provider "github.com/meysamhadeli/codebro/providers/contracts"
	"github.com/meysamhadeli/codebro/token_management"
	contracts_token "github.com/meysamhadeli/codebro/token_management/contracts"
	"github.com/meysamhadeli/codebro/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootDependencies holds everything a subcommand needs for one project directory.
type RootDependencies struct {
	Cwd                 string
	Config              *config.Config
	Logger              *zap.Logger
	Analyzer            contracts_analyzer.ICodeAnalyzer
	Writer              contracts_writer.ICodeWriter
	Backups             contracts_writer.IBackupStore
	TokenManagement     contracts_token.ITokenManagement
	ChatHistory         contracts_history.IChatHistory
	CurrentChatProvider contracts_provider.IChatAIProvider
}

var rootCmd = &cobra.Command{
	Use:   "codebro",
	Short: "codebro turns an incomplete project into a runnable one with the help of an AI model.",
	Long: `codebro maps a project directory, sends a budget-conscious view of it to a chat model
(xAI Grok by default) and applies the file changes the model proposes after you review a diff.

Start with 'codebro analyze <path>' for a roadmap, then 'codebro fix <path>' to implement it step by step.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		if version, _ := cmd.Flags().GetBool("version"); version {
			fmt.Println(lipgloss.BlueSky.Render(fmt.Sprintf("version: %s", config.DefaultConfig.Version)))
			return
		}
		_ = cmd.Help()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd)
}

// handleRootCommand loads configuration for the project at projectPath and wires the analyzer,
// writer and, when withProvider is set, the chat provider.
func handleRootCommand(cmd *cobra.Command, projectPath string, withProvider bool) (*RootDependencies, error) {
	cwd, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project path: %w", err)
	}

	if wd, err := os.Getwd(); err == nil {
		if err := utils.LoadEnv(wd); err != nil {
			return nil, fmt.Errorf("failed to load env files: %w", err)
		}
	}

	cfg, err := config.LoadConfigs(rootCmd, cwd)
	if err != nil {
		return nil, err
	}

	logger, err := utils.NewLogger(cfg.Debug, filepath.Join(cwd, config.LogFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = logger.With(zap.String("command", cmd.Name()))

	analyzer, err := code_analyzer.NewCodeAnalyzer(cwd, cfg.ToSettings(), logger)
	if err != nil {
		return nil, err
	}

	rootDependencies := &RootDependencies{
		Cwd:             cwd,
		Config:          cfg,
		Logger:          logger,
		Analyzer:        analyzer,
		Writer:          code_writer.NewCodeWriter(cwd, cfg.BackupDir, logger),
		Backups:         code_writer.NewBackupStore(cwd, cfg.BackupDir),
		TokenManagement: token_management.NewTokenManager(),
		ChatHistory:     chat_history.NewChatHistory(),
	}

	if withProvider {
		provider, err := providers.NewChatProvider(cfg.AIProviderConfig, rootDependencies.TokenManagement, logger)
		if err != nil {
			return nil, err
		}
		rootDependencies.CurrentChatProvider = provider
	}

	return rootDependencies, nil
}

// Close flushes the diagnostic log.
func (d *RootDependencies) Close() {
	if d != nil && d.Logger != nil {
		_ = d.Logger.Sync()
	}
}
