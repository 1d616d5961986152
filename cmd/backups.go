package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/meysamhadeli/codebro/code_writer/models"
	"github.com/meysamhadeli/codebro/constants/lipgloss"
	"github.com/meysamhadeli/codebro/utils"
	"github.com/spf13/cobra"
)

type backupsOptions struct {
	stats    bool
	clean    bool
	clear    bool
	force    bool
	dryRun   bool
	maxAge   time.Duration
	maxFiles int
}

// backupsCmd represents the backups command
var backupsCmd = &cobra.Command{
	Use:   "backups <path>",
	Short: "List, summarise, prune or clear the backups codebro kept for a project",
	Long: `The 'backups' command manages the project's backup directory (.codebro/backups by default), where
every file is copied before codebro overwrites or deletes it. Without flags it lists the backups.
Use --clean with --max-age and/or --max-files to prune old backups, or --clear to remove all of them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var options backupsOptions
		options.stats, _ = cmd.Flags().GetBool("stats")
		options.clean, _ = cmd.Flags().GetBool("clean")
		options.clear, _ = cmd.Flags().GetBool("clear")
		options.force, _ = cmd.Flags().GetBool("force")
		options.dryRun, _ = cmd.Flags().GetBool("dry-run")
		options.maxAge, _ = cmd.Flags().GetDuration("max-age")
		options.maxFiles, _ = cmd.Flags().GetInt("max-files")

		rootDependencies, err := handleRootCommand(cmd, args[0], false)
		if err != nil {
			return err
		}
		defer rootDependencies.Close()

		return handleBackupsCommand(os.Stdout, bufio.NewReader(os.Stdin), rootDependencies, options)
	},
}

func init() {
	// Define command-specific flags
	backupsCmd.Flags().BoolP("stats", "s", false, "Show backup statistics")
	backupsCmd.Flags().Bool("clean", false, "Remove old backups according to --max-age and --max-files")
	backupsCmd.Flags().Duration("max-age", 7*24*time.Hour, "With --clean, remove backups older than this")
	backupsCmd.Flags().Int("max-files", 0, "With --clean, keep at most this many backups (0 for no limit)")
	backupsCmd.Flags().Bool("dry-run", false, "With --clean, only report what would be removed")
	backupsCmd.Flags().Bool("clear", false, "Remove every backup")
	backupsCmd.Flags().BoolP("force", "f", false, "Clear backups without confirmation")

	rootCmd.AddCommand(backupsCmd)
}

func handleBackupsCommand(w io.Writer, reader *bufio.Reader, rootDependencies *RootDependencies, options backupsOptions) error {
	store := rootDependencies.Backups

	switch {
	case options.stats:
		stats, err := store.Stats()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, lipgloss.Info.Render("Backup Statistics:"))
		fmt.Fprintf(w, "  Backup Directory: %s\n", stats.Dir)
		fmt.Fprintf(w, "  Backed up Files: %d\n", stats.Files)
		fmt.Fprintf(w, "  Total Size: %.2f KB\n", float64(stats.TotalSize)/1024)
		if stats.Files > 0 {
			fmt.Fprintf(w, "  Oldest: %s\n", stats.OldestTime.Format(time.RFC3339))
			fmt.Fprintf(w, "  Newest: %s\n", stats.NewestTime.Format(time.RFC3339))
		}
		return nil

	case options.clean:
		result, err := store.Cleanup(models.BackupCleanupOptions{
			MaxAge:   options.maxAge,
			MaxFiles: options.maxFiles,
			DryRun:   options.dryRun,
		})
		if err != nil {
			return err
		}
		verb := "Removed"
		if result.DryRun {
			verb = "Would remove"
		}
		for _, removed := range result.Removed {
			fmt.Fprintf(w, "  %s\n", removed)
		}
		fmt.Fprintln(w, lipgloss.Green.Render(fmt.Sprintf("%s %d of %d backups (%d by age, %d by count), %.2f KB.",
			verb, len(result.Removed), result.FilesBefore, result.RemovedByAge, result.RemovedByCount, float64(result.FreedBytes)/1024)))
		return nil

	case options.clear:
		if !options.force {
			confirmed, err := utils.ConfirmPrompt("Are you sure you want to remove every backup of this project?", reader)
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Fprintln(w, lipgloss.Yellow.Render("Backup removal cancelled."))
				return nil
			}
		}

		spinner := startSpinner("Removing backups...")
		if err := store.Clear(); err != nil {
			spinner.fail(fmt.Sprintf("Error removing backups: %v", err))
			return err
		}
		spinner.succeed("All backups have been removed.")
		return nil

	default:
		entries, err := store.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(w, lipgloss.Yellow.Render("No backups found."))
			return nil
		}
		for _, entry := range entries {
			fmt.Fprintf(w, "%s  %8d  %s\n", entry.ModTime.Format("2006-01-02 15:04:05"), entry.Size, entry.RelativePath)
		}
		return nil
	}
}
