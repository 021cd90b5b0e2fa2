package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "skillpath",
	Short: "Mastery tracking and practice selection over skill graphs",
	Long: `skillpath tracks a learner's mastery of every skill in a prerequisite graph
and picks what to practice next: remediation first, then due reviews, then the
skills whose prerequisites are mastered.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides db_path and SKILLPATH_DB)")
	pf.String("config", "", "Path to YAML config file (overrides SKILLPATH_CONFIG)")
	pf.StringP("user", "u", defaultUser(), "Learner ID")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(threadCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

func defaultUser() string {
	if u := os.Getenv("SKILLPATH_USER"); u != "" {
		return u
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}
