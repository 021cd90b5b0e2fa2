package cmd

import (
	"fmt"
	"strconv"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/skillpath/internal/skillgraph"
	"github.com/abhisek/skillpath/internal/ui/layout"
	"github.com/abhisek/skillpath/internal/ui/theme"
)

var threadCmd = &cobra.Command{
	Use:   "thread",
	Short: "Create and list learning threads",
}

var threadCreateCmd = &cobra.Command{
	Use:   "create <graph-file>",
	Short: "Start a thread from a YAML, JSON, or XLSX skill graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		draft, err := skillgraph.LoadDraft(args[0])
		if err != nil {
			return err
		}
		title, _ := cmd.Flags().GetString("title")

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		svc, err := e.newTutor(ctx, nil, false)
		if err != nil {
			return err
		}
		th, err := svc.CreateThread(ctx, userFlag(cmd), title, draft)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		lipgloss.Fprintln(w, theme.Correct.Render("Thread created"))
		lipgloss.Fprintln(w, layout.KeyValue("ID", th.ID))
		lipgloss.Fprintln(w, layout.KeyValue("Title", th.Title))
		lipgloss.Fprintln(w, layout.KeyValue("Skills", strconv.Itoa(len(draft.Nodes))))
		return nil
	},
}

var threadListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the learner's threads, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		svc, err := e.newTutor(ctx, nil, false)
		if err != nil {
			return err
		}
		threads, err := svc.Threads(ctx, userFlag(cmd))
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if len(threads) == 0 {
			lipgloss.Fprintln(w, theme.Hint.Render("No threads yet. Start one with: skillpath thread create <graph-file>"))
			return nil
		}
		for _, th := range threads {
			lipgloss.Fprintln(w, fmt.Sprintf("%s  %s  %s",
				theme.Dim.Render(th.ID),
				theme.Dim.Render(th.CreatedAt.Local().Format("2006-01-02 15:04")),
				theme.Body.Render(th.Title),
			))
		}
		return nil
	},
}

func init() {
	threadCreateCmd.Flags().StringP("title", "t", "", "Thread title (defaults to the graph title)")

	threadCmd.AddCommand(threadCreateCmd)
	threadCmd.AddCommand(threadListCmd)
}
