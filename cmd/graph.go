package cmd

import (
	"errors"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/skillpath/internal/mastery"
	"github.com/abhisek/skillpath/internal/skillgraph"
	"github.com/abhisek/skillpath/internal/ui/views"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect skill graphs",
}

var graphShowCmd = &cobra.Command{
	Use:   "show [graph-file]",
	Short: "Draw a skill graph file, or a thread's graph with --thread",
	Long: `Draw a skill graph in prerequisite order. With a file argument the graph is
validated and drawn without touching the database. With --thread the stored
graph is drawn and colored by the learner's mastery.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		threadID, _ := cmd.Flags().GetString("thread")
		showIDs, _ := cmd.Flags().GetBool("ids")
		opts := views.MapOptions{ShowIDs: showIDs, Width: termWidth()}

		var g *skillgraph.Graph
		switch {
		case len(args) == 1 && threadID != "":
			return errors.New("pass either a graph file or --thread, not both")
		case len(args) == 1:
			draft, err := skillgraph.LoadDraft(args[0])
			if err != nil {
				return err
			}
			if g, err = draft.Preview(); err != nil {
				return err
			}
			opts.Title = draft.Title
		case threadID != "":
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
			ts, err := svc.Progress(ctx, userFlag(cmd), threadID)
			if err != nil {
				return err
			}
			if g, err = e.store.ThreadRepo().Graph(ctx, threadID); err != nil {
				return err
			}
			opts.Title = ts.Thread.Title
			opts.Statuses = make(map[string]mastery.Status, len(ts.Nodes))
			for _, n := range ts.Nodes {
				opts.Statuses[n.NodeID] = n.Status
			}
		default:
			return errors.New("a graph file or --thread is required")
		}

		lipgloss.Fprint(cmd.OutOrStdout(), views.SkillMap(g, opts))
		return nil
	},
}

func init() {
	graphShowCmd.Flags().String("thread", "", "Thread whose graph to draw")
	graphShowCmd.Flags().Bool("ids", false, "Show node IDs")

	graphCmd.AddCommand(graphShowCmd)
}
