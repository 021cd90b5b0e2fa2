package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/skillpath/internal/skillgraph"
	"github.com/abhisek/skillpath/internal/tutor"
	"github.com/abhisek/skillpath/internal/ui/theme"
	"github.com/abhisek/skillpath/internal/ui/views"
)

var nextCmd = &cobra.Command{
	Use:   "next <thread-id>",
	Short: "Pick the next skill to practice and generate an exercise",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		threadID := args[0]
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		svc, err := e.newTutor(ctx, nil, true)
		if err != nil {
			return err
		}

		user := userFlag(cmd)
		step, err := svc.Next(ctx, user, threadID)
		if err != nil && !errors.Is(err, tutor.ErrContentUnavailable) {
			return err
		}
		contentErr := err

		g, err := e.store.ThreadRepo().Graph(ctx, threadID)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		width := termWidth()
		lipgloss.Fprint(w, views.Step(step, g, width))

		if contentErr != nil {
			lipgloss.Fprintln(w, theme.Warning.Render("No exercise could be generated: "+contentErr.Error()))
			return nil
		}
		if step.Exercise == nil {
			return nil
		}

		interactive, _ := cmd.Flags().GetBool("interactive")
		if !interactive {
			lipgloss.Fprintln(w, theme.Hint.Render(fmt.Sprintf(
				"Answer with --interactive, or record an attempt graded elsewhere: skillpath submit %s %s --correct",
				threadID, step.Head.NodeID)))
			return nil
		}

		answer, err := readAnswer(cmd.InOrStdin(), w)
		if err != nil {
			return err
		}
		res, err := svc.Submit(ctx, user, threadID, step.Head.NodeID, tutor.Attempt{
			ExerciseID: step.Exercise.ID,
			Answer:     answer,
		})
		if err != nil {
			return err
		}
		lipgloss.Fprint(w, views.Result(res, g, width))
		return nil
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit <thread-id> <node-id>",
	Short: "Record an attempt graded outside skillpath",
	Long: `Record an attempt that was graded elsewhere. Pass --correct for a pass,
--score for partial credit in [0,1], and --tag for each misconception shown.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		threadID, nodeID := args[0], args[1]
		flags := cmd.Flags()

		correct, _ := flags.GetBool("correct")
		modality, _ := flags.GetString("modality")
		tags, _ := flags.GetStringSlice("tag")
		strength, _ := flags.GetFloat64("format-strength")
		attempt := tutor.Attempt{
			Correct:        correct,
			Tags:           tags,
			Modality:       skillgraph.Modality(modality),
			FormatStrength: strength,
		}
		if flags.Changed("score") {
			score, _ := flags.GetFloat64("score")
			attempt.Score = &score
		}

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
		res, err := svc.Submit(ctx, userFlag(cmd), threadID, nodeID, attempt)
		if err != nil {
			return err
		}
		g, err := e.store.ThreadRepo().Graph(ctx, threadID)
		if err != nil {
			return err
		}
		lipgloss.Fprint(cmd.OutOrStdout(), views.Result(res, g, termWidth()))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <thread-id>",
	Short: "Show mastery of every skill in a thread",
	Args:  cobra.ExactArgs(1),
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
		ts, err := svc.Progress(ctx, userFlag(cmd), args[0])
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(ts)
		}
		lipgloss.Fprint(w, views.Status(ts, termWidth()))
		return nil
	},
}

// readAnswer prompts for one line of input.
func readAnswer(in io.Reader, out io.Writer) (string, error) {
	lipgloss.Fprint(out, theme.Title.Render("> "))
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read answer: %w", err)
	}
	answer := strings.TrimSpace(line)
	if answer == "" {
		return "", errors.New("no answer given")
	}
	return answer, nil
}

func init() {
	nextCmd.Flags().BoolP("interactive", "i", false, "Read an answer from stdin and grade it")

	submitCmd.Flags().Bool("correct", false, "The attempt passed")
	submitCmd.Flags().Float64("score", 0, "Partial credit in [0,1]; overrides --correct for scoring")
	submitCmd.Flags().StringP("modality", "m", "", "Exercise format, e.g. flashcard, multiple_choice, confirmation")
	submitCmd.Flags().StringSlice("tag", nil, "Misconception tag exhibited (repeatable)")
	submitCmd.Flags().Float64("format-strength", 0, "Evidence weight in (0,1]; zero means full weight")

	statusCmd.Flags().Bool("json", false, "Print the report as JSON")
}
