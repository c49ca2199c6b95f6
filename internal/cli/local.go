package cli

import (
	"context"
	"fmt"
	"io"

	"knotquiz/internal/config"
	"knotquiz/internal/infra/sqlite"

	"github.com/spf13/cobra"
)

// NewLocalCmd inspects and clears the leaderboard kept on this machine.
func NewLocalCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "local",
		Short: "Show or reset the local leaderboard",
	}

	show := &cobra.Command{
		Use:   "show <quiz-id>",
		Short: "Print the local standings of a quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runLocalShow(cmd.Context(), cfg, cmd.OutOrStdout(), args[0])
		},
	}
	reset := &cobra.Command{
		Use:   "reset <quiz-id>",
		Short: "Clear the local standings of a quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runLocalReset(cmd.Context(), cfg, cmd.OutOrStdout(), args[0])
		},
	}
	cmd.AddCommand(show, reset)
	return cmd
}

func runLocalShow(ctx context.Context, cfg config.Config, out io.Writer, quizID string) error {
	board, err := sqlite.Open(cfg.Local.Path, cfg.Leaderboard.LocalCapacity)
	if err != nil {
		return err
	}
	defer board.Close()
	return printStandings(ctx, board, out, quizID)
}

func printStandings(ctx context.Context, board *sqlite.LocalBoard, out io.Writer, quizID string) error {
	standings, err := board.List(ctx, quizID)
	if err != nil {
		return err
	}
	if len(standings) == 0 {
		fmt.Fprintf(out, "No local scores for %s.\n", quizID)
		return nil
	}
	for _, e := range standings {
		fmt.Fprintf(out, "%d. %s  %d/%d  %s\n", e.Rank, e.PlayerName, e.Score, e.TotalQuestions, formatElapsed(e.ElapsedMs))
	}
	return nil
}

func runLocalReset(ctx context.Context, cfg config.Config, out io.Writer, quizID string) error {
	board, err := sqlite.Open(cfg.Local.Path, cfg.Leaderboard.LocalCapacity)
	if err != nil {
		return err
	}
	defer board.Close()
	if err := board.Reset(ctx, quizID); err != nil {
		return err
	}
	fmt.Fprintf(out, "Local scores for %s cleared.\n", quizID)
	return nil
}
