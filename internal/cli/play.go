package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"knotquiz/internal/app"
	"knotquiz/internal/config"
	"knotquiz/internal/domain"
	"knotquiz/internal/infra/sqlite"
	"knotquiz/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errInputClosed = errors.New("input closed")

// NewPlayCmd runs a quiz interactively in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var opts playOptions
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := logging.New(cfg)
			defer logger.Sync()
			return runPlay(cmd.Context(), cfg, logger, cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.quizID, "quiz", "", "quiz id (prompted when empty)")
	cmd.Flags().StringVar(&opts.name, "name", "", "player name for leaderboards")
	return cmd
}

type playOptions struct {
	quizID string
	name   string
	// rankWait bounds how long to wait for the global rank after submitting.
	rankWait time.Duration
}

type player struct {
	svc    *services
	board  *sqlite.LocalBoard
	in     *bufio.Scanner
	out    io.Writer
	global bool
	wait   time.Duration
	logger *zap.Logger
}

func runPlay(ctx context.Context, cfg config.Config, logger *zap.Logger, in io.Reader, out io.Writer, opts playOptions) error {
	svc, err := buildServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	board, err := sqlite.Open(cfg.Local.Path, cfg.Leaderboard.LocalCapacity)
	if err != nil {
		return err
	}
	defer board.Close()

	p := &player{
		svc:    svc,
		board:  board,
		in:     bufio.NewScanner(in),
		out:    out,
		global: cfg.HighScores.Backend != "" && cfg.HighScores.Backend != "memory",
		wait:   opts.rankWait,
		logger: logger,
	}
	if p.wait <= 0 {
		p.wait = 5 * time.Second
	}

	quizID := opts.quizID
	if quizID == "" {
		if quizID, err = p.chooseQuiz(ctx); err != nil {
			return err
		}
	}
	name := strings.TrimSpace(opts.name)
	for name == "" {
		if name, err = p.ask("Your name: "); err != nil {
			return err
		}
		name = strings.TrimSpace(name)
	}

	view, err := svc.sessions.Start(ctx, quizID)
	if err != nil {
		return err
	}
	defer svc.sessions.Discard(context.Background(), view.ID)

	for {
		if view, err = p.playRun(ctx, view); err != nil {
			return err
		}
		if err := p.finish(ctx, view, name); err != nil {
			return err
		}
		again, err := p.ask("Retake? [y/N] ")
		if err != nil || !strings.EqualFold(strings.TrimSpace(again), "y") {
			return nil
		}
		if view, err = svc.sessions.Retake(ctx, view.ID); err != nil {
			return err
		}
	}
}

func (p *player) chooseQuiz(ctx context.Context) (string, error) {
	summaries, err := p.svc.quizzes.List(ctx)
	if err != nil {
		return "", err
	}
	if len(summaries) == 0 {
		return "", domain.ErrQuizNotFound
	}
	for i, s := range summaries {
		fmt.Fprintf(p.out, "%d) %s (%d questions)\n", i+1, s.QuizName, s.QuestionCount)
	}
	for {
		line, err := p.ask("Quiz: ")
		if err != nil {
			return "", err
		}
		if n, ok := pick(line, len(summaries)); ok {
			return summaries[n].QuizID, nil
		}
	}
}

// playRun asks every remaining question of the current attempt.
func (p *player) playRun(ctx context.Context, view app.SessionView) (app.SessionView, error) {
	for view.Current != nil {
		q := view.Current
		fmt.Fprintf(p.out, "\n[%d/%d] %s\n", view.CurrentIndex+1, view.Total, q.Prompt)
		for i, opt := range q.Options {
			fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
		}

		selected, err := p.readSelection(ctx, view)
		if err != nil {
			return view, err
		}
		if _, err := p.svc.sessions.Select(ctx, view.ID, selected); err != nil {
			return view, err
		}
		var answer domain.Answer
		view, answer, err = p.svc.sessions.Advance(ctx, view.ID)
		if err != nil {
			return view, err
		}
		if answer.Correct {
			fmt.Fprintln(p.out, "Correct!")
		} else {
			fmt.Fprintln(p.out, "Wrong.")
		}
	}
	return view, nil
}

func (p *player) readSelection(ctx context.Context, view app.SessionView) ([]string, error) {
	q := view.Current
	switch q.Kind {
	case domain.KindMatching:
		selected := make([]string, 0, len(q.Lefts))
		for _, left := range q.Lefts {
			n, err := p.readPick(ctx, view.ID, left+": ", len(q.Options), false)
			if err != nil {
				return nil, err
			}
			selected = append(selected, q.Options[n[0]])
		}
		return selected, nil
	case domain.KindMulti:
		n, err := p.readPick(ctx, view.ID, "Answers (comma separated, p to pause): ", len(q.Options), true)
		if err != nil {
			return nil, err
		}
		selected := make([]string, 0, len(n))
		for _, i := range n {
			selected = append(selected, q.Options[i])
		}
		return selected, nil
	default:
		n, err := p.readPick(ctx, view.ID, "Answer (p to pause): ", len(q.Options), false)
		if err != nil {
			return nil, err
		}
		return []string{q.Options[n[0]]}, nil
	}
}

// readPick reads option numbers until a valid line is entered. "p" pauses
// the session timer until the next line.
func (p *player) readPick(ctx context.Context, sessionID, prompt string, count int, many bool) ([]int, error) {
	for {
		line, err := p.ask(prompt)
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if strings.EqualFold(line, "p") {
			if err := p.pause(ctx, sessionID); err != nil {
				return nil, err
			}
			continue
		}
		fields := []string{line}
		if many {
			fields = strings.Split(line, ",")
		}
		picks := make([]int, 0, len(fields))
		seen := make(map[int]bool, len(fields))
		valid := true
		for _, f := range fields {
			n, ok := pick(f, count)
			if !ok || seen[n] {
				valid = false
				break
			}
			seen[n] = true
			picks = append(picks, n)
		}
		if valid && len(picks) > 0 {
			return picks, nil
		}
		fmt.Fprintf(p.out, "Enter a number between 1 and %d.\n", count)
	}
}

func (p *player) pause(ctx context.Context, sessionID string) error {
	view, err := p.svc.sessions.Pause(ctx, sessionID)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "Paused at %s.\n", formatElapsed(view.ElapsedMs))
	if _, err := p.ask("Press enter to resume."); err != nil {
		return err
	}
	_, err = p.svc.sessions.Resume(ctx, sessionID)
	return err
}

// finish reports the result, records it locally and submits it globally.
func (p *player) finish(ctx context.Context, view app.SessionView, name string) error {
	fmt.Fprintf(p.out, "\nScore: %d/%d in %s\n", view.Score, view.Total, formatElapsed(view.ElapsedMs))
	if view.Total == 0 {
		return nil
	}

	run := domain.Run{Score: view.Score, TimeMs: view.ElapsedMs}
	entry, err := p.svc.highScores.NewEntry(view.QuizID, name, run, view.Total)
	if err != nil {
		return err
	}
	local, err := p.board.Record(ctx, entry)
	if err != nil {
		fmt.Fprintf(p.out, "Local leaderboard unavailable: %v\n", err)
	} else {
		fmt.Fprintln(p.out, describeRank("Local", local))
		if err := printStandings(ctx, p.board, p.out, view.QuizID); err != nil {
			p.logger.Warn("local standings unavailable", zap.Error(err))
		}
	}

	if !p.global {
		return nil
	}
	updates, cancel := p.svc.sessions.Notifier().Subscribe(view.ID)
	defer cancel()
	if _, err := p.svc.sessions.SubmitHighScore(ctx, view.ID, name); err != nil {
		fmt.Fprintf(p.out, "Global leaderboard unavailable: %v\n", err)
		return nil
	}

	timeout := time.NewTimer(p.wait)
	defer timeout.Stop()
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.GlobalRank != nil && update.GlobalRank.Version == view.Version {
				fmt.Fprintln(p.out, describeRank("Global", *update.GlobalRank))
				return nil
			}
		case <-timeout.C:
			p.logger.Warn("global rank not received", zap.String("session_id", view.ID))
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *player) ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", errInputClosed
	}
	return p.in.Text(), nil
}

// pick parses a 1-based option number into an index.
func pick(s string, count int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > count {
		return 0, false
	}
	return n - 1, true
}

func describeRank(board string, r app.RankResult) string {
	if !r.Eligible {
		return fmt.Sprintf("%s rank: not on the leaderboard", board)
	}
	return fmt.Sprintf("%s rank: #%d", board, r.Rank)
}

func formatElapsed(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).Round(time.Millisecond).String()
}
