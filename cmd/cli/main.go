package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"sambou/internal"
	"sambou/internal/config"
	"sambou/internal/container"
	"sambou/internal/deadlines"
	"sambou/internal/workflow"
	"sambou/models"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const dateFormat = "2006-01-02"

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "sambou-cli",
		Short: "Terminal client for the application preparation workflow",
	}

	rootCmd.AddCommand(
		newChatCmd(),
		newDeadlinesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newChatCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Build a profile, rank departments and review deadlines in the terminal",
		Long: `Runs the full workflow against the configured oracles.

Provider selection follows the server configuration:
- LLM_PROVIDER=openai|gemini|heuristic (default: inferred from the API keys present)
- OPENAI_API_KEY / GEMINI_API_KEY
- LLM_MODEL (optional)

Type "reset" at any prompt to start over and "quit" to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := internal.NewLogger(internal.ParseLogLevel(logLevel), "console")
			defer logger.Sync()

			c, err := container.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer c.Close(context.Background())

			return runChat(cmd.Context(), c.Registry.Create(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "error", "Log level (error, warn, info, debug)")
	return cmd
}

func newDeadlinesCmd() *cobra.Command {
	var catalogFile string
	var deadlinesFile string
	var xlsxOut string

	cmd := &cobra.Command{
		Use:   "deadlines",
		Short: "Print the department catalog with application windows",
		Long: `Prints every candidate department and its application window.

Example: sambou-cli deadlines --deadlines-file windows.xlsx --xlsx export.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := deadlines.DefaultCatalog()
			if catalogFile != "" {
				loaded, err := deadlines.LoadCatalog(catalogFile)
				if err != nil {
					return err
				}
				catalog = loaded
			}
			if deadlinesFile != "" {
				windows, err := deadlines.ReadWindows(deadlinesFile)
				if err != nil {
					return err
				}
				if catalog, err = catalog.WithWindows(windows); err != nil {
					return err
				}
			}

			if err := printCatalog(cmd.OutOrStdout(), catalog); err != nil {
				return err
			}
			if xlsxOut == "" {
				return nil
			}
			f, err := os.Create(xlsxOut)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := deadlines.WriteWorkbook(f, catalog.Windows()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nwrote %s\n", xlsxOut)
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogFile, "catalog", "", "YAML catalog replacing the built-in one")
	cmd.Flags().StringVar(&deadlinesFile, "deadlines-file", "", ".xlsx or .csv file with deadline windows")
	cmd.Flags().StringVar(&xlsxOut, "xlsx", "", "Export the windows to this .xlsx file")
	return cmd
}

func printCatalog(out io.Writer, catalog *deadlines.Catalog) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DEPARTMENT\tOPENS\tDEADLINE\t")
	for _, name := range catalog.Departments() {
		w, fallback := catalog.Lookup(name)
		marker := ""
		if fallback {
			marker = "(default window)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, w.ApplicationOpen.Format(dateFormat), w.ApplicationDeadline.Format(dateFormat), marker)
	}
	return tw.Flush()
}

// chatSession drives one controller from line-oriented input
type chatSession struct {
	ctrl    *workflow.Controller
	in      *bufio.Scanner
	out     io.Writer
	printed int // transcript entries already shown
	notices int
}

func runChat(ctx context.Context, ctrl *workflow.Controller, in io.Reader, out io.Writer) error {
	s := &chatSession{ctrl: ctrl, in: bufio.NewScanner(in), out: out}

	snap, err := ctrl.Start(ctx)
	if err != nil {
		return err
	}
	s.show(snap)

	for {
		line, ok := s.prompt(snap.Stage)
		if !ok || line == "quit" {
			return nil
		}
		if line == "reset" {
			s.printed, s.notices = 0, 0
			snap, err = ctrl.Reset(ctx)
			if err != nil {
				return err
			}
			s.show(snap)
			continue
		}

		switch snap.Stage {
		case models.StageProfile:
			if snap.EvaluationFailed {
				snap, err = ctrl.RetryEvaluation(ctx)
			} else {
				snap, err = ctrl.SubmitAnswer(ctx, line)
			}
		case models.StageEvaluation:
			snap, err = s.selectDepartments(snap, line)
		case models.StageDeadlines:
			err = s.showAdvice(ctx, snap, line)
			snap = ctrl.Snapshot()
		}
		if err != nil {
			fmt.Fprintf(s.out, "! %v\n", err)
			snap = ctrl.Snapshot()
		}
		s.show(snap)
	}
}

func (s *chatSession) prompt(stage models.WorkflowStage) (string, bool) {
	switch stage {
	case models.StageEvaluation:
		fmt.Fprint(s.out, "select (e.g. 1,3)> ")
	case models.StageDeadlines:
		fmt.Fprint(s.out, "advice for #> ")
	default:
		fmt.Fprint(s.out, "> ")
	}
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *chatSession) show(snap workflow.Snapshot) {
	for _, e := range snap.Transcript[min(s.printed, len(snap.Transcript)):] {
		if e.Speaker == models.SpeakerSystem {
			fmt.Fprintf(s.out, "advisor: %s\n", e.Text)
		}
	}
	s.printed = len(snap.Transcript)

	for _, n := range snap.Notices[min(s.notices, len(snap.Notices)):] {
		fmt.Fprintf(s.out, "[%s] %s\n", n.Title, n.Description)
	}
	s.notices = len(snap.Notices)

	switch snap.Stage {
	case models.StageProfile:
		if snap.EvaluationFailed {
			fmt.Fprintln(s.out, "press enter to retry the evaluation")
		}
	case models.StageEvaluation:
		if len(snap.Rankings) == 0 {
			fmt.Fprintln(s.out, "no departments to choose from; type reset to start over")
			return
		}
		for i, r := range snap.Rankings {
			fmt.Fprintf(s.out, "%2d. %-60s %4.1f  %s\n", i+1, r.Key().Label(), r.Ranking, r.Reason)
		}
	case models.StageDeadlines:
		if timeline, err := s.ctrl.Deadlines(); err == nil {
			for i, row := range timeline.Rows {
				fmt.Fprintf(s.out, "%2d. %-60s %s -> %s\n", i+1, row.Name,
					row.ApplicationOpen.Format(dateFormat), row.ApplicationDeadline.Format(dateFormat))
			}
		}
	}
}

func (s *chatSession) selectDepartments(snap workflow.Snapshot, line string) (workflow.Snapshot, error) {
	picks, err := parseIndexes(line, len(snap.Rankings))
	if err != nil {
		return snap, err
	}
	keys := make([]models.DepartmentKey, 0, len(picks))
	for _, i := range picks {
		keys = append(keys, snap.Rankings[i].Key())
	}
	return s.ctrl.ConfirmSelection(keys)
}

func (s *chatSession) showAdvice(ctx context.Context, snap workflow.Snapshot, line string) error {
	picks, err := parseIndexes(line, len(snap.Selected))
	if err != nil || len(picks) != 1 {
		return fmt.Errorf("enter one number between 1 and %d", len(snap.Selected))
	}
	state, err := s.ctrl.RequestSnippets(ctx, snap.Selected[picks[0]].Key())
	if err != nil {
		return err
	}
	if state.Result == nil {
		return nil
	}
	r := state.Result
	for _, section := range []struct{ title, body string }{
		{"Personal statement focus", r.PersonalStatementFocus},
		{"Why this program", r.WhyThisProgram},
		{"Skills to highlight", r.RelevantSkillsHighlight},
		{"Career goals alignment", r.CareerGoalsAlignment},
		{"Questions to prepare", r.PotentialQuestionsToPrepare},
	} {
		if strings.TrimSpace(section.body) == "" {
			continue
		}
		fmt.Fprintf(s.out, "\n## %s\n%s\n", section.title, section.body)
	}
	fmt.Fprintln(s.out)
	return nil
}

// parseIndexes reads 1-based comma or space separated numbers into 0-based indexes
func parseIndexes(line string, n int) ([]int, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		i, err := strconv.Atoi(f)
		if err != nil || i < 1 || i > n {
			return nil, fmt.Errorf("%q is not between 1 and %d", f, n)
		}
		out = append(out, i-1)
	}
	return out, nil
}
