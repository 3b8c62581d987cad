// Command assessctl lists, validates and scores assessment tests and reopens
// shared results without a running server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	service "github.com/okian/assess/internal/app"
	"github.com/okian/assess/internal/domain/catalog"
	"github.com/okian/assess/internal/loadtest"
	"github.com/okian/assess/pkg/logger"
)

// ErrValidation reports that at least one definition file failed to load.
var ErrValidation = errors.New("definition validation failed")

type options struct {
	catalogDir string
	logLevel   string
	baseURL    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "assessctl",
		Short:        "Operate assessment tests from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return logger.Init(logger.WithWriter(cmd.ErrOrStderr()), logger.WithLevel(opts.logLevel))
		},
	}
	root.PersistentFlags().StringVar(&opts.catalogDir, "catalog-dir", "", "directory of extra definition files")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&opts.baseURL, "share-base-url", "/", "page share links point at")

	root.AddCommand(
		newTestsCmd(opts),
		newScoreCmd(opts),
		newOpenCmd(opts),
		newValidateCmd(),
		newLoadTestCmd(),
	)
	return root
}

// newService starts a service over the built-in and extra definitions.
func newService(ctx context.Context, opts *options, extra ...service.Option) (*service.Service, error) {
	reg, err := catalog.LoadRegistry(opts.catalogDir)
	if err != nil {
		return nil, err
	}
	base := []service.Option{
		service.WithRegistry(reg),
		service.WithLogger(logger.Get()),
		service.WithShareBaseURL(opts.baseURL),
	}
	svc := service.New(append(base, extra...)...)
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func newTestsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tests",
		Short: "List the available tests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newService(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer svc.Stop()

			tests, err := svc.Tests(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tFAMILY\tQUESTIONS\tTITLE")
			for _, t := range tests {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", t.Key, t.Family, t.QuestionCount, t.Title)
			}
			return tw.Flush()
		},
	}
}

func newScoreCmd(opts *options) *cobra.Command {
	var (
		answers  string
		nickname string
		partial  bool
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "score <test>",
		Short: "Score an answer sequence and print the result and share link",
		Long: `Score an answer sequence. Answers are comma separated; an empty
entry or "_" marks a skipped question.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseAnswers(answers)
			if err != nil {
				return err
			}
			svc, err := newService(cmd.Context(), opts, service.WithAllowPartial(partial))
			if err != nil {
				return err
			}
			defer svc.Stop()

			a, err := svc.Assess(cmd.Context(), service.Submission{
				TestKey:  args[0],
				Nickname: nickname,
				Answers:  parsed,
			})
			if err != nil {
				return err
			}
			return printAssessment(cmd.OutOrStdout(), a, asJSON)
		},
	}
	cmd.Flags().StringVar(&answers, "answers", "", "comma separated answers, one per question")
	cmd.Flags().StringVar(&nickname, "nickname", "", "nickname carried in the share token")
	cmd.Flags().BoolVar(&partial, "partial", false, "accept unanswered questions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full assessment as JSON")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

func newOpenCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "open <token-or-link>",
		Short: "Reopen a shared result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer svc.Stop()

			a, err := svc.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printAssessment(cmd.OutOrStdout(), a, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full assessment as JSON")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check definition files for load errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				def, err := catalog.LoadFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%s, %s, %d questions)\n",
					path, def.Key, def.Family(), len(def.Questions))
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d files", ErrValidation, failed, len(args))
			}
			return nil
		},
	}
}

func newLoadTestCmd() *cobra.Command {
	cfg := loadtest.Config{}
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Submit generated answers to a running service and verify its share links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := loadtest.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	cmd.Flags().StringVar(&cfg.TestKey, "test", "relationship", "test to submit answers for")
	cmd.Flags().IntVar(&cfg.Submissions, "submissions", loadtest.DefaultSubmissions, "number of submissions")
	cmd.Flags().IntVar(&cfg.Workers, "workers", runtime.NumCPU(), "number of concurrent workers")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", loadtest.DefaultTimeout, "HTTP request timeout")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", uint64(time.Now().UnixNano()), "answer generator seed")
	cmd.Flags().BoolVar(&cfg.Verify, "verify", true, "reopen every share token and compare")
	return cmd
}

// parseAnswers reads "1,2,_,4". Empty entries and "_" are skipped questions.
func parseAnswers(s string) ([]*int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]*int, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || p == "_" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("answer %d: %w", i, err)
		}
		out[i] = &v
	}
	return out, nil
}

func printAssessment(w io.Writer, a service.Assessment, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}
	r := a.Result
	fmt.Fprintf(w, "test:    %s\n", r.TestKey)
	fmt.Fprintf(w, "kind:    %s\n", r.Kind)
	fmt.Fprintf(w, "code:    %s\n", r.Code)
	fmt.Fprintf(w, "title:   %s\n", r.Content.Title)
	for _, line := range r.Content.Lines {
		fmt.Fprintf(w, "         %s\n", line)
	}
	for _, f := range r.Fallbacks {
		fmt.Fprintf(w, "note:    %s\n", f)
	}
	fmt.Fprintf(w, "link:    %s\n", a.Link)
	return nil
}
