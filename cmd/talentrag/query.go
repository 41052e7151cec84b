package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/search/filter"
	"github.com/kailas-cloud/talentrag/internal/domain/search/query"
	"github.com/kailas-cloud/talentrag/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/talentrag/internal/usecase/usage"
	talentrag "github.com/kailas-cloud/talentrag/pkg/sdk"
)

// callerFlags identify the CLI caller the way an API key does over HTTP.
type callerFlags struct {
	role    string
	subject string
}

func (c *callerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.role, "role", string(domain.RoleCandidate), "caller role: candidate, recruiter, admin (local only, the API key decides remotely)")
	cmd.Flags().StringVar(&c.subject, "subject", "", "caller user id, used for job context")
}

func (c *callerFlags) parse() (domain.Role, error) {
	role, err := domain.ParseRole(c.role)
	if err != nil {
		return "", fmt.Errorf("--role: %w", err)
	}
	return role, nil
}

// filterFlags mirror the JSON filters object of the HTTP API.
type filterFlags struct {
	tier      string
	location  string
	skills    []string
	companies []string
	education string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tier, "tier", "", "experience tier: entry, mid, senior, lead, executive")
	cmd.Flags().StringVar(&f.location, "location", "", "location substring")
	cmd.Flags().StringSliceVar(&f.skills, "skills", nil, "any of these skills")
	cmd.Flags().StringSliceVar(&f.companies, "companies", nil, "any of these companies")
	cmd.Flags().StringVar(&f.education, "education", "", "degree substring")
}

func (f *filterFlags) build() (filter.Filter, error) {
	return filter.New(f.tier, f.location, f.skills, f.companies, f.education)
}

var (
	searchCaller  callerFlags
	searchFilters filterFlags
	searchK       int

	askCaller     callerFlags
	askFilters    filterFlags
	askK          int
	askJobContext bool

	candCaller callerFlags
	candSkills []string
	candK      int

	matchCaller callerFlags
	matchTopN   int

	usagePeriod string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Semantic search over résumés",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		return dispatch(cmd,
			func(ctx context.Context, a *application) (any, error) {
				qc, err := buildQuery(text, &searchFilters, &searchCaller, searchK, retrieval.DefaultSearchK)
				if err != nil {
					return nil, err
				}
				resp, err := a.retrieval.Search(ctx, qc)
				if err != nil {
					return nil, fmt.Errorf("search: %w", err)
				}
				return resp, nil
			},
			func(ctx context.Context, c *talentrag.Client) (any, error) {
				return c.Search(ctx, talentrag.SearchRequest{Query: text, K: searchK, Filters: searchFilters.toSDK()})
			})
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question answered from résumé evidence; without arguments starts an interactive prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		if c, ok, err := remoteClient(); err != nil {
			return err
		} else if ok {
			return runAsk(cmd, args, func(ctx context.Context, question string) (any, error) {
				return c.Ask(ctx, talentrag.AskRequest{
					Query:             question,
					K:                 askK,
					IncludeJobContext: askJobContext,
					Filters:           askFilters.toSDK(),
				})
			})
		}
		return withApplication(cmd, func(_ context.Context, a *application) error {
			return runAsk(cmd, args, func(ctx context.Context, question string) (any, error) {
				return askLocal(ctx, a, question)
			})
		})
	},
}

var candidatesCmd = &cobra.Command{
	Use:   "candidates <requirements>",
	Short: "Find candidates for free-text job requirements",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		requirements := strings.Join(args, " ")
		return dispatch(cmd,
			func(ctx context.Context, a *application) (any, error) {
				role, err := candCaller.parse()
				if err != nil {
					return nil, err
				}
				resp, err := a.retrieval.CandidatesForRequirements(ctx, retrieval.CandidateRequest{
					Requirements: requirements,
					Skills:       candSkills,
					K:            candK,
					Role:         role,
				})
				if err != nil {
					return nil, fmt.Errorf("candidates: %w", err)
				}
				return resp, nil
			},
			func(ctx context.Context, c *talentrag.Client) (any, error) {
				return c.Candidates(ctx, talentrag.CandidatesRequest{
					Requirements: requirements, Skills: candSkills, K: candK,
				})
			})
	},
}

var matchCmd = &cobra.Command{
	Use:   "match <job-id>",
	Short: "Rank stored résumés against a job posting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(cmd,
			func(ctx context.Context, a *application) (any, error) {
				role, err := matchCaller.parse()
				if err != nil {
					return nil, err
				}
				resp, err := a.retrieval.MatchJob(ctx, args[0], matchTopN, role)
				if err != nil {
					return nil, fmt.Errorf("match: %w", err)
				}
				return resp, nil
			},
			func(ctx context.Context, c *talentrag.Client) (any, error) {
				return c.MatchJob(ctx, args[0], matchTopN)
			})
	},
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Print corpus skill and experience distributions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return dispatch(cmd,
			func(ctx context.Context, a *application) (any, error) {
				resp, err := a.insights.Insights(ctx)
				if err != nil {
					return nil, fmt.Errorf("insights: %w", err)
				}
				return resp, nil
			},
			func(ctx context.Context, c *talentrag.Client) (any, error) {
				return c.Insights(ctx)
			})
	},
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Print embedding token usage against the configured budget",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return dispatch(cmd,
			func(ctx context.Context, a *application) (any, error) {
				period, err := usageuc.ParsePeriod(usagePeriod)
				if err != nil {
					return nil, err
				}
				resp, err := a.usage.Report(ctx, period)
				if err != nil {
					return nil, fmt.Errorf("usage: %w", err)
				}
				return resp, nil
			},
			func(ctx context.Context, c *talentrag.Client) (any, error) {
				return c.Usage(ctx, usagePeriod)
			})
	},
}

func init() {
	searchCaller.register(searchCmd)
	searchFilters.register(searchCmd)
	searchCmd.Flags().IntVar(&searchK, "k", 0, "number of results (default 10)")

	askCaller.register(askCmd)
	askFilters.register(askCmd)
	askCmd.Flags().IntVar(&askK, "k", 0, "number of evidence résumés (default 5)")
	askCmd.Flags().BoolVar(&askJobContext, "job-context", false, "add the caller's active jobs to the prompt (recruiter/admin)")

	candCaller.register(candidatesCmd)
	candidatesCmd.Flags().StringSliceVar(&candSkills, "skills", nil, "required skills")
	candidatesCmd.Flags().IntVar(&candK, "k", 0, "number of candidates (default 10)")

	matchCaller.register(matchCmd)
	matchCmd.Flags().IntVarP(&matchTopN, "top", "n", 0, "number of matches (default 10)")

	usageCmd.Flags().StringVar(&usagePeriod, "period", "day", "usage period: day, month")

	rootCmd.AddCommand(searchCmd, askCmd, candidatesCmd, matchCmd, insightsCmd, usageCmd)
}

// withApplication wires the application for a one-shot command and tears it down afterwards.
func withApplication(cmd *cobra.Command, fn func(ctx context.Context, a *application) error) error {
	cfg, env, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(env, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	a, err := newApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func buildQuery(text string, ff *filterFlags, cf *callerFlags, k, defaultK int) (query.Context, error) {
	f, err := ff.build()
	if err != nil {
		return query.Context{}, err
	}
	role, err := cf.parse()
	if err != nil {
		return query.Context{}, err
	}
	qc, err := query.New(text, f, k, defaultK, role)
	if err != nil {
		return query.Context{}, fmt.Errorf("build query: %w", err)
	}
	return qc, nil
}

// answerFunc answers one question, locally or over the API.
type answerFunc func(ctx context.Context, question string) (any, error)

// runAsk answers the question in args, or prompts for questions when args is empty.
func runAsk(cmd *cobra.Command, args []string, answer answerFunc) error {
	if len(args) > 0 {
		resp, err := answer(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	}
	return askInteractive(cmd.Context(), cmd.OutOrStdout(), answer)
}

func askLocal(ctx context.Context, a *application, question string) (retrieval.AskResponse, error) {
	qc, err := buildQuery(question, &askFilters, &askCaller, askK, retrieval.DefaultAskK)
	if err != nil {
		return retrieval.AskResponse{}, err
	}
	resp, err := a.retrieval.Ask(ctx, retrieval.AskRequest{
		Context:           qc,
		IncludeJobContext: askJobContext,
		UserID:            askCaller.subject,
	})
	if err != nil {
		return retrieval.AskResponse{}, fmt.Errorf("ask: %w", err)
	}
	return resp, nil
}

// askInteractive reads questions until Ctrl-C or Ctrl-D. Input errors are printed and the loop goes on.
func askInteractive(ctx context.Context, out io.Writer, answer answerFunc) error {
	prompt := promptui.Prompt{
		Label: "Question",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("question is required")
			}
			return nil
		},
	}
	for {
		question, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("prompt: %w", err)
		}
		resp, err := answer(ctx, question)
		if isInputError(err) {
			fmt.Fprintln(out, err)
			continue
		}
		if err != nil {
			return err
		}
		if err := printJSON(out, resp); err != nil {
			return err
		}
	}
}

// isInputError reports whether err is the caller's fault, locally or as an API 4xx.
func isInputError(err error) bool {
	return errors.Is(err, domain.ErrInvalidQuery) ||
		errors.Is(err, domain.ErrInvalidFilter) ||
		errors.Is(err, talentrag.ErrInvalidRequest)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
