package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tool-recommender/internal/llm/anthropic"
	"tool-recommender/internal/recommendations"
	"tool-recommender/internal/shared/config"
	"tool-recommender/internal/shared/telemetry"
)

type options struct {
	size         string
	budget       int
	category     string
	complexity   string
	requirements string

	format     string
	sort       string
	minPrice   int
	maxPrice   int
	promptOnly bool
	apiKey     string
	promptMode string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfg config.Config
	opts := options{minPrice: -1, maxPrice: -1}

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend AI tools for a business",
		Long: `recommend asks the model for AI tools matching a business profile and prints
the parsed recommendations as a table or an export document.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg = config.Load()
			telemetry.Init(cfg.LogLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, cfg, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.size, "size", "small", "business size: micro|small|medium|large")
	f.IntVar(&opts.budget, "budget", 100, "monthly budget in USD (0-10000)")
	f.StringVar(&opts.category, "category", "marketing-automation", "tool category")
	f.StringVar(&opts.complexity, "complexity", "beginner", "technical complexity: beginner|intermediate|advanced")
	f.StringVar(&opts.requirements, "requirements", "", "free-text requirements")
	f.StringVar(&opts.format, "format", "table", "output: table|csv|tsv|json")
	f.StringVar(&opts.sort, "sort", "score", "sort by: score|name|price|features")
	f.IntVar(&opts.minPrice, "min-price", -1, "drop tools cheaper than this monthly price")
	f.IntVar(&opts.maxPrice, "max-price", -1, "drop tools pricier than this monthly price")
	f.BoolVar(&opts.promptOnly, "prompt-only", false, "print the prompt and exit without calling the API")
	f.StringVar(&opts.apiKey, "api-key", "", "Anthropic API key (defaults to ANTHROPIC_API_KEY)")
	f.StringVar(&opts.promptMode, "prompt-format", "", "response layout requested from the model: json|markdown")

	cmd.AddCommand(parseCmd(), optionsCmd())
	return cmd
}

func run(cmd *cobra.Command, cfg config.Config, opts options) error {
	req, err := buildRequest(opts)
	if err != nil {
		return err
	}
	view, err := buildView(opts)
	if err != nil {
		return err
	}
	if err := checkFormat(opts.format); err != nil {
		return err
	}
	if opts.promptMode != "" {
		cfg.PromptFormat = opts.promptMode
	}

	svc := recommendations.NewServiceFromConfig(cfg, anthropic.Factory(cfg.LLMModel, anthropic.Options{BaseURL: cfg.AnthropicBaseURL}))
	if opts.promptOnly {
		fmt.Fprintln(cmd.OutOrStdout(), svc.Prompt(req))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := svc.Recommend(ctx, recommendations.Input{
		Request:  req,
		APIKey:   opts.apiKey,
		Progress: stderrProgress{w: cmd.ErrOrStderr()},
	})
	if err != nil {
		if errors.Is(err, recommendations.ErrMissingCredential) {
			return fmt.Errorf("%w: pass --api-key or set ANTHROPIC_API_KEY", err)
		}
		return err
	}

	return render(cmd.OutOrStdout(), view.Apply(result.Set), opts.format)
}

func buildRequest(opts options) (recommendations.Request, error) {
	size, err := recommendations.ParseBusinessSize(opts.size)
	if err != nil {
		return recommendations.Request{}, err
	}
	category, err := recommendations.ParseCategory(opts.category)
	if err != nil {
		return recommendations.Request{}, err
	}
	complexity, err := recommendations.ParseComplexity(opts.complexity)
	if err != nil {
		return recommendations.Request{}, err
	}
	return recommendations.NewRequest(size, opts.budget, category, complexity, opts.requirements)
}

func buildView(opts options) (recommendations.View, error) {
	field, err := recommendations.ParseSortField(opts.sort)
	if err != nil {
		return recommendations.View{}, err
	}
	view := recommendations.View{Sort: field, MaxPrice: recommendations.NoLimit}
	if opts.minPrice >= 0 {
		view.MinPrice = opts.minPrice
		view.Filter = true
	}
	if opts.maxPrice >= 0 {
		view.MaxPrice = opts.maxPrice
		view.Filter = true
	}
	return view, nil
}
