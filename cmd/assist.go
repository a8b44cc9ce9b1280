package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/medflow-cli/internal/agents"
	"github.com/KaramelBytes/medflow-cli/internal/ai"
	"github.com/KaramelBytes/medflow-cli/internal/analysis"
	"github.com/KaramelBytes/medflow-cli/internal/utils"
)

// assistFlags are shared by the generative commands.
type assistFlags struct {
	provider string
	model    string
	dryRun   bool
	output   string
	filter   filterFlags
}

func (a *assistFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&a.provider, "provider", "", "runtime: openrouter|ollama (config: default_provider)")
	fl.StringVar(&a.model, "model", "", "model override (config: default_model)")
	fl.BoolVar(&a.dryRun, "dry-run", false, "print the prompts and token estimates without calling a model")
	fl.StringVarP(&a.output, "output", "o", "", "write the answer to a file instead of stdout")
	a.filter.bind(cmd)
}

// resolve picks provider and model from flags then config. A local runtime
// has no sensible default model, so it must be named.
func (a *assistFlags) resolve() (provider, model string, err error) {
	c := currentConfig()
	provider = strings.ToLower(strings.TrimSpace(a.provider))
	if provider == "" {
		provider = strings.ToLower(c.DefaultProvider)
	}
	switch provider {
	case "", ai.ProviderOpenRouter:
		provider = ai.ProviderOpenRouter
	case ai.ProviderOllama, "local":
		provider = ai.ProviderOllama
	}
	model = a.model
	if model == "" {
		model = c.DefaultModel
	}
	if provider == ai.ProviderOllama && model == "" {
		return "", "", errors.WithHint(errors.New("no model selected for ollama"),
			"pass --model <name> (e.g. llama3.1) or run: medflow config set default_model <name>")
	}
	return provider, model, nil
}

// newRuntime builds the runtime for provider from the loaded configuration.
func newRuntime(provider string) (ai.Runtime, error) {
	c := currentConfig()
	if provider == ai.ProviderOpenRouter && c.APIKey == "" {
		return nil, ai.ErrMissingAPIKey
	}
	return ai.NewRuntime(provider, runtimeConfig(c))
}

// summarize loads the input, applies filters and computes the summary.
func (a *assistFlags) summarize(cmd *cobra.Command, path string) (*analysis.Summary, error) {
	_, rows, err := loadRows(cmd, path, &a.filter)
	if err != nil {
		return nil, err
	}
	return analysis.Summarize(rows, analysis.DefaultOptions()), nil
}

var (
	insightFlags  assistFlags
	predictFlags  assistFlags
	pipelineFlags assistFlags

	pipeAgentsFile string
	pipeJSON       bool
)

var insightCmd = &cobra.Command{
	Use:   "insight <file|->",
	Short: "Ask a model for one non-obvious insight about the data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOneShot(cmd, args[0], &insightFlags, agents.InsightFor)
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict <file|->",
	Short: "Ask a model for a brief next-month volume outlook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOneShot(cmd, args[0], &predictFlags, agents.PredictionFor)
	},
}

func runOneShot(cmd *cobra.Command, path string, a *assistFlags, build func(string, *analysis.Summary) (ai.GenerateRequest, error)) error {
	provider, model, err := a.resolve()
	if err != nil {
		return err
	}
	s, err := a.summarize(cmd, path)
	if err != nil {
		return err
	}
	req, err := build(model, s)
	if err != nil {
		return err
	}
	if a.dryRun {
		printRequest(cmd.OutOrStdout(), "", req)
		return nil
	}
	rt, err := newRuntime(provider)
	if err != nil {
		return err
	}
	text, err := agents.Ask(cmd.Context(), rt, req)
	if err != nil {
		return err
	}
	return writeOutput(cmd, a.output, []byte(strings.TrimRight(text, "\n")+"\n"))
}

var pipelineCmd = &cobra.Command{
	Use:   "pipeline <file|->",
	Short: "Run the agent chain (KPI analyst, anomaly hunter, executive memo)",
	Example: `  medflow pipeline deliveries.json --dry-run
  medflow pipeline deliveries.csv --agents agents.yaml --output report.md
  medflow pipeline deliveries.json --provider ollama --model llama3.1 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		a := &pipelineFlags
		provider, model, err := a.resolve()
		if err != nil {
			return err
		}
		specs := agents.DefaultSpecs()
		if path := firstNonEmpty(pipeAgentsFile, c.AgentsFile); path != "" {
			if specs, err = agents.LoadSpecs(path); err != nil {
				return err
			}
		}
		s, err := a.summarize(cmd, args[0])
		if err != nil {
			return err
		}
		in, err := agents.NewInput(s, c.MaxContextTokens)
		if err != nil {
			return err
		}
		p := &agents.Pipeline{
			Specs:   specs,
			Model:   model,
			Limiter: agents.NewLimiter(c.AIRequestsPerMinute),
			OnStep: func(out agents.Output) {
				cmd.PrintErrf("✓ %s (%s, %dms)\n", out.Name, out.Model, out.Duration.Milliseconds())
			},
		}
		if a.dryRun {
			for i, req := range p.Requests(in) {
				printRequest(cmd.OutOrStdout(), specs[i].Name, req)
			}
			return nil
		}
		if p.Runtime, err = newRuntime(provider); err != nil {
			return err
		}
		run, runErr := p.Run(cmd.Context(), in)
		if len(run.Outputs) > 0 || pipeJSON {
			var werr error
			if pipeJSON {
				werr = writeJSON(cmd, a.output, run)
			} else {
				werr = writeOutput(cmd, a.output, []byte(renderRun(run)))
			}
			if werr != nil && runErr == nil {
				return werr
			}
		}
		return runErr
	},
}

func renderRun(run *agents.Run) string {
	var b strings.Builder
	for _, out := range run.Outputs {
		fmt.Fprintf(&b, "# %s\n\n%s\n\n", out.Name, strings.TrimSpace(out.Text))
	}
	return b.String()
}

// printRequest shows one prompt and its estimated token counts.
func printRequest(w io.Writer, title string, req ai.GenerateRequest) {
	if title == "" {
		title = "request"
	}
	fmt.Fprintf(w, "=== %s (model: %s, temperature: %.2f, max_tokens: %d) ===\n",
		title, req.Model, req.Temperature, req.MaxTokens)
	sections := map[string]string{}
	for _, m := range req.Messages {
		fmt.Fprintf(w, "[%s]\n%s\n", m.Role, m.Content)
		sections[m.Role] += m.Content
	}
	fmt.Fprintf(w, "Estimated tokens: %s\n\n", utils.FormatBreakdown(utils.TokenBreakdown(sections)))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(insightCmd, predictCmd, pipelineCmd)
	insightFlags.bind(insightCmd)
	predictFlags.bind(predictCmd)
	pipelineFlags.bind(pipelineCmd)
	pipelineCmd.Flags().StringVar(&pipeAgentsFile, "agents", "", "YAML file of agent specs (config: agents_file)")
	pipelineCmd.Flags().BoolVar(&pipeJSON, "json", false, "print the run record as JSON")
}
