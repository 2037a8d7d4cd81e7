// Command churnctl inspects the churn form and model from the terminal.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"churnpredict/churn"
	"churnpredict/config"
	"churnpredict/logging"
	"churnpredict/ml"
	"churnpredict/predict"
)

type options struct {
	configPath string
	modelName  string
	searchDirs []string
	verbose    bool
}

// NewRootCmd builds the churnctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "churnctl",
		Short:         "Inspect the churn form and run predictions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "Path to config file")
	cmd.PersistentFlags().StringVar(&opts.modelName, "model", "", "Artifact file name (overrides config)")
	cmd.PersistentFlags().StringSliceVar(&opts.searchDirs, "dir", nil, "Extra directories to search for the artifact")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")

	cmd.AddCommand(newFieldsCmd(), newLocateCmd(opts), newPredictCmd(opts))
	return cmd
}

func newFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the form widgets and their allowed values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printFields(cmd.OutOrStdout())
		},
	}
}

func printFields(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tKIND\tDEFAULT\tALLOWED")
	for _, f := range churn.Fields() {
		allowed := strings.Join(f.Options, " | ")
		if f.Kind != churn.WidgetSelect {
			allowed = f.RangeHint()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Column, f.Kind, f.DefaultValue(), allowed)
	}
	return tw.Flush()
}

func newLocateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Show where the artifact is searched for and which file wins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			candidates := ml.CandidatePaths(cfg.Model.FileName, cfg.Model.SearchDirs...)
			for i, c := range candidates {
				fmt.Fprintf(out, "%d. %s\n", i+1, c)
			}
			path, err := ml.FindArtifact(candidates)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "using %s\n", path)
			return nil
		},
	}
}

func newPredictCmd(opts *options) *cobra.Command {
	var (
		sets   []string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict churn for one customer",
		Example: `  churnctl predict --set "Contract=Month-to-month" --set "Tenure Months=2"
  churnctl predict --json --set "Internet Service=Fiber optic"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseSets(sets)
			if err != nil {
				return err
			}
			req, err := churn.ParseForm(values)
			if err != nil {
				return err
			}

			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger, err := opts.logger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			model, _, err := ml.NewLoader(cfg.Model.FileName, logger, cfg.Model.SearchDirs...).Load()
			if err != nil {
				return errors.New(strings.Join(ml.UserMessage(err), " "))
			}
			service, err := predict.NewService(model, predict.WithLogger(logger))
			if err != nil {
				return err
			}
			outcome, err := service.Predict(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printOutcome(cmd.OutOrStdout(), outcome, asJSON)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Column=Value pair, repeatable")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the outcome as JSON")
	return cmd
}

func parseSets(sets []string) (url.Values, error) {
	values := url.Values{}
	for _, s := range sets {
		column, value, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("--set %q: expected Column=Value", s)
		}
		column = strings.TrimSpace(column)
		if _, known := churn.FieldByColumn(column); !known {
			return nil, fmt.Errorf("--set %q: unknown column %q", s, column)
		}
		values.Set(column, value)
	}
	return values, nil
}

func printOutcome(out io.Writer, outcome churn.Outcome, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	}
	fmt.Fprintln(out, outcome.Headline)
	fmt.Fprintln(out, outcome.ProbabilityText())
	fmt.Fprintln(out)
	fmt.Fprintln(out, outcome.InsightTitle)
	for _, insight := range outcome.Insights {
		fmt.Fprintf(out, "- %s\n", insight)
	}
	return nil
}

func (o *options) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.modelName != "" {
		cfg.Model.FileName = o.modelName
	}
	cfg.Model.SearchDirs = slices.Concat(o.searchDirs, cfg.Model.SearchDirs)
	return cfg, nil
}

func (o *options) logger(cfg *config.Config) (*zap.Logger, error) {
	if !o.verbose {
		return zap.NewNop(), nil
	}
	return logging.New(logging.Options{Level: cfg.Log.Level, Development: true})
}

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
