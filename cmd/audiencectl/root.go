package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ignite/customer-match/internal/config"
	"github.com/ignite/customer-match/internal/googleads"
	"github.com/ignite/customer-match/internal/identifier"
	"github.com/ignite/customer-match/internal/pkg/logger"
	"github.com/ignite/customer-match/internal/source"
	"github.com/ignite/customer-match/internal/workflow"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "audiencectl",
		Short:         "Upload Customer Match audiences to Google Ads",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logger.SetLevel(logger.DEBUG)
			}
			return identifier.CheckAlgorithm()
		},
	}

	root.PersistentFlags().String("config", envOr("CONFIG_PATH", "config/config.yaml"), "Path to the config file")
	root.PersistentFlags().String("customer-id", "", "Google Ads customer id (overrides audience.customer_id)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		runCmd(),
		statusCmd(),
		hashCmd(),
	)
	return root
}

func runCmd() *cobra.Command {
	var (
		sourceType string
		csvPath    string
		column     string
		count      int
		kind       string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Create a user list and upload identifiers through an offline user data job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if sourceType != "" {
				cfg.Source.Type = sourceType
			}
			if csvPath != "" {
				cfg.Source.CSV.Path = csvPath
			}
			if column != "" {
				cfg.Source.CSV.Column = column
				cfg.Source.S3.Column = column
			}
			if count > 0 {
				cfg.Source.Synthetic.Count = count
			}
			if kind != "" {
				cfg.Audience.IdentifierKind = kind
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			o, err := newOrchestrator(cfg)
			if err != nil {
				return err
			}
			src, err := source.Open(cmd.Context(), cfg.Source)
			if err != nil {
				return err
			}
			defer src.Close()

			res, runErr := o.Run(cmd.Context(), cfg.Audience.CustomerID, src)
			if res != nil {
				if err := printJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&sourceType, "source-type", "", "Identifier source: synthetic, csv, s3, sql or redis")
	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV file of identifiers (use with --source-type csv)")
	cmd.Flags().StringVar(&column, "column", "", "CSV column name, or zero-based index without a header")
	cmd.Flags().IntVar(&count, "count", 0, "Number of synthetic identifiers")
	cmd.Flags().StringVar(&kind, "kind", "", "Identifier kind: email or phone")
	return cmd
}

func statusCmd() *cobra.Command {
	var job, userList string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check an offline user data job once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.GoogleAds.Validate(); err != nil {
				return err
			}
			o, err := newOrchestrator(cfg)
			if err != nil {
				return err
			}
			report, err := o.CheckStatus(cmd.Context(), cfg.Audience.CustomerID, job, userList)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&job, "job", "", "Offline user data job resource name")
	cmd.Flags().StringVar(&userList, "user-list", "", "User list resource name; its size is reported on success")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}

type hashLine struct {
	Input  string `json:"input"`
	Hashed string `json:"hashed"`
}

func hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash VALUE...",
		Short: "Print the normalized SHA-256 of each value",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := make([]hashLine, 0, len(args))
			for _, a := range args {
				h, err := identifier.Hash(a)
				if err != nil {
					return fmt.Errorf("hashing %q: %w", a, err)
				}
				out = append(out, hashLine{Input: a, Hashed: h})
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFromEnv(path)
	if err != nil {
		return nil, err
	}
	if id, _ := cmd.Flags().GetString("customer-id"); id != "" {
		cfg.Audience.CustomerID = id
	}
	if level, ok := logger.ParseLevel(cfg.Logging.Level); ok {
		if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
			logger.SetLevel(level)
		}
	}
	logger.SetRedactPII(cfg.Logging.ShouldRedact())
	return cfg, nil
}

func newOrchestrator(cfg *config.Config) (*workflow.Orchestrator, error) {
	connector, err := googleads.NewConnector(cfg.GoogleAds)
	if err != nil {
		return nil, err
	}
	opts, err := workflow.OptionsFromConfig(cfg.Audience)
	if err != nil {
		return nil, err
	}
	return workflow.New(workflow.GoogleAds(connector), opts), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
