package cmd

import (
	"github.com/spf13/cobra"

	"github.com/teemow/mydos/internal/instrumentation"
	"github.com/teemow/mydos/internal/lambda"
)

func newLambdaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Run the request handler under the AWS Lambda runtime",
		Long: `Run the myDo request handler as an AWS Lambda function behind an API Gateway
proxy integration. The command does not return.

Configuration is read from the function's environment and, when MYDOS_SECRET_ID
is set, from a Secrets Manager secret. Metrics are only exported when an
OTLP or stdout exporter is configured; there is nothing to scrape on Lambda.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, logger, err := loadConfig(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			instrConfig := instrumentation.DefaultConfig()
			if instrConfig.MetricsExporter == instrumentation.ExporterPrometheus {
				instrConfig.Enabled = false
			}

			a, err := newApp(ctx, cfg, logger, instrConfig)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			lambda.NewAdapter(a.handler).Start()
			return nil
		},
	}
}
