// Command johar runs one registry batch against the configured record store
// and exits, or mints an admin token for the HTTP API.
//
//	johar certify --op verify_all|issue_certificates [--async]
//	johar token --subject ops --ttl 1h
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.temporal.io/sdk/client"

	"example.com/johar/internal/api"
	"example.com/johar/internal/app"
	"example.com/johar/internal/config"
	"example.com/johar/internal/logging"
	"example.com/johar/internal/registry"
)

const usage = `usage:
  johar certify --op verify_all|issue_certificates [--async]
  johar token [--subject ops] [--ttl 1h]
`

var errUsage = errors.New("missing or unknown subcommand")

// parseCommand splits the subcommand off args. There is no default: a bare
// invocation must not touch any data.
func parseCommand(args []string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, errUsage
	}
	switch args[0] {
	case "certify", "token":
		return args[0], args[1:], nil
	default:
		return "", nil, errUsage
	}
}

func main() {
	cmd, args, err := parseCommand(os.Args[1:])
	if err != nil {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	flags := config.Flags("johar " + cmd)
	op := flags.String("op", "", "batch to run: verify_all or issue_certificates")
	async := flags.Bool("async", false, "dispatch the workflow and return without waiting")
	subject := flags.String("subject", "ops", "token subject")
	ttl := flags.Duration("ttl", time.Hour, "token lifetime")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	cfg, err := config.Load(flags)
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(2)
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	switch cmd {
	case "token":
		token, err := api.NewAdminToken(cfg.JWTSecret, *subject, *ttl)
		if err != nil {
			logger.Error("mint token failed", "error", err)
			os.Exit(1)
		}
		fmt.Println(token)
	case "certify":
		if *op == "" {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		if err := certify(context.Background(), cfg, logger, *op, *async); err != nil {
			logger.Error("batch failed", "op", *op, "error", err)
			os.Exit(1)
		}
	}
}

func certify(ctx context.Context, cfg config.Config, logger *slog.Logger, rawOp string, async bool) error {
	op, err := registry.ParseBatchOp(rawOp)
	if err != nil {
		return err
	}
	core, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer core.Close()

	var c client.Client
	if cfg.Temporal.HostPort != "" {
		if c, err = app.DialTemporal(cfg.Temporal, logger); err != nil {
			return err
		}
		defer c.Close()
	}
	input := registry.BatchInput{Op: op, Reason: "cli"}

	if async {
		if c == nil {
			return errors.New("--async needs a Temporal host")
		}
		id, err := registry.NewTemporalRunner(c, logger).RunBatchAsync(ctx, input)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	}

	outcome, err := core.Runner(c, logger).RunBatch(ctx, input)
	if err != nil {
		return err
	}
	logger.Info("batch finished", "op", op, "total", outcome.Result.Total, "verified", outcome.Result.Verified, "issued", outcome.Result.Issued, "workflow_id", outcome.WorkflowID)
	return nil
}
