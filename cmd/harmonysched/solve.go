package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/kestrel-systems/harmonysched/internal/cliconfig"
	"github.com/kestrel-systems/harmonysched/internal/logging"
	"github.com/kestrel-systems/harmonysched/internal/metrics"
	"github.com/kestrel-systems/harmonysched/pkg/builder"
	"github.com/kestrel-systems/harmonysched/pkg/cdm"
	"github.com/kestrel-systems/harmonysched/pkg/kpi"
	"github.com/kestrel-systems/harmonysched/pkg/solver"
	"github.com/kestrel-systems/harmonysched/pkg/timeutil"
)

func newSolveCommand(loadConfig func() (cliconfig.Config, error)) *cobra.Command {
	var requestPath string

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a canonical scheduling request and print the response envelope.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runSolve(cmd.Context(), requestPath, cfg)
		},
	}
	cmd.Flags().StringVar(&requestPath, "request", "", "path to a canonical request JSON file")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}

func runSolve(ctx context.Context, requestPath string, cfg cliconfig.Config) error {
	log, err := logging.New(logging.Options{Level: cfg.LogLevel, Development: cfg.LogDevelopment})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	data, err := os.ReadFile(requestPath)
	if err != nil {
		return fmt.Errorf("reading request file: %w", err)
	}

	in, err := cdm.DecodeRequest(data)
	if err != nil {
		return printErrorEnvelope("request decode failed", []string{err.Error()})
	}
	if in.Settings.TimeLimitSeconds == 0 {
		in.Settings.TimeLimitSeconds = cfg.TimeLimitSeconds
	}

	req, err := cdm.NewRequest(in)
	if err != nil {
		return printErrorEnvelope("request validation failed", []string{err.Error()})
	}

	clock := timeutil.NewClock(req.Horizon.Start)
	model, err := builder.Build(req, clock, log)
	if err != nil {
		var nerr *builder.NoEligibleResourceError
		if errors.As(err, &nerr) {
			return printErrorEnvelope("no eligible resource", []string{nerr.Error()})
		}
		return err
	}

	recorder := metrics.NewRecorder(prometheus.NewRegistry())

	solveCtx, cancel := context.WithTimeout(ctx, time.Duration(req.Settings.TimeLimitSeconds)*time.Second)
	defer cancel()

	sol, err := recorder.InstrumentedSolve(solveCtx, model, log)
	if err != nil {
		var infeasible *solver.InfeasibleError
		if errors.As(err, &infeasible) {
			return printErrorEnvelope("infeasible", infeasible.Why)
		}
		var internal *solver.InternalError
		if errors.As(err, &internal) {
			return fmt.Errorf("internal solver error: %w", internal)
		}
		return err
	}

	kpis := kpi.Calculate(req, sol.Assignments)
	recorder.RecordKPIs(kpis.TardinessMinutes, kpis.Changeovers)

	out, err := cdm.EncodeResponse(cdm.Response{Assignments: sol.Assignments, KPIs: kpis})
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func printErrorEnvelope(msg string, why []string) error {
	out, err := cdm.EncodeErrorResponse(cdm.ErrorResponse{Error: msg, Why: why})
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return fmt.Errorf("%s", msg)
}
