// Command accept is the out-of-band acceptance validator for a solved
// schedule: it reruns pkg/validator and pkg/kpi against a request/response
// pair independently of whatever produced the response, and exits 0 only
// if every check agrees with the response's claims (spec.md §6).
package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kestrel-systems/harmonysched/pkg/cdm"
	"github.com/kestrel-systems/harmonysched/pkg/kpi"
	"github.com/kestrel-systems/harmonysched/pkg/validator"
)

// kpiToleranceMinutes is the slack spec.md §6 allows between a response's
// claimed tardiness/makespan and freshly recomputed values, to absorb
// integer-minute rounding at the horizon boundary. Changeover counts must
// match exactly: they're a discrete count, not a rounded duration.
const kpiToleranceMinutes = 1

// maxConcurrentChecks bounds how many acceptance checks run at once.
const maxConcurrentChecks = 4

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var requestPath, responsePath string

	cmd := &cobra.Command{
		Use:   "accept",
		Short: "Independently re-validate a solved schedule against its request.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccept(cmd.Context(), requestPath, responsePath)
		},
	}
	cmd.Flags().StringVar(&requestPath, "request", "", "path to the canonical request JSON file")
	cmd.Flags().StringVar(&responsePath, "response", "", "path to the solved response JSON file")
	_ = cmd.MarkFlagRequired("request")
	_ = cmd.MarkFlagRequired("response")
	return cmd
}

func runAccept(ctx context.Context, requestPath, responsePath string) error {
	reqData, err := os.ReadFile(requestPath)
	if err != nil {
		return fmt.Errorf("reading request file: %w", err)
	}
	respData, err := os.ReadFile(responsePath)
	if err != nil {
		return fmt.Errorf("reading response file: %w", err)
	}

	in, err := cdm.DecodeRequest(reqData)
	if err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}
	req, err := cdm.NewRequest(in)
	if err != nil {
		return fmt.Errorf("validating request: %w", err)
	}
	resp, err := cdm.DecodeResponse(respData)
	if err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	violations, err := checkAcceptance(ctx, req, resp)
	if err != nil {
		return err
	}

	if len(violations) == 0 {
		fmt.Println("accept: PASS")
		return nil
	}

	fmt.Println("accept: FAIL")
	for _, v := range violations {
		fmt.Println(" -", v)
	}
	os.Exit(1)
	return nil
}

// checkAcceptance runs every independent check concurrently, bounded by
// maxConcurrentChecks, and returns the union of every violation found.
// A check failing to run at all (none do today, but the errgroup shape
// leaves room for a future I/O-bound check) aborts the whole comparison.
func checkAcceptance(ctx context.Context, req cdm.Request, resp cdm.Response) ([]string, error) {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChecks)

	var mu sync.Mutex
	var violations []string
	record := func(vs ...string) {
		if len(vs) == 0 {
			return
		}
		mu.Lock()
		violations = append(violations, vs...)
		mu.Unlock()
	}

	g.Go(func() error {
		result := validator.Validate(req, resp.Assignments)
		record(result.Violations...)
		return nil
	})

	recomputed := kpi.Calculate(req, resp.Assignments)

	g.Go(func() error {
		record(compareWithTolerance("tardiness_minutes", resp.KPIs.TardinessMinutes, recomputed.TardinessMinutes)...)
		return nil
	})
	g.Go(func() error {
		record(compareWithTolerance("makespan_minutes", resp.KPIs.MakespanMinutes, recomputed.MakespanMinutes)...)
		return nil
	})
	g.Go(func() error {
		if resp.KPIs.Changeovers != recomputed.Changeovers {
			record(fmt.Sprintf("changeovers: response claims %d, recomputed %d (exact match required)",
				resp.KPIs.Changeovers, recomputed.Changeovers))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return violations, nil
}

func compareWithTolerance(field string, claimed, recomputed int) []string {
	delta := claimed - recomputed
	if delta < 0 {
		delta = -delta
	}
	if delta > kpiToleranceMinutes {
		return []string{fmt.Sprintf("%s: response claims %d, recomputed %d (exceeds ±%d minute tolerance)",
			field, claimed, recomputed, kpiToleranceMinutes)}
	}
	return nil
}
