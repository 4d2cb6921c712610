// Command convert runs a single conversion from the command line and prints the report.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/Vodeneev/slipconv/internal/api"
	"github.com/Vodeneev/slipconv/internal/converter"
	"github.com/Vodeneev/slipconv/internal/converter/replication"
	pkgconfig "github.com/Vodeneev/slipconv/internal/pkg/config"
	"github.com/Vodeneev/slipconv/internal/pkg/models"
	"github.com/Vodeneev/slipconv/internal/pkg/logging"
)

func main() {
	var (
		code       string
		configPath string
		asJSON     bool
		compareTo  string
		verify     bool
	)
	flag.StringVar(&code, "code", "", "Sportybet booking code (required)")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "Path to config file (optional)")
	flag.BoolVar(&asJSON, "json", false, "Print the result as JSON")
	flag.StringVar(&compareTo, "compare", "", "Betpawa booking code to compare with the source slip, no conversion")
	flag.BoolVar(&verify, "verify", false, "Compare the converted slip with the source slip")
	flag.Parse()

	if code == "" && flag.NArg() > 0 {
		code = flag.Arg(0)
	}
	if code == "" {
		fmt.Fprintln(os.Stderr, "usage: convert -code <booking code> [-compare <betpawa code> | -verify] [-config path] [-json]")
		os.Exit(2)
	}

	os.Exit(run(code, compareTo, verify, configPath, asJSON))
}

func run(code, compareTo string, verify bool, configPath string, asJSON bool) int {
	appConfig := pkgconfig.Default()
	if configPath != "" {
		var err error
		if appConfig, err = pkgconfig.Load(configPath); err != nil {
			slog.Error("Failed to load config", "error", err)
			return 1
		}
	}

	logger, closer, err := logging.SetupLogger(&appConfig.Logging, "convert")
	if err != nil {
		logger = slog.Default()
	} else {
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := converter.NewFromConfig(ctx, appConfig, nil, logger)
	if err != nil {
		slog.Error("Failed to set up converter", "error", err)
		return 1
	}

	if compareTo != "" {
		return compare(ctx, svc, code, compareTo, asJSON)
	}

	res, convErr := svc.Convert(ctx, code)
	var ce *converter.Error
	if errors.As(convErr, &ce) && ce.Result != nil {
		res = *ce.Result
	}

	if asJSON {
		printJSON(res, convErr)
	} else {
		printReport(res, convErr)
	}
	if convErr != nil {
		return 1
	}
	if verify {
		fmt.Println()
		return compare(ctx, svc, code, res.GeneratedCode, asJSON)
	}
	return 0
}

func compare(ctx context.Context, svc *converter.Service, code, target string, asJSON bool) int {
	cmp, err := svc.Verify(ctx, code, target)
	if err != nil {
		slog.Error("Verification failed", "kind", converter.KindOf(err), "error", err)
		return 1
	}
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(api.NewVerifyResponse(cmp))
	} else {
		printComparison(cmp)
	}
	if !cmp.Verified() {
		return 1
	}
	return 0
}

func printComparison(cmp converter.Comparison) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tTARGET\tMARKET\tSELECTION\tODDS\tMATCH")
	for _, m := range cmp.Matches {
		status := "ok"
		if !m.Agrees() {
			status = "differs"
		}
		fmt.Fprintf(w, "%s\t%s\t%s / %s\t%s / %s\t%s / %s\t%s\n",
			m.Source.Name(), m.Target.Name(),
			m.Source.Market, m.Target.Market,
			m.Source.Selection, m.Target.Selection,
			m.SourceOdds, m.TargetOdds, status)
	}
	for _, e := range cmp.UnmatchedSource {
		fmt.Fprintf(w, "%s\t-\t%s\t%s\t\tmissing on target\n", e.Name(), e.Market, e.Selection)
	}
	for _, e := range cmp.UnmatchedTarget {
		fmt.Fprintf(w, "-\t%s\t%s\t%s\t\tnot on source\n", e.Name(), e.Market, e.Selection)
	}
	w.Flush()

	fmt.Printf("\n%s vs %s: verified=%v\n", cmp.SourceCode, cmp.TargetCode, cmp.Verified())
}

func printReport(res replication.Result, convErr error) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tEVENT\tMARKET\tSELECTION\tOUTCOME\tREASON")
	for _, o := range res.Outcomes {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			o.Index+1, o.Entry.Query(), o.Entry.Market, o.Entry.Selection, o.Outcome, o.Reason)
	}
	w.Flush()

	fmt.Printf("\nconfirmed %d of %d\n", res.ConfirmedCount, res.TotalEntries)
	counts := res.Counts()
	for _, o := range []models.ReplicationOutcome{models.OutcomeNotFound, models.OutcomeAmbiguousMarket, models.OutcomeTransientFailure} {
		if n := counts[o]; n > 0 {
			fmt.Printf("  %s: %d\n", o, n)
		}
	}
	if convErr != nil {
		fmt.Printf("error: %v\n", convErr)
		return
	}
	fmt.Printf("converted code: %s\n", res.GeneratedCode)
}

func printJSON(res replication.Result, convErr error) {
	out := struct {
		replication.Result
		Kind  string `json:"kind,omitempty"`
		Error string `json:"error,omitempty"`
	}{Result: res}
	if convErr != nil {
		out.Kind = string(converter.KindOf(convErr))
		out.Error = convErr.Error()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}
