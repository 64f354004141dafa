package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vanshika/remitdesk/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		count         = flag.Int("submissions", cfg.NumSubmissions, "number of submissions to generate")
		businessShare = flag.Float64("business-chance", cfg.BusinessChance, "probability that a party is a Business")
		legacyShare   = flag.Float64("legacy-date-chance", cfg.LegacyDateChance, "probability of d/M/yyyy invoice dates")
		numericShare  = flag.Float64("numeric-amount-chance", cfg.NumericAmountChance, "probability of JSON-number amounts")
		daysBack      = flag.Int("days-back", cfg.DaysBack, "invoice dates are drawn from this many days before today")
		seed          = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputDir     = flag.String("output-dir", "seed-data", "directory to write submissions.json")
		writeStdout   = flag.Bool("stdout", false, "write submissions to stdout instead of a file")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumSubmissions:      *count,
		BusinessChance:      clampProbability(*businessShare),
		LegacyDateChance:    clampProbability(*legacyShare),
		NumericAmountChance: clampProbability(*numericShare),
		DaysBack:            *daysBack,
		Seed:                *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	submissions, err := generator.New(genCfg).Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := generator.Encode(os.Stdout, submissions); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write submissions to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	path, err := generator.WriteSubmissions(submissions, *outputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write submissions: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d submissions into %s\n", len(submissions), path)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
