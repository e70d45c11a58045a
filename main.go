package main

import (
	_ "embed" // this is required in order for go:embed to work
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/systest/driver/driver"
	"github.com/systest/driver/framework/envstore"
	"github.com/systest/driver/framework/logging"
	"github.com/systest/driver/framework/opt"
	"github.com/systest/driver/framework/pot"
	"github.com/systest/driver/sanity"
)

//go:embed VERSION
var versionString string // comes from the VERSION file which we update for each release

func main() {
	fmt.Printf("prod-test-driver v%s\n", strings.TrimSpace(versionString))

	var params commandParams
	ok, err := params.Read(os.Args, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if !ok {
		return
	}

	results, err := run(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if !results.OK() {
		os.Exit(1)
	}
}

func run(params commandParams) (*pot.Results, error) {
	args, err := params.Validate()
	if err != nil {
		return nil, err
	}

	env, err := envstore.Open(params.envStoreLocation())
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	builder := driver.ContextBuilder{
		Env:      env,
		Hostname: hostname(),
		Metrics:  logging.NewMetrics(registry),
	}
	ctx, err := builder.Build(args)
	if err != nil {
		return nil, err
	}

	for _, line := range params.filters.Describe() {
		fmt.Println(line)
	}
	results := sanity.RunSanityPot(ctx, params.filters, pot.ConsoleTestLogger{Out: os.Stdout})

	if err := ctx.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to flush logs: %s\n", err)
	}
	fmt.Println()
	pot.PrintResults(os.Stdout, results)

	if params.metricsFile != "" {
		if err := prometheus.WriteToTextfile(params.metricsFile, registry); err != nil {
			return nil, errors.Wrap(err, "could not write metrics file")
		}
	}
	return &results, nil
}

func hostname() opt.Maybe[string] {
	name, err := os.Hostname()
	if err != nil {
		return opt.None[string]()
	}
	return opt.NonEmpty(name)
}
