// Command nodeflow is the front-end shim: it loads a root specification,
// instantiates it, drains its outputs, and shuts down (§2 "Front-end
// shim", §6 CLI).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/agentnodes/nodeflow/internal/config"
	"github.com/agentnodes/nodeflow/internal/engine"
	"github.com/agentnodes/nodeflow/internal/loader"
	"github.com/agentnodes/nodeflow/internal/obslog"
	"github.com/agentnodes/nodeflow/internal/utils"
	"github.com/agentnodes/nodeflow/internal/values"
)

func main() {
	cfg := config.Load()

	var (
		printOutput  bool
		printSchemas bool
		logLevel     string
	)
	flag.BoolVar(&printOutput, "p", false, "echo the end node's outputs")
	flag.BoolVar(&printOutput, "print-output", false, "echo the end node's outputs")
	flag.BoolVar(&printSchemas, "print-schemas", false, "emit the JSON schema of the specification and exit")
	flag.StringVar(&logLevel, "log-level", utils.DefaultValue(cfg.LogLevel, "info"), "zerolog level (debug, info, warn, error)")
	flag.Parse()

	obslog.Setup(logLevel)

	if printSchemas {
		schema, err := loader.PrintSchema()
		if err != nil {
			log.Error().Err(err).Msg("failed to render schema")
			os.Exit(1)
		}
		fmt.Println(string(schema))
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: nodeflow <file> | nodeflow --print-schemas")
		os.Exit(1)
	}
	path := flag.Arg(0)

	os.Exit(run(path, printOutput))
}

func run(path string, printOutput bool) int {
	root, err := engine.LoadRoot(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to load specification")
		return 1
	}

	ctx := context.Background()
	inputs := make([]values.DataValue, len(root.Spec().Inputs))
	for i := range inputs {
		inputs[i] = values.None()
	}

	running := root.Run(ctx, inputs)
	defer running.Shutdown()

	outputs, err := running.GetOutputs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("evaluation failed")
		return 2
	}

	log.Info().Int("outputs", len(outputs)).Msg("evaluation complete")
	if printOutput {
		for _, v := range outputs {
			fmt.Println(v.Display())
		}
	}
	return 0
}
