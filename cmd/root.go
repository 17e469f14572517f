// Package cmd implements the command line interface for training and
// evaluating agents.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samuelfneumann/gofqf/agent/fqf"
	"github.com/samuelfneumann/gofqf/environment"
	"github.com/samuelfneumann/gofqf/environment/cartpole"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r1"
)

var (
	configPath string
	seed       int64
)

// RootCommand returns the root command of the program
func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "gofqf",
		Short:        "Train and evaluate fully parameterized quantile function agents",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a JSON agent configuration; empty for defaults")
	cmd.PersistentFlags().Int64Var(&seed, "seed", 42, "Random seed")

	cmd.AddCommand(
		TrainCommand(),
		EvalCommand(),
	)

	return cmd
}

// loadConfig returns the agent configuration: the defaults, overridden
// by the JSON file at configPath when one is given
func loadConfig() (fqf.Config, error) {
	config := fqf.DefaultConfig()
	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return config, fmt.Errorf("could not read config: %v", err)
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("could not parse config: %v", err)
	}
	return config, nil
}

// newCartpole constructs a Cartpole Balance environment with episodes
// capped at episodeSteps steps
func newCartpole(seed uint64, episodeSteps int,
	discount float64) environment.Environment {
	bounds := make([]r1.Interval, cartpole.ObservationDims)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -0.05, Max: 0.05}
	}
	starter := environment.NewUniformStarter(bounds, seed)
	task := cartpole.NewBalance(starter, episodeSteps, cartpole.FailAngle)

	env, _ := cartpole.New(task, discount)
	return env
}
