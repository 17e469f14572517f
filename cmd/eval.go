package cmd

import (
	"fmt"

	"github.com/samuelfneumann/gofqf/agent/fqf"
	"github.com/samuelfneumann/gofqf/experiment"
	"github.com/spf13/cobra"
)

var (
	evalEpisodes     int
	evalEpisodeSteps int
	weightsDir       string
)

// EvalCommand returns the command that evaluates saved network weights
// on the Cartpole Balance task
func EvalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate saved network weights on the Cartpole Balance task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return eval()
		},
	}

	cmd.Flags().IntVar(&evalEpisodes, "episodes", experiment.EvalEpisodes,
		"Number of evaluation episodes")
	cmd.Flags().IntVar(&evalEpisodeSteps, "episode-steps", 500,
		"Maximum steps per episode")
	cmd.Flags().StringVar(&weightsDir, "weights", "",
		"Directory holding saved network weights")
	cmd.MarkFlagRequired("weights")

	return cmd
}

func eval() error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	env := newCartpole(uint64(seed), evalEpisodeSteps, config.Gamma)
	agent, err := fqf.New(env, config, seed)
	if err != nil {
		return err
	}
	if err := agent.Load(weightsDir); err != nil {
		return err
	}

	mean, stdDev, err := experiment.Evaluate(env, agent, evalEpisodes)
	if err != nil {
		return err
	}

	fmt.Printf("return over %v episodes: %.2f ± %.2f\n", evalEpisodes,
		mean, stdDev)
	return nil
}
