package cmd

import (
	"github.com/samuelfneumann/gofqf/agent/fqf"
	"github.com/samuelfneumann/gofqf/experiment"
	"github.com/samuelfneumann/gofqf/experiment/checkpointer"
	"github.com/samuelfneumann/gofqf/tracker"
	"github.com/spf13/cobra"
)

var (
	steps              int
	evalInterval       int
	episodeSteps       int
	logInterval        int
	metricsFile        string
	checkpointDir      string
	checkpointInterval int
	live               bool
)

// TrainCommand returns the command that trains an agent on the
// Cartpole Balance task
func TrainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train an agent on the Cartpole Balance task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return train()
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 100000,
		"Total environment steps to train for")
	cmd.Flags().IntVar(&evalInterval, "eval-interval", 5000,
		"Environment steps between evaluations; 0 disables evaluation")
	cmd.Flags().IntVar(&episodeSteps, "episode-steps", 500,
		"Maximum steps per episode")
	cmd.Flags().IntVar(&logInterval, "log-interval", 100,
		"Learning steps between metric records")
	cmd.Flags().StringVar(&metricsFile, "metrics", "metrics.bin",
		"File to save tracked metrics to")
	cmd.Flags().StringVar(&checkpointDir, "checkpoint-dir", "",
		"Directory to save network weights to; empty disables checkpoints")
	cmd.Flags().IntVar(&checkpointInterval, "checkpoint-interval", 5000,
		"Environment steps between checkpoints")
	cmd.Flags().BoolVar(&live, "live", true,
		"Display the latest metrics on the terminal while training")

	return cmd
}

func train() error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	trainEnv := newCartpole(uint64(seed), episodeSteps, config.Gamma)
	evalEnv := newCartpole(uint64(seed)+1, episodeSteps, config.Gamma)

	agent, err := fqf.New(trainEnv, config, seed)
	if err != nil {
		return err
	}

	recorders := []tracker.Recorder{tracker.NewGob(metricsFile)}
	if live {
		recorders = append(recorders, tracker.NewLive())
	}
	recorder := tracker.Multi(recorders...)
	agent.SetRecorder(recorder, logInterval)

	var checkpointers []checkpointer.Checkpointer
	if checkpointDir != "" {
		checkpointers = append(checkpointers, checkpointer.NewNStep(
			checkpointInterval, agent, checkpointer.Fixed(checkpointDir)))
	}

	run := experiment.NewOnline(trainEnv, evalEnv, agent, steps,
		evalInterval, recorder, checkpointers...)
	return run.Run()
}
