package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/vocembed/logging"
)

var rootCmd = &cobra.Command{
	Use:   "vocembed",
	Short: "Speaker embedding trainer with triplet loss and cyclic learning rates",
	Long: `vocembed trains speaker embeddings with an online triplet-loss
objective over label-balanced mini-batches, driven by a cyclic
learning-rate schedule that can be checkpointed and resumed mid-cycle.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Error(err, "command failed")
		os.Exit(1)
	}
}
