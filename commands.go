package main

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	seedFlag   string
	logLevel   string

	headlessTicks   int
	headlessWorkers int
	headlessRecord  bool

	rootCmd = &cobra.Command{
		Use:          "particlelife",
		Short:        "A deterministic particle life simulator",
		SilenceUsage: true,
		Long: `Particle life: classes of particles attract and repel each other
according to a class interaction matrix. Every run is reproducible from its
seed, either a plain string or an '@' custom seed exported after editing.`,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Open the simulation window",
		RunE:  runWindow,
	}

	termCmd = &cobra.Command{
		Use:   "term",
		Short: "Run the simulation in the terminal",
		RunE:  runTerminal,
	}

	headlessCmd = &cobra.Command{
		Use:   "headless",
		Short: "Run a fixed number of ticks without a display and print a summary",
		RunE:  runHeadless,
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Inspect and convert seeds",
	}
	seedDecodeCmd = &cobra.Command{
		Use:   "decode <seed>",
		Short: "Print the populations and matrix a seed expands to",
		Args:  cobra.ExactArgs(1),
		RunE:  runSeedDecode,
	}
	seedEncodeCmd = &cobra.Command{
		Use:   "encode <seed>",
		Short: "Print the '@' custom form of a seed",
		Args:  cobra.ExactArgs(1),
		RunE:  runSeedEncode,
	}
	seedEditCmd = &cobra.Command{
		Use:   "edit <seed> <src> <dst> <power> <radius>",
		Short: "Change one matrix entry and print the resulting '@' seed",
		Long: `Loads the seed, sets how class src reacts to class dst and prints the
custom seed of the edited config. Power is in [-1, 1], radius in (0, 60];
both snap to the steps a custom seed can carry.`,
		Args: cobra.ExactArgs(5),
		RunE: runSeedEdit,
	}
	seedRandomCmd = &cobra.Command{
		Use:   "random",
		Short: "Print a fresh random seed",
		Args:  cobra.NoArgs,
		RunE:  runSeedRandom,
	}

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Work with the persisted seed history",
	}
	historyListCmd = &cobra.Command{
		Use:   "list",
		Short: "List remembered seeds, oldest first",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}

	recordingsCmd = &cobra.Command{
		Use:   "recordings [run-id]",
		Short: "List recordings, or print the samples of one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRecordings,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (watched for changes)")
	rootCmd.PersistentFlags().StringVarP(&seedFlag, "seed", "s", "", "seed to start with (default: last history entry or a random seed)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(termCmd)

	rootCmd.AddCommand(headlessCmd)
	headlessCmd.Flags().IntVarP(&headlessTicks, "ticks", "n", 1000, "ticks to run")
	headlessCmd.Flags().IntVar(&headlessWorkers, "workers", 0, "force pass workers (0 uses the config)")
	headlessCmd.Flags().BoolVar(&headlessRecord, "record", false, "store the final features as a recording")

	rootCmd.AddCommand(seedCmd)
	seedCmd.AddCommand(seedDecodeCmd)
	seedCmd.AddCommand(seedEncodeCmd)
	seedCmd.AddCommand(seedEditCmd)
	seedCmd.AddCommand(seedRandomCmd)

	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)

	rootCmd.AddCommand(recordingsCmd)
}
