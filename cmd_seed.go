package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/olivierh59500/particlelife/internal/engine"
	"github.com/olivierh59500/particlelife/internal/history"
	"github.com/olivierh59500/particlelife/internal/matrix"
	"github.com/olivierh59500/particlelife/internal/seed"
	"github.com/olivierh59500/particlelife/internal/storage"
)

func runSeedDecode(cmd *cobra.Command, args []string) error {
	cfg, err := seed.Decode(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "world: %.1f x %.1f, %d particles\n", cfg.Bounds.Width, cfg.Bounds.Height, cfg.Total())
	fmt.Fprint(out, "population:")
	for _, n := range cfg.Population {
		fmt.Fprintf(out, " %d", n)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "\nmatrix (power/radius, row = source class):")
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "\t")
	for dst := range matrix.ClassCount {
		fmt.Fprintf(tw, "%d\t", dst)
	}
	fmt.Fprintln(tw)
	for src := range matrix.ClassCount {
		fmt.Fprintf(tw, "%d\t", src)
		for dst := range matrix.ClassCount {
			p := cfg.Matrix.At(src, dst)
			fmt.Fprintf(tw, "%+.1f/%.0f\t", p.Power, p.Radius)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func runSeedEncode(cmd *cobra.Command, args []string) error {
	cfg, err := seed.Decode(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), seed.Encode(cfg))
	return nil
}

func runSeedEdit(cmd *cobra.Command, args []string) error {
	src, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("src class: %w", err)
	}
	dst, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("dst class: %w", err)
	}
	power, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("power: %w", err)
	}
	radius, err := strconv.ParseFloat(args[4], 64)
	if err != nil {
		return fmt.Errorf("radius: %w", err)
	}

	_, logger, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := engine.New(args[0], engine.Options{Logger: logger.With("component", "engine")})
	if err != nil {
		return err
	}
	if err := eng.SetInteraction(src, dst, matrix.Params{Power: power, Radius: radius}); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), eng.CurrentSeed())
	return nil
}

func runSeedRandom(cmd *cobra.Command, args []string) error {
	r := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	fmt.Fprintln(cmd.OutOrStdout(), seed.Random(r))
	return nil
}

// openDB opens the database at path for a one-shot command
func openDB(path, what string, logger *slog.Logger) (*storage.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("%s is not set in the config", what)
	}
	dbCfg := storage.DefaultConfig(path)
	dbCfg.Logger = logger.With("component", "storage")
	return storage.Open(dbCfg)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg.History.DBPath, "history.db_path", logger)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := storage.NewHistoryStore(db).Load(cmd.Context())
	if err != nil {
		return err
	}
	ring := history.Restore(cfg.History.Capacity, entries)
	current, _ := ring.Current()
	out := cmd.OutOrStdout()
	for _, e := range ring.Entries() {
		mark := " "
		if e.Seed == current {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %s\n", mark, e.Seed)
	}
	return nil
}

func runRecordings(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg.Recorder.DBPath, "recorder.db_path", logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	store := storage.NewRecordingStore(db)
	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	if len(args) == 0 {
		runs, err := store.Runs(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "ID\tSTARTED\tSEED")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.Started.Format(time.DateTime), r.Seed)
		}
		return tw.Flush()
	}

	samples, err := store.Samples(ctx, args[0])
	if errors.Is(err, storage.ErrRunNotFound) {
		return fmt.Errorf("no recording with id %s", args[0])
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(tw, "TICK\tPARTICLES\tMEAN SPEED\tSEED")
	for _, s := range samples {
		total, speed := 0, 0.0
		for c, n := range s.Features.Count {
			total += n
			speed += s.Features.Speed[c] * float64(n)
		}
		if total > 0 {
			speed /= float64(total)
		}
		fmt.Fprintf(tw, "%d\t%d\t%.2f\t%s\n", s.Features.Tick, total, speed, s.Seed)
	}
	return tw.Flush()
}
