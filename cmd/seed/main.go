package main

import (
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/oggyb/us-matching/internal/config"
	"github.com/oggyb/us-matching/internal/db"
	"github.com/oggyb/us-matching/internal/logger"
)

var (
	minimal  bool
	users    int
	seedFrom int64

	rootCmd = &cobra.Command{
		Use:   "seed",
		Short: "Reset the database and load demo data",
		Long: `Wipes profiles, likes, matches, chat and notifications, then loads either
a random demo population or the small fixed dataset used by the tests.`,
		Args: cobra.NoArgs,
		RunE: runSeed,
	}
)

func init() {
	rootCmd.Flags().BoolVar(&minimal, "minimal", false, "Load the fixed five-profile dataset instead of random users")
	rootCmd.Flags().IntVar(&users, "users", 50, "Number of random profiles to create")
	rootCmd.Flags().Int64Var(&seedFrom, "rand-seed", 0, "Random seed; 0 picks one from the clock")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(database); err != nil {
		return err
	}

	if minimal {
		if err := db.SeedMinimalTestData(database); err != nil {
			return err
		}
		log.Info("seeding completed", "dataset", "minimal")
		return nil
	}

	var r *rand.Rand
	if seedFrom != 0 {
		r = rand.New(rand.NewSource(seedFrom))
	}
	if err := db.SeedTestData(database, users, r); err != nil {
		return err
	}
	log.Info("seeding completed", "dataset", "random", "users", users)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("seed failed", "err", err)
		os.Exit(1)
	}
}
