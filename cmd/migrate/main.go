// Command migrate manages the lunch voting schema.
//
//	migrate up | down | version | steps N | seed
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"lunch-voting/internal/clock"
	"lunch-voting/internal/config"
	"lunch-voting/internal/database"
	"lunch-voting/internal/database/migrations"
	"lunch-voting/internal/logger"
	"lunch-voting/internal/models"
	"lunch-voting/internal/restaurant"
	restaurantdb "lunch-voting/internal/restaurant/db"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
)

func main() {
	dir := flag.String("dir", "", "migrations directory (defaults to MIGRATIONS_DIR)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	if *dir != "" {
		cfg.Database.MigrationsDir = *dir
	}

	log, err := logger.NewLogger("", "lunch-voting-migrate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		log.Fatal("MIGRATE", "usage: migrate [-dir path] up|down|version|steps N|seed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB, migrations.Options{MigrationsDir: cfg.Database.MigrationsDir}, log)
	defer runner.Close()

	if err := run(ctx, runner, bunDB, cfg, log, args); err != nil {
		log.Fatal("MIGRATE", err.Error())
	}
	log.Info("MIGRATE", "Done")
}

func run(ctx context.Context, runner *migrations.Runner, bunDB *bun.DB, cfg *config.Config, log *logger.Logger, args []string) error {
	switch args[0] {
	case "up":
		return runner.Up()
	case "down":
		return runner.Down()
	case "steps":
		if len(args) < 2 {
			return errors.New("steps needs a count")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid step count %q: %w", args[1], err)
		}
		return runner.Steps(n)
	case "version":
		version, dirty, err := runner.Version()
		if err != nil {
			return err
		}
		log.Info("MIGRATE", fmt.Sprintf("version=%d dirty=%t", version, dirty))
		return nil
	case "seed":
		if err := runner.Up(); err != nil {
			return err
		}
		clk, err := clock.NewSystem(cfg.Voting.Timezone)
		if err != nil {
			return err
		}
		return seed(ctx, restaurant.NewService(&restaurantdb.DB{Bun: bunDB}, clk, log), log)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// seed adds two restaurants with a menu for today. Existing rows are kept.
func seed(ctx context.Context, svc *restaurant.Service, log *logger.Logger) error {
	samples := []struct {
		name  string
		items []models.ItemPayload
	}{
		{"Green Fork", []models.ItemPayload{
			{Name: "Lentil soup", Price: 4.5},
			{Name: "Falafel wrap", Price: 7.9, Description: "with tahini"},
		}},
		{"Noodle Bar", []models.ItemPayload{
			{Name: "Pad thai", Price: 9.5},
			{Name: "Spring rolls", Price: 3.2},
		}},
	}

	existing, err := svc.ListRestaurants(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]models.Restaurant, len(existing))
	for _, r := range existing {
		byName[r.Name] = r
	}

	for _, s := range samples {
		r, ok := byName[s.name]
		if !ok {
			created, err := svc.CreateRestaurant(ctx, models.RestaurantRequest{Name: s.name, OwnerID: "seed"})
			if err != nil {
				return fmt.Errorf("seed restaurant %s: %w", s.name, err)
			}
			r = *created
		}
		_, err := svc.CreateMenu(ctx, r.ID, models.MenuRequest{Items: s.items}, "", true)
		switch {
		case errors.Is(err, restaurant.ErrMenuExists):
			log.Info("SEED", fmt.Sprintf("%s already has a menu today", s.name))
		case err != nil:
			return fmt.Errorf("seed menu for %s: %w", s.name, err)
		default:
			log.Info("SEED", fmt.Sprintf("Added today's menu for %s", s.name))
		}
	}
	return nil
}
