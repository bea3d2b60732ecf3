package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/docopt/docopt-go"

	"github.com/bernicerice/MealMission/internal/config"
	"github.com/bernicerice/MealMission/internal/logging"
	"github.com/bernicerice/MealMission/internal/repository/postgres"
	"github.com/bernicerice/MealMission/internal/service"
)

const version = "0.1.0"

const usage = `Load a restaurant catalog into the MealMission database.

DATABASE_URL must point at the server's database.

Usage:
    seed [--replace] <file>
    seed -h | --help
    seed --version

Options:
    -h --help    Show this screen.
    --version    Show version.
    --replace    Drop catalog entries that are not in <file>.`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		log.Fatalf("parse args: %v", err)
	}
	path, _ := opts.String("<file>")
	replace, _ := opts.Bool("--replace")

	cfg := config.LoadSeed()
	closer := logging.Setup("[seed]", cfg.LogstashTCPAddr)
	defer closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read catalog: %v", err)
	}

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	seeder := service.NewCatalogSeeder(service.NewDocumentService(postgres.NewDocumentRepo(db)))
	ids, err := seeder.Load(ctx, data, replace)
	if err != nil {
		log.Fatalf("seed catalog: %v", err)
	}
	log.Printf("seeded %d restaurants from %s (replace=%t)", len(ids), path, replace)
}
