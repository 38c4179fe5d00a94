package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/mini-rodalies-3d/metroled/internal/db"
	"github.com/mini-rodalies-3d/metroled/internal/logging"
	"github.com/mini-rodalies-3d/metroled/internal/static/wl"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	dbPath := flag.String("db", os.Getenv("SQLITE_DATABASE"), "Path to SQLite database")
	input := flag.String("input", "", "LED index CSV (Ref;Name;Scheme;Index)")
	flag.Parse()

	logging.InitLogger()
	defer logging.SyncLogger()
	log := logging.Named("import-leds")

	if *dbPath == "" || *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	defer f.Close()

	rows, err := wl.ReadLEDIndex(f)
	if err != nil {
		log.Fatalf("Failed to parse %s: %v", *input, err)
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, *dbPath, logging.Named("db"))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	n, err := database.ImportLEDIndex(ctx, rows)
	if err != nil {
		log.Fatalf("Failed to import: %v", err)
	}
	log.Infow("import complete", "rows", n, "db", *dbPath)
}
