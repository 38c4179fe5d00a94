package main

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/mini-rodalies-3d/metroled/internal/app"
	"github.com/mini-rodalies-3d/metroled/internal/config"
	"github.com/mini-rodalies-3d/metroled/internal/led"
	"github.com/mini-rodalies-3d/metroled/internal/logging"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	scheme := flag.String("scheme", led.SimpleScheme, "LED scheme to export")
	output := flag.String("output", "", "Output CSV file (default stdout)")
	flag.Parse()

	logging.InitLogger()
	defer logging.SyncLogger()
	log := logging.Named("export-leds")

	cfg := config.Load()
	n, report, err := app.LoadNetwork(context.Background(), cfg, nil, logging.Named("network"))
	if err != nil {
		log.Fatalf("Failed to load network: %v", err)
	}

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		w = f
	}

	rows, err := led.Export(w, n, *scheme)
	if err != nil {
		log.Fatalf("Failed to export: %v", err)
	}
	if rows == 0 {
		log.Warnw("nothing exported", "scheme", *scheme, "known", report.Schemes)
		return
	}
	log.Infow("export complete", "scheme", *scheme, "rows", rows)
}
