package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"neuroskin/internal/models"
	"neuroskin/pkg/config"
	"neuroskin/pkg/scene"
	"neuroskin/pkg/stl"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "neuroskin.yaml", "Path to the YAML configuration file")
	inputDir := flag.String("input", "", "Directory containing exported neuron meshes (overrides config)")
	format := flag.String("format", "", "Input mesh format: blend, ply or obj (overrides config)")
	gids := flag.String("gids", "", "Comma-separated neuron GIDs to load (overrides config)")
	exportDir := flag.String("export", "", "Directory to export loaded meshes as STL (optional)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Load configuration, falling back to defaults if the file is absent
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *inputDir != "" {
		cfg.Input.Directory = *inputDir
	}
	if *format != "" {
		cfg.Input.Format = *format
	}
	if *gids != "" {
		cfg.Input.GIDs = strings.Split(*gids, ",")
	}

	if cfg.Input.Directory == "" || len(cfg.Input.GIDs) == 0 {
		fmt.Fprintln(os.Stderr, "No input configured: set input.directory and input.gids, or pass -input and -gids")
		flag.Usage()
		os.Exit(1)
	}

	// Build the neuron list from the configured GIDs
	neurons := make([]*models.Neuron, 0, len(cfg.Input.GIDs))
	for _, gid := range cfg.Input.GIDs {
		gid = strings.TrimSpace(gid)
		if gid != "" {
			neurons = append(neurons, &models.Neuron{GID: gid})
		}
	}

	// Import the membrane meshes into a fresh scene
	logger.Info("importing neuron meshes",
		"directory", cfg.Input.Directory,
		"format", cfg.Input.Format,
		"neurons", len(neurons))

	startTime := time.Now()
	scn := scene.New(logger)
	loaded := scn.LoadNeuronMeshes(cfg.Input.Directory, neurons, cfg.Input.Format)

	fmt.Printf("Loaded %d/%d neurons (%d scene objects) in %.2fs\n",
		loaded, len(neurons), scn.Count(), time.Since(startTime).Seconds())

	// Optionally export everything that was loaded
	if *exportDir != "" {
		if err := os.MkdirAll(*exportDir, 0755); err != nil {
			log.Fatalf("Failed to create export directory: %v", err)
		}
		exported := 0
		for _, obj := range scn.Objects() {
			if len(obj.SurfaceTriangles) == 0 {
				continue
			}
			path := filepath.Join(*exportDir, obj.Name+".stl")
			if err := stl.SaveToSTL(path, stl.FromObject(obj)); err != nil {
				logger.Warn("export failed", "object", obj.Name, "err", err)
				continue
			}
			exported++
		}
		fmt.Printf("Exported %d meshes to %s\n", exported, *exportDir)
	}

	if loaded < len(neurons) {
		os.Exit(1)
	}
}
