package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gohsl/pkg/config"
	"gohsl/pkg/dataset"
	"gohsl/pkg/hsimage"
	"gohsl/pkg/mask"
	"gohsl/pkg/model"
	"gohsl/pkg/sampler"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "gohsl.yaml", "Path to YAML configuration file")
	cubePath := flag.String("cube", "", "Hyperspectral cube file (.npy, .mat or .h5); overrides the config")
	maskPath := flag.String("mask", "", "Ground-truth mask file; overrides the config")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	exportBands := flag.Bool("export-bands", false, "Export every spectral band as a grayscale image")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *cubePath != "" {
		cfg.Dataset.CubePath = *cubePath
	}
	if *maskPath != "" {
		cfg.Dataset.MaskPath = *maskPath
	}
	if cfg.Dataset.CubePath == "" || cfg.Dataset.MaskPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	fmt.Println("================================")
	fmt.Println("GOHSL HYPERSPECTRAL CLASSIFICATION TOOLKIT")
	fmt.Println("================================")

	startTime := time.Now()

	cube, err := hsimage.Load(cfg.Dataset.CubePath, cfg.Dataset.CubeKey)
	if err != nil {
		log.Fatalf("Failed to load cube: %v", err)
	}
	fmt.Printf("Loaded cube: %dx%d pixels, %d bands\n", cube.Rows, cube.Cols, cube.Bands)

	gtMask := mask.NewEmpty()
	if err := gtMask.Load(cfg.Dataset.MaskPath, cfg.Dataset.MaskKey); err != nil {
		log.Fatalf("Failed to load mask: %v", err)
	}
	gt := gtMask.Get2D()
	if gt.Rows != cube.Rows || gt.Cols != cube.Cols {
		log.Fatalf("Mask %dx%d does not match cube %dx%d", gt.Rows, gt.Cols, cube.Rows, cube.Cols)
	}
	fmt.Printf("Loaded mask: %d classes, %d labeled pixels\n", gtMask.NClasses(), gt.CountNonzero())

	dataset.Normalize(cube)
	if cfg.PCA.Apply {
		fmt.Printf("Reducing %d bands to %d principal components...\n", cube.Bands, cfg.PCA.Components)
		reduced, _, err := dataset.ApplyPCA(cube, cfg.PCA.Components)
		if err != nil {
			log.Fatalf("PCA failed: %v", err)
		}
		cube = reduced
	}

	splits, err := model.PrepareSplits(gt, cfg.Sampling.TrainSize, sampler.Mode(cfg.Sampling.Mode))
	if err != nil {
		log.Fatalf("Sampling failed: %v", err)
	}

	patches, err := dataset.CreatePatches(cube, splits.Train, cfg.Patches.Size, cfg.Patches.RemoveZeroLabels)
	if err != nil {
		log.Fatalf("Patch extraction failed: %v", err)
	}
	fmt.Printf("Extracted %d training patches of size %dx%dx%d\n",
		patches.Len(), cfg.Patches.Size, cfg.Patches.Size, cube.Bands)

	if err := model.SaveTrainMask("gohsl", cfg.Dataset.Name, splits.Train); err != nil {
		log.Printf("Warning: failed to save train mask: %v", err)
	}

	if *exportBands {
		bandsDir := filepath.Join(cfg.Inference.OutputDir, "bands")
		fmt.Printf("Exporting spectral bands to: %s\n", bandsDir)
		if err := cube.ExportBands(bandsDir); err != nil {
			log.Printf("Warning: failed to export bands: %v", err)
		}
	}

	fmt.Printf("\nDataset preparation completed in %.2f seconds\n", time.Since(startTime).Seconds())
	fmt.Printf("Train pixels: %d\n", splits.Train.CountNonzero())
	fmt.Printf("Val pixels:   %d\n", splits.Val.CountNonzero())
	fmt.Printf("Test pixels:  %d\n", splits.Test.CountNonzero())
}
