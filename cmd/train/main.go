package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"phishguard/classifier"
	"phishguard/logging"
)

var (
	// Input / output
	dataFile  = flag.String("data", "phishing.csv", "Labelled dataset (.csv or .xlsx)")
	modelFile = flag.String("out", "model/model.json", "Where to write the model (.gz suffix compresses)")

	// Forest parameters
	trees       = flag.Int("trees", 100, "Number of trees in the forest")
	maxDepth    = flag.Int("max-depth", 0, "Maximum tree depth (0 = unlimited)")
	minLeaf     = flag.Int("min-samples-leaf", 1, "Minimum samples per leaf")
	maxFeatures = flag.Int("max-features", 0, "Features considered per split (0 = sqrt of total)")
	testSize    = flag.Float64("test-size", 0.2, "Fraction of rows held out for evaluation")
	seed        = flag.Int64("seed", 42, "Random seed for the split and the forest")

	// Logging
	verbose = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog = flag.Bool("json-log", false, "Output logs in JSON format")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	samples, err := classifier.LoadDataset(*dataFile)
	if err != nil {
		logger.Fatal("Failed to load dataset", zap.String("file", *dataFile), zap.Error(err))
	}

	train, test := classifier.Split(samples, *testSize, *seed)
	logger.Info("Dataset loaded",
		zap.String("file", *dataFile),
		zap.Int("rows", len(samples)),
		zap.Int("train", len(train)),
		zap.Int("test", len(test)))

	forest, err := classifier.Train(train, classifier.TrainOptions{
		Trees:          *trees,
		MaxDepth:       *maxDepth,
		MinSamplesLeaf: *minLeaf,
		MaxFeatures:    *maxFeatures,
		Seed:           *seed,
	})
	if err != nil {
		logger.Fatal("Training failed", zap.Error(err))
	}

	forest.Accuracy = classifier.Accuracy(forest, test)
	fmt.Printf("Accuracy: %v\n", forest.Accuracy)

	if dir := filepath.Dir(*modelFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal("Failed to create model directory", zap.Error(err))
		}
	}
	if err := forest.Save(*modelFile); err != nil {
		logger.Fatal("Failed to save model", zap.Error(err))
	}
	fmt.Printf("Model saved as %s\n", *modelFile)
}
