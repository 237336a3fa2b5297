// Command predict trains the late-delivery model on orders dated strictly
// before the cutoff and writes p_late scores for every order on or after it.
// The output CSV plugs straight back into a run config as the predictions
// table.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"procan/internal/config"
	"procan/internal/dataset"
	"procan/internal/model"
)

func main() {
	var (
		cfgPath   string
		cutoff    string
		outPath   string
		modelPath string
		epochs    int
		lr        float64
	)
	flag.StringVar(&cfgPath, "config", "configs/run.json", "run config naming the input tables")
	flag.StringVar(&cutoff, "cutoff", "2025-04-01", "train on orders before this date, score the rest")
	flag.StringVar(&outPath, "out", "predictions.csv", "output CSV path (order_id,p_late)")
	flag.StringVar(&modelPath, "model", "", "optionally save trained weights as JSON")
	flag.IntVar(&epochs, "epochs", 0, "gradient-descent epochs (0 = default)")
	flag.Float64Var(&lr, "lr", 0, "learning rate (0 = default)")
	verbose := flag.Bool("v", false, "enable verbose logs")
	flag.Parse()

	run, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}

	ctx := context.Background()
	loader := &dataset.Loader{Open: dataset.NewOpener(run.FetchConfig())}

	// The predictions entry is the file this command produces; never read it.
	src := run.Dataset
	src.Predictions = ""

	tables, err := loader.Load(ctx, src)
	if err != nil {
		fatalf("load tables: %v", err)
	}
	snapshot := dataset.Build(tables)

	fs := model.NewFeatureSet(snapshot)
	train, score, err := fs.Split(snapshot, cutoff)
	if err != nil {
		fatalf("%v", err)
	}
	if *verbose {
		log.Printf("predict: %d training orders before %s, %d to score", len(train), cutoff, len(score))
	}

	m, err := model.Train(train, fs.Names(), model.TrainConfig{Epochs: epochs, LearningRate: lr})
	if err != nil {
		fatalf("train: %v", err)
	}
	if modelPath != "" {
		if err := m.Save(modelPath); err != nil {
			fatalf("%v", err)
		}
		if *verbose {
			log.Printf("predict: model saved to %s", modelPath)
		}
	}

	if err := writePredictions(outPath, m, score); err != nil {
		fatalf("%v", err)
	}
	log.Printf("predict: wrote %d scores to %s", len(score), outPath)
}

func writePredictions(path string, m *model.Model, score []model.Example) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"order_id", "p_late"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, ex := range score {
		p, err := m.PredictProba(ex.X)
		if err != nil {
			return err
		}
		if err := w.Write([]string{ex.OrderID, strconv.FormatFloat(p, 'f', 6, 64)}); err != nil {
			return fmt.Errorf("write %s: %w", ex.OrderID, err)
		}
	}
	w.Flush()
	return w.Error()
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
