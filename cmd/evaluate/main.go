// Command evaluate scores a predictions file against actual delivery
// outcomes and prints the ranking and threshold metrics used to grade
// late-delivery models.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"procan/internal/dataset"
	"procan/internal/eval"
)

func main() {
	var (
		ordersPath      string
		deliveriesPath  string
		predictionsPath string
	)
	flag.StringVar(&ordersPath, "po", "purchase_orders.csv", "purchase orders CSV (join spine)")
	flag.StringVar(&deliveriesPath, "labels", "deliveries.csv", "deliveries CSV with actual outcomes")
	flag.StringVar(&predictionsPath, "predictions", "predictions.csv", "predictions CSV (order_id,p_late)")
	flag.Parse()

	loader := &dataset.Loader{Open: dataset.NewOpener(dataset.FetchConfig{})}
	tables, err := loader.LoadForEvaluation(context.Background(), ordersPath, deliveriesPath, predictionsPath)
	if err != nil {
		fatalf("%v", err)
	}

	samples := eval.Merge(tables)
	sum, err := eval.Evaluate(samples)
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Printf("evaluated %d orders\n", sum.Merged)
	fmt.Printf("PR_AUC      %.4f\n", sum.PRAUC)
	fmt.Printf("ROC_AUC     %.4f\n", sum.ROCAUC)
	fmt.Printf("F1@0.5      %.4f\n", sum.F1AtHalf)
	fmt.Printf("F1@top20%%   %.4f (threshold %.4f)\n", sum.F1AtTopK, sum.TopKThreshold)
	if sum.TopKDegenerate {
		fmt.Println("warning: top-20% threshold classifies every order the same way; F1@top20% is not a usable operating point")
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
