// Package eval scores external late-delivery predictions against actual
// outcomes. It reproduces the autograde semantics of the original system:
// orders are joined to deliveries, cancelled orders drop out, predictions
// join by order id, and the summary reports PR-AUC, ROC-AUC, F1 at the 0.5
// threshold and F1 at the top-20% capacity threshold.
package eval

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/integrate"

	"procan/internal/dataset"
)

// Sample is one scored order with its actual outcome.
type Sample struct {
	OrderID string
	Late    bool
	P       float64
}

// Summary is the evaluation result.
type Summary struct {
	Merged int // samples surviving all joins

	PRAUC  float64
	ROCAUC float64

	F1AtHalf float64

	// TopKThreshold is the smallest score inside the top 20% by rank
	// (k = max(1, ⌊0.2n⌋)); scores >= the threshold classify positive.
	TopKThreshold float64
	F1AtTopK      float64

	// TopKDegenerate flags a capacity threshold that classifies every
	// sample the same way. Such a threshold is reported but must not be
	// treated as a usable operating point.
	TopKDegenerate bool
}

// Merge builds evaluation samples from loaded tables. An order contributes
// iff it has a non-cancelled delivery and a prediction; everything else
// fails the join silently, mirroring the report components.
func Merge(t *dataset.Tables) []Sample {
	s := dataset.Build(t)
	var out []Sample
	for i := range t.Orders {
		o := &t.Orders[i]
		d, ok := s.DeliveryByOrder[o.OrderID]
		if !ok || d.Cancelled {
			continue
		}
		p, ok := s.PredictionByOrder[o.OrderID]
		if !ok {
			continue
		}
		out = append(out, Sample{OrderID: o.OrderID, Late: d.Late, P: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}

// Evaluate computes the summary. It needs at least one positive and one
// negative sample; AUC is undefined otherwise.
func Evaluate(samples []Sample) (Summary, error) {
	var sum Summary
	sum.Merged = len(samples)

	var pos int
	for _, s := range samples {
		if s.Late {
			pos++
		}
	}
	neg := len(samples) - pos
	if pos == 0 || neg == 0 {
		return sum, fmt.Errorf("eval: need both classes, have %d late / %d on-time", pos, neg)
	}

	sum.PRAUC = averagePrecision(samples, pos)
	sum.ROCAUC = rocAUC(samples, pos, neg)
	sum.F1AtHalf = f1At(samples, 0.5)

	k := len(samples) / 5
	if k < 1 {
		k = 1
	}
	sum.TopKThreshold = kthLargest(samples, k)
	sum.F1AtTopK = f1At(samples, sum.TopKThreshold)

	predicted := 0
	for _, s := range samples {
		if s.P >= sum.TopKThreshold {
			predicted++
		}
	}
	sum.TopKDegenerate = predicted == 0 || predicted == len(samples)

	return sum, nil
}

// averagePrecision integrates precision over recall step-wise across
// descending unique score thresholds, which keeps ties exact.
func averagePrecision(samples []Sample, pos int) float64 {
	sorted := byScoreDesc(samples)

	var (
		tp, fp     int
		ap         float64
		prevRecall float64
	)
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j].P == sorted[i].P {
			if sorted[j].Late {
				tp++
			} else {
				fp++
			}
			j++
		}
		precision := float64(tp) / float64(tp+fp)
		recall := float64(tp) / float64(pos)
		ap += (recall - prevRecall) * precision
		prevRecall = recall
		i = j
	}
	return ap
}

// rocAUC builds the ROC curve over descending unique thresholds and
// integrates it with the trapezoid rule. With ties collapsed into single
// curve points this equals the rank statistic with tie correction.
func rocAUC(samples []Sample, pos, neg int) float64 {
	sorted := byScoreDesc(samples)

	fpr := []float64{0}
	tpr := []float64{0}
	var tp, fp int
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j].P == sorted[i].P {
			if sorted[j].Late {
				tp++
			} else {
				fp++
			}
			j++
		}
		fpr = append(fpr, float64(fp)/float64(neg))
		tpr = append(tpr, float64(tp)/float64(pos))
		i = j
	}
	return integrate.Trapezoidal(fpr, tpr)
}

// f1At scores the classification "late iff p >= threshold".
func f1At(samples []Sample, threshold float64) float64 {
	var tp, fp, fn int
	for _, s := range samples {
		predicted := s.P >= threshold
		switch {
		case predicted && s.Late:
			tp++
		case predicted && !s.Late:
			fp++
		case !predicted && s.Late:
			fn++
		}
	}
	if tp == 0 {
		return 0
	}
	precision := float64(tp) / float64(tp+fp)
	recall := float64(tp) / float64(tp+fn)
	return 2 * precision * recall / (precision + recall)
}

func kthLargest(samples []Sample, k int) float64 {
	scores := make([]float64, len(samples))
	for i, s := range samples {
		scores[i] = s.P
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))
	return scores[k-1]
}

func byScoreDesc(samples []Sample) []Sample {
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].P > sorted[j].P })
	return sorted
}
