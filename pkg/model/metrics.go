package model

import (
	"fmt"

	"gohsl/pkg/mask"
)

// Metrics summarizes a prediction against a reference label map.
type Metrics struct {
	Confusion [][]int   // Confusion[target][predicted]
	PerClass  []float64 // recall per class
	OA        float64   // overall accuracy
	AA        float64   // average per-class accuracy
	Kappa     float64   // Cohen's kappa
}

// Evaluate compares pred against target over target's labeled pixels.
// Class 0 pixels of the target are treated as unlabeled and skipped.
func Evaluate(pred, target *mask.LabelMap) (*Metrics, error) {
	if pred.Rows != target.Rows || pred.Cols != target.Cols {
		return nil, fmt.Errorf("model: prediction %dx%d does not match target %dx%d",
			pred.Rows, pred.Cols, target.Rows, target.Cols)
	}

	n := 0
	for i := range target.Data {
		if target.Data[i] > n {
			n = target.Data[i]
		}
		if pred.Data[i] > n {
			n = pred.Data[i]
		}
	}
	n++

	m := &Metrics{Confusion: make([][]int, n), PerClass: make([]float64, n)}
	for i := range m.Confusion {
		m.Confusion[i] = make([]int, n)
	}

	total := 0
	for i, t := range target.Data {
		if t == 0 {
			continue
		}
		m.Confusion[t][pred.Data[i]]++
		total++
	}
	if total == 0 {
		return nil, fmt.Errorf("model: target has no labeled pixels")
	}

	correct := 0
	classes := 0
	for t := 0; t < n; t++ {
		rowTotal := 0
		for p := 0; p < n; p++ {
			rowTotal += m.Confusion[t][p]
		}
		correct += m.Confusion[t][t]
		if rowTotal > 0 {
			m.PerClass[t] = float64(m.Confusion[t][t]) / float64(rowTotal)
			m.AA += m.PerClass[t]
			classes++
		}
	}
	m.OA = float64(correct) / float64(total)
	if classes > 0 {
		m.AA /= float64(classes)
	}

	// Chance agreement from the confusion matrix margins.
	pe := 0.0
	for k := 0; k < n; k++ {
		rowSum, colSum := 0, 0
		for j := 0; j < n; j++ {
			rowSum += m.Confusion[k][j]
			colSum += m.Confusion[j][k]
		}
		pe += float64(rowSum) * float64(colSum)
	}
	pe /= float64(total) * float64(total)
	if pe < 1 {
		m.Kappa = (m.OA - pe) / (1 - pe)
	}
	return m, nil
}
