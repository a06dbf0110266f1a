package training

import "math"

type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
}

func (m Metrics) Rounded(places int) Metrics {
	return Metrics{
		Accuracy:  round(m.Accuracy, places),
		Precision: round(m.Precision, places),
		Recall:    round(m.Recall, places),
		F1Score:   round(m.F1Score, places),
	}
}

func round(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}

type classStats struct {
	tp, fp, fn float64
}

// Evaluate computes accuracy and macro averaged precision, recall and F1. The
// macro average runs over every class that appears in yTrue or yPred, classes
// with an undefined ratio contribute 0.
func Evaluate(yTrue, yPred []int, numClasses int) Metrics {
	if len(yTrue) == 0 {
		return Metrics{}
	}

	stats := make([]classStats, numClasses)
	present := make([]bool, numClasses)
	correct := 0

	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		present[t], present[p] = true, true
		if t == p {
			correct++
			stats[t].tp++
		} else {
			stats[p].fp++
			stats[t].fn++
		}
	}

	var m Metrics
	labels := 0
	for c, s := range stats {
		if !present[c] {
			continue
		}
		labels++

		precision := ratio(s.tp, s.tp+s.fp)
		recall := ratio(s.tp, s.tp+s.fn)
		m.Precision += precision
		m.Recall += recall
		m.F1Score += ratio(2*precision*recall, precision+recall)
	}

	m.Accuracy = float64(correct) / float64(len(yTrue))
	m.Precision /= float64(labels)
	m.Recall /= float64(labels)
	m.F1Score /= float64(labels)

	return m
}

func MacroF1(yTrue, yPred []int, numClasses int) float64 {
	return Evaluate(yTrue, yPred, numClasses).F1Score
}

func ratio(num, denom float64) float64 {
	if denom == 0 {
		return 0
	}
	return num / denom
}
