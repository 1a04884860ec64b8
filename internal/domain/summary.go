package domain

import "math"

// Summary aggregates the results of one run.
//
// SKIP results count toward Total but toward neither Passed nor Failed, and
// SuccessRate is computed over the full total including skips. That is the
// historical behavior of the system and callers (and tests) rely on it.
type Summary struct {
	Total       int     `json:"total"`
	Passed      int     `json:"passed"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			s.Passed++
		case StatusFail:
			s.Failed++
		}
	}
	if s.Total > 0 {
		s.SuccessRate = Round2(float64(s.Passed) * 100.0 / float64(s.Total))
	}
	return s
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
