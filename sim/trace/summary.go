package trace

import "gonum.org/v1/gonum/stat"

// SpeedupRow compares one non-serial record with its serial baseline.
type SpeedupRow struct {
	Record       RunRecord
	SerialMeanUs float64
	Speedup      float64 // SerialMeanUs / Record.MeanUs
}

// SweepSummary aggregates speedups from a SweepTrace.
type SweepSummary struct {
	TotalRuns   int
	Baselines   int
	Rows        []SpeedupRow
	Unmatched   int                // non-serial records with no serial baseline
	MeanSpeedup map[string]float64 // strategy → mean speedup over its rows
	BestSpeedup map[string]float64 // strategy → max speedup over its rows
}

// Summarize computes speedups of every non-serial record against the serial
// record with the same experiment, size and work. Rows keep record order.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SweepTrace) *SweepSummary {
	summary := &SweepSummary{
		MeanSpeedup: make(map[string]float64),
		BestSpeedup: make(map[string]float64),
	}
	if st == nil {
		return summary
	}
	summary.TotalRuns = len(st.Records)

	baselines := make(map[baselineKey]float64)
	for _, r := range st.Records {
		if r.Strategy == SerialStrategy {
			baselines[r.baselineKey()] = r.MeanUs
		}
	}
	summary.Baselines = len(baselines)

	perStrategy := make(map[string][]float64)
	for _, r := range st.Records {
		if r.Strategy == SerialStrategy {
			continue
		}
		base, ok := baselines[r.baselineKey()]
		if !ok || r.MeanUs <= 0 {
			summary.Unmatched++
			continue
		}
		speedup := base / r.MeanUs
		summary.Rows = append(summary.Rows, SpeedupRow{Record: r, SerialMeanUs: base, Speedup: speedup})
		perStrategy[r.Strategy] = append(perStrategy[r.Strategy], speedup)
		if speedup > summary.BestSpeedup[r.Strategy] {
			summary.BestSpeedup[r.Strategy] = speedup
		}
	}

	for strategy, speedups := range perStrategy {
		summary.MeanSpeedup[strategy] = stat.Mean(speedups, nil)
	}
	return summary
}
