package bench

import (
	"fmt"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"gonum.org/v1/gonum/stat"
)

// Histogram bounds in microseconds: 1µs to one hour, 3 significant figures.
const (
	histMinUs   = 1
	histMaxUs   = int64(time.Hour / time.Microsecond)
	histSigFigs = 3
)

// Measurement summarizes the wall-clock samples of one parameter point.
// All durations are in microseconds.
type Measurement struct {
	Samples  int
	MeanUs   float64
	StddevUs float64
	P50Us    int64
	P99Us    int64
	MaxUs    int64
}

// Measure runs fn samples times and summarizes the elapsed times.
func Measure(samples int, fn func() error) (Measurement, error) {
	if samples < 1 {
		return Measurement{}, fmt.Errorf("samples must be at least 1, got %d", samples)
	}
	hist := hdrhistogram.New(histMinUs, histMaxUs, histSigFigs)
	elapsed := make([]float64, 0, samples)
	for i := 0; i < samples; i++ {
		start := time.Now()
		if err := fn(); err != nil {
			return Measurement{}, fmt.Errorf("sample %d: %w", i, err)
		}
		d := time.Since(start)
		if err := hist.RecordValue(max(d.Microseconds(), histMinUs)); err != nil {
			return Measurement{}, fmt.Errorf("recording sample %d: %w", i, err)
		}
		elapsed = append(elapsed, float64(d)/float64(time.Microsecond))
	}

	mean, stddev := stat.MeanStdDev(elapsed, nil)
	if samples == 1 {
		stddev = 0
	}
	return Measurement{
		Samples:  samples,
		MeanUs:   mean,
		StddevUs: stddev,
		P50Us:    hist.ValueAtQuantile(50),
		P99Us:    hist.ValueAtQuantile(99),
		MaxUs:    hist.Max(),
	}, nil
}
