package utils

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Verbose controls whether timing statistics are printed.
// Set to false to suppress output.
var Verbose = true

// Output is the writer where timing statistics are printed.
// Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// TimingStats holds timing information for the phases of a training run
type TimingStats struct {
	TotalTime          time.Duration
	DataLoadingTime    time.Duration
	ModelInitTime      time.Duration
	TrainingTime       time.Duration
	EvaluationTime     time.Duration
	HEInitTime         time.Duration
	SplitInferenceTime time.Duration
}

func share(part, total time.Duration) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// PrintTimingStats prints detailed timing statistics.
// Respects the Verbose flag - does nothing if Verbose is false.
func PrintTimingStats(stats *TimingStats, epochs int) {
	if !Verbose {
		return
	}
	fmt.Fprintln(Output, "\n=== TIMING STATISTICS ===")
	fmt.Fprintf(Output, "Total time: %v\n", stats.TotalTime)
	fmt.Fprintf(Output, "Epochs completed: %d\n", epochs)
	if epochs > 0 {
		fmt.Fprintf(Output, "Average time per epoch: %v\n", stats.TrainingTime/time.Duration(epochs))
	}
	fmt.Fprintln(Output, "\nBreakdown by operation:")
	fmt.Fprintf(Output, "  Data loading: %v (%.1f%%)\n", stats.DataLoadingTime, share(stats.DataLoadingTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Model initialization: %v (%.1f%%)\n", stats.ModelInitTime, share(stats.ModelInitTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Training: %v (%.1f%%)\n", stats.TrainingTime, share(stats.TrainingTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Evaluation: %v (%.1f%%)\n", stats.EvaluationTime, share(stats.EvaluationTime, stats.TotalTime))
	if stats.HEInitTime > 0 || stats.SplitInferenceTime > 0 {
		fmt.Fprintf(Output, "  HE initialization: %v (%.1f%%)\n", stats.HEInitTime, share(stats.HEInitTime, stats.TotalTime))
		fmt.Fprintf(Output, "  Split inference: %v (%.1f%%)\n", stats.SplitInferenceTime, share(stats.SplitInferenceTime, stats.TotalTime))
	}
}

// DurationUS converts any time.Duration to micro-seconds as float64
func DurationUS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000.0
}
