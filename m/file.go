package m

import (
	"fmt"
	"io"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

type Line struct {
	Inputs  []float64
	Targets []float64
}
type Lines []Line

// Split separates the lines into the instance and label matrices the
// network trains on.
func (lines Lines) Split() (instances, labels [][]float64) {
	instances = make([][]float64, len(lines))
	labels = make([][]float64, len(lines))
	for i, line := range lines {
		instances[i] = line.Inputs
		labels[i] = line.Targets
	}
	return instances, labels
}

// ReadLines parses CSV records of inputNum inputs followed by outputNum
// targets.
func ReadLines(reader io.Reader, inputNum, outputNum int, header bool) (Lines, error) {
	df := dataframe.ReadCSV(reader,
		dataframe.HasHeader(header),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.Float))
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "reading csv")
	}

	rows, cols := df.Dims()
	if cols != inputNum+outputNum {
		return nil, errInvalidLine{
			lineNum:  1,
			splits:   cols,
			expected: inputNum + outputNum,
		}
	}

	lines := make(Lines, rows)
	for r := 0; r < rows; r++ {
		inputs := make([]float64, inputNum)
		targets := make([]float64, outputNum)
		for c := 0; c < cols; c++ {
			num := df.Elem(r, c).Float()
			if math.IsNaN(num) {
				return nil, errors.Errorf("at line %d, column %d is not a number", r+1, c+1)
			}
			if c < inputNum {
				inputs[c] = num
			} else {
				targets[c-inputNum] = num
			}
		}
		lines[r] = Line{
			Inputs:  inputs,
			Targets: targets,
		}
	}
	return lines, nil
}

type errInvalidLine struct {
	lineNum  int
	splits   int
	expected int
}

func (e errInvalidLine) Error() string {
	return fmt.Sprintf("at line %d, expected %d values, got %d",
		e.lineNum, e.expected, e.splits)
}

/*------------------------------------------------------------------------------------------------------------------------*/
func NormalizeLines(lines Lines, std []float64, mean []float64) Lines {
	normalizedLines := make(Lines, len(lines))
	for i, line := range lines {
		normalizedInputs := make([]float64, len(line.Inputs))
		for j, x := range line.Inputs {
			s := std[j]
			if s == 0 {
				s = 1
			}
			normalizedInputs[j] = (x - mean[j]) / s
		}

		normalizedLines[i] = Line{
			Inputs:  normalizedInputs,
			Targets: line.Targets,
		}
	}
	return normalizedLines
}

// CalculateMeanStdDev returns the per-input mean and (sample) standard deviation.
func CalculateMeanStdDev(lines Lines) (mean, std []float64) {
	if len(lines) == 0 {
		return nil, nil
	}

	numEntries := len(lines[0].Inputs)
	mean = make([]float64, numEntries)
	std = make([]float64, numEntries)
	column := make([]float64, len(lines))
	for i := 0; i < numEntries; i++ {
		for j, line := range lines {
			column[j] = line.Inputs[i]
		}
		mean[i], std[i] = stat.MeanStdDev(column, nil)
		if math.IsNaN(std[i]) {
			std[i] = 0
		}
	}
	return mean, std
}
