package perftest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/modelperf/pkg/perferrors"
)

// Report is the per-name summary written to the results file.
type Report map[string]Summary

// BuildReport summarizes every result name.
func BuildReport(results *Results) Report {
	report := make(Report, results.Len())
	for _, name := range results.Names() {
		res, _ := results.Get(name)
		report[name] = res.Summary()
	}
	return report
}

// PrintTable writes the comparison table: a header row, the baseline with
// ratio 1, then every other result in name order with its ratio against the
// baseline for each statistic. Without a baseline no ratios are printed.
func PrintTable(w io.Writer, results *Results) error {
	if _, err := fmt.Fprintln(w, "name\tvalue\tdiff"); err != nil {
		return err
	}

	_, hasBaseline := results.Get(results.BaseResultName)
	names := results.Names()
	if hasBaseline {
		ordered := make([]string, 0, len(names))
		ordered = append(ordered, results.BaseResultName)
		for _, name := range names {
			if name != results.BaseResultName {
				ordered = append(ordered, name)
			}
		}
		names = ordered
	}

	for _, name := range names {
		res, _ := results.Get(name)
		var ratio *Summary
		if r, ok := Ratio(results, name); ok {
			ratio = &r
		}
		if err := printResult(w, name, res.Summary(), ratio); err != nil {
			return err
		}
	}
	return nil
}

func printResult(w io.Writer, name string, s Summary, ratio *Summary) error {
	var b strings.Builder
	b.WriteString(name)
	b.WriteString("\t\n")
	writeStat(&b, "min", s.Min, ratio, func(r *Summary) float64 { return r.Min })
	writeStat(&b, "max", s.Max, ratio, func(r *Summary) float64 { return r.Max })
	writeStat(&b, "mean", s.Mean, ratio, func(r *Summary) float64 { return r.Mean })
	_, err := io.WriteString(w, b.String())
	return err
}

func writeStat(b *strings.Builder, label string, v float64, ratio *Summary, pick func(*Summary) float64) {
	b.WriteString(label)
	b.WriteByte('\t')
	b.WriteString(formatFloat(v))
	if ratio != nil {
		b.WriteByte('\t')
		b.WriteString(formatFloat(pick(ratio)))
	}
	b.WriteByte('\n')
}

// Ratio returns stat(name) / stat(baseline) for min, max and mean.
func Ratio(results *Results, name string) (Summary, bool) {
	base, ok := results.Get(results.BaseResultName)
	if !ok {
		return Summary{}, false
	}
	res, ok := results.Get(name)
	if !ok {
		return Summary{}, false
	}
	b, s := base.Summary(), res.Summary()
	return Summary{Min: s.Min / b.Min, Max: s.Max / b.Max, Mean: s.Mean / b.Mean}, true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteJSON writes the report as a JSON object keyed by result name.
func WriteJSON(w io.Writer, report Report) error {
	data, err := gojson.MarshalIndent(report, "", "  ")
	if err != nil {
		return perferrors.Wrap(err, perferrors.ErrorTypeInternal, "failed to encode report")
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// SaveJSON writes the report to path, replacing any existing file.
func SaveJSON(path string, report Report) error {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, report); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return perferrors.Wrap(err, perferrors.ErrorTypeFile, "failed to write results").
			WithDetail("path", path)
	}
	return nil
}
