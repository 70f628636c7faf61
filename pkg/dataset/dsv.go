package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ajitpratap0/modelperf/pkg/perferrors"
)

// LoadOptions controls DSV parsing.
type LoadOptions struct {
	// Delimiter separates fields; defaults to tab
	Delimiter rune
	// HasHeader skips the first record; its fields name the columns
	HasHeader bool
}

// ReadDSV parses a delimiter-separated pool. Numeric columns become features
// in column order, the Label column becomes the label, other roles are
// skipped. Categorical and text columns are rejected.
func ReadDSV(r io.Reader, cd *ColumnsDescription, opts LoadOptions) (*Pool, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = '\t'
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.Comment = '#'
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	var (
		header    []string
		featureOf []int // column -> feature index, -1 for non-features
		labelCol  = -1
		columns   [][]float32
		labels    []float32
		names     []string
		line      int
	)

	setup := func(width int) error {
		featureOf = make([]int, width)
		for c := 0; c < width; c++ {
			info := cd.Column(c)
			featureOf[c] = -1
			switch info.Type {
			case ColumnNum:
				featureOf[c] = len(columns)
				columns = append(columns, nil)
				name := info.Name
				if name == "" && header != nil {
					name = header[c]
				}
				names = append(names, name)
			case ColumnLabel:
				labelCol = c
			case ColumnCateg, ColumnText:
				return perferrors.New(perferrors.ErrorTypeData, "only float features are supported").
					WithDetail("column", c).
					WithDetail("type", string(info.Type))
			}
		}
		for _, info := range cd.Described() {
			if info.Index >= width {
				return perferrors.New(perferrors.ErrorTypeData, "column description refers to a missing column").
					WithDetail("column", info.Index).
					WithDetail("width", width)
			}
		}
		return nil
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) && errors.Is(parseErr.Err, csv.ErrFieldCount) {
				return nil, perferrors.New(perferrors.ErrorTypeData, "row width differs from the first row").
					WithDetail("line", parseErr.Line)
			}
			return nil, perferrors.Wrap(err, perferrors.ErrorTypeData, "failed to read pool").
				WithDetail("line", line)
		}

		if featureOf == nil {
			if opts.HasHeader {
				header = append([]string(nil), record...)
			}
			if err := setup(len(record)); err != nil {
				return nil, err
			}
			if opts.HasHeader {
				continue
			}
		}

		for c, field := range record {
			if f := featureOf[c]; f >= 0 {
				v, err := parseFloat32(field)
				if err != nil {
					return nil, perferrors.Wrap(err, perferrors.ErrorTypeData, "failed to parse feature value").
						WithDetail("line", line).
						WithDetail("column", c)
				}
				columns[f] = append(columns[f], v)
			} else if c == labelCol {
				v, err := parseFloat32(field)
				if err != nil {
					return nil, perferrors.Wrap(err, perferrors.ErrorTypeData, "failed to parse label").
						WithDetail("line", line)
				}
				labels = append(labels, v)
			}
		}
	}

	if featureOf == nil {
		return nil, perferrors.New(perferrors.ErrorTypeConfig, "empty pool")
	}

	pool, err := NewPoolFromColumns(columns, names, labels)
	if err != nil {
		return nil, perferrors.Wrap(err, perferrors.ErrorTypeData, "failed to pack pool")
	}
	return pool, nil
}

func parseFloat32(s string) (float32, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "nan", "na", "":
		return float32(math.NaN()), nil
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	return float32(v), nil
}
