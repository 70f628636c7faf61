package dataset

import (
	"bytes"
	"io"
	"math"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/modelperf/pkg/perferrors"
)

// ReadArrow loads a pool from an Arrow IPC file. Numeric columns become
// features in schema order unless the column description assigns them
// another role; a column named "label" is the label when cd does not name one.
func ReadArrow(r io.Reader, cd *ColumnsDescription) (*Pool, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, perferrors.Wrap(err, perferrors.ErrorTypeFile, "failed to read Arrow data")
	}
	return ReadArrowAt(bytes.NewReader(data), cd)
}

// ReadArrowAt is ReadArrow over random-access input such as a mapped file.
func ReadArrowAt(r ipc.ReadAtSeeker, cd *ColumnsDescription) (*Pool, error) {
	reader, err := ipc.NewFileReader(r, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, perferrors.Wrap(err, perferrors.ErrorTypeData, "failed to create Arrow reader")
	}
	defer reader.Close()

	schema := reader.Schema()
	fields := schema.Fields()

	explicitLabel := false
	for _, info := range cd.Described() {
		if info.Type == ColumnLabel {
			explicitLabel = true
		}
	}

	featureOf := make([]int, len(fields))
	labelCol := -1
	var names []string
	for c, field := range fields {
		featureOf[c] = -1
		info := cd.Column(c)
		if !explicitLabel && strings.EqualFold(field.Name, "label") {
			info.Type = ColumnLabel
		}
		switch info.Type {
		case ColumnNum:
			if !isNumeric(field.Type) {
				return nil, perferrors.New(perferrors.ErrorTypeData, "only float features are supported").
					WithDetail("column", field.Name).
					WithDetail("type", field.Type.String())
			}
			featureOf[c] = len(names)
			names = append(names, field.Name)
		case ColumnLabel:
			labelCol = c
		case ColumnCateg, ColumnText:
			return nil, perferrors.New(perferrors.ErrorTypeData, "only float features are supported").
				WithDetail("column", field.Name).
				WithDetail("type", string(info.Type))
		}
	}

	columns := make([][]float32, len(names))
	var labels []float32
	for i := 0; i < reader.NumRecords(); i++ {
		rec, err := reader.Record(i)
		if err != nil {
			return nil, perferrors.Wrap(err, perferrors.ErrorTypeData, "failed to read Arrow record batch").
				WithDetail("batch", i)
		}
		for c := range fields {
			switch {
			case featureOf[c] >= 0:
				f := featureOf[c]
				columns[f] = appendFloats(columns[f], rec.Column(c))
			case c == labelCol:
				labels = appendFloats(labels, rec.Column(c))
			}
		}
	}

	if len(names) == 0 && labels == nil {
		return nil, perferrors.New(perferrors.ErrorTypeConfig, "empty pool")
	}

	pool, err := NewPoolFromColumns(columns, names, labels)
	if err != nil {
		return nil, perferrors.Wrap(err, perferrors.ErrorTypeData, "failed to pack pool")
	}
	return pool, nil
}

func isNumeric(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.FLOAT32, arrow.FLOAT64, arrow.INT32, arrow.INT64:
		return true
	default:
		return false
	}
}

// appendFloats converts a numeric Arrow column to float32, mapping nulls to NaN.
func appendFloats(dst []float32, col arrow.Array) []float32 {
	nan := float32(math.NaN())
	n := col.Len()
	for i := 0; i < n; i++ {
		if col.IsNull(i) {
			dst = append(dst, nan)
			continue
		}
		switch a := col.(type) {
		case *array.Float32:
			dst = append(dst, a.Value(i))
		case *array.Float64:
			dst = append(dst, float32(a.Value(i)))
		case *array.Int32:
			dst = append(dst, float32(a.Value(i)))
		case *array.Int64:
			dst = append(dst, float32(a.Value(i)))
		default:
			dst = append(dst, nan)
		}
	}
	return dst
}
