package dataset

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ajitpratap0/modelperf/pkg/compression"
	"github.com/ajitpratap0/modelperf/pkg/perferrors"
)

// ColumnType is the role of a pool column.
type ColumnType string

const (
	ColumnNum       ColumnType = "Num"
	ColumnCateg     ColumnType = "Categ"
	ColumnText      ColumnType = "Text"
	ColumnLabel     ColumnType = "Label"
	ColumnWeight    ColumnType = "Weight"
	ColumnBaseline  ColumnType = "Baseline"
	ColumnAuxiliary ColumnType = "Auxiliary"
	ColumnDocID     ColumnType = "DocId"
	ColumnGroupID   ColumnType = "GroupId"
	ColumnSubgroup  ColumnType = "SubgroupId"
	ColumnTimestamp ColumnType = "Timestamp"
)

var knownColumnTypes = map[string]ColumnType{}

func init() {
	for _, t := range []ColumnType{
		ColumnNum, ColumnCateg, ColumnText, ColumnLabel, ColumnWeight, ColumnBaseline,
		ColumnAuxiliary, ColumnDocID, ColumnGroupID, ColumnSubgroup, ColumnTimestamp,
	} {
		knownColumnTypes[strings.ToLower(string(t))] = t
	}
	// Accepted aliases
	knownColumnTypes["target"] = ColumnLabel
	knownColumnTypes["queryid"] = ColumnGroupID
}

// ColumnInfo describes one column of the pool file.
type ColumnInfo struct {
	Index int
	Type  ColumnType
	Name  string
}

// ColumnsDescription lists explicitly described columns. Columns it does
// not mention are numeric features.
type ColumnsDescription struct {
	columns map[int]ColumnInfo
}

// NewColumnsDescription builds a description from explicit entries.
func NewColumnsDescription(infos ...ColumnInfo) *ColumnsDescription {
	cd := &ColumnsDescription{columns: make(map[int]ColumnInfo, len(infos))}
	for _, info := range infos {
		cd.columns[info.Index] = info
	}
	return cd
}

// Column returns the description of column idx, defaulting to Num.
func (cd *ColumnsDescription) Column(idx int) ColumnInfo {
	if cd != nil {
		if info, ok := cd.columns[idx]; ok {
			return info
		}
	}
	return ColumnInfo{Index: idx, Type: ColumnNum}
}

// Described returns explicitly described columns in index order.
func (cd *ColumnsDescription) Described() []ColumnInfo {
	if cd == nil {
		return nil
	}
	out := make([]ColumnInfo, 0, len(cd.columns))
	for _, info := range cd.columns {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// ReadColumnsDescription parses the tab-separated "index<TAB>type[<TAB>name]"
// format. Empty lines and lines starting with '#' are skipped.
func ReadColumnsDescription(r io.Reader) (*ColumnsDescription, error) {
	cd := &ColumnsDescription{columns: make(map[int]ColumnInfo)}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		parts := strings.Split(text, "\t")
		if len(parts) < 2 {
			return nil, perferrors.New(perferrors.ErrorTypeData, "column description line needs index and type").
				WithDetail("line", line)
		}

		idx, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || idx < 0 {
			return nil, perferrors.New(perferrors.ErrorTypeData, "invalid column index").
				WithDetail("line", line).
				WithDetail("value", parts[0])
		}

		colType, ok := knownColumnTypes[strings.ToLower(strings.TrimSpace(parts[1]))]
		if !ok {
			return nil, perferrors.New(perferrors.ErrorTypeData, "unknown column type").
				WithDetail("line", line).
				WithDetail("value", parts[1])
		}

		if _, dup := cd.columns[idx]; dup {
			return nil, perferrors.New(perferrors.ErrorTypeData, "column described twice").
				WithDetail("line", line).
				WithDetail("column", idx)
		}

		info := ColumnInfo{Index: idx, Type: colType}
		if len(parts) > 2 {
			info.Name = strings.TrimSpace(parts[2])
		}
		cd.columns[idx] = info
	}
	if err := scanner.Err(); err != nil {
		return nil, perferrors.Wrap(err, perferrors.ErrorTypeFile, "failed to read column description")
	}
	return cd, nil
}

// LoadColumnsDescription reads a (possibly compressed) column description file.
func LoadColumnsDescription(path string) (*ColumnsDescription, error) {
	rc, err := compression.Open(path)
	if err != nil {
		return nil, perferrors.Wrap(err, perferrors.ErrorTypeFile, "failed to open column description").
			WithDetail("path", path)
	}
	defer rc.Close()

	return ReadColumnsDescription(rc)
}
