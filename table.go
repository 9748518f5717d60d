package stginga

import (
	"bufio"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash"
	"github.com/pkg/errors"

	"github.com/obi-wan76/stginga/stginga_errors"
	"github.com/obi-wan76/stginga/utils"
)

// Required column names of a DQ definition table, in any column order.
const (
	ColFlag  = "DQFLAG"
	ColShort = "SHORT_DESCRIPTION"
	ColLong  = "LONG_DESCRIPTION"
)

// DefaultValueWidth is the conventional bit width of a DQ flag value.
// Tables may declare up to MaxValueWidth bits.
const (
	DefaultValueWidth = 16
	MaxValueWidth     = 32
)

// FlagDefinition is one row of a DQ definition table. Value is a single
// bit, except for the reserved OK row where it is zero.
type FlagDefinition struct {
	Value uint32
	Short string
	Long  string
}

// FlagTable is an ordered DQ definition table: rows sorted ascending by
// value, exactly one zero/OK row, plus free-form metadata parsed from the
// leading comment lines. Immutable once built; safe to share between
// goroutines.
type FlagTable struct {
	rows  []FlagDefinition
	meta  map[string]string
	width uint
	sum   uint64
}

type TableOptions struct {
	// ValueWidth is the declared bit width of the flag-value column.
	// Zero means DefaultValueWidth.
	ValueWidth uint
	Logger     utils.Logger
}

// ParseTable reads a whitespace-delimited DQ definition table: optional
// leading `# key = value` metadata lines, a header row naming the DQFLAG,
// SHORT_DESCRIPTION and LONG_DESCRIPTION columns, then one row per flag
// with double-quoted description fields. A missing zero row is synthesized
// as {0, "OK", "Good pixel"}. Duplicate values overwrite earlier rows and
// are reported on the logger, not as an error.
func ParseTable(text string, opts TableOptions) (*FlagTable, error) {
	width := opts.ValueWidth
	if width == 0 {
		width = DefaultValueWidth
	}
	if width > MaxValueWidth {
		return nil, errors.Wrapf(stginga_errors.ErrMalformedTable,
			"declared value width %d exceeds %d bits", width, MaxValueWidth)
	}
	log := opts.Logger
	if log == nil {
		log = defaultLog
	}

	tab := &FlagTable{
		meta:  map[string]string{},
		width: width,
		sum:   xxhash.Sum64String(text),
	}

	var cols map[string]int
	byValue := map[uint32]int{}
	lineno := 0
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		if line[0] == '#' {
			if cols == nil {
				key, val, ok := strings.Cut(line[1:], "=")
				if ok {
					tab.meta[strings.TrimSpace(key)] = strings.TrimSpace(val)
				}
			}
			continue
		}

		fields := splitRow(line)

		// First non-comment line is the header.
		if cols == nil {
			cols = map[string]int{}
			for i, f := range fields {
				cols[strings.ToUpper(f)] = i
			}
			for _, name := range []string{ColFlag, ColShort, ColLong} {
				if _, ok := cols[name]; !ok {
					return nil, errors.Wrapf(stginga_errors.ErrMalformedTable,
						"header lacks required column %s", name)
				}
			}
			continue
		}

		if len(fields) < len(cols) {
			return nil, errors.Wrapf(stginga_errors.ErrMalformedTable,
				"line %d: %d fields, header declares %d", lineno, len(fields), len(cols))
		}
		v, err := strconv.ParseUint(fields[cols[ColFlag]], 10, 64)
		if err != nil || v>>width != 0 {
			return nil, errors.Wrapf(stginga_errors.ErrMalformedTable,
				"line %d: flag value %q does not fit %d bits", lineno, fields[cols[ColFlag]], width)
		}
		def := FlagDefinition{
			Value: uint32(v),
			Short: fields[cols[ColShort]],
			Long:  fields[cols[ColLong]],
		}
		if i, dup := byValue[def.Value]; dup {
			log.Warn("duplicate DQ flag value, last row wins",
				"value", def.Value, "line", lineno)
			tab.rows[i] = def
		} else {
			byValue[def.Value] = len(tab.rows)
			tab.rows = append(tab.rows, def)
		}
	}
	if cols == nil {
		return nil, errors.Wrap(stginga_errors.ErrMalformedTable, "no header row")
	}

	// Every table can report the good pixel.
	if _, ok := byValue[okFlag]; !ok {
		tab.rows = append(tab.rows, FlagDefinition{okFlag, "OK", "Good pixel"})
	}

	sort.Slice(tab.rows, func(i, j int) bool {
		return tab.rows[i].Value < tab.rows[j].Value
	})

	return tab, nil
}

// splitRow splits a table line on whitespace, keeping double-quoted
// fields intact (quotes stripped).
func splitRow(line string) (fields []string) {
	i := 0
	for i < len(line) {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) {
			break
		}
		if line[i] == '"' {
			j := i + 1
			for j < len(line) && line[j] != '"' {
				j++
			}
			fields = append(fields, line[i+1:j])
			i = j + 1
		} else {
			j := i
			for j < len(line) && line[j] != ' ' && line[j] != '\t' {
				j++
			}
			fields = append(fields, line[i:j])
			i = j
		}
	}
	return fields
}

// Rows returns the table rows, ascending by value. Callers must not
// modify the returned slice.
func (t *FlagTable) Rows() []FlagDefinition {
	return t.rows
}

// LookupRow finds the row with exactly the given value.
func (t *FlagTable) LookupRow(value uint32) (FlagDefinition, bool) {
	i := sort.Search(len(t.rows), func(i int) bool {
		return t.rows[i].Value >= value
	})
	if i < len(t.rows) && t.rows[i].Value == value {
		return t.rows[i], true
	}
	return FlagDefinition{}, false
}

func (t *FlagTable) Meta() map[string]string {
	return t.meta
}

func (t *FlagTable) ValueWidth() uint {
	return t.width
}

// Sum is the fingerprint of the table's source text. Cached decode
// results carry it so a table swap is detectable.
func (t *FlagTable) Sum() uint64 {
	return t.sum
}
