package stginga

import (
	"log/slog"

	"github.com/obi-wan76/stginga/utils"
)

// okFlag is the reserved value of the good-pixel row.
const okFlag uint32 = 0

var defaultLog = utils.NewDefaultLogger(slog.LevelInfo)

// Decoder interprets raw DQ values against one definition table. It is
// stateless beyond the table and safe for concurrent use.
type Decoder struct {
	table *FlagTable
	valid []uint32 // non-zero flag values, ascending
	mask  uint64
}

func NewDecoder(t *FlagTable) *Decoder {
	d := &Decoder{
		table: t,
		mask:  1<<t.width - 1,
	}
	for _, row := range t.rows {
		if row.Value != okFlag {
			d.valid = append(d.valid, row.Value)
		}
	}
	return d
}

func (d *Decoder) Table() *FlagTable {
	return d.table
}

// TableSum identifies the table this decoder was built from.
func (d *Decoder) TableSum() uint64 {
	return d.table.sum
}

// DecodeValue lists the flags set in one DQ value, ascending by value.
// Zero yields the single OK row. A non-zero value matching no defined bit
// yields an empty list; that is not an error. Input is masked to the
// table's declared bit width first, so negative or oversized host values
// cannot misbehave.
func (d *Decoder) DecodeValue(v uint64) []FlagDefinition {
	v &= d.mask
	if v == 0 {
		ok, _ := d.table.LookupRow(okFlag)
		return []FlagDefinition{ok}
	}
	flags := []FlagDefinition{}
	for _, row := range d.table.rows {
		if row.Value != okFlag && v&uint64(row.Value) != 0 {
			flags = append(flags, row)
		}
	}
	return flags
}

// DecodeArray indexes an entire 2-D quality array: for every non-zero
// flag of the table it records the positions where that bit is set.
// Flags with no affected pixels still get an entry, so callers can query
// any valid flag without a rescan. The input is not modified.
func (d *Decoder) DecodeArray(arr *Array) (FlagIndexMap, error) {
	if err := arr.check2D(); err != nil {
		return nil, err
	}
	index := make(FlagIndexMap, len(d.valid))
	for _, f := range d.valid {
		index[f] = nil
	}
	h, w := arr.Shape[0], arr.Shape[1]
	for y := 0; y < h; y++ {
		row := arr.Pix[y*w : (y+1)*w]
		for x, px := range row {
			v := uint64(px) & d.mask
			if v == 0 {
				continue
			}
			for _, f := range d.valid {
				if v&uint64(f) != 0 {
					index[f] = append(index[f], Pos{Y: y, X: x})
				}
			}
		}
	}
	return index, nil
}
