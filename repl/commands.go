package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/obi-wan76/stginga"
)

func (repl *REPL) CommandHelp(arg string) error {
	fmt.Print(`load <file>          parse a DQ definition table file
table                print the current table
meta                 print table metadata
decode <value>       list flags set in one DQ value
array <json>         set the current 2-D array, e.g. [[0,1],[4,5]]
pixel <x> <y>        decode the DQ value at a position
flags                list flags present anywhere in the array
mask <v,v,...>       build a mask for selected flag values
invalidate           drop the cached result for the current array
reload               drop all decoders and cached results
exit                 quit
`)
	return nil
}

var HelpLoad = errors.New("load dqflags_hst.txt")

func (repl *REPL) CommandLoad(arg string) error {
	if arg == "" {
		return HelpLoad
	}
	b, err := os.ReadFile(arg)
	if err != nil {
		return err
	}
	tab, err := stginga.ParseTable(string(b), stginga.TableOptions{})
	if err != nil {
		return err
	}
	repl.decoder = stginga.NewDecoder(tab)
	fmt.Printf("table loaded, %d rows\n", len(tab.Rows()))
	return nil
}

func (repl *REPL) CommandTable(arg string) error {
	for _, row := range repl.decoder.Table().Rows() {
		fmt.Printf("%6d  %-12s %s\n", row.Value, row.Short, row.Long)
	}
	return nil
}

func (repl *REPL) CommandMeta(arg string) error {
	for key, val := range repl.decoder.Table().Meta() {
		fmt.Printf("%s = %s\n", key, val)
	}
	return nil
}

var HelpDecode = errors.New("decode 5")

func (repl *REPL) CommandDecode(arg string) error {
	v, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return HelpDecode
	}
	flags := repl.decoder.DecodeValue(v)
	if len(flags) == 0 {
		fmt.Println("no defined flags")
	}
	for _, f := range flags {
		fmt.Printf("%6d  %-12s %s\n", f.Value, f.Short, f.Long)
	}
	return nil
}

var HelpArray = errors.New("array [[0,1],[4,5]]")

func (repl *REPL) CommandArray(arg string) error {
	var rows [][]int64
	if err := json.Unmarshal([]byte(arg), &rows); err != nil {
		return HelpArray
	}
	if len(rows) == 0 {
		return HelpArray
	}
	w := len(rows[0])
	pix := make([]int64, 0, len(rows)*w)
	for _, r := range rows {
		if len(r) != w {
			return errors.New("ragged rows")
		}
		pix = append(pix, r...)
	}
	repl.arr = stginga.NewArray2D(len(rows), w, pix)
	repl.arrID = uuid.NewString()
	fmt.Printf("array %s, shape %dx%d\n", repl.arrID, len(rows), w)
	return nil
}

var HelpPixel = errors.New("pixel 1 0")

func (repl *REPL) CommandPixel(arg string) error {
	if repl.arr == nil {
		return errors.New("no array loaded")
	}
	var x, y int
	if _, err := fmt.Sscanf(arg, "%d %d", &x, &y); err != nil {
		return HelpPixel
	}
	if !repl.arr.InBounds(y, x) {
		return fmt.Errorf("pixel (%d, %d) out of range, shape %v", x, y, repl.arr.Shape)
	}
	v := repl.arr.At(y, x)
	fmt.Printf("DQ = %d\n", v)
	return repl.CommandDecode(strconv.FormatInt(v, 10))
}

func (repl *REPL) CommandFlags(arg string) error {
	if repl.arr == nil {
		return errors.New("no array loaded")
	}
	index, err := repl.Inspector.Cache().GetOrCompute(
		repl.arrID, repl.arr, repl.decoder, false)
	if err != nil {
		return err
	}
	for _, row := range repl.decoder.Table().Rows() {
		if n := len(index[row.Value]); n > 0 {
			fmt.Printf("%6d  %-12s %d px\n", row.Value, row.Short, n)
		}
	}
	return nil
}

var HelpMask = errors.New("mask 1,4")

func (repl *REPL) CommandMask(arg string) error {
	if repl.arr == nil {
		return errors.New("no array loaded")
	}
	var selected []uint32
	for _, s := range strings.Split(arg, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
		if err != nil {
			return HelpMask
		}
		selected = append(selected, uint32(v))
	}
	index, err := repl.Inspector.Cache().GetOrCompute(
		repl.arrID, repl.arr, repl.decoder, false)
	if err != nil {
		return err
	}
	mask, err := stginga.BuildMask(index, selected, repl.arr.Shape)
	if err != nil {
		return err
	}
	h, w := repl.arr.Shape[0], repl.arr.Shape[1]
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mask.At(y, x) {
				fmt.Print("X")
			} else {
				fmt.Print(".")
			}
		}
		fmt.Println()
	}
	fmt.Printf("%d/%d (%.3f%%)\n", mask.CountSet(), mask.Size(), 100*mask.Fraction())
	return nil
}

func (repl *REPL) CommandInvalidate(arg string) error {
	if repl.arrID != "" {
		repl.Inspector.ImageModified(repl.arrID)
	}
	return nil
}

func (repl *REPL) CommandReload(arg string) error {
	repl.Inspector.ReloadTables()
	return nil
}
