package stginga

import "sync"

// Built-in DQ flag definitions (HST generic), used whenever an instrument
// has no usable table of its own.
const defTabText = `# TELESCOPE = HST
# INSTRUMENT = GENERIC
DQFLAG SHORT_DESCRIPTION LONG_DESCRIPTION
0      "OK"              "Good pixel"
1      "LOST"            "Lost during compression"
2      "FILLED"          "Replaced by fill value"
4      "BADPIX"          "Bad detector pixel or beyond aperture"
8      "MASKED"          "Masked by aperture feature"
16     "HOT"             "Hot pixel"
32     "CTE"             "CTE tail"
64     "WARM"            "Warm pixel"
128    "BADCOL"          "Bad column"
256    "SATURATED"       "Full-well or A-to-D saturated pixel"
512    "BADREF"          "Bad pixel in reference file (FLAT)"
1024   "TRAP"            "Charge trap"
2048   "ATODSAT"         "A-to-D saturated pixel"
4096   "CRDRIZ"          "Cosmic ray and detector artifact (AstroDrizzle, CR-SPLIT)"
8192   "CRREJ"           "Cosmic ray (CRREJ)"
16384  "USER"            "Manually flagged by user"
32768  "UNUSED"          "Not used"
`

var (
	defOnce    sync.Once
	defTable   *FlagTable
	defDecoder *Decoder
)

// DefaultTable returns the built-in definition table.
func DefaultTable() *FlagTable {
	defOnce.Do(func() {
		t, err := ParseTable(defTabText, TableOptions{})
		if err != nil {
			// The built-in table is a literal; failing to parse it is a bug.
			panic(err)
		}
		defTable = t
		defDecoder = NewDecoder(t)
	})
	return defTable
}

// DefaultDecoder returns a shared decoder over the built-in table.
func DefaultDecoder() *Decoder {
	DefaultTable()
	return defDecoder
}
