package stginga

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryUnknownInstrumentFallsBack(t *testing.T) {
	reg := NewRegistry(nil, nil)

	assert.NotPanics(t, func() {
		dec := reg.DecoderFor("NO-SUCH-INSTRUMENT")
		assert.Same(t, reg.Default(), dec)
	})
}

func TestRegistryMissingFileFallsBack(t *testing.T) {
	reg := NewRegistry(map[string]TableSource{
		"WFC3": {Path: filepath.Join(t.TempDir(), "nope.txt")},
	}, nil)

	assert.Same(t, reg.Default(), reg.DecoderFor("WFC3"))
}

func TestRegistryMalformedTableFallsBack(t *testing.T) {
	reg := NewRegistry(map[string]TableSource{
		"ACS": {Text: "not a table at all"},
	}, nil)

	assert.Same(t, reg.Default(), reg.DecoderFor("ACS"))
}

func TestRegistryTextSource(t *testing.T) {
	reg := NewRegistry(map[string]TableSource{
		"ACS": {Text: testTab},
	}, nil)

	dec := reg.DecoderFor("ACS")
	assert.NotSame(t, reg.Default(), dec)
	assert.Equal(t, "GENERIC", dec.Table().Meta()["INSTRUMENT"])

	// built once, then cached
	assert.Same(t, dec, reg.DecoderFor("ACS"))
	// instrument names are case-insensitive
	assert.Same(t, dec, reg.DecoderFor("acs"))
}

func TestRegistryFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dq.txt")
	assert.NoError(t, os.WriteFile(path, []byte(testTab), 0o644))

	reg := NewRegistry(map[string]TableSource{"ACS": {Path: path}}, nil)
	dec := reg.DecoderFor("ACS")
	assert.NotSame(t, reg.Default(), dec)
	_, ok := dec.Table().LookupRow(4)
	assert.True(t, ok)
}

func TestRegistryReset(t *testing.T) {
	reg := NewRegistry(map[string]TableSource{"ACS": {Text: testTab}}, nil)

	before := reg.DecoderFor("ACS")
	reg.Reset()
	after := reg.DecoderFor("ACS")
	assert.NotSame(t, before, after)
	assert.Equal(t, before.TableSum(), after.TableSum())
}
