package stginga

import (
	"github.com/obi-wan76/stginga/stginga_errors"
	"github.com/obi-wan76/stginga/utils"
)

// Inspector is the host-facing surface: single-pixel lookups, whole-image
// flag summaries and overlay masks, backed by the per-instrument registry
// and the per-image result cache. The host drives invalidation through
// the ImageModified/ImageRemoved hooks.
type Inspector struct {
	log      utils.Logger
	registry *Registry
	cache    *ResultCache
}

func NewInspector(registry *Registry, cache *ResultCache, log utils.Logger) *Inspector {
	if log == nil {
		log = defaultLog
	}
	if registry == nil {
		registry = NewRegistry(nil, log)
	}
	if cache == nil {
		cache = NewResultCache(0, log)
	}
	return &Inspector{log: log, registry: registry, cache: cache}
}

func (ins *Inspector) Registry() *Registry {
	return ins.registry
}

func (ins *Inspector) Cache() *ResultCache {
	return ins.cache
}

// PixelFlags decodes the DQ value at (y, x) of an image. An out-of-range
// position is a warning, not an error: it returns no flags and a zero
// value, matching how an interactive marker off the array behaves.
func (ins *Inspector) PixelFlags(instrument string, arr *Array, y, x int) ([]FlagDefinition, int64, error) {
	if err := arr.check2D(); err != nil {
		return nil, 0, err
	}
	if !arr.InBounds(y, x) {
		ins.log.Warn("pixel out of range", "y", y, "x", x, "shape", arr.Shape)
		return nil, 0, nil
	}
	v := arr.At(y, x)
	dec := ins.registry.DecoderFor(instrument)
	return dec.DecodeValue(uint64(v)), v, nil
}

// ImageFlags summarizes a whole image: the definitions of every flag that
// affects at least one pixel, ascending by value. The index map behind it
// is cached per imageID.
func (ins *Inspector) ImageFlags(imageID, instrument string, arr *Array, force bool) ([]FlagDefinition, error) {
	dec := ins.registry.DecoderFor(instrument)
	index, err := ins.cache.GetOrCompute(imageID, arr, dec, force)
	if err != nil {
		return nil, err
	}
	present := []FlagDefinition{}
	for _, row := range dec.Table().Rows() {
		if len(index[row.Value]) > 0 {
			present = append(present, row)
		}
	}
	return present, nil
}

// MaskFor builds the overlay mask for a flag selection over the cached
// index of an image.
func (ins *Inspector) MaskFor(imageID, instrument string, arr *Array, selected []uint32) (*Mask, error) {
	if arr == nil {
		return nil, stginga_errors.ErrNoImage
	}
	dec := ins.registry.DecoderFor(instrument)
	index, err := ins.cache.GetOrCompute(imageID, arr, dec, false)
	if err != nil {
		return nil, err
	}
	return BuildMask(index, selected, arr.Shape)
}

// ImageModified is the host's buffer-modified signal: the cached index
// for that image no longer matches the pixels and must be recomputed.
func (ins *Inspector) ImageModified(imageID string) {
	ins.cache.Invalidate(imageID)
}

// ImageRemoved drops all state owned by an image.
func (ins *Inspector) ImageRemoved(imageID string) {
	ins.cache.Invalidate(imageID)
}

// ReloadTables drops every lazily built decoder and all cached results,
// e.g. after definition files changed on disk.
func (ins *Inspector) ReloadTables() {
	ins.registry.Reset()
	ins.cache.InvalidateAll()
}
