package stginga

import (
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/obi-wan76/stginga/utils"
)

var FallbackCount = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stginga",
	Subsystem: "dq_registry",
	Name:      "table_fallbacks",
}, []string{"instrument", "reason"})

// TableSource names where an instrument's definition table comes from:
// literal table text, or a file path read at first use. Text wins when
// both are set.
type TableSource struct {
	Text string
	Path string
}

// Registry hands out one decoder per instrument, built lazily from the
// configured sources. An unknown instrument, an unreadable file or a
// malformed table all fall back to the built-in default decoder with a
// warning; the registry never fails a lookup.
type Registry struct {
	log      utils.Logger
	sources  map[string]TableSource
	decoders *xsync.MapOf[string, *Decoder]
	def      *Decoder
}

func NewRegistry(sources map[string]TableSource, log utils.Logger) *Registry {
	if log == nil {
		log = defaultLog
	}
	// Instrument names are matched case-insensitively; normalize once here.
	norm := make(map[string]TableSource, len(sources))
	for name, src := range sources {
		norm[strings.ToUpper(name)] = src
	}
	return &Registry{
		log:      log,
		sources:  norm,
		decoders: xsync.NewMapOf[string, *Decoder](),
		def:      DefaultDecoder(),
	}
}

// DecoderFor returns the decoder for an instrument, building and caching
// it on first use.
func (r *Registry) DecoderFor(instrument string) *Decoder {
	instrument = strings.ToUpper(instrument)
	if d, ok := r.decoders.Load(instrument); ok {
		return d
	}
	d := r.build(instrument)
	actual, _ := r.decoders.LoadOrStore(instrument, d)
	return actual
}

func (r *Registry) build(instrument string) *Decoder {
	src, ok := r.sources[instrument]
	if !ok {
		r.log.Warn("instrument not supported, using default DQ table",
			"instrument", instrument)
		FallbackCount.WithLabelValues(instrument, "unknown").Inc()
		return r.def
	}
	text := src.Text
	if text == "" {
		b, err := os.ReadFile(src.Path)
		if err != nil {
			r.log.Warn("DQ table not readable, using default",
				"instrument", instrument, "path", src.Path, "error", err)
			FallbackCount.WithLabelValues(instrument, "unreadable").Inc()
			return r.def
		}
		r.log.Info("using external DQ table", "instrument", instrument, "path", src.Path)
		text = string(b)
	}
	t, err := ParseTable(text, TableOptions{Logger: r.log})
	if err != nil {
		r.log.Warn("cannot extract DQ info, using default",
			"instrument", instrument, "error", err)
		FallbackCount.WithLabelValues(instrument, "malformed").Inc()
		return r.def
	}
	return NewDecoder(t)
}

// Default is the shared fallback decoder.
func (r *Registry) Default() *Decoder {
	return r.def
}

// Reset drops all lazily built decoders so the next lookup re-reads its
// source. Callers holding a ResultCache should InvalidateAll alongside.
func (r *Registry) Reset() {
	r.decoders.Clear()
}
