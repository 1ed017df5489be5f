/*package stats counts what the stripping engine and the orphan resolver do
during a run. A nil *Recorder is valid everywhere and records nothing, so
library users that don't care about run statistics can ignore this package.
*/
package stats

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup results.
const (
	LookupFound = "found"
	LookupMissingID = "missing_id"
	LookupMissingSnapshot = "missing_snapshot"
)

// Recorder owns a private registry so that several runs in one process
// (tests, mostly) never collide.
type Recorder struct {
	reg *prometheus.Registry

	transfers *prometheus.CounterVec
	transferredMass *prometheus.CounterVec
	strippingEvents *prometheus.CounterVec
	orphanLookups *prometheus.CounterVec
	strippedFraction prometheus.Histogram
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		reg: reg,
		transfers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gosam_transfers_total",
			Help: "Number of non-trivial reservoir transfers, by source reservoir.",
		}, []string{"reservoir"}),
		transferredMass: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gosam_transferred_mass_total",
			Help: "Mass moved between galaxies, in internal mass units, by source reservoir.",
		}, []string{"reservoir"}),
		strippingEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gosam_stripping_events_total",
			Help: "Satellites whose gas was moved to a host, by stripping model and galaxy type.",
		}, []string{"model", "type"}),
		orphanLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gosam_orphan_lookups_total",
			Help: "Tracked-particle coordinate lookups, by result.",
		}, []string{"result"}),
		strippedFraction: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "gosam_stripped_fraction",
			Help: "Fraction of hot gas removed from type 1 satellites per step.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Transfer records a move of mass out of the named reservoir. Moves of no
// mass, or of negative mass, are ignored.
func (r *Recorder) Transfer(reservoir string, mass float64) {
	if r == nil || !(mass > 0) { return }
	r.transfers.WithLabelValues(reservoir).Inc()
	r.transferredMass.WithLabelValues(reservoir).Add(mass)
}

// Stripping records that a satellite of type galType lost gas under the
// given model.
func (r *Recorder) Stripping(model, galType int) {
	if r == nil { return }
	r.strippingEvents.WithLabelValues(
		strconv.Itoa(model), strconv.Itoa(galType),
	).Inc()
}

// StrippedFraction records the fraction removed from a type 1 satellite.
func (r *Recorder) StrippedFraction(f float64) {
	if r == nil { return }
	r.strippedFraction.Observe(f)
}

// Lookup records the result of an orphan coordinate lookup.
func (r *Recorder) Lookup(result string) {
	if r == nil { return }
	r.orphanLookups.WithLabelValues(result).Inc()
}

// WriteTextfile writes the current metric values in the Prometheus text
// format to fname.
func (r *Recorder) WriteTextfile(fname string) error {
	if r == nil { return nil }
	return prometheus.WriteToTextfile(fname, r.reg)
}
