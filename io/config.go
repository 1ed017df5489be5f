package io

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/gosam/comm"
	"github.com/phil-mansfield/gosam/cosmo"
)

const (
	ExampleRunFile = `[Run]

#######################
# Required Parameters #
#######################

# Directory containing the treedata/ directory of the simulation.
SimulationDir = path/to/simulation

# Table of snapshots with three whitespace-separated columns: snapshot
# number, redshift and the scale factor in the cosmology the simulation was
# run in. Rows must be ordered by snapshot number, starting from 0.
SnapshotTable = path/to/snapshots.txt

# The last snapshot containing dark matter. Aux files are named after it.
LastDarkMatterSnapShot = 63

# Width of the simulation box in comoving Mpc/h and the mass of a single
# particle in internal mass units.
BoxSize = 500
PartMass = 0.0860657

#######################
# Optional Parameters #
#######################

# Set to true for Millennium-II style aux file names (treeaux_sf1_*).
# MRII = false

# Internal units. G is derived from these. The defaults are Mpc/h,
# 1e10 Msun/h and km/s.
# UnitLengthInCm = 3.08568e24
# UnitMassInG = 1.989e43
# UnitVelocityInCmPerS = 1e5

# Rescaling from the simulation's cosmology to the modelled one.
# ScalePos = 1
# ScaleMass = 1

# 0 strips type 1 satellites gradually with tides and ram pressure. 1 strips
# every satellite inside Rvir of its central instantly.
# HotGasStripingModel = 0

# Hosts with Mvir below this exert no ram pressure.
# RamPressureStripCutOffMass = 0

# Move the burst-formed share of the ICM along with it.
# TrackBurst = false

# Move intracluster light along with the ICM. Bands is the number of
# photometric bands.
# ICL = false
# Bands = 0

# Track Type Ia, Type II and AGB metals separately instead of a single total.
# DetailedMetals = false

# How orphans spiral into their merger centre: sqrt or linear.
# OrphanDecay = sqrt

# Aux files are broadcast to all workers in messages of at most this many
# bytes.
# BroadcastChunkBytes = 10000000

# Number of workers that share each aux file.
# Workers = 1

# Output files which are useful for debugging and bookkeeping. Generally,
# there isn't a reason to use LogFile unless something goes wrong.
# LogFile = log.out
# MetricsFile = metrics.prom`
)

type RunConfig struct {
	// Required
	SimulationDir, SnapshotTable string
	LastDarkMatterSnapShot int
	BoxSize, PartMass float64

	// Optional
	MRII bool
	UnitLengthInCm, UnitMassInG, UnitVelocityInCmPerS float64
	ScalePos, ScaleMass float64
	HotGasStripingModel int
	RamPressureStripCutOffMass float64
	TrackBurst, ICL bool
	Bands int
	DetailedMetals bool
	OrphanDecay string
	BroadcastChunkBytes int
	Workers int
	LogFile, MetricsFile string
}

type RunWrapper struct {
	Run RunConfig
}

func DefaultRunWrapper() *RunWrapper {
	con := RunConfig{}
	con.LastDarkMatterSnapShot = -1
	con.UnitLengthInCm = 3.08568e24
	con.UnitMassInG = 1.989e43
	con.UnitVelocityInCmPerS = 1e5
	con.ScalePos, con.ScaleMass = 1, 1
	con.OrphanDecay = "sqrt"
	con.BroadcastChunkBytes = comm.DefaultChunk
	con.Workers = 1
	return &RunWrapper{con}
}

func (con *RunConfig) ValidSimulationDir() bool {
	return con.SimulationDir != ""
}
func (con *RunConfig) ValidSnapshotTable() bool {
	return con.SnapshotTable != ""
}
func (con *RunConfig) ValidLastDarkMatterSnapShot() bool {
	return con.LastDarkMatterSnapShot >= 0
}
func (con *RunConfig) ValidBoxSize() bool {
	return con.BoxSize > 0
}
func (con *RunConfig) ValidPartMass() bool {
	return con.PartMass > 0
}
func (con *RunConfig) ValidUnits() bool {
	return con.UnitLengthInCm > 0 && con.UnitMassInG > 0 &&
		con.UnitVelocityInCmPerS > 0
}
func (con *RunConfig) ValidScales() bool {
	return con.ScalePos > 0 && con.ScaleMass > 0
}
func (con *RunConfig) ValidHotGasStripingModel() bool {
	return con.HotGasStripingModel == 0 || con.HotGasStripingModel == 1
}
func (con *RunConfig) ValidRamPressureStripCutOffMass() bool {
	return con.RamPressureStripCutOffMass >= 0
}
func (con *RunConfig) ValidBands() bool {
	return con.Bands > 0 || (!con.ICL && con.Bands == 0)
}
func (con *RunConfig) ValidOrphanDecay() bool {
	d := strings.ToLower(con.OrphanDecay)
	return d == "sqrt" || d == "linear"
}
func (con *RunConfig) ValidBroadcastChunkBytes() bool {
	return con.BroadcastChunkBytes > 0
}
func (con *RunConfig) ValidWorkers() bool {
	return con.Workers > 0
}
func (con *RunConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *RunConfig) ValidMetricsFile() bool {
	return con.MetricsFile != ""
}

// CheckInit returns an error describing the first invalid variable in con.
func (con *RunConfig) CheckInit(fname string) error {
	switch {
	case !con.ValidSimulationDir():
		return fmt.Errorf("Need to specify SimulationDir in %s.", fname)
	case !con.ValidSnapshotTable():
		return fmt.Errorf("Need to specify SnapshotTable in %s.", fname)
	case !con.ValidLastDarkMatterSnapShot():
		return fmt.Errorf(
			"Need to specify a non-negative LastDarkMatterSnapShot in %s.", fname,
		)
	case !con.ValidBoxSize():
		return fmt.Errorf(
			"BoxSize in %s must be positive, but is %g.", fname, con.BoxSize,
		)
	case !con.ValidPartMass():
		return fmt.Errorf(
			"PartMass in %s must be positive, but is %g.", fname, con.PartMass,
		)
	case !con.ValidUnits():
		return fmt.Errorf("Unit conversions in %s must be positive.", fname)
	case !con.ValidScales():
		return fmt.Errorf(
			"ScalePos and ScaleMass in %s must be positive, but are %g and %g.",
			fname, con.ScalePos, con.ScaleMass,
		)
	case !con.ValidHotGasStripingModel():
		return fmt.Errorf(
			"Unrecognized HotGasStripingModel %d in %s. Must be 0 or 1.",
			con.HotGasStripingModel, fname,
		)
	case !con.ValidRamPressureStripCutOffMass():
		return fmt.Errorf(
			"RamPressureStripCutOffMass in %s is negative.", fname,
		)
	case !con.ValidBands():
		return fmt.Errorf(
			"Bands in %s is %d, but must be positive when ICL is set and "+
				"non-negative otherwise.", fname, con.Bands,
		)
	case !con.ValidOrphanDecay():
		return fmt.Errorf(
			"Unrecognized OrphanDecay '%s' in %s. Must be 'sqrt' or 'linear'.",
			con.OrphanDecay, fname,
		)
	case !con.ValidBroadcastChunkBytes():
		return fmt.Errorf(
			"BroadcastChunkBytes in %s must be positive, but is %d.",
			fname, con.BroadcastChunkBytes,
		)
	case !con.ValidWorkers():
		return fmt.Errorf(
			"Workers in %s must be positive, but is %d.", fname, con.Workers,
		)
	}
	con.OrphanDecay = strings.ToLower(con.OrphanDecay)
	return nil
}

// ReadRunConfig reads and checks the [Run] section of an INI file.
func ReadRunConfig(fname string) (*RunConfig, error) {
	wrap := DefaultRunWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil { return nil, err }
	if err := wrap.Run.CheckInit(fname); err != nil { return nil, err }
	return &wrap.Run, nil
}

// AuxFileName returns the path of the aux file for the given tree file.
func (con *RunConfig) AuxFileName(filenr int) string {
	prefix := "treeaux_"
	if con.MRII { prefix = "treeaux_sf1_" }
	return filepath.Join(
		con.SimulationDir, "treedata",
		fmt.Sprintf("%s%03d.%d", prefix, con.LastDarkMatterSnapShot, filenr),
	)
}

// Cosmology reads the snapshot table and combines it with the box, particle
// and scaling constants of con.
func (con *RunConfig) Cosmology() (*cosmo.Cosmology, error) {
	zz, aaOriginal, err := cosmo.ReadSnapshotTable(con.SnapshotTable)
	if err != nil { return nil, err }

	units := cosmo.NewUnits(
		con.UnitLengthInCm, con.UnitMassInG, con.UnitVelocityInCmPerS,
	)
	c, err := cosmo.New(zz, aaOriginal, units)
	if err != nil { return nil, err }

	if con.LastDarkMatterSnapShot >= c.Snapshots() {
		return nil, fmt.Errorf(
			"LastDarkMatterSnapShot is %d, but %s only has %d snapshots.",
			con.LastDarkMatterSnapShot, con.SnapshotTable, c.Snapshots(),
		)
	}

	c.BoxSize, c.PartMass = con.BoxSize, con.PartMass
	c.ScalePos, c.ScaleMass = con.ScalePos, con.ScaleMass
	return c, nil
}
