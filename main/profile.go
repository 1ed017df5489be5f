package main

import (
	"fmt"
	"math"

	plt "github.com/phil-mansfield/pyplot"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phil-mansfield/gosam/cosmo"
	"github.com/phil-mansfield/gosam/galaxy"
	"github.com/phil-mansfield/gosam/geom"
	"github.com/phil-mansfield/gosam/io"
	"github.com/phil-mansfield/gosam/stats"
	"github.com/phil-mansfield/gosam/strip"
)

// Synthetic group used by strip-profile. Masses are in internal units and
// lengths in Mpc/h.
type profileParams struct {
	HostMvir, HostRvir, HostHotFraction float64
	SatMvir, SatRvir, SatHotFraction float64
	BoundFraction float64
	Points int
	Out string
}

var prof = profileParams{
	HostMvir: 1e4, HostRvir: 1, HostHotFraction: 0.1,
	SatMvir: 100, SatRvir: 0.2, SatHotFraction: 0.1,
	BoundFraction: 0.5,
	Points: 50,
}

var stripProfileCmd = &cobra.Command{
	Use: "strip-profile",
	Short: "Plot how much hot gas a satellite keeps against orbital radius",
	Long: `Places a type 1 satellite at a range of distances from the central
of a synthetic FoF group, runs the configured stripping model on the group
at each distance and prints

    r_orbit / Rvir  stripped_fraction  HotRadius / Rvir_sat

to stdout. With --out, the same curves are plotted to an image file.`,
	Args: cobra.NoArgs,
	RunE: runStripProfile,
}

func init() {
	f := stripProfileCmd.Flags()
	f.Float64Var(&prof.HostMvir, "host-mvir", prof.HostMvir, "Mvir of the central.")
	f.Float64Var(&prof.HostRvir, "host-rvir", prof.HostRvir, "Rvir of the central.")
	f.Float64Var(&prof.HostHotFraction, "host-hot", prof.HostHotFraction,
		"Hot gas mass of the central as a fraction of its Mvir.")
	f.Float64Var(&prof.SatMvir, "sat-mvir", prof.SatMvir, "Infall Mvir of the satellite.")
	f.Float64Var(&prof.SatRvir, "sat-rvir", prof.SatRvir, "Infall Rvir of the satellite.")
	f.Float64Var(&prof.SatHotFraction, "sat-hot", prof.SatHotFraction,
		"Hot gas mass of the satellite as a fraction of its Mvir.")
	f.Float64Var(&prof.BoundFraction, "bound", prof.BoundFraction,
		"Fraction of the satellite's infall particles still bound.")
	f.IntVar(&prof.Points, "points", prof.Points, "Number of orbital radii.")
	f.StringVar(&prof.Out, "out", "", "Image file for the plot.")
}

type profilePoint struct {
	r, stripped, hotRadius float64
}

func runStripProfile(cmd *cobra.Command, args []string) error {
	defer abortOnPanic()

	con, err := loadRun(cmd)
	if err != nil { return err }
	c, err := con.Cosmology()
	if err != nil { return err }
	if prof.Points < 2 {
		return fmt.Errorf("--points must be at least 2, but is %d", prof.Points)
	}

	rec := stats.NewRecorder()
	defer writeMetrics(con, rec)

	var pts []profilePoint
	if con.DetailedMetals {
		pts, err = stripProfile[galaxy.ChannelMetals](con, c, rec)
	} else {
		pts, err = stripProfile[galaxy.TotalMetals](con, c, rec)
	}
	if err != nil { return err }

	for _, p := range pts {
		fmt.Printf("%.5g %.5g %.5g\n", p.r, p.stripped, p.hotRadius)
	}
	if prof.Out != "" {
		plotProfile(pts, strip.Model(con.HotGasStripingModel), prof.Out)
		logger.Info("wrote stripping profile", zap.String("path", prof.Out))
	}
	return nil
}

// profileGroup returns a two-galaxy group with the satellite at distance r
// from the central, both at snapshot snap.
func profileGroup[M galaxy.Payload[M]](
	c *cosmo.Cosmology, snap, bands int, r float64,
) ([]galaxy.Galaxy[M], []galaxy.Halo) {
	gs := []galaxy.Galaxy[M]{ galaxy.New[M](0, bands), galaxy.New[M](1, bands) }
	hs := []galaxy.Halo{ {SnapNum: snap}, {SnapNum: snap} }

	center := c.BoxSize / 2
	host, sat := &gs[0], &gs[1]
	host.Type, host.HaloNr = galaxy.Central, 0
	host.Mvir, host.Rvir = prof.HostMvir, prof.HostRvir
	host.HotGas = prof.HostHotFraction * prof.HostMvir
	host.HotRadius = prof.HostRvir
	host.Pos = [3]float32{ float32(center), float32(center), float32(center) }

	// Positions are comoving.
	dx := r * (1 + c.ZZ[snap])
	sat.Type, sat.HaloNr = galaxy.Satellite, 1
	sat.Mvir, sat.Rvir = prof.SatMvir, prof.SatRvir
	sat.Len = int(prof.BoundFraction * prof.SatMvir / c.PartMass)
	sat.HotGas = prof.SatHotFraction * prof.SatMvir
	sat.HotRadius = prof.SatRvir
	sat.EjectedMass = 0.5 * sat.HotGas
	sat.Pos = host.Pos
	sat.Pos[0] = float32(geom.WrapPosition(center + dx, c.BoxSize))

	return gs, hs
}

func stripProfile[M galaxy.Payload[M]](
	con *io.RunConfig, c *cosmo.Cosmology, rec *stats.Recorder,
) ([]profilePoint, error) {
	snap := con.LastDarkMatterSnapShot
	params := galaxy.DefaultParams()
	params.ICL, params.Bands = con.ICL, con.Bands
	solver := strip.NewSolver(c, con.RamPressureStripCutOffMass)

	pts := make([]profilePoint, prof.Points)
	lo, hi := math.Log10(0.01), math.Log10(2)
	for i := range pts {
		x := lo + (hi - lo) * float64(i) / float64(prof.Points - 1)
		r := math.Pow(10, x) * prof.HostRvir

		gs, hs := profileGroup[M](c, snap, con.Bands, r)
		s := &galaxy.State[M]{
			Gal: gs, Halo: hs, Cosmo: c, Params: params, Stats: rec,
		}
		e, err := strip.New(
			s, strip.Model(con.HotGasStripingModel), con.TrackBurst, solver,
		)
		if err != nil { return nil, err }

		hot := s.Gal[1].HotGas
		e.DealWithSatellites(0, len(s.Gal))

		pts[i] = profilePoint{
			r: r / prof.HostRvir,
			stripped: 1 - s.Gal[1].HotGas/hot,
			hotRadius: s.Gal[1].HotRadius / prof.SatRvir,
		}
		logger.Debug("stripped satellite",
			zap.Float64("r", r), zap.Float64("stripped", pts[i].stripped),
			zap.Float64("hot_radius", s.Gal[1].HotRadius),
		)
	}
	return pts, nil
}

func plotProfile(pts []profilePoint, model strip.Model, fname string) {
	rs := make([]float64, len(pts))
	stripped := make([]float64, len(pts))
	radii := make([]float64, len(pts))
	for i, p := range pts {
		rs[i], stripped[i], radii[i] = p.r, p.stripped, p.hotRadius
	}

	plt.Figure()
	plt.Plot(rs, stripped, "b", plt.LW(3))
	plt.Plot(rs, radii, "r", plt.LW(3))
	plt.Plot([]float64{1, 1}, []float64{0, 1.05}, "k", plt.LW(2))

	plt.Title(fmt.Sprintf(
		"%s stripping: stripped fraction (blue), $R_{\\rm hot}/R_{\\rm vir}$ (red)",
		model,
	))
	plt.XLabel(`$R_{\rm orbit}/R_{\rm vir, host}$`, plt.FontSize(16))
	plt.YLabel(`Fraction`, plt.FontSize(16))
	plt.XScale("log")
	plt.YLim(0, 1.05)
	plt.Grid(plt.Axis("y"))
	plt.Grid(plt.Axis("x"), plt.Which("both"))
	plt.SaveFig(fname)
	plt.Execute()
}
