package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/phil-mansfield/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phil-mansfield/gosam/comm"
	"github.com/phil-mansfield/gosam/cosmo"
	"github.com/phil-mansfield/gosam/galaxy"
	"github.com/phil-mansfield/gosam/geom"
	"github.com/phil-mansfield/gosam/io"
	"github.com/phil-mansfield/gosam/orphan"
	"github.com/phil-mansfield/gosam/stats"
)

var (
	fileNr int
	queryFile string
	galaxyQueries bool
)

var orphansCmd = &cobra.Command{
	Use: "orphans",
	Short: "Look up tracked-particle coordinates in an aux file",
	Long: `Loads the aux file of one tree file, shares it between Workers ranks
and resolves every query in the --queries table. Each query row has four
columns:

    tree halo snap id

where halo is the index of the halo within the tree file. With --galaxies,
each row describes an orphan galaxy instead and has eight more columns:

    tree halo snap id mx my mz merg_time ori_merg_time vx vy vz

(mx, my, mz) is the merger centre, merg_time and ori_merg_time are the
current and initial dynamical friction times and (vx, vy, vz) is the
velocity of the central galaxy. These orphans are moved the same way as in
a model run: positions are rescaled by ScalePos and decayed towards the
merger centre with OrphanDecay, and velocities are rescaled relative to the
central. One line is printed per query:

    tree halo snap id x y z vx vy vz

with velocities converted to peculiar velocities. A query whose ID or
snapshot is missing from the aux file aborts the run.`,
	Args: cobra.NoArgs,
	RunE: runOrphans,
}

func init() {
	orphansCmd.Flags().IntVar(&fileNr, "file", 0, "Tree file number.")
	orphansCmd.Flags().StringVar(
		&queryFile, "queries", "", "Whitespace-separated table of queries.",
	)
	orphansCmd.Flags().BoolVar(
		&galaxyQueries, "galaxies", false,
		"Queries are orphan galaxies to be moved, not raw particle lookups.",
	)
	_ = orphansCmd.MarkFlagRequired("queries")
}

// merger is the orphan galaxy state carried by a --galaxies query.
type merger struct {
	centre geom.Vec
	mergTime, oriMergTime float64
	velCen geom.Vec
}

type query struct {
	tree, halo, snap int
	id int64
	merger *merger
}

type coordinates struct {
	pos, vel geom.Vec
}

func readQueries(
	fname string, c *cosmo.Cosmology, galaxies bool,
) ([]query, error) {
	ncols := 4
	if galaxies { ncols = 12 }
	idxs := make([]int, ncols)
	for i := range idxs { idxs[i] = i }

	cols, err := table.ReadTable(fname, idxs, nil)
	if err != nil { return nil, err }

	qs := make([]query, len(cols[0]))
	for i := range qs {
		qs[i] = query{
			tree: int(cols[0][i]), halo: int(cols[1][i]),
			snap: int(cols[2][i]), id: int64(cols[3][i]),
		}
		if !c.ValidSnap(qs[i].snap) {
			return nil, fmt.Errorf(
				"Query %d of %s asks for snapshot %d, but there are only %d.",
				i, fname, qs[i].snap, c.Snapshots(),
			)
		}
		if !galaxies { continue }

		m := &merger{ mergTime: cols[7][i], oriMergTime: cols[8][i] }
		for k := 0; k < 3; k++ {
			m.centre[k] = float32(cols[4 + k][i])
			m.velCen[k] = float32(cols[9 + k][i])
		}
		qs[i].merger = m
	}
	return qs, nil
}

func runOrphans(cmd *cobra.Command, args []string) error {
	defer abortOnPanic()

	con, err := loadRun(cmd)
	if err != nil { return err }
	c, err := con.Cosmology()
	if err != nil { return err }
	qs, err := readQueries(queryFile, c, galaxyQueries)
	if err != nil { return err }

	rec := stats.NewRecorder()
	defer writeMetrics(con, rec)

	path := con.AuxFileName(fileNr)
	out, err := resolveQueries(context.Background(), con, c, path, qs, rec)
	if err != nil { return err }

	w := bufio.NewWriter(os.Stdout)
	writeCoordinates(w, qs, out)
	if err := w.Flush(); err != nil { return err }

	logger.Info("resolved orphan queries",
		zap.Int("queries", len(qs)), zap.String("aux", path),
		zap.Int("workers", con.Workers), zap.Bool("galaxies", galaxyQueries),
	)
	return nil
}

// resolveQueries loads the aux file at path across con.Workers ranks and
// splits qs between them round robin.
func resolveQueries(
	ctx context.Context, con *io.RunConfig, c *cosmo.Cosmology, path string,
	qs []query, rec *stats.Recorder,
) ([]coordinates, error) {
	decay, err := orphan.ParseDecay(con.OrphanDecay)
	if err != nil { return nil, err }
	cs, err := comm.NewGroup(con.Workers, con.BroadcastChunkBytes)
	if err != nil { return nil, err }

	out := make([]coordinates, len(qs))
	err = comm.Run(ctx, cs, func(ctx context.Context, cm comm.Comm) (err error) {
		defer func() {
			if x := recover(); x != nil {
				err = fmt.Errorf("rank %d panicked: %v", cm.Rank(), x)
			}
		}()

		aux, err := orphan.Load(ctx, cm, path, con.BroadcastChunkBytes, logger)
		if err != nil { return err }

		for i := cm.Rank(); i < len(qs); i += cm.Size() {
			if err := ctx.Err(); err != nil { return err }
			q := qs[i]
			if q.merger != nil {
				out[i], err = moveOrphan(aux, c, decay, q, rec)
				if err != nil { return err }
				continue
			}

			pos, vel, err := aux.Find(
				q.tree, 0, q.halo, q.snap, q.id, c.AA[q.snap],
			)
			rec.Lookup(orphan.LookupResult(err))
			if err != nil { return err }
			out[i] = coordinates{ pos, vel }
		}
		return nil
	})
	return out, err
}

// moveOrphan builds a group holding the query's orphan and its central and
// runs the orphan update on it.
func moveOrphan(
	aux *orphan.Aux, c *cosmo.Cosmology, decay orphan.Decay, q query,
	rec *stats.Recorder,
) (coordinates, error) {
	if q.tree < 0 || q.tree >= int(aux.Ntrees) {
		return coordinates{}, &orphan.LookupError{
			Tree: q.tree, Halo: q.halo, Snap: q.snap, ID: q.id,
			Err: orphan.ErrOutOfRange,
		}
	}

	s := &galaxy.State[galaxy.TotalMetals]{
		Gal: []galaxy.Galaxy[galaxy.TotalMetals]{
			galaxy.New[galaxy.TotalMetals](0, 0),
			galaxy.New[galaxy.TotalMetals](1, 0),
		},
		Halo: []galaxy.Halo{{SnapNum: q.snap}},
		Cosmo: c,
		Params: galaxy.DefaultParams(),
		Stats: rec,
	}
	cen, orph := &s.Gal[0], &s.Gal[1]
	cen.Type, cen.Vel = galaxy.Central, q.merger.velCen

	orph.Type, orph.CentralGal = galaxy.Orphan, 0
	orph.HaloNr, orph.SnapNum, orph.MostBoundID = q.halo, q.snap, q.id
	orph.MergCentralPos = q.merger.centre
	orph.MergTime, orph.OriMergTime = q.merger.mergTime, q.merger.oriMergTime

	u := &orphan.Updater[galaxy.TotalMetals]{
		State: s, Aux: aux, TreeFirstHalo: make([]int, aux.Ntrees), Decay: decay,
	}

	var err error
	func() {
		defer func() {
			if x := recover(); x != nil {
				e, ok := x.(*orphan.LookupError)
				if !ok { panic(x) }
				err = e
			}
		}()
		u.UpdateTypeTwo(q.tree, 1, 0)
	}()
	if err != nil { return coordinates{}, err }
	return coordinates{ orph.Pos, orph.Vel }, nil
}

func writeCoordinates(w *bufio.Writer, qs []query, out []coordinates) {
	for i, q := range qs {
		p, v := out[i].pos, out[i].vel
		fmt.Fprintf(w, "%d %d %d %d %g %g %g %g %g %g\n",
			q.tree, q.halo, q.snap, q.id, p[0], p[1], p[2], v[0], v[1], v[2],
		)
	}
}
