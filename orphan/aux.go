/*package orphan finds the positions and velocities of orphan (type 2)
galaxies by following the most bound particle of the subhalo they lost.

Trajectories are stored per tree file in an auxiliary "treeaux" file. Its
layout, with all values little-endian, is:

	int32   NtotHalos, TotIds, Ntrees, TotSnaps
	int32   CountIDsSnap[TotSnaps], OffsetIDsSnap[TotSnaps]
	int32   CountIDsSnapTree[TotSnaps*Ntrees], OffsetIDsSnapTree[TotSnaps*Ntrees]
	int32   CountIDsHalo[NtotHalos], OffsetIDsHalo[NtotHalos]
	int64   IDs[TotIds]
	float32 Pos[TotIds][3]
	float32 Vel[TotIds][3]

The IDs of each halo are sorted, and Pos and Vel are aligned with IDs. The
snapshot-tree arrays are indexed by snap*Ntrees + tree. Offsets are into IDs.
*/
package orphan

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/phil-mansfield/gosam/geom"
)

var order = binary.LittleEndian

var (
	// ErrIDNotFound means that a halo's ID list does not contain the
	// particle an orphan is tracking.
	ErrIDNotFound = errors.New("ID not found")
	// ErrMissingSnapshot means that the aux file has no coordinates for the
	// requested snapshot.
	ErrMissingSnapshot = errors.New(
		"aux file does not (yet) contain coordinates for this snapshot",
	)
	// ErrOutOfRange means that a tree, halo or snapshot index does not exist
	// in the aux file.
	ErrOutOfRange = errors.New("index outside of the aux file")
)

// Header is the leading block of an aux file.
type Header struct {
	NtotHalos, TotIds, Ntrees, TotSnaps int32
}

const headerSize = 16

// Aux is a typed view of one aux file. Nothing in it is modified after
// Parse returns.
type Aux struct {
	Header

	// Per-snapshot ID counts and offsets. They are not used for lookups.
	CountIDsSnap, OffsetIDsSnap []int32

	CountIDsSnapTree, OffsetIDsSnapTree []int32
	CountIDsHalo, OffsetIDsHalo []int32

	IDs []int64
	Pos, Vel []geom.Vec
}

// LookupError describes a failed coordinate lookup. Err is one of
// ErrIDNotFound, ErrMissingSnapshot or ErrOutOfRange.
type LookupError struct {
	Tree, Halo, Snap int
	ID int64
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf(
		"orphan lookup of ID %d in halo %d of tree %d at snapshot %d: %s",
		e.ID, e.Halo, e.Tree, e.Snap, e.Err.Error(),
	)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Size returns the number of bytes in an aux file with the given header.
func (hd *Header) Size() int64 {
	halos, ids := int64(hd.NtotHalos), int64(hd.TotIds)
	snaps, trees := int64(hd.TotSnaps), int64(hd.Ntrees)
	ints := 2*snaps + 2*snaps*trees + 2*halos
	return headerSize + 4*ints + 8*ids + 2*12*ids
}

// Parse builds an Aux from the contents of an aux file and checks that all
// of its counts and offsets are consistent.
func Parse(buf []byte) (*Aux, error) {
	if len(buf) < headerSize {
		return nil, fmt.Errorf(
			"Aux buffer has %d bytes, too short for a header.", len(buf),
		)
	}

	a := &Aux{}
	rd := bytes.NewReader(buf)
	if err := binary.Read(rd, order, &a.Header); err != nil { return nil, err }

	hd := &a.Header
	if hd.NtotHalos < 0 || hd.TotIds < 0 || hd.Ntrees < 0 || hd.TotSnaps < 0 {
		return nil, fmt.Errorf("Aux header %+v has negative entries.", *hd)
	}
	if size := hd.Size(); size != int64(len(buf)) {
		return nil, fmt.Errorf(
			"Aux header %+v implies %d bytes, but buffer has %d bytes.",
			*hd, size, len(buf),
		)
	}

	snaps, halos := int(hd.TotSnaps), int(hd.NtotHalos)
	blocks, ids := int(hd.TotSnaps)*int(hd.Ntrees), int(hd.TotIds)

	a.CountIDsSnap, a.OffsetIDsSnap = make([]int32, snaps), make([]int32, snaps)
	a.CountIDsSnapTree = make([]int32, blocks)
	a.OffsetIDsSnapTree = make([]int32, blocks)
	a.CountIDsHalo, a.OffsetIDsHalo = make([]int32, halos), make([]int32, halos)
	a.IDs = make([]int64, ids)
	a.Pos, a.Vel = make([]geom.Vec, ids), make([]geom.Vec, ids)

	fields := []interface{}{
		a.CountIDsSnap, a.OffsetIDsSnap,
		a.CountIDsSnapTree, a.OffsetIDsSnapTree,
		a.CountIDsHalo, a.OffsetIDsHalo,
		a.IDs, a.Pos, a.Vel,
	}
	for _, field := range fields {
		if err := binary.Read(rd, order, field); err != nil { return nil, err }
	}

	if err := a.validate(); err != nil { return nil, err }
	return a, nil
}

func (a *Aux) validate() error {
	tot := int64(a.TotIds)
	checkRange := func(name string, i int, count, offset int32) error {
		if count < 0 || offset < 0 || int64(offset) + int64(count) > tot {
			return fmt.Errorf(
				"%s %d covers IDs [%d, %d), outside of [0, %d).",
				name, i, offset, int64(offset) + int64(count), tot,
			)
		}
		return nil
	}

	for i := range a.CountIDsSnapTree {
		err := checkRange(
			"Snapshot-tree block", i, a.CountIDsSnapTree[i], a.OffsetIDsSnapTree[i],
		)
		if err != nil { return err }
	}

	for h := range a.CountIDsHalo {
		count, offset := a.CountIDsHalo[h], a.OffsetIDsHalo[h]
		if err := checkRange("Halo", h, count, offset); err != nil {
			return err
		}
		ids := a.IDs[offset: offset+count]
		for j := 1; j < len(ids); j++ {
			if ids[j] <= ids[j - 1] {
				return fmt.Errorf(
					"IDs of halo %d are not strictly increasing at index %d.",
					h, int(offset) + j,
				)
			}
		}
	}

	return nil
}

// Encode writes a in the aux file layout. The array lengths must agree with
// the header.
func Encode(a *Aux) ([]byte, error) {
	hd := &a.Header
	snaps, halos := int(hd.TotSnaps), int(hd.NtotHalos)
	blocks, ids := int(hd.TotSnaps)*int(hd.Ntrees), int(hd.TotIds)

	lengths := []struct {
		name string
		got, want int
	}{
		{"CountIDsSnap", len(a.CountIDsSnap), snaps},
		{"OffsetIDsSnap", len(a.OffsetIDsSnap), snaps},
		{"CountIDsSnapTree", len(a.CountIDsSnapTree), blocks},
		{"OffsetIDsSnapTree", len(a.OffsetIDsSnapTree), blocks},
		{"CountIDsHalo", len(a.CountIDsHalo), halos},
		{"OffsetIDsHalo", len(a.OffsetIDsHalo), halos},
		{"IDs", len(a.IDs), ids},
		{"Pos", len(a.Pos), ids},
		{"Vel", len(a.Vel), ids},
	}
	for _, l := range lengths {
		if l.got != l.want {
			return nil, fmt.Errorf(
				"Aux field %s has length %d, but header requires %d.",
				l.name, l.got, l.want,
			)
		}
	}

	buf := &bytes.Buffer{}
	buf.Grow(int(hd.Size()))
	fields := []interface{}{
		&a.Header,
		a.CountIDsSnap, a.OffsetIDsSnap,
		a.CountIDsSnapTree, a.OffsetIDsSnapTree,
		a.CountIDsHalo, a.OffsetIDsHalo,
		a.IDs, a.Pos, a.Vel,
	}
	for _, field := range fields {
		if err := binary.Write(buf, order, field); err != nil { return nil, err }
	}
	return buf.Bytes(), nil
}

// Find returns the position and peculiar velocity of the particle with the
// given ID in halo haloNr of tree at snapshot snap. treeFirstHalo is the
// index of the tree's first halo within the file and aa is the scale factor
// of snap. Failures are returned as *LookupError.
func (a *Aux) Find(
	tree, treeFirstHalo, haloNr, snap int, id int64, aa float64,
) (pos, vel geom.Vec, err error) {
	fail := func(e error) (geom.Vec, geom.Vec, error) {
		return geom.Vec{}, geom.Vec{}, &LookupError{
			Tree: tree, Halo: haloNr, Snap: snap, ID: id, Err: e,
		}
	}

	h := treeFirstHalo + haloNr
	if tree < 0 || tree >= int(a.Ntrees) || snap < 0 ||
		snap >= int(a.TotSnaps) || h < 0 || h >= int(a.NtotHalos) {
		return fail(ErrOutOfRange)
	}

	block := snap*int(a.Ntrees) + tree
	blockStart := int(a.OffsetIDsSnapTree[block])
	blockEnd := blockStart + int(a.CountIDsSnapTree[block])

	start := int(a.OffsetIDsHalo[h]) - blockStart
	nids := int(a.CountIDsHalo[h])
	if nids == 0 { return fail(ErrMissingSnapshot) }
	if start < 0 || blockStart + start + nids > blockEnd {
		return fail(ErrOutOfRange)
	}

	ids := a.IDs[blockStart+start: blockStart+start+nids]
	j := sort.Search(len(ids), func(j int) bool { return ids[j] >= id })
	if j == len(ids) || ids[j] != id { return fail(ErrIDNotFound) }

	i := blockStart + start + j
	pos = a.Pos[i]
	if pos.IsZero() { return fail(ErrMissingSnapshot) }

	// Stored velocities are in Gadget's internal units.
	vel = a.Vel[i]
	vel.Scale(math.Sqrt(aa))
	return pos, vel, nil
}
