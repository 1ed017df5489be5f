package galaxy

import (
	"fmt"

	"github.com/phil-mansfield/gosam/geom"
)

// None marks a missing link in a merger tree.
const None = -1

// Halo is one node of a merger tree. Links are indices into the halos of the
// same tree, or None.
type Halo struct {
	Descendant int
	FirstProgenitor int
	NextProgenitor int
	FirstHaloInFOFgroup int
	NextHaloInFOFgroup int

	Len int // Number of particles
	MMean200, MCrit200, MTopHat float64
	Pos, Vel geom.Vec
	VelDisp, Vmax float64
	Spin geom.Vec
	MostBoundID int64

	SnapNum int
	FileNr, SubhaloIndex int
	SubHalfMass float64
}

// Tree holds every halo of one tree file. Halos of tree i occupy
// Halos[FirstHalo[i] : FirstHalo[i]+NHalos[i]].
type Tree struct {
	Halos []Halo
	FirstHalo, NHalos []int
}

// NewTree builds a Tree from the concatenated halos of a file and the number
// of halos in each tree, then validates every link.
func NewTree(halos []Halo, nHalos []int) (*Tree, error) {
	t := &Tree{ Halos: halos, NHalos: nHalos }
	t.FirstHalo = make([]int, len(nHalos))

	sum := 0
	for i, n := range nHalos {
		if n < 0 {
			return nil, fmt.Errorf("Tree %d has negative halo count %d.", i, n)
		}
		t.FirstHalo[i] = sum
		sum += n
	}
	if sum != len(halos) {
		return nil, fmt.Errorf(
			"Trees contain %d halos in total, but %d halos were given.",
			sum, len(halos),
		)
	}

	if err := t.Validate(); err != nil { return nil, err }
	return t, nil
}

// Trees returns the number of trees.
func (t *Tree) Trees() int { return len(t.NHalos) }

// TreeHalos returns the halos of a single tree. Links inside them index this
// slice.
func (t *Tree) TreeHalos(tree int) []Halo {
	start := t.FirstHalo[tree]
	return t.Halos[start : start+t.NHalos[tree]]
}

// Validate checks that every link of every halo is None or points inside its
// own tree.
func (t *Tree) Validate() error {
	for tree := range t.NHalos {
		hs := t.TreeHalos(tree)
		for i := range hs {
			h := &hs[i]
			links := [5]struct {
				name string
				val int
			}{
				{"Descendant", h.Descendant},
				{"FirstProgenitor", h.FirstProgenitor},
				{"NextProgenitor", h.NextProgenitor},
				{"FirstHaloInFOFgroup", h.FirstHaloInFOFgroup},
				{"NextHaloInFOFgroup", h.NextHaloInFOFgroup},
			}
			for _, l := range links {
				if l.val != None && (l.val < 0 || l.val >= len(hs)) {
					return fmt.Errorf(
						"Halo %d of tree %d has %s = %d, outside [0, %d).",
						i, tree, l.name, l.val, len(hs),
					)
				}
			}
			if h.FirstHaloInFOFgroup == None {
				return fmt.Errorf(
					"Halo %d of tree %d has no FirstHaloInFOFgroup.", i, tree,
				)
			}
		}
	}
	return nil
}

// FOFGroup returns the indices of every halo in the FoF group that contains
// halo h, starting with the group's first halo.
func (t *Tree) FOFGroup(tree, h int) []int {
	hs := t.TreeHalos(tree)
	out := []int{}
	for i := hs[h].FirstHaloInFOFgroup; i != None; i = hs[i].NextHaloInFOFgroup {
		if len(out) > len(hs) {
			panic(fmt.Sprintf("FoF list of halo %d in tree %d is cyclic.", h, tree))
		}
		out = append(out, i)
	}
	return out
}

// Progenitors returns the indices of every direct progenitor of halo h,
// main progenitor first.
func (t *Tree) Progenitors(tree, h int) []int {
	hs := t.TreeHalos(tree)
	out := []int{}
	for i := hs[h].FirstProgenitor; i != None; i = hs[i].NextProgenitor {
		if len(out) > len(hs) {
			panic(fmt.Sprintf(
				"Progenitor list of halo %d in tree %d is cyclic.", h, tree,
			))
		}
		out = append(out, i)
	}
	return out
}
