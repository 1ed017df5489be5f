package galaxy

import (
	"fmt"
)

// TransferError is the panic value for a ledger call that could never be
// correct: a fraction outside [0, 1] or reservoirs that can't exchange mass.
type TransferError struct {
	Caller string
	Dst, Src int
	DstRes, SrcRes Reservoir
	Fraction float64
	Reason string
}

func (e *TransferError) Error() string {
	return fmt.Sprintf(
		"transfer %s[%d] -> %s[%d] with fraction %g from %s: %s",
		e.SrcRes, e.Src, e.DstRes, e.Dst, e.Fraction, e.Caller, e.Reason,
	)
}

// TransferGas moves fraction of the gas in reservoir srcRes of galaxy src to
// reservoir dstRes of galaxy dst, along with the same fraction of its metals
// and elements. caller identifies the call site in diagnostics.
func (s *State[M]) TransferGas(
	dst int, dstRes Reservoir, src int, srcRes Reservoir,
	fraction float64, caller string,
) {
	s.transfer(dst, dstRes, src, srcRes, fraction, GasKind, caller)
}

// TransferStars is TransferGas for stellar reservoirs.
func (s *State[M]) TransferStars(
	dst int, dstRes Reservoir, src int, srcRes Reservoir, fraction float64,
) {
	s.transfer(dst, dstRes, src, srcRes, fraction, StarKind, "transfer_stars")
}

func (s *State[M]) transfer(
	dst int, dstRes Reservoir, src int, srcRes Reservoir,
	fraction float64, kind Kind, caller string,
) {
	fail := func(reason string) {
		panic(&TransferError{
			Caller: caller, Dst: dst, Src: src, DstRes: dstRes, SrcRes: srcRes,
			Fraction: fraction, Reason: reason,
		})
	}

	if !dstRes.valid() || !srcRes.valid() {
		fail("unknown reservoir")
	} else if dstRes.Kind() != kind || srcRes.Kind() != kind {
		fail("reservoir of the wrong kind for this transfer")
	} else if !(fraction >= 0 && fraction <= 1) {
		fail("fraction outside of [0, 1]")
	}

	d, o := s.Gal[dst].slot(dstRes), s.Gal[src].slot(srcRes)
	if (d.metals == nil) != (o.metals == nil) {
		fail("only one of the reservoirs carries metals")
	}

	if fraction == 0 { return }

	moved := *o.mass * fraction
	*d.mass += moved
	*o.mass -= moved

	if o.metals != nil {
		m := (*o.metals).Scaled(fraction)
		*d.metals = (*d.metals).Plus(m)
		*o.metals = (*o.metals).Minus(m)

		e := o.elements.Scaled(fraction)
		*d.elements = d.elements.Plus(e)
		*o.elements = o.elements.Minus(e)
	}

	// Empty sources and rounding noise below zero are not counted.
	if moved > 0 { s.Stats.Transfer(srcRes.String(), moved) }
}

// TransferICL moves fraction of the intracluster light of galaxy src to
// galaxy dst. It does nothing unless ICL photometry is enabled.
func (s *State[M]) TransferICL(dst, src int, fraction float64) {
	if !(fraction >= 0 && fraction <= 1) {
		panic(&TransferError{
			Caller: "transfer_ICL", Dst: dst, Src: src, DstRes: ICM, SrcRes: ICM,
			Fraction: fraction, Reason: "fraction outside of [0, 1]",
		})
	}
	if !s.Params.ICL || fraction == 0 { return }

	dl, ol := s.Gal[dst].ICLLum, s.Gal[src].ICLLum
	if len(dl) != len(ol) {
		panic(&TransferError{
			Caller: "transfer_ICL", Dst: dst, Src: src, DstRes: ICM, SrcRes: ICM,
			Fraction: fraction, Reason: fmt.Sprintf(
				"galaxies have %d and %d ICL bands", len(dl), len(ol),
			),
		})
	}

	for b := range ol {
		moved := ol[b] * fraction
		dl[b] += moved
		ol[b] -= moved
	}
}
