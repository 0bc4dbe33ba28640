// population.go --  This file is part of goHF project.
// Mirzaeva Irina, 2023
//
//	goHF is distributed in the hope that it will be useful,
//	but WITHOUT ANY WARRANTY; without even the implied warranty
//	of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//	See the GNU General Public License for more details.
//
//	You should have received a copy of the GNU General Public License
//	along with this program.  If not, see http://www.gnu.org/licenses/
//
// ------------------------------------------------

package decomp

import (
	"fmt"
	"io"
	"math"
	"strings"

	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"example.com/godecomp/internal/linalg"
)

// WeightMatrix holds per spin channel the atomic weights of every occupied
// orbital, indexed [spin][position in Occupied(spin)][atom].
type WeightMatrix [2][][]float64

// Sum returns the total population of a spin channel.
func (w WeightMatrix) Sum(spin int) float64 {
	res := 0.0
	for _, orb := range w[spin] {
		for _, q := range orb {
			res += q
		}
	}
	return res
}

type assignOptions struct {
	workers int
	table   io.Writer
}

// AssignOption configures Assign.
type AssignOption func(*assignOptions)

// WithWorkers spreads the orbitals over at most n goroutines. Results do
// not depend on n.
func WithWorkers(n int) AssignOption {
	return func(o *assignOptions) { o.workers = n }
}

// WithTable prints the weights of every orbital to w.
func WithTable(w io.Writer) AssignOption {
	return func(o *assignOptions) { o.table = w }
}

// Assign computes the atomic weights of every occupied orbital under the
// given population scheme.
func Assign(mf MeanField, orbs OrbitalSet, scheme Population, ref Reference, opts ...AssignOption) (WeightMatrix, error) {
	var res WeightMatrix
	if !scheme.valid() {
		return res, fmt.Errorf("%v: %w", scheme, ErrUnknownPopulation)
	}
	if !ref.valid() {
		return res, fmt.Errorf("%v: %w", ref, ErrUnknownReference)
	}
	if err := orbs.check(len(mf.AOAtoms())); err != nil {
		return res, err
	}
	o := assignOptions{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	if ref == Restricted && mf.Spin() == 0 {
		w, err := assignChannel(mf, orbs, 0, scheme, o.workers)
		if err != nil {
			return res, err
		}
		res[0] = w
		res[1] = make([][]float64, len(w))
		for j := range w {
			res[1][j] = slices.Clone(w[j])
		}
	} else {
		for s := 0; s < 2; s++ {
			w, err := assignChannel(mf, orbs, s, scheme, o.workers)
			if err != nil {
				return res, err
			}
			res[s] = w
		}
	}

	if o.table != nil {
		writeWeights(o.table, mf.AtomSymbols(), res)
	}
	return res, nil
}

// assignChannel returns the weights of the occupied orbitals of one spin.
func assignChannel(mf MeanField, orbs OrbitalSet, spin int, scheme Population, workers int) ([][]float64, error) {
	occIdx := orbs.Occupied(spin)
	res := make([][]float64, len(occIdx))
	if len(occIdx) == 0 {
		return res, nil
	}
	c := linalg.Columns(orbs.Coeff[spin], occIdx)
	occ := make([]float64, len(occIdx))
	for k, j := range occIdx {
		occ[k] = orbs.Occ[spin][j]
	}

	// l and r hold the two factors of the population; the charge of atom A
	// is occ Σ_{μ∈A} l_μj r_μj.
	var l, r *mat.Dense
	var atoms []int
	switch scheme {
	case Mulliken:
		var sc mat.Dense
		sc.Mul(mf.Ovlp(), c)
		l, r, atoms = c, &sc, mf.AOAtoms()
	case IAO:
		iao, minAtoms, err := iaoBasis(mf, c)
		if err != nil {
			return nil, err
		}
		cib := iaoCoefficients(iao, mf.Ovlp(), c)
		l, r, atoms = cib, cib, minAtoms
	}

	natm := mf.NAtoms()
	charges := func(j int) []float64 {
		q := make([]float64, natm)
		for mu, a := range atoms {
			q[a] += l.At(mu, j) * r.At(mu, j)
		}
		for a := range q {
			q[a] *= occ[j]
		}
		return q
	}

	if workers <= 1 {
		for j := range res {
			res[j] = charges(j)
		}
		return res, nil
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for j := range res {
		g.Go(func() error {
			res[j] = charges(j)
			return nil
		})
	}
	return res, g.Wait()
}

func writeWeights(w io.Writer, symbols []string, weights WeightMatrix) {
	fmt.Fprintln(w, "\n *** partial charge weights: ***")
	fmt.Fprintf(w, " spin    MO  %s\n", strings.Join(padded(symbols), ""))
	for s, name := range []string{"a", "b"} {
		for j, q := range weights[s] {
			fmt.Fprintf(w, "  %s    %3d  ", name, j)
			for _, v := range q {
				fmt.Fprintf(w, "%8.3f", v)
			}
			fmt.Fprintln(w)
		}
	}
}

func padded(symbols []string) []string {
	res := make([]string, len(symbols))
	for i, s := range symbols {
		res[i] = fmt.Sprintf("%8s", s)
	}
	return res
}

// ChargeCentres returns the atoms an orbital is centred on. When the
// largest weight dominates the two largest by more than threshold the
// orbital is a one-centre (core or lone pair) orbital and both entries are
// that atom; otherwise the two atoms are returned in increasing order.
func ChargeCentres(weights []float64, threshold float64) [2]int {
	switch len(weights) {
	case 0:
		return [2]int{-1, -1}
	case 1:
		return [2]int{0, 0}
	}
	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case weights[a] > weights[b]:
			return -1
		case weights[a] < weights[b]:
			return 1
		}
		return 0
	})
	first, second := order[0], order[1]
	if math.Abs(weights[first])/math.Abs(weights[first]+weights[second]) > threshold {
		return [2]int{first, first}
	}
	if second < first {
		first, second = second, first
	}
	return [2]int{first, second}
}
