// properties.go --  This file is part of goHF project.
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
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"example.com/godecomp/internal/linalg"
)

// Term is a contribution category of a decomposed property.
type Term string

const (
	TermKinetic      Term = "kin"
	TermCoulomb      Term = "coul"
	TermExchange     Term = "exch"
	TermXC           Term = "xc"
	TermNucAttGlobal Term = "nuc_att_glob"
	TermNucAttLocal  Term = "nuc_att_loc"
	TermStruct       Term = "struct"
	TermElectronic   Term = "el"
)

// energyTerms and dipoleTerms fix the printing order.
var (
	energyTerms = []Term{TermKinetic, TermCoulomb, TermExchange, TermXC, TermNucAttGlobal, TermNucAttLocal, TermStruct}
	dipoleTerms = []Term{TermElectronic, TermStruct}
)

// nuclear terms are indexed by atom (or fragment) in every partition.
func (t Term) nuclear() bool { return t == TermStruct || t == TermNucAttLocal }

// Result is a decomposed property. Entries of electronic terms follow
// Labels; nuclear terms follow NuclearLabels. Both coincide unless the
// partition is Orbitals.
type Result struct {
	Property      Property              `yaml:"prop"`
	Partition     Partition             `yaml:"part"`
	Labels        []string              `yaml:"labels"`
	NuclearLabels []string              `yaml:"nuclear_labels"`
	Energy        map[Term][]float64    `yaml:"energy,omitempty"`
	Dipole        map[Term][][3]float64 `yaml:"dipole,omitempty"`
	GaugeOrigin   [3]float64            `yaml:"gauge_origin"`
	// Orbitals holds the MO index of every electronic entry per spin in
	// the Orbitals partition.
	Orbitals [2][]int `yaml:"-"`
	// Centres holds the charge centres of every occupied orbital when
	// weights were available.
	Centres [2][][2]int  `yaml:"centres,omitempty"`
	Weights WeightMatrix `yaml:"-"`
}

// Sum adds up the entries of an energy term.
func (r *Result) Sum(t Term) float64 {
	return floats.Sum(r.Energy[t])
}

// Total is the sum of every energy entry.
func (r *Result) Total() float64 {
	res := 0.0
	for _, v := range r.Energy {
		res += floats.Sum(v)
	}
	return res
}

// TotalDipole is the sum of every dipole entry.
func (r *Result) TotalDipole() [3]float64 {
	var res [3]float64
	for _, v := range r.Dipole {
		for _, d := range v {
			for k := 0; k < 3; k++ {
				res[k] += d[k]
			}
		}
	}
	return res
}

// WriteTable prints the result as one row per atom, fragment or orbital.
func (r *Result) WriteTable(w io.Writer) {
	terms := energyTerms
	if r.Property == Dipole {
		terms = dipoleTerms
	}
	var el, nuc []Term
	for _, t := range terms {
		if !r.has(t) {
			continue
		}
		if r.Partition == Orbitals && t.nuclear() {
			nuc = append(nuc, t)
			continue
		}
		el = append(el, t)
	}
	r.writeSection(w, r.Labels, el)
	if len(nuc) > 0 {
		fmt.Fprintln(w)
		r.writeSection(w, r.NuclearLabels, nuc)
	}
	fmt.Fprintln(w)
	if r.Property == Dipole {
		d := r.TotalDipole()
		fmt.Fprintf(w, " total dipole (au): %12.6f %12.6f %12.6f\n", d[0], d[1], d[2])
		return
	}
	fmt.Fprintf(w, " total energy (au): %20.10f\n", r.Total())
}

func (r *Result) has(t Term) bool {
	if r.Property == Dipole {
		_, ok := r.Dipole[t]
		return ok
	}
	_, ok := r.Energy[t]
	return ok
}

func (r *Result) writeSection(w io.Writer, labels []string, terms []Term) {
	if len(terms) == 0 {
		return
	}
	width := 14
	if r.Property == Dipole {
		width = 38
	}
	line := strings.Repeat("-", 10+width*(len(terms)+1))
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "%-10s", "")
	for _, t := range terms {
		fmt.Fprintf(w, "%*s", width, t)
	}
	fmt.Fprintf(w, "%*s\n", width, "total")
	fmt.Fprintln(w, line)
	for i, l := range labels {
		fmt.Fprintf(w, "%-10s", l)
		if r.Property == Dipole {
			var tot [3]float64
			for _, t := range terms {
				d := r.Dipole[t][i]
				fmt.Fprintf(w, "  %12.6f%12.6f%12.6f", d[0], d[1], d[2])
				for k := range tot {
					tot[k] += d[k]
				}
			}
			fmt.Fprintf(w, "  %12.6f%12.6f%12.6f\n", tot[0], tot[1], tot[2])
			continue
		}
		tot := 0.0
		for _, t := range terms {
			fmt.Fprintf(w, "%14.8f", r.Energy[t][i])
			tot += r.Energy[t][i]
		}
		fmt.Fprintf(w, "%14.8f\n", tot)
	}
	fmt.Fprintln(w, line)
}

// WriteYAML exports the result together with its totals.
func (r *Result) WriteYAML(w io.Writer) error {
	doc := struct {
		Result      `yaml:",inline"`
		EnergyTotal *float64    `yaml:"total_energy,omitempty"`
		DipoleTotal *[3]float64 `yaml:"total_dipole,omitempty"`
	}{Result: *r}
	if r.Property == Dipole {
		d := r.TotalDipole()
		doc.DipoleTotal = &d
	} else {
		e := r.Total()
		doc.EnergyTotal = &e
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("decomp: encode result: %w", err)
	}
	return enc.Close()
}

type aggregateOptions struct {
	fragments [][]int
	origin    *[3]float64
	rdm1Eff   [2]*mat.SymDense
	threshold float64
}

// AggregateOption configures Aggregate.
type AggregateOption func(*aggregateOptions)

// WithFragments sets the atoms of every EDA fragment.
func WithFragments(frags [][]int) AggregateOption {
	return func(o *aggregateOptions) { o.fragments = frags }
}

// WithGaugeOrigin sets the origin of the dipole operator.
func WithGaugeOrigin(origin [3]float64) AggregateOption {
	return func(o *aggregateOptions) { o.origin = &origin }
}

// WithEffectiveDensity evaluates the Coulomb and exchange potentials at
// the given AO densities instead of the density of the orbitals.
func WithEffectiveDensity(rdm1 [2]*mat.SymDense) AggregateOption {
	return func(o *aggregateOptions) { o.rdm1Eff = rdm1 }
}

// WithCentreThreshold sets the dominance ratio used for charge centres.
func WithCentreThreshold(t float64) AggregateOption {
	return func(o *aggregateOptions) { o.threshold = t }
}

// rowMap sends every orbital contribution to result rows.
type rowMap struct {
	partition Partition
	atomRow   []int
	nrows     int
}

// Aggregate contracts the orbital densities with the integrals of the
// mean field and groups the contributions by atom, fragment or orbital.
// weights are required for the Atoms and EDA partitions.
func Aggregate(mf MeanField, orbs OrbitalSet, weights WeightMatrix, prop Property, part Partition, opts ...AggregateOption) (*Result, error) {
	if !prop.valid() {
		return nil, fmt.Errorf("%v: %w", prop, ErrInvalidProperty)
	}
	if !part.valid() {
		return nil, fmt.Errorf("%v: %w", part, ErrUnknownPartition)
	}
	if err := orbs.check(len(mf.AOAtoms())); err != nil {
		return nil, err
	}
	o := aggregateOptions{threshold: DefaultConfig().CentreThreshold}
	for _, opt := range opts {
		opt(&o)
	}
	natm := mf.NAtoms()
	hasWeights := weights[0] != nil || weights[1] != nil
	if part != Orbitals && !hasWeights {
		return nil, dimErr("partition %v needs orbital weights", part)
	}
	if hasWeights {
		if err := checkWeights(weights, orbs, natm); err != nil {
			return nil, err
		}
	}

	res := &Result{Property: prop, Partition: part, Weights: weights}
	rows, err := newRowMap(mf, part, o.fragments, res)
	if err != nil {
		return nil, err
	}
	for s := 0; s < 2; s++ {
		if part == Orbitals {
			for _, j := range orbs.Occupied(s) {
				res.Orbitals[s] = append(res.Orbitals[s], j)
				res.Labels = append(res.Labels, orbitalLabel(s, j))
			}
		}
		if hasWeights {
			res.Centres[s] = make([][2]int, len(weights[s]))
			for k, q := range weights[s] {
				res.Centres[s][k] = ChargeCentres(q, o.threshold)
			}
		}
	}

	switch prop {
	case Energy:
		err = aggregateEnergy(mf, orbs, weights, rows, o, res)
	case Dipole:
		aggregateDipole(mf, orbs, weights, rows, o, res)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func checkWeights(weights WeightMatrix, orbs OrbitalSet, natm int) error {
	for s := 0; s < 2; s++ {
		nocc := len(orbs.Occupied(s))
		if len(weights[s]) != nocc {
			return dimErr("%d weight vectors for %d occupied orbitals of spin %d", len(weights[s]), nocc, s)
		}
		for k, q := range weights[s] {
			if len(q) != natm {
				return dimErr("weights of spin %d orbital %d cover %d atoms, molecule has %d", s, k, len(q), natm)
			}
		}
	}
	return nil
}

func atomLabels(mol Molecule) []string {
	syms := mol.AtomSymbols()
	res := make([]string, len(syms))
	for a, s := range syms {
		res[a] = s + strconv.Itoa(a)
	}
	return res
}

func orbitalLabel(spin, j int) string {
	if spin == 0 {
		return "a" + strconv.Itoa(j)
	}
	return "b" + strconv.Itoa(j)
}

func newRowMap(mol Molecule, part Partition, frags [][]int, res *Result) (rowMap, error) {
	natm := mol.NAtoms()
	labels := atomLabels(mol)
	rows := rowMap{partition: part, atomRow: make([]int, natm), nrows: natm}
	for a := range rows.atomRow {
		rows.atomRow[a] = a
	}
	switch part {
	case Atoms:
		res.Labels, res.NuclearLabels = labels, labels
	case Orbitals:
		res.NuclearLabels = labels
	case EDA:
		cfg := Config{Part: EDA, Fragments: frags}
		if err := cfg.validateFragments(natm); err != nil {
			return rows, err
		}
		frags = cfg.fragments(natm)
		rows.nrows = len(frags)
		fl := make([]string, len(frags))
		for f, frag := range frags {
			names := make([]string, len(frag))
			for i, a := range frag {
				rows.atomRow[a] = f
				names[i] = labels[a]
			}
			fl[f] = strings.Join(names, "-")
		}
		res.Labels, res.NuclearLabels = fl, fl
	}
	return rows, nil
}

// spread adds the per-orbital contributions (each of length dim) into
// result rows: one row per orbital for Orbitals, otherwise proportionally
// to the weights of the orbital.
func (m rowMap) spread(contrib [2][][]float64, weights WeightMatrix, dim int) [][]float64 {
	if m.partition == Orbitals {
		var res [][]float64
		for s := 0; s < 2; s++ {
			res = append(res, contrib[s]...)
		}
		return res
	}
	res := make([][]float64, m.nrows)
	for r := range res {
		res[r] = make([]float64, dim)
	}
	for s := 0; s < 2; s++ {
		for k, v := range contrib[s] {
			w := weights[s][k]
			tot := floats.Sum(w)
			if tot == 0 {
				continue
			}
			for a, wa := range w {
				floats.AddScaled(res[m.atomRow[a]], wa/tot, v)
			}
		}
	}
	return res
}

// group sums per-atom values into rows.
func (m rowMap) group(perAtom []float64) []float64 {
	if m.partition != EDA {
		return perAtom
	}
	res := make([]float64, m.nrows)
	for a, v := range perAtom {
		res[m.atomRow[a]] += v
	}
	return res
}

func aggregateEnergy(mf MeanField, orbs OrbitalSet, weights WeightMatrix, rows rowMap, o aggregateOptions, res *Result) error {
	dens := orbs.densities()
	eff := dens
	if o.rdm1Eff[0] != nil || o.rdm1Eff[1] != nil {
		eff = o.rdm1Eff
	}
	vj, vk, err := mf.EffectivePotential(eff)
	if err != nil {
		return fmt.Errorf("effective potential: %w", err)
	}
	cx := 1.0
	if es, ok := mf.(ExchangeScaler); ok {
		cx = es.ExchangeScale()
	}
	terms := []Term{TermKinetic, TermNucAttGlobal, TermCoulomb, TermExchange}
	xc, isDFT := mf.(XCPartitioner)
	if isDFT {
		terms = append(terms, TermXC)
	}
	t, v := mf.Kinetic(), mf.NucAttraction()

	var contrib [2][][]float64
	for s := 0; s < 2; s++ {
		for _, j := range orbs.Occupied(s) {
			rho := orbs.orbitalDensity(s, j)
			e := []float64{
				linalg.TraceMul(t, rho),
				0.5 * linalg.TraceMul(v, rho),
				0.5 * linalg.TraceMul(vj, rho),
				-0.5 * cx * linalg.TraceMul(vk[s], rho),
			}
			if isDFT {
				e = append(e, xc.OrbitalXC(rho))
			}
			contrib[s] = append(contrib[s], e)
		}
	}
	spread := rows.spread(contrib, weights, len(terms))

	res.Energy = make(map[Term][]float64, len(terms)+2)
	for ti, term := range terms {
		vals := make([]float64, len(spread))
		for r := range spread {
			vals[r] = spread[r][ti]
		}
		res.Energy[term] = vals
	}
	var dTot mat.SymDense
	dTot.AddSym(dens[0], dens[1])
	res.Energy[TermNucAttLocal] = rows.group(nucAttLocal(mf, mf.NAtoms(), &dTot))
	res.Energy[TermStruct] = rows.group(structEnergy(mf))
	return nil
}

func aggregateDipole(mf MeanField, orbs OrbitalSet, weights WeightMatrix, rows rowMap, o aggregateOptions, res *Result) {
	origin := ChargeCentre(mf)
	if o.origin != nil {
		origin = *o.origin
	}
	res.GaugeOrigin = origin
	ints := mf.DipoleIntegrals(origin)

	var contrib [2][][]float64
	for s := 0; s < 2; s++ {
		for _, j := range orbs.Occupied(s) {
			rho := orbs.orbitalDensity(s, j)
			d := make([]float64, 3)
			for k := 0; k < 3; k++ {
				d[k] = -linalg.TraceMul(ints[k], rho)
			}
			contrib[s] = append(contrib[s], d)
		}
	}
	spread := rows.spread(contrib, weights, 3)

	el := make([][3]float64, len(spread))
	for r, d := range spread {
		copy(el[r][:], d)
	}
	nucAtoms := nuclearDipoles(mf, origin)
	var nuc [][3]float64
	if rows.partition == EDA {
		nuc = make([][3]float64, rows.nrows)
		for a, d := range nucAtoms {
			for k := 0; k < 3; k++ {
				nuc[rows.atomRow[a]][k] += d[k]
			}
		}
	} else {
		nuc = nucAtoms
	}
	res.Dipole = map[Term][][3]float64{TermElectronic: el, TermStruct: nuc}
}
