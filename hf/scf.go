// scf.go --  This file is part of goHF project.
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

package hf

import (
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"example.com/godecomp/internal/linalg"
)

// Options controls a Hartree-Fock run.
type Options struct {
	// Restricted selects RHF; otherwise UHF.
	Restricted bool
	// ConvTol is the energy threshold; the DIIS error threshold is its
	// square root.
	ConvTol float64
	MaxIter int
	// DIISSpace is the number of Fock matrices kept for extrapolation.
	DIISSpace int
	// MOM holds occupation overrides per spin channel, MO index -> occupation.
	// After the ground state converges the maximum overlap method keeps the
	// excited configuration.
	MOM []map[int]float64
	// IrrepNelec and XC are accepted for interface parity only.
	IrrepNelec map[string]int
	XC         string
	Logger     *zap.Logger
}

// DefaultOptions mirrors the usual RHF setup.
func DefaultOptions() Options {
	return Options{Restricted: true, ConvTol: 1e-10, MaxIter: 128, DIISSpace: 8}
}

type scf struct {
	mol *Molecule
	// nspin is 1 for restricted runs, where channel β mirrors channel α.
	nspin int
	S, H1 *mat.SymDense
	A     *mat.SymDense // S^-1/2
	eri   *ERITable
	Vnn   float64

	C   [2]*mat.Dense
	eps [2][]float64
	occ [2][]float64
	D   [2]*mat.SymDense
	F   [2]*mat.SymDense

	fList, rList [][2]*mat.Dense
	diisSpace    int
	log          *zap.Logger
}

// RunSCF solves the Hartree-Fock equations for mol.
func RunSCF(mol *Molecule, opts Options) (*MeanField, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ConvTol <= 0 {
		opts.ConvTol = 1e-10
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = 128
	}
	if opts.DIISSpace <= 0 {
		opts.DIISSpace = 8
	}
	if xc := strings.ToLower(strings.TrimSpace(opts.XC)); xc != "" && xc != "hf" {
		return nil, fmt.Errorf("exchange-correlation functional %q: %w", opts.XC, ErrUnsupported)
	}
	if len(opts.IrrepNelec) > 0 {
		return nil, fmt.Errorf("irrep occupations without point group symmetry: %w", ErrUnsupported)
	}
	if opts.Restricted && mol.Spin != 0 {
		return nil, fmt.Errorf("restricted open-shell reference with spin %d: %w", mol.Spin, ErrUnsupported)
	}

	tstart := time.Now()
	r, err := initSCF(mol, opts)
	if err != nil {
		return nil, err
	}
	r.log.Info("integrals done", zap.Int("nao", mol.NAO()), zap.Int("nvee", len(r.eri.Idx)),
		zap.Duration("elapsed", time.Since(tstart)))

	energy, iters, err := r.iterate(opts, nil)
	if err != nil {
		return nil, err
	}
	r.log.Info("SCF converged", zap.Int("iterations", iters), zap.Float64("energy", energy))

	if len(opts.MOM) > 0 {
		if err := r.applyMOM(opts); err != nil {
			return nil, err
		}
		energy, iters, err = r.iterate(opts, r.momSelect)
		if err != nil {
			return nil, fmt.Errorf("MOM: %w", err)
		}
		r.log.Info("MOM SCF converged", zap.Int("iterations", iters), zap.Float64("energy", energy))
	}
	return r.meanField(opts.Restricted, energy, iters), nil
}

func initSCF(mol *Molecule, opts Options) (*scf, error) {
	r := &scf{mol: mol, nspin: 2, diisSpace: opts.DIISSpace, log: opts.Logger}
	if opts.Restricted {
		r.nspin = 1
	}
	r.S = mol.Ovlp()
	T := mol.Kinetic()
	V, _ := mol.ElecNuc()
	r.H1 = mat.NewSymDense(mol.NAO(), nil)
	r.H1.AddSym(T, V)
	r.Vnn = mol.NucNuc()
	var err error
	if r.A, err = linalg.SymPow(r.S, -0.5); err != nil {
		return nil, fmt.Errorf("overlap matrix: %w", err)
	}
	r.eri = mol.ElecElec()
	if err := r.initialGuess(); err != nil {
		return nil, err
	}
	return r, nil
}

// initialGuess diagonalises the core Hamiltonian.
func (r *scf) initialGuess() error {
	c, eps, err := r.diagonalize(r.H1)
	if err != nil {
		return fmt.Errorf("core Hamiltonian: %w", err)
	}
	nocc := [2]int{r.mol.NAlpha(), r.mol.NBeta()}
	for s := 0; s < 2; s++ {
		r.C[s] = mat.DenseCopyOf(c)
		r.eps[s] = slices.Clone(eps)
		r.occ[s] = aufbau(len(eps), nocc[s])
	}
	return nil
}

func aufbau(n, nocc int) []float64 {
	res := make([]float64, n)
	for i := 0; i < nocc && i < n; i++ {
		res[i] = 1
	}
	return res
}

// diagonalize solves F C = S C ε through the orthogonaliser A.
func (r *scf) diagonalize(f mat.Symmetric) (*mat.Dense, []float64, error) {
	n := f.SymmetricDim()
	var tmp mat.Dense
	tmp.Mul(r.A, f)
	tmp.Mul(&tmp, r.A)
	var eigsym mat.EigenSym
	if ok := eigsym.Factorize(linalg.Symmetrize(&tmp), true); !ok {
		return nil, nil, fmt.Errorf("transformed Fock eigendecomposition failed: %w", ErrSCFNotConverged)
	}
	var ev mat.Dense
	eigsym.VectorsTo(&ev)
	c := mat.NewDense(n, n, nil)
	c.Mul(r.A, &ev)
	return c, eigsym.Values(nil), nil
}

func (r *scf) buildDensMat() {
	for s := 0; s < r.nspin; s++ {
		r.D[s] = linalg.Density(r.C[s], r.occ[s])
	}
	if r.nspin == 1 {
		r.D[1] = r.D[0]
	}
}

// buildFock forms F_s = H1 + J[Dα+Dβ] - K[D_s] and returns the energy
// ½ Σ_s Tr[D_s (H1 + F_s)] + Vnn.
func (r *scf) buildFock() float64 {
	var js, ks []*mat.SymDense
	if r.nspin == 1 {
		js, ks = r.eri.BuildJK(r.D[0])
	} else {
		js, ks = r.eri.BuildJK(r.D[0], r.D[1])
	}
	n := r.mol.NAO()
	J := mat.NewSymDense(n, nil)
	for _, j := range js {
		J.AddSym(J, j)
	}
	if r.nspin == 1 {
		J.ScaleSym(2, J)
	}
	energy := r.Vnn
	for s := 0; s < r.nspin; s++ {
		f := mat.NewSymDense(n, nil)
		f.AddSym(r.H1, J)
		k := mat.NewSymDense(n, nil)
		k.ScaleSym(-1, ks[s])
		f.AddSym(f, k)
		r.F[s] = f
		var h mat.SymDense
		h.AddSym(r.H1, f)
		e := 0.5 * linalg.TraceMul(r.D[s], &h)
		if r.nspin == 1 {
			e *= 2
		}
		energy += e
	}
	if r.nspin == 1 {
		r.F[1] = r.F[0]
	}
	return energy
}

// diisResidual appends A (F D S - S D F) A for every channel.
func (r *scf) diisResidual() float64 {
	var res, fs [2]*mat.Dense
	sum, count := 0.0, 0
	for s := 0; s < r.nspin; s++ {
		var fds, sdf mat.Dense
		fds.Mul(r.F[s], r.D[s])
		fds.Mul(&fds, r.S)
		sdf.Mul(r.S, r.D[s])
		sdf.Mul(&sdf, r.F[s])
		fds.Sub(&fds, &sdf)
		fds.Mul(r.A, &fds)
		fds.Mul(&fds, r.A)
		res[s] = &fds
		fs[s] = mat.DenseCopyOf(r.F[s])
		sq := mat.DenseCopyOf(&fds)
		sq.MulElem(sq, sq)
		sum += stat.Mean(sq.RawMatrix().Data, nil)
		count++
	}
	r.fList = append(r.fList, fs)
	r.rList = append(r.rList, res)
	if len(r.fList) > r.diisSpace {
		r.fList = r.fList[1:]
		r.rList = r.rList[1:]
	}
	return math.Sqrt(sum / float64(count))
}

// buildB is the DIIS matrix of residual overlaps bordered by -1.
func (r *scf) buildB() *mat.Dense {
	dim := len(r.fList) + 1
	res := mat.NewDense(dim, dim, nil)
	for i := 0; i < dim-1; i++ {
		res.Set(i, dim-1, -1)
		res.Set(dim-1, i, -1)
	}
	for i := range r.rList {
		for j := range r.rList {
			v := 0.0
			for s := 0; s < r.nspin; s++ {
				var b mat.Dense
				b.MulElem(r.rList[i][s], r.rList[j][s])
				v += mat.Sum(&b)
			}
			res.Set(i, j, v)
		}
	}
	return res
}

// extrapolate returns the DIIS Fock matrices, or the current ones when the
// B matrix is singular.
func (r *scf) extrapolate() [2]mat.Symmetric {
	cur := [2]mat.Symmetric{r.F[0], r.F[1]}
	if len(r.fList) < 2 {
		return cur
	}
	bmat := r.buildB()
	rhs := mat.NewVecDense(len(r.fList)+1, nil)
	rhs.SetVec(len(r.fList), -1)
	var lu mat.LU
	lu.Factorize(bmat)
	var coefs mat.VecDense
	if err := lu.SolveVecTo(&coefs, false, rhs); err != nil {
		return cur
	}
	var res [2]mat.Symmetric
	n := r.mol.NAO()
	for s := 0; s < r.nspin; s++ {
		f := mat.NewDense(n, n, nil)
		for j := range r.fList {
			var part mat.Dense
			part.Scale(coefs.AtVec(j), r.fList[j][s])
			f.Add(f, &part)
		}
		res[s] = linalg.Symmetrize(f)
	}
	return res
}

// iterate runs SCF cycles until the energy and the DIIS error converge.
// occupy, when set, chooses occupations for the new orbitals of channel s.
func (r *scf) iterate(opts Options, occupy func(s int, c *mat.Dense) []float64) (float64, int, error) {
	tolE := opts.ConvTol
	tolD := math.Sqrt(opts.ConvTol)
	energy, ePrev := 0.0, 0.0
	r.fList, r.rList = nil, nil
	for i := 0; i < opts.MaxIter; i++ {
		ePrev = energy
		r.buildDensMat()
		energy = r.buildFock()
		dRMS := r.diisResidual()
		r.log.Debug("SCF iteration", zap.Int("iter", i+1), zap.Float64("energy", energy),
			zap.Float64("dE", ePrev-energy), zap.Float64("dRMS", dRMS))
		if i > 0 && math.Abs(ePrev-energy) < tolE && dRMS < tolD {
			return energy, i + 1, nil
		}
		fock := r.extrapolate()
		for s := 0; s < r.nspin; s++ {
			c, eps, err := r.diagonalize(fock[s])
			if err != nil {
				return 0, i + 1, err
			}
			if occupy != nil {
				r.occ[s] = occupy(s, c)
			}
			r.C[s], r.eps[s] = c, eps
		}
	}
	r.log.Warn("SCF not converged", zap.Int("iterations", opts.MaxIter), zap.Float64("energy", energy))
	return energy, opts.MaxIter, fmt.Errorf("%d iterations, E = %.10f: %w", opts.MaxIter, energy, ErrSCFNotConverged)
}

// applyMOM sets the excited occupations. Restricted runs take one map with
// values 0 or 2; unrestricted runs take one map per spin with values 0 or 1.
func (r *scf) applyMOM(opts Options) error {
	if r.nspin == 1 && len(opts.MOM) > 1 {
		return fmt.Errorf("MOM with %d spin channels for a restricted reference: %w", len(opts.MOM), ErrUnsupported)
	}
	if len(opts.MOM) > 2 {
		return fmt.Errorf("MOM with %d spin channels: %w", len(opts.MOM), ErrInput)
	}
	nmo := len(r.occ[0])
	for s, over := range opts.MOM {
		for idx, v := range over {
			if idx < 0 || idx >= nmo {
				return fmt.Errorf("MOM orbital %d out of range [0, %d): %w", idx, nmo, ErrInput)
			}
			switch {
			case r.nspin == 1 && v == 1:
				return fmt.Errorf("singly occupied orbital %d in a restricted reference: %w", idx, ErrUnsupported)
			case r.nspin == 1 && (v == 0 || v == 2):
				r.occ[0][idx] = v / 2
			case r.nspin == 2 && (v == 0 || v == 1):
				r.occ[s][idx] = v
			default:
				return fmt.Errorf("MOM occupation %g of orbital %d: %w", v, idx, ErrInput)
			}
		}
	}
	for s := 0; s < r.nspin; s++ {
		if floats.Sum(r.occ[s]) != float64(r.nelec(s)) {
			return fmt.Errorf("MOM changes the electron count of spin channel %d: %w", s, ErrInput)
		}
	}
	return nil
}

func (r *scf) nelec(s int) int {
	if s == 0 {
		return r.mol.NAlpha()
	}
	return r.mol.NBeta()
}

// momSelect occupies the new orbitals with the largest projection
// p_j = Σ_i (C_occᵀ S C_new)_ij² onto the previously occupied space.
func (r *scf) momSelect(s int, c *mat.Dense) []float64 {
	var occIdx []int
	for i, o := range r.occ[s] {
		if o > 0 {
			occIdx = append(occIdx, i)
		}
	}
	old := linalg.Columns(r.C[s], occIdx)
	_, nmo := c.Dims()
	res := make([]float64, nmo)
	if old == nil {
		return res
	}
	var ov mat.Dense
	ov.Mul(old.T(), r.S)
	ov.Mul(&ov, c)
	type proj struct {
		j int
		p float64
	}
	ps := make([]proj, nmo)
	for j := 0; j < nmo; j++ {
		col := mat.Col(nil, j, &ov)
		p := 0.0
		for _, v := range col {
			p += v * v
		}
		ps[j] = proj{j, p}
	}
	slices.SortStableFunc(ps, func(a, b proj) int {
		switch {
		case a.p > b.p:
			return -1
		case a.p < b.p:
			return 1
		}
		return 0
	})
	for _, p := range ps[:len(occIdx)] {
		res[p.j] = 1
	}
	return res
}

func (r *scf) meanField(restricted bool, energy float64, iters int) *MeanField {
	mf := &MeanField{
		mol:        r.mol,
		restricted: restricted,
		s:          r.S,
		h1:         r.H1,
		eri:        r.eri,
		eTot:       energy,
		iters:      iters,
	}
	if restricted {
		occ := make([]float64, len(r.occ[0]))
		for i, o := range r.occ[0] {
			occ[i] = 2 * o
		}
		mf.coeff = [2]*mat.Dense{r.C[0], r.C[0]}
		mf.occ = [2][]float64{occ, nil}
		mf.eps = [2][]float64{r.eps[0], r.eps[0]}
		return mf
	}
	mf.coeff = r.C
	mf.occ = r.occ
	mf.eps = r.eps
	return mf
}
