// decomp.go --  This file is part of goHF project.
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

// Package decomp decomposes mean-field energies and dipole moments into
// atomic, fragment or orbital contributions. Occupied orbitals are
// optionally localized, assigned to atoms by a population analysis, and
// contracted with the integrals of the mean field; the contributions add
// up to the total property.
package decomp

import (
	"fmt"
	"io"
	"math"
	"path/filepath"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"example.com/godecomp/internal/linalg"
)

type options struct {
	logger  *zap.Logger
	rdm1    [2]*mat.SymDense
	rdm1Eff [2]*mat.SymDense
	groups  *[2][][]int
	out     io.Writer
}

// Option configures Decompose.
type Option func(*options)

// WithLogger sets the logger of the pipeline.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRDM1 replaces the mean-field orbitals by the natural orbitals of a
// one-particle density given per spin in the MO basis.
func WithRDM1(rdm1 [2]*mat.SymDense) Option {
	return func(o *options) { o.rdm1 = rdm1 }
}

// WithPotentialDensity evaluates the Coulomb and exchange potentials at
// the given AO densities.
func WithPotentialDensity(rdm1 [2]*mat.SymDense) Option {
	return func(o *options) { o.rdm1Eff = rdm1 }
}

// WithLocalizationGroups overrides the default core/valence groups; see
// Localize.
func WithLocalizationGroups(parts [2][][]int) Option {
	return func(o *options) { o.groups = &parts }
}

// WithOutput receives the weight table when cfg.Verbose > 0, and the
// occupied orbital coefficients when cfg.Verbose > 1.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// dipoleMoment is implemented by mean fields that report their dipole.
type dipoleMoment interface {
	DipoleMoment(origin [3]float64) [3]float64
}

// Decompose runs the whole pipeline on a converged mean field: validation,
// optional natural orbitals, localization, population weights and
// aggregation. cfg is never modified and the result is a fresh value.
func Decompose(mf MeanField, cfg Config, opts ...Option) (*Result, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if mf == nil {
		return nil, configErr("mean field", nil, "no mean field given")
	}
	if err := cfg.Validate(mf); err != nil {
		return nil, err
	}
	if err := checkCapabilities(mf, cfg); err != nil {
		return nil, err
	}
	log := o.logger.With(
		zap.Stringer("loc", cfg.Loc),
		zap.Stringer("pop", cfg.Pop),
		zap.Stringer("prop", cfg.Prop),
		zap.Stringer("part", cfg.Part),
	)

	orbs, err := SpinResolve(mf.MOCoefficients(), mf.MOOccupations(), mf.Restricted())
	if err != nil {
		return nil, fmt.Errorf("mean-field orbitals: %w", err)
	}
	if o.rdm1[0] != nil || o.rdm1[1] != nil {
		orbs, err = NaturalOrbitals(orbs.Coeff, o.rdm1)
		if err != nil {
			return nil, fmt.Errorf("natural orbitals: %w", err)
		}
		log.Debug("natural orbitals", zap.Int("nalpha", len(orbs.Occupied(0))), zap.Int("nbeta", len(orbs.Occupied(1))))
	}

	if cfg.Loc != NoLocalization {
		parts := DefaultGroups(orbs, mf.AtomCharges(), cfg.SplitCore)
		if o.groups != nil {
			parts = *o.groups
		}
		orbs, err = Localize(mf, orbs, cfg.Loc, cfg.Ref, parts)
		if err != nil {
			return nil, err
		}
		log.Debug("orbitals localized", zap.Int("groups", len(parts[0])))
	}
	if cfg.Verbose > 1 && o.out != nil {
		writeOrbitals(o.out, orbs)
	}

	assignOpts := []AssignOption{WithWorkers(cfg.Workers)}
	if cfg.Verbose > 0 && o.out != nil {
		assignOpts = append(assignOpts, WithTable(o.out))
	}
	weights, err := Assign(mf, orbs, cfg.Pop, cfg.Ref, assignOpts...)
	if err != nil {
		return nil, err
	}
	log.Debug("weights assigned", zap.Float64("nalpha", weights.Sum(0)), zap.Float64("nbeta", weights.Sum(1)))

	aggOpts := []AggregateOption{
		WithFragments(cfg.Fragments),
		WithCentreThreshold(cfg.CentreThreshold),
		WithEffectiveDensity(o.rdm1Eff),
	}
	if cfg.GaugeOrigin != nil {
		aggOpts = append(aggOpts, WithGaugeOrigin(*cfg.GaugeOrigin))
	}
	res, err := Aggregate(mf, orbs, weights, cfg.Prop, cfg.Part, aggOpts...)
	if err != nil {
		return nil, err
	}

	if cfg.Cube {
		if err := writeCubes(mf.(CubeWriter), orbs, cfg, log); err != nil {
			return nil, err
		}
	}
	logConservation(log, mf, res)
	return res, nil
}

func checkCapabilities(mf MeanField, cfg Config) error {
	if cfg.Ref == Restricted && !mf.Restricted() {
		return configErr("ref", nil, "restricted reference requested for an unrestricted mean field")
	}
	if cfg.XC != "" {
		if _, ok := mf.(XCPartitioner); !ok {
			return configErr("xc", nil, "mean field cannot partition the %q functional", cfg.XC)
		}
	}
	if cfg.Cube {
		if _, ok := mf.(CubeWriter); !ok {
			return configErr("cube", nil, "mean field cannot write cube files")
		}
	}
	return nil
}

// writeCubes writes the density of every occupied spin-orbital.
func writeCubes(cw CubeWriter, orbs OrbitalSet, cfg Config, log *zap.Logger) error {
	for s, name := range []string{"a", "b"} {
		for _, j := range orbs.Occupied(s) {
			path := filepath.Join(cfg.CubeDir, fmt.Sprintf("rdm1_%s_%d.cube", name, j))
			if cfg.CubeCompress != "" {
				path += "." + cfg.CubeCompress
			}
			comment := fmt.Sprintf("spin %s orbital %d, loc %v", name, j, cfg.Loc)
			if err := cw.WriteCube(path, comment, orbs.orbitalDensity(s, j)); err != nil {
				return fmt.Errorf("cube file %s: %w", path, err)
			}
			log.Debug("cube file written", zap.String("path", path))
		}
	}
	return nil
}

// writeOrbitals prints the occupied coefficients of every channel.
func writeOrbitals(w io.Writer, orbs OrbitalSet) {
	for s, name := range []string{"alpha", "beta"} {
		c := linalg.Columns(orbs.Coeff[s], orbs.Occupied(s))
		if c == nil {
			continue
		}
		fmt.Fprintf(w, "\n *** occupied MO coefficients (%s): ***\n", name)
		linalg.PrintDense(w, c)
	}
}

func logConservation(log *zap.Logger, mf MeanField, res *Result) {
	if res.Property == Energy {
		dev := res.Total() - mf.TotalEnergy()
		log.Info("energy decomposed",
			zap.Float64("total", res.Total()),
			zap.Float64("reference", mf.TotalEnergy()),
			zap.Float64("deviation", dev))
		return
	}
	d := res.TotalDipole()
	dm, ok := mf.(dipoleMoment)
	if !ok {
		log.Info("dipole decomposed", zap.Float64s("total", d[:]))
		return
	}
	ref := dm.DipoleMoment(res.GaugeOrigin)
	dev := 0.0
	for k := 0; k < 3; k++ {
		dev = math.Max(dev, math.Abs(d[k]-ref[k]))
	}
	log.Info("dipole decomposed",
		zap.Float64s("total", d[:]),
		zap.Float64s("reference", ref[:]),
		zap.Float64("deviation", dev))
}
