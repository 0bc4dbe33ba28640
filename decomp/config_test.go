// config_test.go --  This file is part of goHF project.
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
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// triatomic is a bare Molecule for validation tests.
type triatomic struct{ basis string }

func (m triatomic) NAtoms() int              { return 3 }
func (m triatomic) AtomCharges() []float64   { return []float64{8, 1, 1} }
func (m triatomic) AtomCoords() [][3]float64 { return make([][3]float64, 3) }
func (m triatomic) AtomSymbols() []string    { return []string{"O", "H", "H"} }
func (m triatomic) AOAtoms() []int           { return []int{0, 0, 0, 0, 0, 1, 2} }
func (m triatomic) NElectrons() int          { return 10 }
func (m triatomic) Spin() int                { return 0 }
func (m triatomic) BasisName() string        { return m.basis }

func TestDefaultConfigValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate(triatomic{basis: "STO-3G"}))
	require.NoError(t, DefaultConfig().Validate(triatomic{basis: "sto3g"}))
}

func TestValidate(t *testing.T) {
	mol := triatomic{basis: "sto-3g"}
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
		target error
	}{
		{"basis", func(c *Config) { c.Basis = "6-31g" }, "basis", nil},
		{"loc", func(c *Config) { c.Loc = Variant(9) }, "loc", ErrUnknownVariant},
		{"pop", func(c *Config) { c.Pop = Population(-1) }, "pop", ErrUnknownPopulation},
		{"ref", func(c *Config) { c.Ref = Reference(2) }, "ref", ErrUnknownReference},
		{"prop", func(c *Config) { c.Prop = Property(5) }, "prop", ErrInvalidProperty},
		{"part", func(c *Config) { c.Part = Partition(3) }, "part", ErrUnknownPartition},
		{"negative conv_tol", func(c *Config) { c.ConvTol = -1 }, "conv_tol", nil},
		{"zero conv_tol", func(c *Config) { c.ConvTol = 0 }, "conv_tol", nil},
		{"infinite conv_tol", func(c *Config) { c.ConvTol = math.Inf(1) }, "conv_tol", nil},
		{"irrep", func(c *Config) { c.IrrepNelec = map[string]int{"a1": -2} }, "irrep_nelec", nil},
		{"irrep case", func(c *Config) { c.IrrepNelec = map[string]int{"A1": 4, "a1": 2} }, "irrep_nelec", nil},
		{"mom count", func(c *Config) { c.MOM = []map[int]float64{{}, {}, {}} }, "mom", nil},
		{"mom key", func(c *Config) { c.MOM = []map[int]float64{{-1: 0}} }, "mom", nil},
		{"mom value", func(c *Config) { c.MOM = []map[int]float64{{3: 0.5}} }, "mom", nil},
		{"verbose", func(c *Config) { c.Verbose = -1 }, "verbose", nil},
		{"cube compression", func(c *Config) { c.CubeCompress = "bz2" }, "cube_compress", nil},
		{"workers", func(c *Config) { c.Workers = -4 }, "workers", nil},
		{"threshold low", func(c *Config) { c.CentreThreshold = 0.5 }, "centre_threshold", nil},
		{"threshold high", func(c *Config) { c.CentreThreshold = 1.2 }, "centre_threshold", nil},
		{"gauge origin", func(c *Config) { c.GaugeOrigin = &[3]float64{0, math.Inf(1), 0} }, "gauge_origin", nil},
		{"fragments without eda", func(c *Config) { c.Fragments = [][]int{{0, 1, 2}} }, "fragments", nil},
		{"fragment overlap", func(c *Config) {
			c.Part = EDA
			c.Fragments = [][]int{{0, 1}, {1, 2}}
		}, "fragments", nil},
		{"fragment missing atom", func(c *Config) {
			c.Part = EDA
			c.Fragments = [][]int{{0, 1}}
		}, "fragments", nil},
		{"fragment range", func(c *Config) {
			c.Part = EDA
			c.Fragments = [][]int{{0, 1, 2, 3}}
		}, "fragments", nil},
		{"empty fragment", func(c *Config) {
			c.Part = EDA
			c.Fragments = [][]int{{0, 1, 2}, {}}
		}, "fragments", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			before := cfg
			err := cfg.Validate(mol)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.field, cerr.Field)
			assert.Equal(t, before, cfg)
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	mol := triatomic{basis: "sto-3g"}
	cfg := DefaultConfig()
	cfg.MOM = []map[int]float64{{4: 0, 5: 2}, {4: 1}}
	cfg.Part = EDA
	cfg.Fragments = [][]int{{2, 0}, {1}}
	cfg.CentreThreshold = 1
	cfg.Workers = 8
	cfg.CubeCompress = "zst"
	require.NoError(t, cfg.Validate(mol))
	assert.Equal(t, [][]int{{2, 0}, {1}}, cfg.fragments(3))
	assert.Equal(t, [][]int{{0}, {1}, {2}}, DefaultConfig().fragments(3))
	assert.Error(t, cfg.Validate(nil))
}

func TestEnumTokens(t *testing.T) {
	for _, tok := range []string{"none", "fb", "pm", "ibo-2", "ibo-4"} {
		v, err := ParseVariant(tok)
		require.NoError(t, err)
		assert.Equal(t, tok, v.String())
		b, err := v.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, tok, string(b))
	}
	v, err := ParseVariant(" IBO-4 ")
	require.NoError(t, err)
	assert.Equal(t, IBO4, v)
	v, err = ParseVariant("")
	require.NoError(t, err)
	assert.Equal(t, NoLocalization, v)
	assert.Equal(t, 4, IBO4.exponent())
	assert.Equal(t, 2, PipekMezey.exponent())

	var p Population
	require.NoError(t, p.UnmarshalText([]byte("mulliken")))
	assert.Equal(t, Mulliken, p)
	assert.ErrorIs(t, p.UnmarshalText([]byte("lowdin")), ErrUnknownPopulation)

	_, err = ParseReference("rohf")
	assert.ErrorIs(t, err, ErrUnknownReference)
	_, err = ParseProperty("polarizability")
	assert.ErrorIs(t, err, ErrInvalidProperty)
	_, err = ParsePartition("bonds")
	assert.ErrorIs(t, err, ErrUnknownPartition)

	_, err = Variant(11).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownVariant)
	assert.Equal(t, "Partition(7)", Partition(7).String())
}

func TestSameBasis(t *testing.T) {
	assert.True(t, sameBasis("STO-3G", "sto3g"))
	assert.True(t, sameBasis(" 6-31g", "6-31G"))
	assert.False(t, sameBasis("sto-3g", "6-31g"))
}

func TestLoadConfigYAML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
basis: 6-31g
loc: pm
pop: mulliken
ref: unrestricted
conv_tol: 1.0e-8
prop: dipole
part: eda
fragments: [[0], [1, 2]]
mom:
  - {4: 0.0, 5: 1.0}
gauge_origin: [0.0, 0.5, -1.0]
workers: 4
cube_compress: gz
`)))
	cfg, err := LoadConfig(v)
	require.NoError(t, err)

	want := DefaultConfig()
	want.Basis = "6-31g"
	want.Loc = PipekMezey
	want.Pop = Mulliken
	want.Ref = Unrestricted
	want.ConvTol = 1e-8
	want.Prop = Dipole
	want.Part = EDA
	want.Fragments = [][]int{{0}, {1, 2}}
	want.MOM = []map[int]float64{{4: 0, 5: 1}}
	want.GaugeOrigin = &[3]float64{0, 0.5, -1}
	want.Workers = 4
	want.CubeCompress = "gz"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigUnknownToken(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader("loc: xyz\n")))
	_, err := LoadConfig(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xyz")
}

func TestConfigYAMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Loc = FosterBoys
	cfg.Pop = Mulliken
	cfg.Part = Orbitals
	cfg.SplitCore = true
	cfg.Verbose = 2
	cfg.CentreThreshold = 0.9

	var buf bytes.Buffer
	require.NoError(t, cfg.WriteYAML(&buf))
	assert.Contains(t, buf.String(), "loc: fb")

	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(&buf))
	got, err := LoadConfig(v)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigIrrepLabels(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader("irrep_nelec: {A1: 6, B2: 2}\n")))
	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a1": 6, "b2": 2}, cfg.IrrepNelec)
	require.NoError(t, cfg.Validate(triatomic{basis: "sto-3g"}))
}
