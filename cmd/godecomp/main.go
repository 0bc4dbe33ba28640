// main.go --  This file is part of goHF project.
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

// Command godecomp runs a Hartree-Fock calculation on the molecule of an
// input file and decomposes its energy or dipole moment into atomic,
// fragment or orbital contributions.
//
//	godecomp [flags] water.inp
//
// Settings come from flags and an optional YAML file (--config); the
// report is written to water.out next to the input.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"example.com/godecomp/decomp"
	"example.com/godecomp/hf"
)

// molecule exposes the spin and basis fields of hf.Molecule as methods.
type molecule struct{ *hf.Molecule }

func (m molecule) Spin() int         { return m.Molecule.Spin }
func (m molecule) BasisName() string { return m.Molecule.BasisName }

func initLog(file io.Writer, verbose int) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose > 1 {
		level = zapcore.DebugLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(file), level)
	return zap.New(core)
}

func appInfo(w io.Writer) {
	fmt.Fprint(w, "\n   godecomp | mean-field energy and dipole decomposition\n"+
		"            | localized orbitals, Mulliken and IAO populations\n\n")
}

func printOutputDelimiter(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("-", 70))
}

func readFileLines(fname string) ([]string, error) {
	file, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var result []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		result = append(result, scanner.Text())
	}
	return result, scanner.Err()
}

func newFlags() *pflag.FlagSet {
	def := decomp.DefaultConfig()
	fs := pflag.NewFlagSet("godecomp", pflag.ContinueOnError)
	fs.String("config", "", "YAML file with decomposition settings")
	fs.String("loc", def.Loc.String(), "localization: none, fb, pm, ibo-2, ibo-4")
	fs.String("pop", def.Pop.String(), "population: mulliken, iao")
	fs.String("ref", def.Ref.String(), "reference: restricted, unrestricted")
	fs.String("prop", def.Prop.String(), "property: energy, dipole")
	fs.String("part", def.Part.String(), "partition: atoms, orbitals, eda")
	fs.Float64("conv-tol", def.ConvTol, "SCF convergence threshold")
	fs.Int("workers", def.Workers, "goroutines of the population analysis")
	fs.IntP("verbose", "v", def.Verbose, "verbosity level")
	fs.Bool("split-core", def.SplitCore, "localize core and valence orbitals separately")
	fs.Bool("cube", def.Cube, "write orbital densities as cube files")
	fs.String("cube-dir", "", "directory of the cube files")
	fs.String("cube-compress", "", "compression of the cube files: gz, zst")
	fs.Float64("centre-threshold", def.CentreThreshold, "dominance ratio of one-centre orbitals")
	fs.StringP("output", "o", "", "write the decomposition as YAML to this file")
	return fs
}

// loadSettings merges the YAML file and the flags into a viper instance.
func loadSettings(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	keys := map[string]string{
		"loc": "loc", "pop": "pop", "ref": "ref", "prop": "prop", "part": "part",
		"conv-tol": "conv_tol", "workers": "workers", "verbose": "verbose",
		"split-core": "split_core", "cube": "cube", "cube-dir": "cube_dir", "cube-compress": "cube_compress",
		"centre-threshold": "centre_threshold",
	}
	for flag, key := range keys {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, err
		}
	}
	v.SetEnvPrefix("GODECOMP")
	v.AutomaticEnv()
	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	return v, nil
}

func run(args []string) error {
	fs := newFlags()
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("no input file")
	}
	inpFname := fs.Arg(0)
	outFname := strings.TrimSuffix(inpFname, filepath.Ext(inpFname)) + ".out"
	fmt.Println("Output file: ", outFname)

	v, err := loadSettings(fs)
	if err != nil {
		return err
	}
	cfg, err := decomp.LoadConfig(v)
	if err != nil {
		return err
	}

	out, err := os.OpenFile(outFname, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer out.Close()
	logger := initLog(out, cfg.Verbose)
	defer logger.Sync()

	logger.Info("Starting godecomp...")
	appInfo(out)

	fmt.Fprintln(out, "Input file content:")
	printOutputDelimiter(out)
	inpData, err := readFileLines(inpFname)
	if err != nil {
		return fmt.Errorf("cannot read input file: %w", err)
	}
	for _, l := range inpData {
		fmt.Fprintln(out, l)
	}
	printOutputDelimiter(out)

	mol, err := hf.ParseInput(inpData)
	if err != nil {
		return err
	}
	if !v.IsSet("basis") {
		cfg.Basis = mol.BasisName
	}
	if err := cfg.Validate(molecule{mol}); err != nil {
		return err
	}
	if cfg.Ref == decomp.Restricted && mol.Spin != 0 {
		return &decomp.ConfigError{
			Field: "ref",
			Msg:   fmt.Sprintf("spin %d needs an open-shell reference; rerun with --ref unrestricted", mol.Spin),
		}
	}
	if mol.NProcs > 0 {
		runtime.GOMAXPROCS(mol.NProcs)
		if !v.IsSet("workers") {
			cfg.Workers = mol.NProcs
		}
		logger.Info("nprocs", zap.Int("goroutines", mol.NProcs), zap.Int("workers", cfg.Workers))
	}

	opts := hf.DefaultOptions()
	opts.Restricted = cfg.Ref == decomp.Restricted
	opts.ConvTol = cfg.ConvTol
	opts.MOM = cfg.MOM
	opts.IrrepNelec = cfg.IrrepNelec
	opts.XC = cfg.XC
	opts.Logger = logger.Named("scf")
	mf, err := hf.RunSCF(mol, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Nuclei Repulsion Energy: ", mf.NuclearRepulsion(), " a.u.")
	fmt.Fprintln(out, "Final total energy = ", mf.TotalEnergy(), " a.u.")
	printOutputDelimiter(out)

	res, err := decomp.Decompose(mf, cfg,
		decomp.WithLogger(logger.Named("decomp")),
		decomp.WithOutput(out))
	if err != nil {
		return err
	}
	res.WriteTable(out)
	res.WriteTable(os.Stdout)

	if path, _ := fs.GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := res.WriteYAML(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	logger.Info("Exiting godecomp...")
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "godecomp:", err)
		os.Exit(1)
	}
	fmt.Println("godecomp done.")
}
