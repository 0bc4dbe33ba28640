// cube.go --  This file is part of goHF project.
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
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"
)

const (
	// CubePoints is the number of grid points along each axis.
	CubePoints = 80
	// cubeMargin pads the molecular bounding box, in bohr.
	cubeMargin = 3.0
)

// zstdCloser lets a zstd decoder be closed like the other readers.
type zstdCloser struct {
	*zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// newCubeWriter picks the compression from the file extension:
// .gz for gzip, .zst for zstd, anything else is written as is.
func newCubeWriter(path string, f io.Writer) (io.WriteCloser, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return gzip.NewWriterLevel(f, gzip.BestCompression)
	case strings.HasSuffix(path, ".zst"):
		return zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	}
	return nopWriteCloser{f}, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// OpenCube opens a cube file written by WriteCube, decompressing it when
// needed.
func OpenCube(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var r io.ReadCloser
	switch {
	case strings.HasSuffix(path, ".gz"):
		r, err = gzip.NewReader(f)
	case strings.HasSuffix(path, ".zst"):
		var d *zstd.Decoder
		d, err = zstd.NewReader(f)
		if err == nil {
			r = zstdCloser{d}
		}
	default:
		return f, nil
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	return struct {
		io.Reader
		io.Closer
	}{r, closers{r, f}}, nil
}

type closers []io.Closer

func (c closers) Close() error {
	var first error
	for _, cl := range c {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// WriteCube writes the density rdm1 (AO basis) on a CubePoints³ grid in
// Gaussian cube format.
func (mf *MeanField) WriteCube(path, comment string, rdm1 *mat.SymDense) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	zw, err := newCubeWriter(path, f)
	if err != nil {
		return err
	}
	if err := mf.mol.writeCube(zw, comment, rdm1, CubePoints); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

type cubeGrid struct {
	origin [3]float64
	step   [3]float64
	n      int
}

func (m *Molecule) cubeGrid(n int) cubeGrid {
	coords := m.AtomCoords()
	lo := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, c := range coords {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], c[k])
			hi[k] = math.Max(hi[k], c[k])
		}
	}
	g := cubeGrid{n: n}
	for k := 0; k < 3; k++ {
		g.origin[k] = lo[k] - cubeMargin
		g.step[k] = (hi[k] - lo[k] + 2*cubeMargin) / float64(n-1)
	}
	return g
}

// densityAt evaluates Σ_μν D_μν φ_μ(r) φ_ν(r).
func (m *Molecule) densityAt(r [3]float64, rdm1 mat.Symmetric, phi []float64) float64 {
	for i, f := range m.funcs {
		phi[i] = f.value(r)
	}
	res := 0.0
	for i := range phi {
		if phi[i] == 0 {
			continue
		}
		res += rdm1.At(i, i) * phi[i] * phi[i]
		for j := 0; j < i; j++ {
			res += 2 * rdm1.At(i, j) * phi[i] * phi[j]
		}
	}
	return res
}

func (m *Molecule) writeCube(w io.Writer, comment string, rdm1 *mat.SymDense, n int) error {
	if rdm1.SymmetricDim() != m.NAO() {
		return fmt.Errorf("density is %dx%d, basis has %d functions: %w",
			rdm1.SymmetricDim(), rdm1.SymmetricDim(), m.NAO(), ErrInput)
	}
	g := m.cubeGrid(n)
	// one plane of x per goroutine
	planes := make([][]float64, n)
	guard := make(chan struct{}, runtime.GOMAXPROCS(-1))
	var wg sync.WaitGroup
	for ix := 0; ix < n; ix++ {
		wg.Add(1)
		guard <- struct{}{}
		go func(ix int) {
			defer wg.Done()
			defer func() { <-guard }()
			phi := make([]float64, m.NAO())
			plane := make([]float64, n*n)
			for iy := 0; iy < n; iy++ {
				for iz := 0; iz < n; iz++ {
					r := [3]float64{
						g.origin[0] + float64(ix)*g.step[0],
						g.origin[1] + float64(iy)*g.step[1],
						g.origin[2] + float64(iz)*g.step[2],
					}
					plane[iy*n+iz] = m.densityAt(r, rdm1, phi)
				}
			}
			planes[ix] = plane
		}(ix)
	}
	wg.Wait()

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n", strings.ReplaceAll(comment, "\n", " "))
	fmt.Fprintf(bw, "Electron density in real space (e/Bohr^3)\n")
	fmt.Fprintf(bw, "%5d%12.6f%12.6f%12.6f\n", len(m.Atoms), g.origin[0], g.origin[1], g.origin[2])
	for k := 0; k < 3; k++ {
		var axis [3]float64
		axis[k] = g.step[k]
		fmt.Fprintf(bw, "%5d%12.6f%12.6f%12.6f\n", n, axis[0], axis[1], axis[2])
	}
	for a, c := range m.AtomCoords() {
		z := m.Atoms[a].Z
		fmt.Fprintf(bw, "%5d%12.6f%12.6f%12.6f%12.6f\n", z, float64(z), c[0], c[1], c[2])
	}
	for _, plane := range planes {
		for iy := 0; iy < n; iy++ {
			for iz := 0; iz < n; iz++ {
				fmt.Fprintf(bw, " %13.5E", plane[iy*n+iz])
				if iz%6 == 5 || iz == n-1 {
					fmt.Fprintf(bw, "\n")
				}
			}
		}
	}
	return bw.Flush()
}
