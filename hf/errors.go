// errors.go --  This file is part of goHF project.
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

import "errors"

var (
	ErrInput          = errors.New("hf: invalid input")
	ErrUnknownElement = errors.New("hf: unknown element")
	ErrUnknownBasis   = errors.New("hf: unknown basis set")
	ErrUnsupported    = errors.New("hf: unsupported calculation")
	// ErrSCFNotConverged is returned when the SCF loop runs out of iterations.
	ErrSCFNotConverged = errors.New("hf: SCF not converged")
)
