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

package decomp

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every *ConfigError.
	ErrConfiguration     = errors.New("decomp: invalid configuration")
	ErrUnknownVariant    = errors.New("decomp: unknown localization variant")
	ErrUnknownPopulation = errors.New("decomp: unknown population scheme")
	ErrInvalidProperty   = errors.New("decomp: invalid property kind")
	ErrUnknownPartition  = errors.New("decomp: unknown partition mode")
	ErrUnknownReference  = errors.New("decomp: unknown spin reference")
	// ErrConvergence matches every *ConvergenceError.
	ErrConvergence = errors.New("decomp: localization not converged")
	// ErrDimensionMismatch reports inconsistent shapes between orbitals,
	// integrals and weights.
	ErrDimensionMismatch = errors.New("decomp: dimension mismatch")
)

// ConfigError describes one rejected configuration field.
type ConfigError struct {
	Field string
	Msg   string
	// Err is the specific sentinel for enum fields, or nil.
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("decomp: invalid %s: %s", e.Field, e.Msg)
}

// Unwrap makes the error match ErrConfiguration and the specific sentinel.
func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.Err}
}

func configErr(field string, err error, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...), Err: err}
}

// ConvergenceError is returned when the Jacobi sweeps of a localization
// exhaust their budget.
type ConvergenceError struct {
	Variant  Variant
	Spin     int
	Sweeps   int
	Gradient float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("decomp: %s localization of spin %d not converged after %d sweeps (gradient %.3e)",
		e.Variant, e.Spin, e.Sweeps, e.Gradient)
}

func (e *ConvergenceError) Unwrap() error { return ErrConvergence }

func dimErr(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrDimensionMismatch)
}
