// enums.go --  This file is part of goHF project.
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
	"strings"
)

// Variant is the orbital localization procedure.
type Variant int

const (
	NoLocalization Variant = iota
	FosterBoys
	PipekMezey
	IBO2
	IBO4
)

var variantTokens = []string{"none", "fb", "pm", "ibo-2", "ibo-4"}

// ParseVariant accepts "none" or "" (no localization), "fb", "pm",
// "ibo-2" and "ibo-4".
func ParseVariant(s string) (Variant, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	if t == "" {
		return NoLocalization, nil
	}
	for i, tok := range variantTokens {
		if t == tok {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownVariant)
}

func (v Variant) valid() bool { return v >= NoLocalization && v <= IBO4 }

func (v Variant) String() string {
	if !v.valid() {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variantTokens[v]
}

func (v Variant) MarshalText() ([]byte, error) {
	if !v.valid() {
		return nil, fmt.Errorf("%d: %w", int(v), ErrUnknownVariant)
	}
	return []byte(v.String()), nil
}

func (v *Variant) UnmarshalText(b []byte) error {
	p, err := ParseVariant(string(b))
	if err != nil {
		return err
	}
	*v = p
	return nil
}

// exponent is the power of the partial charges in the locality functional.
func (v Variant) exponent() int {
	if v == IBO4 {
		return 4
	}
	return 2
}

// Population is the scheme assigning orbital densities to atoms.
type Population int

const (
	Mulliken Population = iota
	IAO
)

var populationTokens = []string{"mulliken", "iao"}

func ParsePopulation(s string) (Population, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	for i, tok := range populationTokens {
		if t == tok {
			return Population(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownPopulation)
}

func (p Population) valid() bool { return p == Mulliken || p == IAO }

func (p Population) String() string {
	if !p.valid() {
		return fmt.Sprintf("Population(%d)", int(p))
	}
	return populationTokens[p]
}

func (p Population) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, fmt.Errorf("%d: %w", int(p), ErrUnknownPopulation)
	}
	return []byte(p.String()), nil
}

func (p *Population) UnmarshalText(b []byte) error {
	v, err := ParsePopulation(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Reference tells whether the spin channels share their orbitals.
type Reference int

const (
	Restricted Reference = iota
	Unrestricted
)

var referenceTokens = []string{"restricted", "unrestricted"}

func ParseReference(s string) (Reference, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	for i, tok := range referenceTokens {
		if t == tok {
			return Reference(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownReference)
}

func (r Reference) valid() bool { return r == Restricted || r == Unrestricted }

func (r Reference) String() string {
	if !r.valid() {
		return fmt.Sprintf("Reference(%d)", int(r))
	}
	return referenceTokens[r]
}

func (r Reference) MarshalText() ([]byte, error) {
	if !r.valid() {
		return nil, fmt.Errorf("%d: %w", int(r), ErrUnknownReference)
	}
	return []byte(r.String()), nil
}

func (r *Reference) UnmarshalText(b []byte) error {
	v, err := ParseReference(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Property is the decomposed quantity.
type Property int

const (
	Energy Property = iota
	Dipole
)

var propertyTokens = []string{"energy", "dipole"}

func ParseProperty(s string) (Property, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	for i, tok := range propertyTokens {
		if t == tok {
			return Property(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrInvalidProperty)
}

func (p Property) valid() bool { return p == Energy || p == Dipole }

func (p Property) String() string {
	if !p.valid() {
		return fmt.Sprintf("Property(%d)", int(p))
	}
	return propertyTokens[p]
}

func (p Property) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, fmt.Errorf("%d: %w", int(p), ErrInvalidProperty)
	}
	return []byte(p.String()), nil
}

func (p *Property) UnmarshalText(b []byte) error {
	v, err := ParseProperty(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Partition selects how contributions are grouped.
type Partition int

const (
	// Atoms spreads every orbital over the atoms by its weights.
	Atoms Partition = iota
	// Orbitals keeps one entry per spin-orbital.
	Orbitals
	// EDA groups atoms into fragments.
	EDA
)

var partitionTokens = []string{"atoms", "orbitals", "eda"}

func ParsePartition(s string) (Partition, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	for i, tok := range partitionTokens {
		if t == tok {
			return Partition(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownPartition)
}

func (p Partition) valid() bool { return p >= Atoms && p <= EDA }

func (p Partition) String() string {
	if !p.valid() {
		return fmt.Sprintf("Partition(%d)", int(p))
	}
	return partitionTokens[p]
}

func (p Partition) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, fmt.Errorf("%d: %w", int(p), ErrUnknownPartition)
	}
	return []byte(p.String()), nil
}

func (p *Partition) UnmarshalText(b []byte) error {
	v, err := ParsePartition(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
