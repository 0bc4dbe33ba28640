// configfile.go --  This file is part of goHF project.
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

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DecodeHook turns enum tokens ("ibo-2", "mulliken", ...) into their
// typed values while decoding a viper configuration.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// LoadConfig decodes the settings held by v on top of DefaultConfig. It
// does not validate the result.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg, viper.DecodeHook(DecodeHook())); err != nil {
		return cfg, fmt.Errorf("decomp: decode config: %w", err)
	}
	return cfg, nil
}

// WriteYAML writes the configuration in the format read by LoadConfig.
func (c Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("decomp: encode config: %w", err)
	}
	return enc.Close()
}
