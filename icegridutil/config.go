/*
Copyright © 2021 the icegrid authors.
This file is part of icegrid.

icegrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

icegrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with icegrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package icegridutil

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/lnashier/viper"
	"github.com/spf13/cast"
)

// GetStringMapString returns a map of strings from the given
// configuration variable. Map-valued options arrive either as a map,
// when set in a configuration file, or as a JSON-encoded string, when
// set on the command line or in an environment variable.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapString(v), nil
	case string:
		d := json.NewDecoder(bytes.NewBuffer([]byte(v)))
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("icegridutil: parsing configuration variable %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("icegridutil: configuration variable %s: invalid type %T", varName, i)
	}
}
