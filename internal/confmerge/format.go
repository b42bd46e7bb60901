// SPDX-License-Identifier: MPL-2.0

package confmerge

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/invowk/assetctl/pkg/asset"
)

// Format serializes value as a config literal. Nested lines are indented with
// indent plus multiples of unit. asset.Raw values are written verbatim, maps
// are written with sorted keys.
func Format(value any, indent, unit string) (string, error) {
	switch v := value.(type) {
	case nil:
		return "null", nil
	case asset.Raw:
		return string(v), nil
	case string:
		return quote(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.String:
		return quote(rv.String()), nil
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return "[]", nil
		}
		lines := make([]string, 0, rv.Len())
		for i := range rv.Len() {
			s, err := Format(rv.Index(i).Interface(), indent+unit, unit)
			if err != nil {
				return "", err
			}
			lines = append(lines, s)
		}
		return block(lines, indent, unit), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return "", fmt.Errorf("unsupported map key type %s", rv.Type().Key())
		}
		if rv.Len() == 0 {
			return "[]", nil
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		slices.Sort(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			s, err := Format(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface(), indent+unit, unit)
			if err != nil {
				return "", err
			}
			lines = append(lines, quote(k)+" => "+s)
		}
		return block(lines, indent, unit), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
}

func block(lines []string, indent, unit string) string {
	var sb strings.Builder
	sb.WriteString("[\n")
	for _, l := range lines {
		sb.WriteString(indent + unit + l + ",\n")
	}
	sb.WriteString(indent + "]")
	return sb.String()
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}
