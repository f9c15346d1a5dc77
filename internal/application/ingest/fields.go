package ingest

import (
	"fmt"
	"strconv"
)

// Canonical attribute resolution tables.  Upstream producers are duck-typed
// and name the same attribute many ways; these ordered tables are applied
// exactly once, here at normalization time.  Downstream code never
// re-inspects raw aliases.
var (
	// plotIDAliases is consulted in order; the first present, non-empty
	// value wins.  ".Farmers ID" is a known farmer-registry export alias.
	plotIDAliases = []string{"plot_id", "id", ".Farmers ID", "Name"}

	countryAliases = []string{"country_name", "country"}
)

// stringValue renders a raw property value as a trimmed identifier string.
// Numbers are rendered without a decimal point when integral, matching how
// spreadsheet exports write IDs.
func stringValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// resolveAlias returns the first non-empty value among the aliases, in table
// order.
func resolveAlias(props map[string]interface{}, aliases []string) (string, bool) {
	for _, key := range aliases {
		if raw, ok := props[key]; ok {
			if s := stringValue(raw); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// resolvePlotID applies the canonical ID resolution order:
// plot_id -> id -> farmer-ID alias -> Name -> synthesized PLOT_<index>.
// The synthesized form is 1-based and zero-padded to 3 digits, a pure
// function of the feature's position.
func resolvePlotID(props map[string]interface{}, featureID interface{}, index int) (id string, synthesized bool) {
	if s, ok := resolveAlias(props, plotIDAliases); ok {
		return s, false
	}
	// A GeoJSON feature may carry a top-level "id" member instead of an
	// id property.
	if s := stringValue(featureID); s != "" {
		return s, false
	}
	return fmt.Sprintf("PLOT_%03d", index+1), true
}

// resolveCountry applies the country resolution order, defaulting to
// "unknown".
func resolveCountry(props map[string]interface{}) string {
	if s, ok := resolveAlias(props, countryAliases); ok {
		return s
	}
	return "unknown"
}
