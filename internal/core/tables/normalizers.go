package tables

import "strings"

// memberStateAliases maps EU member-state prefixes that differ from the
// ISO 3166 alpha-2 code stored in the country table.
var memberStateAliases = map[string]string{
	"EL": "GR",
}

// NormalizeMemberState converts a member-state code to its ISO alpha-2 form.
// Unknown codes are returned upper-cased and trimmed.
func NormalizeMemberState(s string) string {
	code := strings.ToUpper(strings.TrimSpace(s))
	if iso, ok := memberStateAliases[code]; ok {
		return iso
	}
	return code
}
