// Package supplier maps upstream supplier codes to short display names.
package supplier

// DefaultName is used when a code is absent or unknown.
const DefaultName = "oth"

// Lookup resolves a supplier code to a display name.
type Lookup interface {
	// Name returns the display name for code and whether the code is known.
	Name(code string) (string, bool)
}

// Table is a static code → name lookup.
type Table map[string]string

// Name implements Lookup.
func (t Table) Name(code string) (string, bool) {
	name, ok := t[code]
	return name, ok
}

// Resolve returns the display name for code, falling back to DefaultName for
// empty or unknown codes.
func Resolve(l Lookup, code string) string {
	if code == "" || l == nil {
		return DefaultName
	}
	if name, ok := l.Name(code); ok {
		return name
	}
	return DefaultName
}

// Default is the built-in supplier table.
var Default = Table{
	"HTB": "htb",
	"RST": "rst",
	"GTA": "gta",
	"TBO": "tbo",
	"DOT": "dotw",
	"MKI": "miki",
	"JAC": "jac",
	"DID": "dida",
	"EAN": "ean",
	"PPN": "ppn",
	"STU": "stuba",
	"YAL": "yalago",
	"WHL": "whl",
	"GRN": "grn",
	"SMY": "smy",
	"W2M": "w2m",
	"JUM": "jumbo",
	"TLD": "tld",
	"ABR": "abreu",
	"BON": "bonotel",
}
