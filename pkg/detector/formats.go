package detector

import "strings"

// EnergyCandidates are potential energy column names, most specific first.
var EnergyCandidates = []string{"PotEng", "c_pe", "pe", "v_pe"}

// virialSuffixes are the component suffixes of a virial column family.
var virialSuffixes = [6]string{"xx", "yy", "zz", "xy", "xz", "yz"}

// VirialFamily is a set of six columns sharing a prefix, e.g. v_Wxx ... v_Wyz.
type VirialFamily struct {
	Prefix string
	Fields [6]string // xx yy zz xy xz yz
}

// findEnergy returns the first energy candidate among keywords.
func findEnergy(keywords []string) string {
	have := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		have[k] = true
	}
	for _, c := range EnergyCandidates {
		if have[c] {
			return c
		}
	}
	return ""
}

// findVirials returns column families that provide all six components.
// Pressure columns (Pxx ...) are included; they need a volume factor
// before they can be used as virials, which the caller must decide.
func findVirials(keywords []string) []VirialFamily {
	have := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		have[k] = true
	}

	var out []VirialFamily
	for _, k := range keywords {
		prefix, ok := strings.CutSuffix(k, "xx")
		if !ok {
			continue
		}
		fam := VirialFamily{Prefix: prefix}
		complete := true
		for i, s := range virialSuffixes {
			name := prefix + s
			if !have[name] {
				complete = false
				break
			}
			fam.Fields[i] = name
		}
		if complete {
			out = append(out, fam)
		}
	}
	return out
}

// IsPressure reports whether the family looks like LAMMPS pressure tensor
// output rather than a pressure-volume product.
func (f VirialFamily) IsPressure() bool {
	return f.Prefix == "P"
}
