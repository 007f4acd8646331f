package geocore

import "strings"

const bilingualSeparator = "/"

// SplitBilingual splits "English/French" text on the first separator.
// Text without a separator is used for both languages.
func SplitBilingual(s string) Bilingual {
	en, fr, found := strings.Cut(s, bilingualSeparator)
	if !found {
		s = strings.TrimSpace(s)
		return Bilingual{En: s, Fr: s}
	}

	return Bilingual{En: strings.TrimSpace(en), Fr: strings.TrimSpace(fr)}
}

// SplitBilingualOr splits s, or returns fallback for both languages when s is empty.
func SplitBilingualOr(s, fallback string) Bilingual {
	if strings.TrimSpace(s) == "" {
		return Bilingual{En: fallback, Fr: fallback}
	}

	return SplitBilingual(s)
}

// Same returns a Bilingual holding s in both languages.
func Same(s string) Bilingual {
	return Bilingual{En: s, Fr: s}
}

func (b Bilingual) prefixed(en, fr string) Bilingual {
	return Bilingual{En: en + b.En, Fr: fr + b.Fr}
}
