package slug

import "strings"

var accents = map[rune]rune{
	'á': 'a', 'é': 'e', 'í': 'i', 'ó': 'o', 'ú': 'u',
	'ñ': 'n', 'ü': 'u',
}

// Generate turns a product name into a URL-friendly slug. Spanish
// accented characters map to their ASCII equivalents, every other
// non-alphanumeric run collapses into a single hyphen.
//
//	"Pastillas de Freno"       -> "pastillas-de-freno"
//	"Espejo Retrovisor Cataño" -> "espejo-retrovisor-catano"
func Generate(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		if mapped, ok := accents[r]; ok {
			r = mapped
		}

		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}

	return b.String()
}
