package markup

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TitleFromPath derives a display title from a path relative to its source
// root: the extension is dropped, separators and underscores become spaces and
// every word is capitalized, so "pincell_depletion/run_depletion.py" becomes
// "Pincell Depletion Run Depletion".
func TitleFromPath(rel string) string {
	rel = filepath.ToSlash(rel)
	rel = strings.TrimLeft(rel, "/")
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	rel = strings.NewReplacer("/", " ", "_", " ").Replace(rel)

	words := strings.Fields(rel)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}
