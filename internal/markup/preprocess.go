package markup

import "strings"

// replacer rewrites markup that downstream parsers reject.
// ":label:" on math directives is the deprecated spelling of ":name:".
var replacer = strings.NewReplacer(
	":label:", ":name:",
)

// Preprocess applies the text substitutions that run before every parse.
func Preprocess(src string) string {
	return replacer.Replace(src)
}
