package matching

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeSkills canonicalises free-text skill names so that matching can compare them
// exactly: whitespace is collapsed and each word is title-cased ("fIRST aid" becomes
// "First Aid"), so differently cased spellings collapse to one form. The result is sorted.
func NormalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		words := strings.Fields(s)
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			r, size := utf8.DecodeRuneInString(w)
			words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
		}
		name := strings.Join(words, " ")
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
