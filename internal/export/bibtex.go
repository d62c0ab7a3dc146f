// Package export assembles workspace entries into a BibTeX document.
package export

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/matsen/refdeck/internal/reference"
	"github.com/matsen/refdeck/internal/workspace"
)

// Short words skipped when picking the title keyword for a citation key.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "for": {}, "and": {}, "or": {}, "is": {}, "are": {}, "was": {},
	"were": {}, "with": {}, "by": {}, "from": {}, "as": {}, "its": {},
	"it": {}, "not": {}, "but": {}, "be": {}, "been": {}, "being": {},
	"that": {}, "this": {}, "which": {}, "their": {}, "our": {}, "we": {},
	"do": {}, "does": {}, "did": {}, "has": {}, "have": {}, "had": {},
	"can": {}, "may": {}, "will": {}, "shall": {}, "should": {},
	"could": {}, "would": {}, "about": {}, "into": {}, "over": {},
	"than": {}, "then": {}, "so": {}, "no": {}, "nor": {}, "up": {},
	"out": {}, "if": {}, "how": {}, "when": {}, "where": {}, "what": {},
	"who": {}, "whom": {}, "why": {}, "each": {}, "every": {}, "all": {},
	"both": {}, "few": {}, "more": {}, "most": {}, "some": {}, "any": {},
	"via": {}, "using": {}, "through": {},
}

var (
	keyExtractRe = regexp.MustCompile(`@\w+\s*\{([^,]+),`)
	keyReplaceRe = regexp.MustCompile(`(@\w+\s*\{)\s*([^,]+)(,)`)
	nonAlphaRe   = regexp.MustCompile(`[^a-z]`)
	nonWordRe    = regexp.MustCompile(`[^a-z0-9\s]`)
	latexCmdRe   = regexp.MustCompile(`\\[a-zA-Z]+`)
	latexBraceRe = regexp.MustCompile(`\{[^}]+\}`)
	latexMathRe  = regexp.MustCompile(`\$[^$]+\$`)
)

// ExtractKey returns the citation key from a BibTeX entry, or "" if the
// entry header cannot be parsed.
func ExtractKey(bibtex string) string {
	m := keyExtractRe.FindStringSubmatch(bibtex)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ReplaceKey rewrites the first citation key in a BibTeX entry, leaving
// the body untouched. The entry is returned unchanged if no key is found.
func ReplaceKey(bibtex, key string) string {
	loc := keyReplaceRe.FindStringSubmatchIndex(bibtex)
	if loc == nil {
		return bibtex
	}
	head := bibtex[loc[2]:loc[3]] // "@misc{"
	return bibtex[:loc[0]] + head + key + "," + bibtex[loc[1]:]
}

// GenerateKey builds a citation key like "vaswani2017attention" from the
// first author's surname, the year, and the first significant title word.
// Missing parts are omitted; a fully empty key degrades to "unknown".
func GenerateKey(authors []string, year int, title string) string {
	authorPart := "unknown"
	if len(authors) > 0 {
		if surname := extractSurname(authors[0]); surname != "" {
			authorPart = surname
		}
	}

	yearPart := ""
	if year != 0 {
		yearPart = strconv.Itoa(year)
	}

	key := authorPart + yearPart + firstSignificantWord(title)
	if key == "" {
		return "unknown"
	}
	return key
}

// extractSurname pulls the surname out of "Surname, F." or "First Last",
// lowercased and stripped to letters.
func extractSurname(author string) string {
	author = strings.TrimSpace(author)
	var surname string
	if i := strings.Index(author, ","); i >= 0 {
		surname = strings.TrimSpace(author[:i])
	} else {
		parts := strings.Fields(author)
		if len(parts) == 0 {
			return ""
		}
		surname = parts[len(parts)-1]
	}
	return nonAlphaRe.ReplaceAllString(strings.ToLower(surname), "")
}

// firstSignificantWord returns the first non-stop-word of the title, or
// the first word when everything is a stop word.
func firstSignificantWord(title string) string {
	words := strings.Fields(nonWordRe.ReplaceAllString(strings.ToLower(title), ""))
	for _, w := range words {
		if _, stop := stopWords[w]; !stop && len(w) > 1 {
			return w
		}
	}
	if len(words) > 0 {
		return words[0]
	}
	return ""
}

// looksLikeLatex reports whether a value carries intentional LaTeX markup
// such as \commands, {grouping braces}, or $math$.
func looksLikeLatex(value string) bool {
	return latexCmdRe.MatchString(value) ||
		latexBraceRe.MatchString(value) ||
		latexMathRe.MatchString(value)
}

var minimalEscaper = strings.NewReplacer(
	"&", `\&`,
	"%", `\%`,
	"#", `\#`,
	"_", `\_`,
)

var fullEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"{", `\{`,
	"}", `\}`,
	"^", `\^{}`,
	"~", `\~{}`,
	"&", `\&`,
	"%", `\%`,
	"#", `\#`,
	"$", `\$`,
	"_", `\_`,
)

// escapeBibTeX escapes BibTeX-special characters. Values that already
// contain LaTeX markup get minimal escaping so the markup survives.
func escapeBibTeX(value string) string {
	if looksLikeLatex(value) {
		return minimalEscaper.Replace(value)
	}
	return fullEscaper.Replace(value)
}

// FallbackEntry builds a @misc entry for a reference that no lookup
// service resolved. Includes whichever fields are present.
func FallbackEntry(ref reference.Reference) string {
	key := GenerateKey(ref.Authors, ref.Year, ref.Title)

	var fields []string
	if ref.Title != "" {
		fields = append(fields, fmt.Sprintf("  title = {%s}", escapeBibTeX(ref.Title)))
	}
	if len(ref.Authors) > 0 {
		authors := strings.Join(ref.Authors, " and ")
		fields = append(fields, fmt.Sprintf("  author = {%s}", escapeBibTeX(authors)))
	}
	if ref.Year != 0 {
		fields = append(fields, fmt.Sprintf("  year = {%d}", ref.Year))
	}
	if ref.DOI != "" {
		fields = append(fields, fmt.Sprintf("  doi = {%s}", escapeBibTeX(ref.DOI)))
	}
	if ref.Venue != "" {
		fields = append(fields, fmt.Sprintf("  howpublished = {%s}", escapeBibTeX(ref.Venue)))
	}
	if ref.RawCitation != "" {
		raw := ref.RawCitation
		if len(raw) > 300 {
			raw = raw[:300]
		}
		fields = append(fields, fmt.Sprintf("  note = {Extracted citation: %s}", escapeBibTeX(raw)))
	}

	return fmt.Sprintf("@misc{%s,\n%s\n}", key, strings.Join(fields, ",\n"))
}

// entryBibTeX picks the BibTeX payload for one entry: explicit override,
// then the resolved entry, then a constructed @misc fallback.
func entryBibTeX(e workspace.Entry) string {
	if strings.TrimSpace(e.BibTeXOverride) != "" {
		return e.BibTeXOverride
	}
	if e.Ref.HasBibTeX() {
		return e.Ref.BibTeX
	}
	return FallbackEntry(e.Ref)
}

// Assemble renders the entries as one BibTeX document. Citation keys are
// made unique across the document by appending a numeric suffix to each
// collision ("smith2020deep", "smith2020deep2", ...).
func Assemble(entries []workspace.Entry) string {
	used := make(map[string]struct{}, len(entries))
	blocks := make([]string, 0, len(entries))

	for _, e := range entries {
		bibtex := strings.TrimSpace(entryBibTeX(e))
		if bibtex == "" {
			continue
		}

		base := ExtractKey(bibtex)
		if base == "" {
			base = GenerateKey(e.Ref.Authors, e.Ref.Year, e.Ref.Title)
		}

		key := base
		for suffix := 2; ; suffix++ {
			if _, taken := used[key]; !taken {
				break
			}
			key = base + strconv.Itoa(suffix)
		}
		used[key] = struct{}{}

		if key != ExtractKey(bibtex) {
			bibtex = ReplaceKey(bibtex, key)
		}
		blocks = append(blocks, bibtex)
	}

	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}
