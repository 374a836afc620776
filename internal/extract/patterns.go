package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/intelbench/internal/model"
)

// Pattern pairs an indicator type with the expression that finds it
type Pattern struct {
	Type  model.IOCType
	Regex *regexp.Regexp
}

// urlStop ends a URL: ASCII and Unicode whitespace plus quote and angle marks.
// Go's \s is ASCII only, so the Unicode spaces are listed explicitly.
const urlStop = `\s\x0B\x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}<>"'`

var domainTLDs = []string{
	"com", "net", "org", "edu", "gov", "mil", "io", "co", "info", "biz", "me", "tv", "cc",
	"ru", "cn", "de", "uk", "fr", "br", "in", "jp", "au", "ca", "nl", "se", "ch", "es", "it",
	"pl", "za", "kr", "tw", "xyz", "top", "club", "online", "site", "tech", "space", "pro",
	"app", "dev",
}

// Registry order is a precedence contract: longer and more specific shapes
// claim their characters before shorter or more generic ones.
//
// No pattern uses (?i): Go folds case with Unicode rules, which lets U+017F
// stand in for s and U+212A for k. Literals go through fold instead.
var registry = []Pattern{
	// URLs first so their hosts are not reported again as bare domains or IPs
	{model.IOCURL, regexp.MustCompile(`(?:` + fold("hxxp") + `|` + fold("http") + `)[sS]?:?(?:\[:\]|:)//(?:\[/\]|/)?[^` + urlStop + `]+`)},
	{model.IOCEmail, regexp.MustCompile(`[a-zA-Z0-9._%+\-]+(?:@|\[` + fold("at") + `\])[a-zA-Z0-9.\-]+(?:\[\.\]|\.)[a-zA-Z]{2,}`)},
	{model.IOCCVE, regexp.MustCompile(fold("cve") + `-\d{4}-\d{4,}`)},
	// Hashes longest first so a SHA256 is never split into shorter digests
	{model.IOCSHA256, regexp.MustCompile(`\b[a-fA-F0-9]{64}\b`)},
	{model.IOCSHA1, regexp.MustCompile(`\b[a-fA-F0-9]{40}\b`)},
	{model.IOCMD5, regexp.MustCompile(`\b[a-fA-F0-9]{32}\b`)},
	{model.IOCIPv6, regexp.MustCompile(`(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}|(?:[0-9a-fA-F]{1,4}:){1,7}:|(?:[0-9a-fA-F]{1,4}:){1,6}:[0-9a-fA-F]{1,4}|::(?:[fF]{4}:)?(?:\d{1,3}\.){3}\d{1,3}`)},
	{model.IOCIPv4, regexp.MustCompile(`\b\d{1,3}(?:\[\.\]|\.)\d{1,3}(?:\[\.\]|\.)\d{1,3}(?:\[\.\]|\.)\d{1,3}\b`)},
	{model.IOCDomain, regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?(?:\[\.\]|\.))+(?:` + foldAll(domainTLDs) + `)\b`)},
}

// fold spells an ASCII literal as per-letter case classes, e.g. cve -> [cC][vV][eE]
func fold(word string) string {
	var b strings.Builder
	for _, r := range word {
		lower, upper := strings.ToLower(string(r)), strings.ToUpper(string(r))
		if lower == upper {
			b.WriteString(regexp.QuoteMeta(string(r)))
			continue
		}
		b.WriteString("[" + lower + upper + "]")
	}
	return b.String()
}

func foldAll(words []string) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = fold(w)
	}
	return strings.Join(parts, "|")
}

// Patterns returns the registry in precedence order
func Patterns() []Pattern {
	return append([]Pattern(nil), registry...)
}
