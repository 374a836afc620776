package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/intelbench/internal/model"
)

var (
	reHxxp = regexp.MustCompile(`(?i)hxxp`)
	reAt   = regexp.MustCompile(`(?i)\[at\]`)
	reHTTP = regexp.MustCompile(`(?i)http`)
)

// Refang turns a defanged indicator back into its live form. Text without
// defang markers is returned unchanged; case is otherwise preserved.
func Refang(s string) string {
	s = strings.ReplaceAll(s, "[.]", ".")
	s = reHxxp.ReplaceAllString(s, "http")
	s = strings.ReplaceAll(s, "[:]", ":")
	s = reAt.ReplaceAllString(s, "@")
	s = strings.ReplaceAll(s, "[/]", "/")
	return s
}

// Defang renders a live indicator in its safe form. Hashes and CVEs are
// never defanged.
func Defang(live string, t model.IOCType) string {
	switch t {
	case model.IOCIPv4, model.IOCDomain:
		return strings.ReplaceAll(live, ".", "[.]")
	case model.IOCURL:
		s := reHTTP.ReplaceAllString(live, "hxxp")
		return strings.ReplaceAll(s, "://", "[://]")
	case model.IOCEmail:
		s := strings.ReplaceAll(live, "@", "[at]")
		return strings.ReplaceAll(s, ".", "[.]")
	default:
		return live
	}
}

// FormatIOC normalizes a captured value to its live form and then renders it
// defanged when asked, so the output is correct whatever style was captured
func FormatIOC(value string, t model.IOCType, defanged bool) string {
	clean := Refang(value)
	if defanged {
		return Defang(clean, t)
	}
	return clean
}

// dedupKey is the case- and defang-insensitive identity of a match
func dedupKey(t model.IOCType, raw string) string {
	return string(t) + ":" + strings.ToLower(Refang(raw))
}
