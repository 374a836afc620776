package extract

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ppiankov/intelbench/internal/model"
)

const (
	sha256Hex = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	sha1Hex   = "da39a3ee5e6b4b0d3255bfef95601890afd80709"
	md5Hex    = "d41d8cd98f00b204e9800998ecf8427e"
)

func TestIOCExtractor_EmailAndIPv4(t *testing.T) {
	extractor := NewIOCExtractor()

	result := extractor.Extract("contact admin[at]evil[.]com or 1.2.3.4")

	if result.Duplicates != 0 {
		t.Errorf("Expected 0 duplicates, got %d", result.Duplicates)
	}

	expected := []model.ExtractedIOC{
		{Value: "admin[at]evil[.]com", Type: model.IOCEmail},
		{Value: "1.2.3.4", Type: model.IOCIPv4},
	}
	if !reflect.DeepEqual(result.IOCs, expected) {
		t.Errorf("Expected %+v, got %+v", expected, result.IOCs)
	}
}

func TestIOCExtractor_Idempotent(t *testing.T) {
	extractor := NewIOCExtractor()
	text := "contact admin[at]evil[.]com or 1.2.3.4, see CVE-2021-44228 and hxxps://bad[.]org/x"

	first := extractor.Extract(text)
	second := extractor.Extract(text)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical output on re-run, got %+v and %+v", first, second)
	}
}

func TestIOCExtractor_URLClaimsEmbeddedHost(t *testing.T) {
	extractor := NewIOCExtractor()

	result := extractor.Extract("hxxp://1[.]2[.]3[.]4/path")

	if len(result.IOCs) != 1 {
		t.Fatalf("Expected exactly 1 indicator, got %d: %+v", len(result.IOCs), result.IOCs)
	}
	if result.IOCs[0].Type != model.IOCURL {
		t.Errorf("Expected url, got %s", result.IOCs[0].Type)
	}
	if result.IOCs[0].Value != "hxxp://1[.]2[.]3[.]4/path" {
		t.Errorf("Expected raw value preserved, got %q", result.IOCs[0].Value)
	}
}

func TestIOCExtractor_DedupAcrossDefangStyles(t *testing.T) {
	extractor := NewIOCExtractor()

	tests := []struct {
		desc       string
		input      string
		typ        model.IOCType
		value      string
		duplicates int
	}{
		{"defanged domain", "evil.com and evil[.]com", model.IOCDomain, "evil.com", 1},
		{"defanged ipv4", "1.2.3.4 then 1[.]2[.]3[.]4", model.IOCIPv4, "1.2.3.4", 1},
		{"case-insensitive domain", "EVIL.COM vs evil.com", model.IOCDomain, "EVIL.COM", 1},
		{"case-insensitive cve", "cve-2021-44228 and CVE-2021-44228", model.IOCCVE, "cve-2021-44228", 1},
		{"exact repeat", "evil.com evil.com evil.com", model.IOCDomain, "evil.com", 2},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			result := extractor.Extract(tt.input)
			if len(result.IOCs) != 1 {
				t.Fatalf("Expected 1 indicator, got %+v", result.IOCs)
			}
			if result.IOCs[0].Type != tt.typ || result.IOCs[0].Value != tt.value {
				t.Errorf("Expected %s %q, got %+v", tt.typ, tt.value, result.IOCs[0])
			}
			if result.Duplicates != tt.duplicates {
				t.Errorf("Expected %d duplicates, got %d", tt.duplicates, result.Duplicates)
			}
		})
	}
}

func TestIOCExtractor_Hashes(t *testing.T) {
	extractor := NewIOCExtractor()

	result := extractor.Extract("sha256 " + sha256Hex + " sha1 " + sha1Hex + " md5 " + md5Hex)

	expected := []model.ExtractedIOC{
		{Value: sha256Hex, Type: model.IOCSHA256},
		{Value: sha1Hex, Type: model.IOCSHA1},
		{Value: md5Hex, Type: model.IOCMD5},
	}
	if !reflect.DeepEqual(result.IOCs, expected) {
		t.Errorf("Expected %+v, got %+v", expected, result.IOCs)
	}
}

func TestIOCExtractor_RegistryOrder(t *testing.T) {
	extractor := NewIOCExtractor()

	result := extractor.Extract("visit evil.com then 10.0.0.1 then hxxps://bad[.]org/x")

	var types []model.IOCType
	for _, ioc := range result.IOCs {
		types = append(types, ioc.Type)
	}

	expected := []model.IOCType{model.IOCURL, model.IOCIPv4, model.IOCDomain}
	if !reflect.DeepEqual(types, expected) {
		t.Errorf("Expected registry order %v, got %v", expected, types)
	}
}

func TestIOCExtractor_EmailClaimsDomain(t *testing.T) {
	extractor := NewIOCExtractor()

	result := extractor.Extract("mail john.doe@example.com please")

	if len(result.IOCs) != 1 || result.IOCs[0].Type != model.IOCEmail {
		t.Errorf("Expected a single email, got %+v", result.IOCs)
	}
}

func TestIOCExtractor_IPv6(t *testing.T) {
	extractor := NewIOCExtractor()

	result := extractor.Extract("beacon to 2001:0db8:85a3:0000:0000:8a2e:0370:7334 observed")

	if len(result.IOCs) != 1 {
		t.Fatalf("Expected 1 indicator, got %+v", result.IOCs)
	}
	if result.IOCs[0].Type != model.IOCIPv6 {
		t.Errorf("Expected ipv6, got %s", result.IOCs[0].Type)
	}
}

func TestIOCExtractor_EmptyAndPatternFree(t *testing.T) {
	extractor := NewIOCExtractor()

	for _, input := range []string{"", "nothing to see here", strings.Repeat(" ", 100)} {
		result := extractor.Extract(input)
		if result.IOCs == nil {
			t.Errorf("Expected non-nil empty slice for %q", input)
		}
		if len(result.IOCs) != 0 || result.Duplicates != 0 {
			t.Errorf("Expected empty result for %q, got %+v", input, result)
		}
	}
}

func TestIOCExtractor_NothingSelected(t *testing.T) {
	extractor := NewIOCExtractor()

	result := extractor.Extract("evil.com 1.2.3.4")
	for _, ioc := range result.IOCs {
		if ioc.Selected {
			t.Errorf("Expected fresh indicators unselected, got %+v", ioc)
		}
	}
}

func TestPatterns_Order(t *testing.T) {
	expected := []model.IOCType{
		model.IOCURL, model.IOCEmail, model.IOCCVE,
		model.IOCSHA256, model.IOCSHA1, model.IOCMD5,
		model.IOCIPv6, model.IOCIPv4, model.IOCDomain,
	}

	patterns := Patterns()
	if len(patterns) != len(expected) {
		t.Fatalf("Expected %d patterns, got %d", len(expected), len(patterns))
	}
	for i, p := range patterns {
		if p.Type != expected[i] {
			t.Errorf("Position %d: expected %s, got %s", i, expected[i], p.Type)
		}
	}
}

func TestClaimed(t *testing.T) {
	c := newClaimed(130)
	c.claim(62, 66)

	if !c.any(60, 63) {
		t.Error("Expected overlap at offset 62")
	}
	if !c.any(65, 70) {
		t.Error("Expected overlap at offset 65")
	}
	if c.any(0, 62) || c.any(66, 130) {
		t.Error("Expected no overlap outside [62,66)")
	}
}

func TestIOCExtractor_URLStopsAtUnicodeSpace(t *testing.T) {
	extractor := NewIOCExtractor()

	for _, space := range []string{"\u00a0", "\u2003", "\u3000", "\ufeff", "\v"} {
		result := extractor.Extract("see http://evil.com/a" + space + "and 1.2.3.4")

		expected := []model.ExtractedIOC{
			{Value: "http://evil.com/a", Type: model.IOCURL},
			{Value: "1.2.3.4", Type: model.IOCIPv4},
		}
		if !reflect.DeepEqual(result.IOCs, expected) {
			t.Errorf("Space %U: expected %+v, got %+v", []rune(space)[0], expected, result.IOCs)
		}
	}
}

func TestIOCExtractor_ASCIIOnlyCaseFolding(t *testing.T) {
	extractor := NewIOCExtractor()

	// U+017F folds to s and U+212A folds to k under Unicode case rules
	for _, input := range []string{"bad.\u017fite", "x.\u212a.com", "\u017fee CVE-2021-44228"} {
		result := extractor.Extract(input)
		for _, ioc := range result.IOCs {
			if ioc.Type == model.IOCDomain {
				t.Errorf("Expected no domain in %q, got %q", input, ioc.Value)
			}
			if strings.ContainsAny(ioc.Value, "\u017f\u212a") {
				t.Errorf("Expected only ASCII matches in %q, got %q", input, ioc.Value)
			}
		}
	}

	result := extractor.Extract("EVIL.COM cve-2021-44228 HXXPS://Bad[.]Org/x")
	expected := []model.ExtractedIOC{
		{Value: "HXXPS://Bad[.]Org/x", Type: model.IOCURL},
		{Value: "cve-2021-44228", Type: model.IOCCVE},
		{Value: "EVIL.COM", Type: model.IOCDomain},
	}
	if !reflect.DeepEqual(result.IOCs, expected) {
		t.Errorf("Expected ASCII case-insensitive matches %+v, got %+v", expected, result.IOCs)
	}
}

func TestFold(t *testing.T) {
	if got := fold("cve"); got != "[cC][vV][eE]" {
		t.Errorf("Expected [cC][vV][eE], got %q", got)
	}
	if got := fold("a.1"); got != `[aA]\.1` {
		t.Errorf("Expected [aA]\\.1, got %q", got)
	}
}
