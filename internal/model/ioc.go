package model

import (
	"fmt"
	"strings"
)

// IOCType classifies an extracted indicator
type IOCType string

const (
	IOCIPv4   IOCType = "ipv4"
	IOCIPv6   IOCType = "ipv6"
	IOCDomain IOCType = "domain"
	IOCURL    IOCType = "url"
	IOCEmail  IOCType = "email"
	IOCMD5    IOCType = "md5"
	IOCSHA1   IOCType = "sha1"
	IOCSHA256 IOCType = "sha256"
	IOCCVE    IOCType = "cve"
)

// IOCTypes lists every indicator type
var IOCTypes = []IOCType{IOCIPv4, IOCIPv6, IOCDomain, IOCURL, IOCEmail, IOCMD5, IOCSHA1, IOCSHA256, IOCCVE}

var iocTypeLabels = map[IOCType]string{
	IOCIPv4:   "IPv4",
	IOCIPv6:   "IPv6",
	IOCDomain: "Domain",
	IOCURL:    "URL",
	IOCEmail:  "Email",
	IOCMD5:    "MD5",
	IOCSHA1:   "SHA1",
	IOCSHA256: "SHA256",
	IOCCVE:    "CVE",
}

// Label returns the display label for the type
func (t IOCType) Label() string {
	if l, ok := iocTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// ParseIOCType parses a case-insensitive type name
func ParseIOCType(s string) (IOCType, error) {
	t := IOCType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := iocTypeLabels[t]; !ok {
		return "", fmt.Errorf("unknown IOC type: %q", s)
	}
	return t, nil
}

// ExtractedIOC is one indicator found in raw text. Value is the text exactly
// as matched (possibly defanged); the live form is derived when displayed.
type ExtractedIOC struct {
	Value    string  `json:"value"`
	Type     IOCType `json:"type"`
	Selected bool    `json:"selected"`
}

// ExtractionResult is the output of one extraction pass
type ExtractionResult struct {
	IOCs       []ExtractedIOC `json:"iocs"`
	Duplicates int            `json:"duplicates_removed"`
}

// Toggle flips the selection of the indicator at index i
func (r *ExtractionResult) Toggle(i int) bool {
	if i < 0 || i >= len(r.IOCs) {
		return false
	}
	r.IOCs[i].Selected = !r.IOCs[i].Selected
	return true
}

// SelectAll marks every indicator selected
func (r *ExtractionResult) SelectAll() {
	for i := range r.IOCs {
		r.IOCs[i].Selected = true
	}
}

// DeselectAll clears every selection
func (r *ExtractionResult) DeselectAll() {
	for i := range r.IOCs {
		r.IOCs[i].Selected = false
	}
}

// SelectTypes marks indicators of the given types selected and clears the rest
func (r *ExtractionResult) SelectTypes(types ...IOCType) {
	want := make(map[IOCType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	for i := range r.IOCs {
		r.IOCs[i].Selected = want[r.IOCs[i].Type]
	}
}

// Selected returns the selected indicators in order
func (r *ExtractionResult) Selected() []ExtractedIOC {
	var out []ExtractedIOC
	for _, ioc := range r.IOCs {
		if ioc.Selected {
			out = append(out, ioc)
		}
	}
	return out
}

// CountByType returns the number of indicators per type
func (r *ExtractionResult) CountByType() map[IOCType]int {
	counts := make(map[IOCType]int)
	for _, ioc := range r.IOCs {
		counts[ioc.Type]++
	}
	return counts
}

// Clone returns an independent copy
func (r ExtractionResult) Clone() ExtractionResult {
	iocs := make([]ExtractedIOC, len(r.IOCs))
	copy(iocs, r.IOCs)
	return ExtractionResult{IOCs: iocs, Duplicates: r.Duplicates}
}
