package model

import "testing"

func testResult() ExtractionResult {
	return ExtractionResult{
		IOCs: []ExtractedIOC{
			{Value: "1.2.3.4", Type: IOCIPv4},
			{Value: "evil[.]com", Type: IOCDomain},
			{Value: "CVE-2021-44228", Type: IOCCVE},
			{Value: "5.6.7.8", Type: IOCIPv4},
		},
		Duplicates: 1,
	}
}

func TestExtractionResult_Selection(t *testing.T) {
	r := testResult()

	if len(r.Selected()) != 0 {
		t.Fatal("expected nothing selected initially")
	}

	if !r.Toggle(1) {
		t.Fatal("expected toggle in range to succeed")
	}
	if r.Toggle(4) || r.Toggle(-1) {
		t.Error("expected toggle out of range to fail")
	}
	if sel := r.Selected(); len(sel) != 1 || sel[0].Type != IOCDomain {
		t.Errorf("unexpected selection %+v", sel)
	}

	r.SelectAll()
	if len(r.Selected()) != 4 {
		t.Errorf("expected all 4 selected, got %d", len(r.Selected()))
	}

	r.SelectTypes(IOCIPv4)
	sel := r.Selected()
	if len(sel) != 2 || sel[0].Value != "1.2.3.4" || sel[1].Value != "5.6.7.8" {
		t.Errorf("expected the two IPv4 indicators in order, got %+v", sel)
	}

	r.DeselectAll()
	if len(r.Selected()) != 0 {
		t.Error("expected nothing selected after DeselectAll")
	}
}

func TestExtractionResult_CountByType(t *testing.T) {
	r := testResult()
	counts := r.CountByType()
	if counts[IOCIPv4] != 2 || counts[IOCDomain] != 1 || counts[IOCCVE] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestExtractionResult_Clone(t *testing.T) {
	r := testResult()
	clone := r.Clone()
	clone.SelectAll()

	if len(r.Selected()) != 0 {
		t.Error("expected original selection untouched")
	}
	if clone.Duplicates != 1 {
		t.Errorf("expected duplicates copied, got %d", clone.Duplicates)
	}
}

func TestIOCType_LabelAndParse(t *testing.T) {
	labels := map[IOCType]string{
		IOCIPv4: "IPv4", IOCIPv6: "IPv6", IOCDomain: "Domain", IOCURL: "URL", IOCEmail: "Email",
		IOCMD5: "MD5", IOCSHA1: "SHA1", IOCSHA256: "SHA256", IOCCVE: "CVE",
	}
	for typ, want := range labels {
		if got := typ.Label(); got != want {
			t.Errorf("%s label: expected %s, got %s", typ, want, got)
		}
	}
	if len(IOCTypes) != len(labels) {
		t.Errorf("expected %d types, got %d", len(labels), len(IOCTypes))
	}

	if typ, err := ParseIOCType(" SHA256 "); err != nil || typ != IOCSHA256 {
		t.Errorf("expected sha256, got %q (%v)", typ, err)
	}
	if _, err := ParseIOCType("stix"); err == nil {
		t.Error("expected error for unknown type")
	}
}
