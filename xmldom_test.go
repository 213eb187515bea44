package epub

import (
	"errors"
	"testing"
)

func TestParseXML_RejectsDoctype(t *testing.T) {
	inputs := []string{
		`<!DOCTYPE html><html/>`,
		"\xEF\xBB\xBF<?xml version=\"1.0\"?>\n<!doctype package SYSTEM \"x.dtd\"><package/>",
		`<?xml version="1.0"?><!-- c --><!DOCTYPE a [<!ENTITY e "boom">]><a>&e;</a>`,
	}
	for _, in := range inputs {
		if _, err := parseXML([]byte(in)); !errors.Is(err, errDoctype) {
			t.Errorf("parseXML(%q) error = %v; want errDoctype", in, err)
		}
	}
}

func TestParseXML_DeclaredEncoding(t *testing.T) {
	doc, err := parseXML([]byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><t>Caf\xe9</t>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rootElement(doc).InnerText(); got != "Café" {
		t.Errorf("text = %q; want %q", got, "Café")
	}

	latin1Doctype := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n<!DOCTYPE t [<!ENTITY e \"x\">]><t>Caf\xe9 &e;</t>"
	if _, err := parseXML([]byte(latin1Doctype)); !errors.Is(err, errDoctype) {
		t.Errorf("parseXML(Latin-1 with DOCTYPE) error = %v; want errDoctype", err)
	}

	if _, err := parseXML([]byte(`<?xml version="1.0" encoding="x-no-such-charset"?><t/>`)); err == nil {
		t.Error("parseXML with an unknown encoding returned no error")
	}
}

func TestParseXML_Errors(t *testing.T) {
	for _, in := range []string{"", "   ", "just text", `<a><<</a>`} {
		if _, err := parseXML([]byte(in)); err == nil {
			t.Errorf("parseXML(%q) returned no error", in)
		}
	}
}

func TestParseXML_HTMLEntities(t *testing.T) {
	doc, err := parseXML([]byte(`<p>A&nbsp;B &amp; C&hellip;</p>`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rootElement(doc).InnerText(); got != "A\u00a0B & C\u2026" {
		t.Errorf("text = %q", got)
	}
}

func TestElementsByLocalName(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want int
	}{
		{"default namespace", `<package xmlns="http://www.idpf.org/2007/opf"><item/><item/></package>`, 2},
		{"declared prefix", `<opf:package xmlns:opf="http://www.idpf.org/2007/opf"><opf:item/></opf:package>`, 1},
		{"undeclared prefix", `<package><x:item/><x:item/><x:item/></package>`, 3},
		{"no namespace", `<package><item/></package>`, 1},
		{"different case is not a match", `<package><ITEM/></package>`, 0},
		{"absent", `<package><items/></package>`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parseXML([]byte(tt.doc))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := len(elementsByLocalName(doc, "item")); got != tt.want {
				t.Errorf("found %d; want %d", got, tt.want)
			}
		})
	}
}

func TestElementsByLocalName_ExcludesTop(t *testing.T) {
	doc, err := parseXML([]byte(`<navPoint><navPoint/><x><navPoint/></x></navPoint>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	top := rootElement(doc)
	if got := len(elementsByLocalName(top, "navPoint")); got != 2 {
		t.Errorf("found %d descendants; want 2", got)
	}
}

func TestAttr(t *testing.T) {
	doc, err := parseXML([]byte(`<root xmlns:epub="http://www.idpf.org/2007/ops">
<a epub:type="toc" type="plain"/>
<b epub:type="undeclared-ok"/>
</root>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	a := firstElementByLocalName(doc, "a")
	if got := attr(a, "epub:type"); got != "toc" {
		t.Errorf(`attr(epub:type) = %q; want "toc"`, got)
	}
	if got := attr(a, "type"); got != "plain" {
		t.Errorf(`attr(type) = %q; want "plain"`, got)
	}
	if got := attr(a, "missing"); got != "" {
		t.Errorf(`attr(missing) = %q`, got)
	}
	b := firstElementByLocalName(doc, "b")
	if got := attr(b, "type"); got != "" {
		t.Errorf(`unprefixed lookup matched a prefixed attribute: %q`, got)
	}
}

func TestHasToken(t *testing.T) {
	tests := []struct {
		s, tok string
		want   bool
	}{
		{"nav", "nav", true},
		{"cover-image nav", "nav", true},
		{"  scripted\tnav ", "nav", true},
		{"navigation", "nav", false},
		{"", "nav", false},
	}
	for _, tt := range tests {
		if got := hasToken(tt.s, tt.tok); got != tt.want {
			t.Errorf("hasToken(%q, %q) = %v; want %v", tt.s, tt.tok, got, tt.want)
		}
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("book one"))
	b := Fingerprint([]byte("book two"))
	if len(a) != 64 {
		t.Errorf("len = %d; want 64 hex digits", len(a))
	}
	if a == b {
		t.Error("different content produced the same fingerprint")
	}
	if a != Fingerprint([]byte("book one")) {
		t.Error("fingerprint is not deterministic")
	}
}
