package epub

import (
	"testing"
)

// encryptionXML wraps EncryptedData elements in an encryption document.
func encryptionXML(algorithms ...string) string {
	s := `<?xml version="1.0" encoding="UTF-8"?>
<encryption xmlns="urn:oasis:names:tc:opendocument:xmlns:container"
            xmlns:enc="http://www.w3.org/2001/04/xmlenc#">`
	for _, algo := range algorithms {
		s += `
  <enc:EncryptedData>
    <enc:EncryptionMethod Algorithm="` + algo + `"/>
    <enc:CipherData><enc:CipherReference URI="OEBPS/fonts/f.otf"/></enc:CipherData>
  </enc:EncryptedData>`
	}
	return s + "\n</encryption>"
}

func TestDetectEncryption(t *testing.T) {
	const (
		idpf  = "http://www.idpf.org/2008/embedding"
		adobe = "http://ns.adobe.com/pdf/enc#RC"
		aes   = "http://www.w3.org/2001/04/xmlenc#aes128-cbc"
	)
	tests := []struct {
		name    string
		files   map[string]string
		want    Encryption
		wantErr bool
	}{
		{
			name:  "no encryption.xml",
			files: map[string]string{"mimetype": "application/epub+zip"},
			want:  EncryptionNone,
		},
		{
			name:  "blank encryption.xml",
			files: map[string]string{"META-INF/encryption.xml": "\xEF\xBB\xBF \n"},
			want:  EncryptionNone,
		},
		{
			name:  "no EncryptedData",
			files: map[string]string{"META-INF/encryption.xml": encryptionXML()},
			want:  EncryptionNone,
		},
		{
			name:  "IDPF font obfuscation",
			files: map[string]string{"META-INF/encryption.xml": encryptionXML(idpf)},
			want:  EncryptionFontObfuscation,
		},
		{
			name:  "mixed font obfuscation algorithms",
			files: map[string]string{"META-INF/encryption.xml": encryptionXML(idpf, adobe)},
			want:  EncryptionFontObfuscation,
		},
		{
			name:  "content encryption",
			files: map[string]string{"META-INF/encryption.xml": encryptionXML(idpf, aes)},
			want:  EncryptionDRM,
		},
		{
			name:  "missing algorithm",
			files: map[string]string{"META-INF/encryption.xml": encryptionXML("")},
			want:  EncryptionDRM,
		},
		{
			name:  "lowercase entry name",
			files: map[string]string{"meta-inf/encryption.xml": encryptionXML(aes)},
			want:  EncryptionDRM,
		},
		{
			name:  "Apple FairPlay",
			files: map[string]string{"META-INF/sinf.xml": "<sinf/>"},
			want:  EncryptionDRM,
		},
		{
			name:    "unparseable encryption.xml",
			files:   map[string]string{"META-INF/encryption.xml": "<encryption><<</encryption>"},
			want:    EncryptionDRM,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := detectEncryption(buildTestArchive(t, tt.files))
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v; want error: %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("detectEncryption() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestEncryptionString(t *testing.T) {
	for e, want := range map[Encryption]string{
		EncryptionNone:            "none",
		EncryptionFontObfuscation: "font-obfuscation",
		EncryptionDRM:             "drm",
	} {
		if got := e.String(); got != want {
			t.Errorf("%d.String() = %q; want %q", int(e), got, want)
		}
	}
}
