package epub

import "strings"

// encryptionFilePath is the standard path for the encryption descriptor.
const encryptionFilePath = "META-INF/encryption.xml"

// sinfFilePath is the path that indicates Apple FairPlay DRM.
const sinfFilePath = "META-INF/sinf.xml"

// Font obfuscation algorithm URIs. These do NOT constitute DRM.
var fontObfuscationAlgorithms = map[string]bool{
	"http://www.idpf.org/2008/embedding": true, // IDPF font obfuscation
	"http://ns.adobe.com/pdf/enc#RC":     true, // Adobe font obfuscation
}

// detectEncryption inspects META-INF/encryption.xml and META-INF/sinf.xml.
// Any EncryptedData entry whose algorithm is not a known font obfuscation
// scheme classifies the archive as DRM protected. An unparseable
// encryption.xml is reported as DRM together with the parse error.
func detectEncryption(a *archive) (Encryption, error) {
	if a.find(sinfFilePath) != nil {
		return EncryptionDRM, nil
	}

	f := a.find(encryptionFilePath)
	if f == nil {
		return EncryptionNone, nil
	}
	data, err := readZipFile(f)
	if err != nil {
		return EncryptionNone, err
	}
	if len(strings.TrimSpace(string(stripBOM(data)))) == 0 {
		return EncryptionNone, nil
	}

	doc, err := parseXML(data)
	if err != nil {
		return EncryptionDRM, err
	}

	result := EncryptionNone
	for _, ed := range elementsByLocalName(doc, "EncryptedData") {
		algo := ""
		if method := firstElementByLocalName(ed, "EncryptionMethod"); method != nil {
			algo = strings.TrimSpace(attr(method, "Algorithm"))
		}
		if !fontObfuscationAlgorithms[algo] {
			return EncryptionDRM, nil
		}
		result = EncryptionFontObfuscation
	}
	return result, nil
}
