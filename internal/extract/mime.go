package extract

import "strings"

var openXMLFamilies = map[string]string{
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   "docx",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         "xlsx",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": "pptx",
}

var legacyMSFamilies = map[string]string{
	"application/msword":            "doc",
	"application/vnd.ms-excel":      "xls",
	"application/vnd.ms-powerpoint": "ppt",
}

// MimeFamily reduces a MIME type to a short display name: office formats
// map to their conventional extension, anything else to its subtype.
func MimeFamily(mime string) string {
	m := strings.ToLower(strings.TrimSpace(mime))
	if fam, ok := openXMLFamilies[m]; ok {
		return fam
	}
	if fam, ok := legacyMSFamilies[m]; ok {
		return fam
	}
	if i := strings.LastIndex(m, "/"); i >= 0 {
		return m[i+1:]
	}
	return m
}
