package coursetree

import "strings"

// Display types assigned by Classify. The strings match the labels used
// in every export format, so they double as presentation values.
const (
	TypeCourse      = "COURSE"
	TypeUltraDoc    = "ULTRA DOC"
	TypeUltraBody   = "UltraBody"
	TypeDocument    = "Document"
	TypeModule      = "MODULE"
	TypeFolder      = "Folder"
	TypeLink        = "Link"
	TypeCourseLink  = "COURSE LINK"
	TypeFile        = "FILE"
	TypeForm        = "FORM"
	TypeTest        = "TEST/ASSIGNMENT"
	TypeSCORM       = "SCORM"
	TypeLTI         = "LTI"
	TypeVideoStudio = "VideoStudio"
	TypeUnknown     = "Unknown"

	// TypeError marks a branch whose fetch failed; the node carries the
	// failure reason instead of content.
	TypeError = "error"
)

const documentHandlerPrefix = "resource/x-bb-document"

// Classify maps a raw record's content handler (and, as a last resort,
// its body) to a display type. The handler taxonomy is inferred from
// observed Learn REST responses rather than a formal schema.
func Classify(r Record) string {
	h := strings.ToLower(r.HandlerID)
	title := strings.ToLower(strings.TrimSpace(r.Title))

	switch {
	case strings.HasPrefix(h, documentHandlerPrefix):
		if title == "ultradocumentbody" || title == "documentbody" {
			return TypeUltraBody
		}
		return TypeUltraDoc
	case strings.Contains(h, "x-bb-lesson"),
		strings.Contains(h, "learningmodule"),
		strings.Contains(h, "learning-module"),
		strings.Contains(h, "learning") && strings.Contains(h, "module"):
		return TypeModule
	case strings.Contains(h, "folder"):
		return TypeFolder
	case strings.Contains(h, "externallink"):
		return TypeLink
	case strings.Contains(h, "courselink"):
		return TypeCourseLink
	case strings.Contains(h, "file"):
		return TypeFile
	case strings.Contains(h, "asmt-survey-link"):
		return TypeForm
	case strings.Contains(h, "asmt-test-link"), strings.Contains(h, "assignment"):
		return TypeTest
	case strings.Contains(h, "plugin-scormengine"):
		return TypeSCORM
	case strings.Contains(h, "x-bb-blti-link"), strings.Contains(h, "bltiplacement"):
		return TypeLTI
	}

	if strings.Contains(strings.ToLower(r.Body), `data-bbtype="video-studio"`) {
		return TypeVideoStudio
	}
	return TypeUnknown
}

// IsDocumentHandler reports whether the record is an ultra document body
// container, the half of a page/document pair that holds the rich body.
func IsDocumentHandler(r Record) bool {
	return strings.HasPrefix(strings.ToLower(r.HandlerID), documentHandlerPrefix)
}

// IsPageWrapper reports whether the record is an ultra page: a folder
// handler flagged as a Bb page, which visually wraps a single document.
func IsPageWrapper(r Record) bool {
	return strings.ToLower(r.HandlerID) == "resource/x-bb-folder" && r.IsPage
}

// IsExternalLink reports whether the record points at an external URL.
func IsExternalLink(r Record) bool {
	return strings.ToLower(r.HandlerID) == "resource/x-bb-externallink"
}
