package coursetree

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		rec  Record
		want string
	}{
		{"ultra doc", Record{HandlerID: "resource/x-bb-document", Title: "Week 1"}, TypeUltraDoc},
		{"ultra body", Record{HandlerID: "resource/x-bb-document", Title: "ultradocumentbody"}, TypeUltraBody},
		{"legacy body", Record{HandlerID: "resource/x-bb-document", Title: " DocumentBody "}, TypeUltraBody},
		{"lesson", Record{HandlerID: "resource/x-bb-lesson"}, TypeModule},
		{"learning module", Record{HandlerID: "resource/x-bb-learningmodule"}, TypeModule},
		{"folder", Record{HandlerID: "resource/x-bb-folder"}, TypeFolder},
		{"external link", Record{HandlerID: "resource/x-bb-externallink"}, TypeLink},
		{"course link", Record{HandlerID: "resource/x-bb-courselink"}, TypeCourseLink},
		{"file", Record{HandlerID: "resource/x-bb-file"}, TypeFile},
		{"survey", Record{HandlerID: "resource/x-bb-asmt-survey-link"}, TypeForm},
		{"test", Record{HandlerID: "resource/x-bb-asmt-test-link"}, TypeTest},
		{"assignment", Record{HandlerID: "resource/x-bb-assignment"}, TypeTest},
		{"scorm", Record{HandlerID: "resource/x-plugin-scormengine"}, TypeSCORM},
		{"lti", Record{HandlerID: "resource/x-bb-blti-link"}, TypeLTI},
		{"video studio body", Record{Body: `<div data-bbtype="video-studio"></div>`}, TypeVideoStudio},
		{"unknown", Record{HandlerID: "resource/x-bb-mystery"}, TypeUnknown},
		{"empty", Record{}, TypeUnknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.rec); got != tc.want {
			t.Errorf("%s: Classify = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestIsPageWrapper(t *testing.T) {
	if !IsPageWrapper(Record{HandlerID: "resource/x-bb-folder", IsPage: true}) {
		t.Error("page-flagged folder should be a wrapper")
	}
	if IsPageWrapper(Record{HandlerID: "resource/x-bb-folder"}) {
		t.Error("plain folder is not a wrapper")
	}
	if IsPageWrapper(Record{HandlerID: "resource/x-bb-document", IsPage: true}) {
		t.Error("page flag on a non-folder handler is not a wrapper")
	}
}

func TestIsDocumentHandler(t *testing.T) {
	if !IsDocumentHandler(Record{HandlerID: "resource/x-bb-document-ultra"}) {
		t.Error("prefixed document handler should match")
	}
	if IsDocumentHandler(Record{HandlerID: "resource/x-bb-folder"}) {
		t.Error("folder is not a document handler")
	}
}
