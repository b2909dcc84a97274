package blackboard

import "fmt"

// ResolutionError means a course id could not be resolved to an internal
// key. Fatal for that course only; batch runs continue.
type ResolutionError struct {
	CourseID string
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve course %q: %v", e.CourseID, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// FetchError means a content listing failed: transport, permission, or a
// non-OK status. Transient errors are retried by the client before this
// surfaces; once surfaced, the crawl records the branch and moves on.
type FetchError struct {
	CourseKey string
	ParentID  string
	Status    int
	Err       error
}

func (e *FetchError) Error() string {
	where := e.CourseKey
	if e.ParentID != "" {
		where += "/" + e.ParentID
	}
	if e.Status != 0 {
		return fmt.Sprintf("fetch contents %s: status %d: %v", where, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch contents %s: %v", where, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// transientStatus reports whether a response status is worth retrying.
func transientStatus(code int) bool {
	return code == 429 || code >= 500
}
