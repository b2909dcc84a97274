// Package extract pulls embedded file and content-link references out of
// a content item's rich body HTML. Ultra document bodies carry their
// attachments as data-bbfile attributes (an HTML-escaped JSON payload) and
// cross-references as data-content-link attribute pairs; nothing is ever
// downloaded, only the references are collected.
package extract

import (
	"encoding/json"
	"strings"

	"golang.org/x/net/html"
)

// FileRef is one embedded file reference found in a body.
type FileRef struct {
	Name       string `json:"name"`
	Mime       string `json:"mime"`
	RenderMode string `json:"render"`
}

// ContentLink is one embedded cross-reference to another content item.
type ContentLink struct {
	ContentID string `json:"content_id"`
	LinkType  string `json:"link_type"`
}

// bbFilePayload is the JSON object stored in a data-bbfile attribute.
type bbFilePayload struct {
	LinkName        string `json:"linkName"`
	AlternativeText string `json:"alternativeText"`
	MimeType        string `json:"mimeType"`
	Render          string `json:"render"`
}

// Scan walks the body HTML once, in document order, and collects embedded
// file references and content links. Files are deduplicated by
// (name, mime), links by content id; the first occurrence wins. A missing
// or unparseable body yields empty results, never an error: the tokenizer
// consumes arbitrary junk, and malformed attribute payloads are skipped
// one at a time.
func Scan(body string) ([]FileRef, []ContentLink) {
	var files []FileRef
	var links []ContentLink
	if body == "" {
		return files, links
	}

	seenFiles := make(map[string]bool)
	seenLinks := make(map[string]bool)

	z := html.NewTokenizer(strings.NewReader(body))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return files, links
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}

		var bbfile, linkID, linkType string
		var hasLinkType bool
		_, hasAttr := z.TagName()
		for hasAttr {
			var k, v []byte
			k, v, hasAttr = z.TagAttr()
			switch string(k) {
			case "data-bbfile":
				bbfile = string(v)
			case "data-content-link":
				linkID = string(v)
			case "data-content-link-type":
				linkType = string(v)
				hasLinkType = true
			}
		}

		if bbfile != "" {
			if f, ok := parseFilePayload(bbfile); ok {
				key := f.Name + "\x00" + f.Mime
				if !seenFiles[key] {
					seenFiles[key] = true
					files = append(files, f)
				}
			}
		}

		// The link id and its type ride on the same tag; a tag carrying
		// only one half of the pair is not a content link.
		if linkID != "" && hasLinkType {
			id := strings.TrimSpace(linkID)
			if id != "" && !seenLinks[id] {
				seenLinks[id] = true
				links = append(links, ContentLink{
					ContentID: id,
					LinkType:  strings.TrimSpace(linkType),
				})
			}
		}
	}
}

// parseFilePayload decodes one data-bbfile attribute value. The tokenizer
// has already unescaped HTML entities, leaving plain JSON.
func parseFilePayload(raw string) (FileRef, bool) {
	var p bbFilePayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return FileRef{}, false
	}
	name := strings.TrimSpace(p.LinkName)
	if name == "" {
		name = strings.TrimSpace(p.AlternativeText)
	}
	if name == "" {
		return FileRef{}, false
	}
	return FileRef{
		Name:       name,
		Mime:       strings.TrimSpace(p.MimeType),
		RenderMode: strings.TrimSpace(p.Render),
	}, true
}
