// Package site holds the page view-model: the element ids the page must
// declare, the random fact card, the image popup and the egg chart data.
package site

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Element ids the host page declares.
const (
	IDFactContainer   = "NJ-person-container"
	IDFactName        = "NJ-person-name"
	IDFactDescription = "NJ-person-descrip"
	IDPopup           = "popup"
	IDPopupPhoto      = "popup-photo"
	IDPopupDesc       = "popup-descrip"
	IDComments        = "comments-container"
	IDCommentLimit    = "comment-limit-select"
	IDCommentForm     = "comment-form"
	IDLogin           = "login-container"
	IDChart           = "chart-container"
)

// Bindings maps each page role to its element id. Templates render ids
// from here so the page and the Go side cannot drift apart.
type Bindings struct {
	FactContainer   string
	FactName        string
	FactDescription string
	Popup           string
	PopupPhoto      string
	PopupDesc       string
	Comments        string
	CommentLimit    string
	CommentForm     string
	Login           string
	Chart           string
}

// DefaultBindings returns the ids used by the bundled page.
func DefaultBindings() Bindings {
	return Bindings{
		FactContainer:   IDFactContainer,
		FactName:        IDFactName,
		FactDescription: IDFactDescription,
		Popup:           IDPopup,
		PopupPhoto:      IDPopupPhoto,
		PopupDesc:       IDPopupDesc,
		Comments:        IDComments,
		CommentLimit:    IDCommentLimit,
		CommentForm:     IDCommentForm,
		Login:           IDLogin,
		Chart:           IDChart,
	}
}

// IDs lists every bound id in a stable order.
func (b Bindings) IDs() []string {
	return []string{
		b.FactContainer, b.FactName, b.FactDescription,
		b.Popup, b.PopupPhoto, b.PopupDesc,
		b.Comments, b.CommentLimit, b.CommentForm,
		b.Login, b.Chart,
	}
}

// MissingIDError lists ids absent from a host page.
type MissingIDError struct {
	IDs []string
}

func (e *MissingIDError) Error() string {
	return fmt.Sprintf("page is missing element ids: %s", strings.Join(e.IDs, ", "))
}

// Validate checks that page declares every bound id. Ids resolve once at
// page load, so a missing element is a page defect rather than a runtime state.
func (b Bindings) Validate(page string) error {
	declared := declaredIDs(page)

	var missing []string
	for _, id := range b.IDs() {
		if !declared[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &MissingIDError{IDs: missing}
	}
	return nil
}

// declaredIDs collects the id attribute of every element in page. Text,
// comments and script bodies are skipped.
func declaredIDs(page string) map[string]bool {
	ids := make(map[string]bool)
	z := html.NewTokenizer(strings.NewReader(page))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ids
		case html.StartTagToken, html.SelfClosingTagToken:
			_, hasAttr := z.TagName()
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) == "id" && len(val) > 0 {
					ids[string(val)] = true
				}
			}
		}
	}
}
