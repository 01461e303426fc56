// Package workspace holds the request tabs of the request screen and the route
// setup callbacks that populate it.
package workspace

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Request is one HTTP request open in the workspace.
type Request struct {
	ID      string
	Type    string // "saved" or "history"; empty for unsaved tabs
	Name    string
	Method  string
	URL     string
	Headers string
	Payload string
	Updated time.Time
}

// Workspace is the ordered list of open request tabs and the selected tab.
type Workspace struct {
	Requests []Request
	Selected int
}

// New creates an empty workspace.
func New() *Workspace {
	return &Workspace{}
}

// AddEmptyRequest opens a blank GET request and selects it.
func (w *Workspace) AddEmptyRequest() Request {
	r := Request{ID: uuid.NewString(), Method: http.MethodGet}
	w.AppendRequest(r)
	return r
}

// AppendRequest opens r in a new tab and selects it.
func (w *Workspace) AppendRequest(r Request) {
	w.Requests = append(w.Requests, r)
	w.Selected = len(w.Requests) - 1
}

// FindRequestIndex returns the tab index holding id, or -1.
func (w *Workspace) FindRequestIndex(id string) int {
	for i, r := range w.Requests {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// UpdateRequest replaces the tab at index with r. Out-of-range indexes are ignored.
func (w *Workspace) UpdateRequest(r Request, index int) {
	if index < 0 || index >= len(w.Requests) {
		return
	}
	w.Requests[index] = r
}

// Active returns the selected request.
func (w *Workspace) Active() (Request, bool) {
	if w.Selected < 0 || w.Selected >= len(w.Requests) {
		return Request{}, false
	}
	return w.Requests[w.Selected], true
}

// CloseActiveTab closes the selected tab and selects its left neighbour.
func (w *Workspace) CloseActiveTab() {
	if w.Selected < 0 || w.Selected >= len(w.Requests) {
		return
	}
	w.Requests = append(w.Requests[:w.Selected], w.Requests[w.Selected+1:]...)
	if w.Selected > 0 {
		w.Selected--
	}
	if len(w.Requests) == 0 {
		w.Selected = 0
	}
}

// Len returns the number of open tabs.
func (w *Workspace) Len() int {
	return len(w.Requests)
}
