package workspace

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
)

// Request types accepted by the request route.
const (
	TypeNew    = "new"
	TypeLatest = "latest"
)

// RequestReader reads a persisted request of the given type ("saved",
// "history") by id.
type RequestReader interface {
	Read(ctx context.Context, typ, id string) (Request, error)
}

// RestoredMsg carries the outcome of a persisted request read.
type RestoredMsg struct {
	Type    string
	ID      string
	Request Request
	Err     error
}

// Restorer implements the request route setup: it opens blank requests or
// restores persisted ones into the workspace.
type Restorer struct {
	ws     *Workspace
	reader RequestReader
	log    *slog.Logger
}

// NewRestorer creates a restorer for ws backed by reader.
func NewRestorer(ws *Workspace, reader RequestReader, log *slog.Logger) *Restorer {
	if log == nil {
		log = slog.Default()
	}
	return &Restorer{ws: ws, reader: reader, log: log}
}

// Setup handles the request route params {type, id}. "new" opens a blank
// request; "latest" or a missing id leaves the workspace alone; anything else
// reads the request from storage and yields a RestoredMsg.
func (r *Restorer) Setup(params map[string]string) tea.Cmd {
	if params == nil {
		return nil
	}
	typ, id := params["type"], params["id"]
	if typ == "" || r.ws == nil {
		r.log.Info("workspace.Setup: missing use case implementation", "params", params)
		return nil
	}
	if typ == TypeNew {
		r.ws.AddEmptyRequest()
		return nil
	}
	if typ == TypeLatest || id == "" {
		return nil
	}
	if r.reader == nil {
		r.log.Warn("workspace.Setup: no request store", "type", typ, "id", id)
		return nil
	}
	reader := r.reader
	return func() tea.Msg {
		req, err := reader.Read(context.Background(), typ, id)
		return RestoredMsg{Type: typ, ID: id, Request: req, Err: err}
	}
}

// HandleRestored applies a RestoredMsg. A failed read is logged and otherwise
// ignored. A request that is already open is refreshed and selected.
func (r *Restorer) HandleRestored(msg RestoredMsg) {
	if msg.Err != nil {
		r.log.Warn("workspace.HandleRestored: restoring request", "type", msg.Type, "id", msg.ID, "err", msg.Err)
		return
	}
	index := r.ws.FindRequestIndex(msg.Request.ID)
	if index == -1 {
		r.ws.AppendRequest(msg.Request)
		return
	}
	r.ws.UpdateRequest(msg.Request, index)
	r.ws.Selected = index
}

// Project is the state of the project details screen.
type Project struct {
	ID string
}

// Setup handles the project route params {id}.
func (p *Project) Setup(params map[string]string) tea.Cmd {
	if params == nil {
		return nil
	}
	p.ID = params["id"]
	return nil
}
