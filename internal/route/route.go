// Package route defines the closed set of application screens and the static
// table that maps each of them to the module rendering it.
package route

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"arcshell/internal/module"
)

// Key identifies a top-level screen.
type Key string

const (
	Request        Key = "request"
	Project        Key = "project"
	HostRules      Key = "host-rules"
	CookieManager  Key = "cookie-manager"
	Settings       Key = "settings"
	About          Key = "about"
	Socket         Key = "socket"
	Drive          Key = "drive"
	DataImport     Key = "data-import"
	DataExport     Key = "data-export"
	History        Key = "history"
	Saved          Key = "saved"
	ThemesPanel    Key = "themes-panel"
	APIConsole     Key = "api-console"
	ExchangeSearch Key = "exchange-search"
)

// Home is the default screen. Every other screen shows a back affordance.
const Home = Request

// Keys lists every known route in menu order.
var Keys = []Key{
	Request, Project, HostRules, CookieManager, Settings, About, Socket, Drive,
	DataImport, DataExport, History, Saved, ThemesPanel, APIConsole, ExchangeSearch,
}

// ParseKey reports whether raw names a known screen.
func ParseKey(raw string) (Key, bool) {
	for _, k := range Keys {
		if string(k) == raw {
			return k, true
		}
	}
	return "", false
}

// Route is a screen plus its route-scoped parameters. Params are opaque to the
// router and handed to the screen's setup callback.
type Route struct {
	Key    Key
	Params map[string]string
}

// Param returns the named parameter or "".
func (r Route) Param(name string) string {
	if r.Params == nil {
		return ""
	}
	return r.Params[name]
}

func (r Route) String() string {
	if len(r.Params) == 0 {
		return string(r.Key)
	}
	q := url.Values{}
	for k, v := range r.Params {
		q.Set(k, v)
	}
	return string(r.Key) + "?" + q.Encode()
}

// NotFoundError reports a route key that is not in the table.
type NotFoundError struct {
	Key        string
	Suggestion Key
}

func (e *NotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("the base route %q is not recognized (did you mean %q?)", e.Key, e.Suggestion)
	}
	return fmt.Sprintf("the base route %q is not recognized", e.Key)
}

// maxSuggestDistance bounds how far a typo may be from a known key.
const maxSuggestDistance = 3

// Table maps route keys to module descriptors. It is built once at startup and
// read-only afterwards.
type Table struct {
	entries map[Key]module.Descriptor
}

// NewTable builds a table from entries.
func NewTable(entries map[Key]module.Descriptor) *Table {
	t := &Table{entries: make(map[Key]module.Descriptor, len(entries))}
	for k, d := range entries {
		t.entries[k] = d
	}
	return t
}

// DefaultTable returns the table used by the application.
func DefaultTable() *Table {
	return NewTable(map[Key]module.Descriptor{
		Request:        remote("arc-request-workspace"),
		Project:        remote("project-details"),
		HostRules:      remote("host-rules-editor"),
		CookieManager:  remote("cookie-manager"),
		Settings:       remote("arc-settings-panel"),
		About:          {ID: "about-arc-chrome", Resource: "about-arc-chrome", Local: true},
		Socket:         remote("websocket-panel"),
		Drive:          remote("google-drive-browser"),
		DataImport:     remote("import-panel"),
		DataExport:     remote("export-panel"),
		History:        remote("history-panel"),
		Saved:          remote("saved-requests-panel"),
		ThemesPanel:    remote("themes-panel"),
		APIConsole:     remote("api-console"),
		ExchangeSearch: remote("exchange-search-panel"),
	})
}

// remote builds the descriptor for a bundle laid out as <id>/<id>.
func remote(id string) module.Descriptor {
	return module.Descriptor{ID: id, Resource: id + "/" + id}
}

// Resolve returns the descriptor for raw, or a *NotFoundError.
func (t *Table) Resolve(raw string) (module.Descriptor, error) {
	if d, ok := t.entries[Key(raw)]; ok {
		return d, nil
	}
	return module.Descriptor{}, &NotFoundError{Key: raw, Suggestion: t.suggest(raw)}
}

// Has reports whether k is in the table.
func (t *Table) Has(k Key) bool {
	_, ok := t.entries[k]
	return ok
}

// Keys returns the table's keys sorted alphabetically.
func (t *Table) Keys() []Key {
	keys := make([]Key, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (t *Table) suggest(raw string) Key {
	if raw == "" {
		return ""
	}
	best := Key("")
	bestDist := maxSuggestDistance + 1
	for _, k := range t.Keys() {
		d := levenshtein.ComputeDistance(strings.ToLower(raw), string(k))
		if d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}

// ParseFragment splits a location fragment such as "request?type=saved&id=1"
// (a leading "#" is allowed) into its key and parameters.
func ParseFragment(fragment string) (string, map[string]string, error) {
	fragment = strings.TrimPrefix(strings.TrimSpace(fragment), "#")
	key, query, _ := strings.Cut(fragment, "?")
	key = strings.Trim(key, "/")
	if query == "" {
		return key, nil, nil
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return "", nil, fmt.Errorf("parse fragment query: %w", err)
	}
	params := make(map[string]string, len(values))
	for k := range values {
		params[k] = values.Get(k)
	}
	return key, params, nil
}
