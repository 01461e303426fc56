// Package docs holds the text of the shell dialogs, embedded at compile time.
package docs

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
)

//go:embed *.txt
var docFS embed.FS

// Names returns the available document names (file names without .txt).
func Names() []string {
	entries, err := docFS.ReadDir(".")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(out)
	return out
}

// Text returns the document called name.
func Text(name string) (string, error) {
	data, err := docFS.ReadFile(name + ".txt")
	if err != nil {
		return "", fmt.Errorf("docs: %q: %w", name, err)
	}
	return string(data), nil
}
