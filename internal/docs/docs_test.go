package docs

import (
	"strings"
	"testing"
)

func TestNames(t *testing.T) {
	names := Names()
	want := []string{"license", "variables-drawer"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestText(t *testing.T) {
	text, err := Text("license")
	if err != nil {
		t.Fatalf("Text(license): %v", err)
	}
	if !strings.Contains(text, "Apache License") {
		t.Errorf("license text = %q", text)
	}
	if _, err := Text("missing"); err == nil {
		t.Error("expected error for a missing document")
	}
}
