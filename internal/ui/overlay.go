package ui

import tea "github.com/charmbracelet/bubbletea"

// Overlay is a dialog or popup view with a dismiss key.
type Overlay struct {
	Name    string
	View    View
	Dismiss string // e.g. "esc"
}

// IsDismissKey reports whether key closes this overlay.
func (o *Overlay) IsDismissKey(key string) bool {
	return key == o.Dismiss
}

// OverlayStack is a stack of overlays; the topmost receives input first.
type OverlayStack struct {
	Stack []Overlay
}

// Push adds an overlay on top.
func (s *OverlayStack) Push(o Overlay) {
	s.Stack = append(s.Stack, o)
}

// Pop removes and returns the top overlay.
func (s *OverlayStack) Pop() (Overlay, bool) {
	if len(s.Stack) == 0 {
		return Overlay{}, false
	}
	top := s.Stack[len(s.Stack)-1]
	s.Stack = s.Stack[:len(s.Stack)-1]
	return top, true
}

// Peek returns the top overlay without removing it.
func (s *OverlayStack) Peek() (Overlay, bool) {
	if len(s.Stack) == 0 {
		return Overlay{}, false
	}
	return s.Stack[len(s.Stack)-1], true
}

// Has reports whether an overlay named name is open.
func (s *OverlayStack) Has(name string) bool {
	for _, o := range s.Stack {
		if o.Name == name {
			return true
		}
	}
	return false
}

// Remove drops every overlay named name.
func (s *OverlayStack) Remove(name string) {
	kept := s.Stack[:0]
	for _, o := range s.Stack {
		if o.Name != name {
			kept = append(kept, o)
		}
	}
	s.Stack = kept
}

// Len returns the number of overlays.
func (s *OverlayStack) Len() int {
	return len(s.Stack)
}

// UpdateTop passes msg to the top overlay and stores the returned view.
// The caller runs the returned cmd.
func (s *OverlayStack) UpdateTop(msg tea.Msg) (tea.Cmd, bool) {
	if len(s.Stack) == 0 {
		return nil, false
	}
	top := &s.Stack[len(s.Stack)-1]
	newView, cmd := top.View.Update(msg)
	top.View = newView
	return cmd, true
}
