package ui

import (
	"arcshell/internal/route"
	"arcshell/internal/router"
)

// AppMode is the shell chrome shown around the current screen.
type AppMode int

const (
	// ModeHome is the request workspace with the main menu.
	ModeHome AppMode = iota
	// ModeScreen is any other screen; it shows a back affordance.
	ModeScreen
	// ModeConsole is the API console.
	ModeConsole
)

func (m AppMode) String() string {
	switch m {
	case ModeHome:
		return "Home"
	case ModeScreen:
		return "Screen"
	case ModeConsole:
		return "Console"
	default:
		return "Unknown"
	}
}

// ModeFor returns the mode for the committed route.
func ModeFor(r route.Route) AppMode {
	switch {
	case r.Key == route.APIConsole:
		return ModeConsole
	case router.BackVisible(r):
		return ModeScreen
	default:
		return ModeHome
	}
}
