package router

import "arcshell/internal/route"

// BackVisible reports whether the shell shows a back button instead of the
// main menu. Only the home route shows the menu.
func BackVisible(r route.Route) bool {
	return r.Key != route.Home
}

// MenuConfig carries the menu switches read from settings.
type MenuConfig struct {
	MenuDisabled bool
	HideHistory  bool
	HideSaved    bool
	HideProjects bool
	HideApis     bool
}

// MenuDisabled reports whether the application menu has nothing to show.
func MenuDisabled(mc *MenuConfig) bool {
	if mc == nil {
		return false
	}
	if mc.MenuDisabled {
		return true
	}
	return mc.HideHistory && mc.HideSaved && mc.HideProjects && mc.HideApis
}
