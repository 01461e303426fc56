// Package ui is the arcshell terminal front end built on Bubble Tea.
//
// AppModel owns the chrome: the menu or back affordance, the active screen,
// toasts, progress indicators and a stack of overlays (dialogs, traces,
// activity). Navigation and the event protocols live in the router and shell
// packages; AppModel forwards every message to the shell coordinator and runs
// the commands it returns.
package ui
