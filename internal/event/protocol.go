package event

import (
	"context"
	"encoding/json"

	"arcshell/internal/route"
)

// Protocol names.
const (
	NameExternalLink     Name = "external-link-requested"
	NameClipboardWrite   Name = "clipboard-write-requested"
	NameProgressStart    Name = "process-progress-start"
	NameProgressStop     Name = "process-progress-stop"
	NameProcessError     Name = "process-error"
	NameAuthScopeRequest Name = "auth-scope-requested"
	NameAuthSuccess      Name = "auth-success"
	NameAuthSignedOut    Name = "auth-signed-out"
	NameAuthError        Name = "auth-error"
	NameAssetExchange    Name = "api-asset-exchange"
	NameProcessLink      Name = "api-process-link"
	NameAPIDataReady     Name = "api-data-ready"
	NameRouteChanged     Name = "route-changed"
	NameAnalytics        Name = "analytics-event"
	NameLicenseRequest   Name = "license-requested"
	NameWorkspaceOpen    Name = "workspace-open-requested"
	NameDriveFileOpen    Name = "drive-file-open"
	NameImportFile       Name = "import-process-file"
)

// ExternalLink asks the shell to open URL outside the application.
type ExternalLink struct {
	URL string
}

// ClipboardWrite asks the shell to put Value on the system clipboard.
type ClipboardWrite struct {
	Value string
}

// ProgressStart shows a progress indicator keyed by ID.
type ProgressStart struct {
	ID            string
	Message       string
	Indeterminate bool
}

// ProgressStop removes the indicator keyed by ID.
type ProgressStop struct {
	ID string
}

// ProcessError clears all indicators and reports Message.
type ProcessError struct {
	Message string
}

// AuthScopeRequest asks the shell for the sign-in state of Scope.
type AuthScopeRequest struct {
	Scope       string
	Interactive bool
}

// AuthSuccess tells screens that Scope is authorized with Token.
type AuthSuccess struct {
	Scope string
	Token string
}

// AuthSignedOut tells screens that Scope is not authorized.
type AuthSignedOut struct {
	Scope string
}

// AuthError reports a sign-in failure from the auth collaborator.
type AuthError struct {
	Message string
}

// AssetFile is one file of an exchange asset.
type AssetFile struct {
	Classifier   string
	ExternalLink string
	MainFile     string
	MD5          string
	Packaging    string
}

// AssetExchange asks the shell to open an API asset downloaded from exchange.
type AssetExchange struct {
	Files []AssetFile
}

// APIData is a processed API model and its type label (for example "RAML 1.0").
type APIData struct {
	Model json.RawMessage
	Type  string
}

// ProcessFunc produces the processed API for a link. It runs outside the
// update loop.
type ProcessFunc func(ctx context.Context) (APIData, error)

// ProcessLink asks an API processor to download and parse an asset file. A
// processor takes the request by calling PreventDefault and Respond.
type ProcessLink struct {
	URL       string
	MainFile  string
	MD5       string
	Packaging string

	result ProcessFunc
}

// Respond sets the function that produces the processing result.
func (p *ProcessLink) Respond(fn ProcessFunc) { p.result = fn }

// Result returns the function set by Respond, or nil.
func (p *ProcessLink) Result() ProcessFunc { return p.result }

// APIDataReady hands a processed API to the shell for display.
type APIDataReady struct {
	Data APIData
}

// RouteChanged is published after a navigation commits.
type RouteChanged struct {
	Route route.Route
}

// Analytics is a telemetry hit requested by any component.
type Analytics struct {
	Category string
	Action   string
	Label    string
}

// LicenseRequest asks the shell to open the license dialog.
type LicenseRequest struct{}

// WorkspaceOpen asks the shell to return to the request workspace.
type WorkspaceOpen struct{}

// DriveFileOpen carries a request file downloaded from Drive.
type DriveFileOpen struct {
	Content []byte
	DriveID string
}

// ImportFile asks the import screen to process a file.
type ImportFile struct {
	Content   []byte
	MediaType string
	DriveID   string
}

// Topics.
var (
	OnExternalLink     = Topic[ExternalLink]{Name: NameExternalLink}
	OnClipboardWrite   = Topic[ClipboardWrite]{Name: NameClipboardWrite}
	OnProgressStart    = Topic[ProgressStart]{Name: NameProgressStart}
	OnProgressStop     = Topic[ProgressStop]{Name: NameProgressStop}
	OnProcessError     = Topic[ProcessError]{Name: NameProcessError}
	OnAuthScopeRequest = Topic[AuthScopeRequest]{Name: NameAuthScopeRequest}
	OnAuthSuccess      = Topic[AuthSuccess]{Name: NameAuthSuccess}
	OnAuthSignedOut    = Topic[AuthSignedOut]{Name: NameAuthSignedOut}
	OnAuthError        = Topic[AuthError]{Name: NameAuthError}
	OnAssetExchange    = Topic[AssetExchange]{Name: NameAssetExchange}
	OnProcessLink      = Topic[*ProcessLink]{Name: NameProcessLink}
	OnAPIDataReady     = Topic[APIDataReady]{Name: NameAPIDataReady}
	OnRouteChanged     = Topic[RouteChanged]{Name: NameRouteChanged}
	OnAnalytics        = Topic[Analytics]{Name: NameAnalytics}
	OnLicenseRequest   = Topic[LicenseRequest]{Name: NameLicenseRequest}
	OnWorkspaceOpen    = Topic[WorkspaceOpen]{Name: NameWorkspaceOpen}
	OnDriveFileOpen    = Topic[DriveFileOpen]{Name: NameDriveFileOpen}
	OnImportFile       = Topic[ImportFile]{Name: NameImportFile}
)
