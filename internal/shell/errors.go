package shell

import (
	"errors"
	"fmt"
)

var (
	// ErrAssetDataNotFound is reported when an exchange asset has no usable API file.
	ErrAssetDataNotFound = errors.New("RAML data not found in the asset.")
	// ErrProcessorNotFound is reported when nothing took the api-process-link request.
	ErrProcessorNotFound = errors.New("API data processor not found.")
	// ErrUnknownAction is returned by RunMenuAction for unregistered actions.
	ErrUnknownAction = errors.New("unknown menu action")
)

// AssetExchangeError is the outcome of a failed asset exchange. Reason is one
// of the sentinels above, or nil when processing itself failed with Cause.
type AssetExchangeError struct {
	Reason error
	Cause  error
}

func (e *AssetExchangeError) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	if e.Reason != nil {
		return e.Reason.Error()
	}
	return "asset exchange failed"
}

func (e *AssetExchangeError) Unwrap() []error {
	var errs []error
	if e.Reason != nil {
		errs = append(errs, e.Reason)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// ComponentError reports a dialog or screen module that failed to load.
type ComponentError struct {
	ID  string
	Err error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("Unable to load %s component", e.ID)
}

func (e *ComponentError) Unwrap() error { return e.Err }
