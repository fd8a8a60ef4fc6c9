// Package client is the typed HTTP client for the gophauth API.
//
// HTTPClient keeps the access token returned by Register, Login and Refresh
// in memory and attaches it as a bearer token to protected calls. Error
// responses are mapped back to the sentinels of internal/common so callers
// can match them with errors.Is; a server that cannot be reached yields
// ErrUnavailable.
package client
