// Package gateway provides interfaces for types performing backend calls on behalf of the session.
package gateway

import (
	"context"
	"net/http"
)

// Backend endpoints.
const (
	EndpointSignup   = "/api/auth/signup"
	EndpointLogin    = "/api/auth/login"
	EndpointLogout   = "/api/auth/logout"
	EndpointMe       = "/api/user/me"
	EndpointHistory  = "/api/qr/history"
	EndpointCreate   = "/api/qr"
	EndpointPreview  = "/api/qr/preview"
	EndpointExport   = "/api/export/csv"
	endpointItemBase = "/api/qr/"
)

// ItemEndpoint returns the path addressing a single item.
func ItemEndpoint(id string) string {
	return endpointItemBase + id
}

// DownloadEndpoint returns the path serving the asset bytes of an item.
func DownloadEndpoint(id string) string {
	return endpointItemBase + id + "/download"
}

// Request describes one backend call. Body is sent as JSON when not nil; when Result is not nil
// the response body is decoded into it. Bearer is only honored by CallPublic.
type Request struct {
	Method   string
	Endpoint string
	Query    map[string]string
	Body     interface{}
	Result   interface{}
	Bearer   string
}

// Get builds a GET request.
func Get(endpoint string, result interface{}) Request {
	return Request{Method: http.MethodGet, Endpoint: endpoint, Result: result}
}

// Post builds a POST request.
func Post(endpoint string, body, result interface{}) Request {
	return Request{Method: http.MethodPost, Endpoint: endpoint, Body: body, Result: result}
}

// Delete builds a DELETE request.
func Delete(endpoint string) Request {
	return Request{Method: http.MethodDelete, Endpoint: endpoint}
}

// Gateway defines a set of methods for types calling the backend.
// Call attaches the session credential and owns the handling of authorization failures;
// CallPublic is used by endpoints that do not require a session.
type Gateway interface {
	Call(ctx context.Context, r Request) ([]byte, error)
	CallPublic(ctx context.Context, r Request) ([]byte, error)
}
