// Package httpapi exposes the authcore Engine over HTTP.
//
// Routes are registered on a net/http ServeMux with method patterns. The
// refresh credential travels only in an HttpOnly cookie; access tokens are
// returned in JSON and presented as bearer tokens. Error bodies come from
// middleware.Classify.
package httpapi
