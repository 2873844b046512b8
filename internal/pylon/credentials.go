// Package pylon talks to the remote analytics service: it builds analyze
// requests, dispatches them in batches and exposes the client facade.
package pylon

import (
	"crypto/tls"
	"net/http"
)

// Credentials identify the caller against the remote service.
type Credentials struct {
	Username string
	APIKey   string
	// Secure enables certificate verification and TLS 1.2 as the minimum version.
	Secure bool
}

// Authorization returns the value of the Authorization header.
func (c Credentials) Authorization() string {
	return c.Username + ":" + c.APIKey
}

// NewHTTPClient returns the transport shared by every request of a client.
// Timeouts are applied per call through the request context.
func NewHTTPClient(creds Credentials) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if creds.Secure {
		transport.TLSClientConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}
	return &http.Client{Transport: transport}
}
