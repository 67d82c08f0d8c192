package config

import "net/http"

// ProviderConfig carries transport-specific settings.
type ProviderConfig interface {
	Property(name string) (any, bool)
}

// Properties is a map-backed ProviderConfig.
type Properties map[string]any

// Property returns the value stored under name.
func (p Properties) Property(name string) (any, bool) {
	v, ok := p[name]
	return v, ok
}

// Set stores value under name and returns p.
func (p Properties) Set(name string, value any) Properties {
	p[name] = value
	return p
}

// ConnectionPool is a transport that pools connections, such as *http.Transport.
type ConnectionPool interface {
	http.RoundTripper
	CloseIdleConnections()
}
