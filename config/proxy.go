package config

import (
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpproxy"
)

// Protocol is the scheme used to talk to a proxy.
type Protocol string

const (
	ProtocolHTTP   Protocol = "http"
	ProtocolHTTPS  Protocol = "https"
	ProtocolSOCKS5 Protocol = "socks5"
)

// ProxyServer describes a proxy and the hosts that must bypass it.
type ProxyServer struct {
	Protocol      Protocol
	Host          string
	Port          int
	Principal     string
	Password      string
	NonProxyHosts []string
}

// NewProxyServer returns an HTTP proxy at host:port.
func NewProxyServer(host string, port int) *ProxyServer {
	return &ProxyServer{
		Protocol: ProtocolHTTP,
		Host:     host,
		Port:     port,
	}
}

// AddNonProxyHost appends a host that bypasses the proxy.
// A leading "*." or "." matches every subdomain.
func (p *ProxyServer) AddNonProxyHost(host string) *ProxyServer {
	p.NonProxyHosts = append(p.NonProxyHosts, host)
	return p
}

// URL returns the proxy's URL, including credentials when set.
func (p *ProxyServer) URL() *url.URL {
	protocol := p.Protocol
	if protocol == "" {
		protocol = ProtocolHTTP
	}

	u := &url.URL{
		Scheme: string(protocol),
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
	}
	if p.Principal != "" {
		u.User = url.UserPassword(p.Principal, p.Password)
	}

	return u
}

// IsIgnored reports whether requests to host must not use the proxy.
// host may carry a port.
func (p *ProxyServer) IsIgnored(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)

	for _, np := range p.NonProxyHosts {
		np = strings.ToLower(np)
		switch {
		case strings.HasPrefix(np, "*."):
			if strings.HasSuffix(host, np[1:]) {
				return true
			}
		case strings.HasPrefix(np, "."):
			if strings.HasSuffix(host, np) {
				return true
			}
		case host == np:
			return true
		}
	}

	return false
}

func (p *ProxyServer) String() string {
	return p.URL().Redacted()
}

// ProxySelector picks the proxy for a request URL.
// A nil ProxyServer means the request goes direct.
type ProxySelector interface {
	Select(u *url.URL) *ProxyServer
}

// ProxySelectorFunc adapts a function into a ProxySelector.
type ProxySelectorFunc func(u *url.URL) *ProxyServer

func (f ProxySelectorFunc) Select(u *url.URL) *ProxyServer {
	return f(u)
}

// NewSingleProxySelector returns a selector that always answers p.
func NewSingleProxySelector(p *ProxyServer) ProxySelector {
	return ProxySelectorFunc(func(*url.URL) *ProxyServer {
		return p
	})
}

// NewSystemProxySelector returns a selector backed by
// http.ProxyFromEnvironment, which reads the environment once per process.
func NewSystemProxySelector() ProxySelector {
	return ProxySelectorFunc(func(u *url.URL) *ProxyServer {
		proxyURL, err := http.ProxyFromEnvironment(&http.Request{URL: u})
		if err != nil || proxyURL == nil {
			return nil
		}
		return proxyServerFromURL(proxyURL)
	})
}

// NewPropertiesProxySelector returns a selector built from the
// HTTP_PROXY, HTTPS_PROXY and NO_PROXY variables (or their lower-case
// forms) as resolved by getenv at call time.
func NewPropertiesProxySelector(getenv func(string) string) ProxySelector {
	cfg := httpproxy.Config{
		HTTPProxy:  firstEnv(getenv, "HTTP_PROXY", "http_proxy"),
		HTTPSProxy: firstEnv(getenv, "HTTPS_PROXY", "https_proxy"),
		NoProxy:    firstEnv(getenv, "NO_PROXY", "no_proxy"),
	}
	proxyFn := cfg.ProxyFunc()

	return ProxySelectorFunc(func(u *url.URL) *ProxyServer {
		proxyURL, err := proxyFn(u)
		if err != nil || proxyURL == nil {
			return nil
		}
		return proxyServerFromURL(proxyURL)
	})
}

func proxyServerFromURL(u *url.URL) *ProxyServer {
	p := &ProxyServer{
		Protocol: Protocol(u.Scheme),
		Host:     u.Hostname(),
	}
	if p.Protocol == "" {
		p.Protocol = ProtocolHTTP
	}

	port, err := strconv.Atoi(u.Port())
	if err != nil {
		switch p.Protocol {
		case ProtocolHTTPS:
			port = 443
		case ProtocolSOCKS5:
			port = 1080
		default:
			port = 80
		}
	}
	p.Port = port

	if u.User != nil {
		p.Principal = u.User.Username()
		p.Password, _ = u.User.Password()
	}

	return p
}

func firstEnv(getenv func(string) string, keys ...string) string {
	for _, k := range keys {
		if v := getenv(k); v != "" {
			return v
		}
	}
	return ""
}
