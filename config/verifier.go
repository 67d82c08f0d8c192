package config

import (
	"crypto/tls"
	"errors"
)

// ErrNoPeerCertificate is returned when a TLS peer presented no certificate.
var ErrNoPeerCertificate = errors.New("no peer certificate")

// HostnameVerifier checks that a TLS peer is allowed to speak for host.
type HostnameVerifier interface {
	Verify(host string, cs tls.ConnectionState) error
}

// HostnameVerifierFunc adapts a function into a HostnameVerifier.
type HostnameVerifierFunc func(host string, cs tls.ConnectionState) error

func (f HostnameVerifierFunc) Verify(host string, cs tls.ConnectionState) error {
	return f(host, cs)
}

// StrictHostnameVerifier requires the leaf certificate to be valid for host.
type StrictHostnameVerifier struct{}

func (StrictHostnameVerifier) Verify(host string, cs tls.ConnectionState) error {
	if len(cs.PeerCertificates) == 0 {
		return ErrNoPeerCertificate
	}
	return cs.PeerCertificates[0].VerifyHostname(host)
}

// AllowAllHostnameVerifier accepts every host.
type AllowAllHostnameVerifier struct{}

func (AllowAllHostnameVerifier) Verify(string, tls.ConnectionState) error {
	return nil
}
