package config

import "net/http"

// AuthScheme names an authentication scheme.
type AuthScheme string

const (
	AuthNone     AuthScheme = "NONE"
	AuthBasic    AuthScheme = "BASIC"
	AuthDigest   AuthScheme = "DIGEST"
	AuthNTLM     AuthScheme = "NTLM"
	AuthSPNEGO   AuthScheme = "SPNEGO"
	AuthKerberos AuthScheme = "KERBEROS"
)

// Realm holds the credentials used to authenticate requests.
type Realm struct {
	Scheme            AuthScheme `json:"scheme" validate:"omitempty,oneof=NONE BASIC DIGEST NTLM SPNEGO KERBEROS"`
	Principal         string     `json:"principal" validate:"required_with=Password"`
	Password          string     `json:"-"`
	RealmName         string     `json:"realmName"`
	UsePreemptiveAuth bool       `json:"usePreemptiveAuth"`
}

// NewBasicRealm returns a preemptive Basic realm.
func NewBasicRealm(principal, password string) *Realm {
	return &Realm{
		Scheme:            AuthBasic,
		Principal:         principal,
		Password:          password,
		UsePreemptiveAuth: true,
	}
}

// Apply sets preemptive Basic credentials on req, unless req already
// carries an Authorization header. It reports whether req was changed.
func (r *Realm) Apply(req *http.Request) bool {
	if r == nil || !r.UsePreemptiveAuth || r.Scheme != AuthBasic {
		return false
	}
	if req.Header.Get("Authorization") != "" {
		return false
	}

	req.SetBasicAuth(r.Principal, r.Password)
	return true
}
