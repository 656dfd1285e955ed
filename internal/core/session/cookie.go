package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Signed cookie values have the form "<value>.<signature>", where the
// signature is the padded standard base64 of HMAC-SHA256(secret, value).
// The whole value is URL-encoded on the wire.

func sign(value, secret string) string {
	return value + "." + base64.StdEncoding.EncodeToString(mac(value, secret))
}

// verify returns the unsigned value when signed carries a valid
// signature for secret.
func verify(signed, secret string) (string, bool) {
	i := strings.LastIndexByte(signed, '.')
	if i <= 0 {
		return "", false
	}
	value, sig := signed[:i], signed[i+1:]
	got, err := base64.StdEncoding.DecodeString(sig)
	if err != nil || len(got) != sha256.Size {
		return "", false
	}
	if !hmac.Equal(got, mac(value, secret)) {
		return "", false
	}
	return value, true
}

func mac(value, secret string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(value))
	return h.Sum(nil)
}

// readID returns the session identifier carried by the request, or ""
// when the cookie is missing, malformed or fails verification.
func readID(r *http.Request, name, secret string) string {
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return ""
	}
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	if secret == "" {
		return raw
	}
	id, ok := verify(raw, secret)
	if !ok {
		return ""
	}
	return id
}

// setCookie issues the session cookie.
func setCookie(w http.ResponseWriter, name, id, host string, ttl time.Duration, secret string) {
	value := id
	if secret != "" {
		value = sign(id, secret)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(value),
		Path:     "/",
		Domain:   cookieDomain(host),
		MaxAge:   int(ttl / time.Second),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearCookie expires the session cookie. Path, Domain and Secure must
// match the issued cookie or browsers keep it.
func clearCookie(w http.ResponseWriter, name, host string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   "/",
		Domain: cookieDomain(host),
		MaxAge: -1,
		Secure: true,
	})
}

// requestHost returns the host name of r without port, lower-cased.
func requestHost(r *http.Request) string {
	host := r.Host
	if host == "" && r.URL != nil {
		host = r.URL.Host
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	return strings.ToLower(host)
}

// cookieDomain drops hosts net/http cannot put in a Domain attribute
// (IPv6 literals); the cookie then defaults to host-only.
func cookieDomain(host string) string {
	if strings.Contains(host, ":") {
		return ""
	}
	return host
}
