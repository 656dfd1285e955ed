package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSign_Format(t *testing.T) {
	signed := sign("abc", "secret")

	h := hmac.New(sha256.New, []byte("secret"))
	h.Write([]byte("abc"))
	want := "abc." + base64.StdEncoding.EncodeToString(h.Sum(nil))

	if signed != want {
		t.Errorf("sign() = %q, want %q", signed, want)
	}
	if sig := signed[strings.LastIndexByte(signed, '.')+1:]; len(sig) != 44 || !strings.HasSuffix(sig, "=") {
		t.Errorf("signature %q should be 44 chars of padded base64", sig)
	}
}

func TestVerify(t *testing.T) {
	signed := sign("abc.def", "secret")

	tests := []struct {
		name   string
		input  string
		secret string
		want   string
		ok     bool
	}{
		{"valid with dot in value", signed, "secret", "abc.def", true},
		{"wrong secret", signed, "other", "", false},
		{"no separator", "abc", "secret", "", false},
		{"empty value", "." + signed[strings.LastIndexByte(signed, '.')+1:], "secret", "", false},
		{"short signature", "abc.AAAA", "secret", "", false},
		{"bad base64", "abc.!!!", "secret", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := verify(tt.input, tt.secret)
			if ok != tt.ok || got != tt.want {
				t.Errorf("verify() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRequestHost(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"example.com", "example.com"},
		{"Example.COM:8080", "example.com"},
		{"127.0.0.1:3000", "127.0.0.1"},
		{"[::1]:8080", "::1"},
		{"localhost", "localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Host = tt.host
			if got := requestHost(r); got != tt.want {
				t.Errorf("requestHost() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetCookie_IPv6HostOnly(t *testing.T) {
	rec := httptest.NewRecorder()
	setCookie(rec, "id", "abc", "::1", time.Minute, "")

	header := rec.Header().Get("Set-Cookie")
	if strings.Contains(header, "Domain=") {
		t.Errorf("IPv6 host should not produce a Domain attribute: %s", header)
	}
	if !strings.Contains(header, "Max-Age=60") {
		t.Errorf("missing Max-Age: %s", header)
	}
}

func TestReadID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "id", Value: "%zz"})
	if got := readID(r, "id", ""); got != "" {
		t.Errorf("malformed escape should read as absent, got %q", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero value", func(c *Config) { *c = Config{} }, false},
		{"uuid", func(c *Config) { c.IDFormat = IDFormatUUID }, false},
		{"bad format", func(c *Config) { c.IDFormat = "ulid" }, true},
		{"bad name", func(c *Config) { c.Name = "a;b" }, true},
		{"negative ttl", func(c *Config) { c.TTL = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "id" {
		t.Errorf("Name = %q, want id", cfg.Name)
	}
	if cfg.TTL != 604800*time.Second {
		t.Errorf("TTL = %v, want 1 week", cfg.TTL)
	}
	if !cfg.Renew || cfg.Regenerate {
		t.Errorf("Renew/Regenerate = %v/%v, want true/false", cfg.Renew, cfg.Regenerate)
	}
}

func TestState_NilSafe(t *testing.T) {
	var st *State
	if st.Status() || st.ID() != "" || st.Value() != nil || st.TTL() != 0 || st.Name() != "" || st.Host() != "" {
		t.Error("nil State should behave as inactive")
	}
}
