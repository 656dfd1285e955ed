package httpserver

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	s := New(":8080", okHandler())
	if s.httpServer.Addr != ":8080" {
		t.Errorf("Addr = %q", s.httpServer.Addr)
	}
	if s.TLS() {
		t.Error("TLS should be off by default")
	}
	if s.httpServer.ReadHeaderTimeout == 0 {
		t.Error("ReadHeaderTimeout should be set")
	}

	if !New(":8443", okHandler(), WithTLSConfig(&tls.Config{})).TLS() {
		t.Error("WithTLSConfig should enable TLS")
	}
}

func TestServer_ServeTLS(t *testing.T) {
	// Borrow httptest's certificate and the client that trusts it.
	ts := httptest.NewTLSServer(okHandler())
	defer ts.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := New(ln.Addr().String(), okHandler(), WithTLSConfig(&tls.Config{
		Certificates: ts.TLS.Certificates,
	}))
	go s.Serve(ln)
	defer s.Shutdown(context.Background())

	resp, err := ts.Client().Get("https://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET over TLS: %v", err)
	}
	resp.Body.Close()
	if resp.TLS == nil || resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, tls = %v", resp.StatusCode, resp.TLS != nil)
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	s := New(ln.Addr().String(), okHandler())
	errChan := make(chan error, 1)
	go func() { errChan <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown error: %v", err)
	}

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Serve returned %v, want nil after shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("timeout waiting for Serve to return")
	}
}

func TestServer_ListenError(t *testing.T) {
	if err := New("not-an-addr", okHandler()).ListenAndServe(); err == nil {
		t.Error("ListenAndServe should fail on a bad address")
	}
}
