package token

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	token, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if token == "" {
		t.Error("Generate() returned empty token")
	}

	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Errorf("Generate() returned invalid base64: %v", err)
	}

	if len(decoded) != DefaultLength {
		t.Errorf("Generate() decoded length = %d, want %d", len(decoded), DefaultLength)
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	tokens := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if tokens[token] {
			t.Errorf("Generate() produced duplicate token: %s", token)
		}
		tokens[token] = true
	}
}

func TestGenerateWithLength(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr error
	}{
		{"8 bytes rejected", 8, ErrLengthTooShort},
		{"16 bytes", 16, nil},
		{"32 bytes", 32, nil},
		{"64 bytes", 64, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateWithLength(tt.length)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("GenerateWithLength(%d) error = %v, want %v", tt.length, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GenerateWithLength(%d) error = %v", tt.length, err)
			}

			decoded, err := base64.RawURLEncoding.DecodeString(token)
			if err != nil {
				t.Errorf("GenerateWithLength(%d) returned invalid base64: %v", tt.length, err)
			}

			if len(decoded) != tt.length {
				t.Errorf("GenerateWithLength(%d) decoded length = %d", tt.length, len(decoded))
			}
		})
	}
}

func TestGenerateBytes(t *testing.T) {
	for _, length := range []int{16, 32, 64} {
		bytes, err := GenerateBytes(length)
		if err != nil {
			t.Fatalf("GenerateBytes(%d) error = %v", length, err)
		}
		if len(bytes) != length {
			t.Errorf("GenerateBytes(%d) length = %d", length, len(bytes))
		}
	}
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("session-id-12345")

	if len(fp) != fingerprintBytes*2 {
		t.Errorf("Fingerprint() length = %d, want %d", len(fp), fingerprintBytes*2)
	}
	if strings.ToLower(fp) != fp {
		t.Error("Fingerprint() should return lowercase hex")
	}
	if fp != Fingerprint("session-id-12345") {
		t.Error("Fingerprint() is not deterministic")
	}
	if fp == Fingerprint("session-id-12346") {
		t.Error("Fingerprint() produced same digest for different inputs")
	}
	if Fingerprint("") != "" {
		t.Error("Fingerprint(\"\") should be empty")
	}
}

func BenchmarkGenerate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Generate()
	}
}

func BenchmarkFingerprint(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Fingerprint("benchmark-session-id")
	}
}
