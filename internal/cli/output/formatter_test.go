package output

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON, false).(*JSONFormatter); !ok {
		t.Error("expected JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML, false).(*YAMLFormatter); !ok {
		t.Error("expected YAMLFormatter")
	}
	tf, ok := NewFormatter(FormatTable, true).(*TableFormatter)
	if !ok || !tf.Wide {
		t.Error("expected wide TableFormatter")
	}
	if _, ok := NewFormatter("unknown", false).(*TableFormatter); !ok {
		t.Error("unknown formats should default to table")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type sample struct {
	Name    string        `json:"name" yaml:"name"`
	TTL     time.Duration `json:"ttl" yaml:"ttl"`
	Enabled bool          `json:"enabled" yaml:"enabled"`
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, sample{Name: "id", Enabled: true}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"name": "id"`) {
		t.Errorf("output = %s", out)
	}
	if !strings.Contains(out, "\n  ") {
		t.Error("JSON should be indented")
	}

	buf.Reset()
	if err := (&JSONFormatter{}).Format(&buf, sample{Name: "<alice>"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"<alice>"`) {
		t.Errorf("HTML should not be escaped: %s", buf.String())
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{
		"session": sample{Name: "id", TTL: 2 * time.Minute, Enabled: true},
	}
	if err := (&YAMLFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "session:\n  name: id\n  ttl: 2m0s\n  enabled: true\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}
