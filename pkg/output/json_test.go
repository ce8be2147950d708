package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/deepwater/cgprep/pkg/lcurve"
)

func TestNewJSONFormatter(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	if f == nil {
		t.Fatal("NewJSONFormatter() returned nil")
	}
	if f.Name() != "json" {
		t.Errorf("Name() = %q, want %q", f.Name(), "json")
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	// Verify it's valid JSON
	var parsed Report
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	if parsed.Summary.Frames != 50 {
		t.Errorf("Frames = %d, want 50", parsed.Summary.Frames)
	}
	if !parsed.Summary.Aligned {
		t.Error("Aligned = false, want true")
	}
	if parsed.Metadata.Run != 2 {
		t.Errorf("Run = %d, want 2", parsed.Metadata.Run)
	}
	if len(parsed.Outputs) != 2 {
		t.Errorf("len(Outputs) = %d, want 2", len(parsed.Outputs))
	}

	var raw map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if _, ok := raw["summary"]; !ok {
		t.Error("JSON missing summary key")
	}
}

func TestJSONFormatter_Format_Quiet(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{Quiet: true})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	// Quiet mode should only output summary
	var parsed Summary
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if parsed.Beads != 216 {
		t.Errorf("Beads = %d, want 216", parsed.Beads)
	}
}

func TestJSONFormatter_FormatCurve(t *testing.T) {
	summary := &lcurve.Summary{Source: "lcurve.out", Rows: 1, Columns: []lcurve.ColumnSummary{{Name: "lr", Min: 1e-3}}}

	var buf bytes.Buffer
	if err := NewJSONFormatter(FormatOptions{}).FormatCurve(context.Background(), summary, &buf); err != nil {
		t.Fatalf("FormatCurve() error = %v", err)
	}

	var parsed lcurve.Summary
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if len(parsed.Columns) != 1 || parsed.Columns[0].Name != "lr" {
		t.Errorf("Columns = %+v", parsed.Columns)
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"text", "json"} {
		f, err := New(name, FormatOptions{})
		if err != nil {
			t.Fatalf("New(%q) error = %v", name, err)
		}
		if f.Name() != name {
			t.Errorf("Name() = %q, want %q", f.Name(), name)
		}
	}

	_, err := New("yaml", FormatOptions{})
	var unknown *UnknownFormatError
	if !errors.As(err, &unknown) || unknown.Name != "yaml" {
		t.Errorf("New(yaml) error = %v, want UnknownFormatError", err)
	}
}
