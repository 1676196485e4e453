package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWithOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithOutput(&buf, "debug", "json")
	if err != nil {
		t.Fatalf("NewWithOutput: %v", err)
	}
	log.WithField("component", "search").Debug("applied")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["component"] != "search" || entry["msg"] != "applied" || entry["level"] != "debug" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewWithOutputLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithOutput(&buf, "warn", "text")
	if err != nil {
		t.Fatalf("NewWithOutput: %v", err)
	}
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info must be filtered at warn level, got %q", buf.String())
	}
}

func TestNewRejectsInvalid(t *testing.T) {
	if _, err := New("loud", "text"); err == nil {
		t.Fatal("expected invalid level error")
	}
	if _, err := New("info", "yaml"); err == nil {
		t.Fatal("expected invalid format error")
	}
}
