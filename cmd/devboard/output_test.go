package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe failed: %v", err)
	}
	os.Stderr = w
	defer func() { os.Stderr = old }()

	fn()
	w.Close()

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func TestPrintHelpers_Prefixes(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()
	noColor = true

	tests := []struct {
		name string
		fn   func()
		want string
	}{
		{"success", func() { printSuccess("added %s", "x") }, "✓ added x"},
		{"error", func() { printError("failed %s", "x") }, "✗ failed x"},
		{"warning", func() { printWarning("viewer token not configured") }, "⚠ viewer token not configured"},
		{"status", func() { printStatus("faulty", "%d", 2) }, "faulty: 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureStderr(t, tt.fn)
			if !strings.Contains(out, tt.want) {
				t.Errorf("output = %q, want it to contain %q", out, tt.want)
			}
		})
	}
}
