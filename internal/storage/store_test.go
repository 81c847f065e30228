package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devices.csv")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%q) failed: %v", path, err)
	}
	return s
}

func TestLoad_MissingFileCreatesEmptyTable(t *testing.T) {
	s := tempStore(t)

	table, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(table) != 0 {
		t.Fatalf("len(table) = %d, want 0", len(table))
	}

	// The backing file must now exist with just the header row.
	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("backing file not created: %v", err)
	}
	want := strings.Join(Columns, ",") + "\n"
	if string(data) != want {
		t.Errorf("backing file = %q, want %q", data, want)
	}
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	s := tempStore(t)

	in := Table{
		{ID: "1", DeviceName: "cam-entrance", Status: StatusFaulty, Notes: "lens cracked, needs \"urgent\" swap"},
		{ID: "2", DeviceName: "cam-lobby", Location: "Building A", Status: StatusRepaired},
	}
	if err := s.Save(in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	out, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("row %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestLoad_EmptyFileSelfHeals(t *testing.T) {
	s := tempStore(t)
	if err := os.WriteFile(s.Path(), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(table) != 0 {
		t.Fatalf("len(table) = %d, want 0", len(table))
	}
	data, _ := os.ReadFile(s.Path())
	if !bytes.HasPrefix(data, []byte("id,device_name")) {
		t.Errorf("header not rewritten, file = %q", data)
	}
}

func TestLoad_Windows1252Fallback(t *testing.T) {
	s := tempStore(t)

	// "Zürich" with a Latin-1/Windows-1252 ü (0xFC), invalid as UTF-8.
	raw := "id,device_name,location\n9,cam-9,Z\xfcrich\n"
	if err := os.WriteFile(s.Path(), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(table) != 1 {
		t.Fatalf("len(table) = %d, want 1", len(table))
	}
	if table[0].Location != "Zürich" {
		t.Errorf("Location = %q, want %q", table[0].Location, "Zürich")
	}
}

func TestLoad_HeaderMappedByName(t *testing.T) {
	s := tempStore(t)

	// Reordered columns plus an unknown one.
	raw := "status,id,shelf,device_name\nfaulty,4,B2,cam-4\n"
	if err := os.WriteFile(s.Path(), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	rec := table[0]
	if rec.ID != "4" || rec.Status != "faulty" || rec.DeviceName != "cam-4" {
		t.Errorf("record = %+v, mapped wrong", rec)
	}
	if rec.Location != "" {
		t.Errorf("missing column should be empty, got %q", rec.Location)
	}
}

func TestLoad_ShortRowsPad(t *testing.T) {
	s := tempStore(t)

	raw := strings.Join(Columns, ",") + "\n7,cam-7\n"
	if err := os.WriteFile(s.Path(), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if table[0].ID != "7" || table[0].DeviceName != "cam-7" || table[0].Status != "" {
		t.Errorf("record = %+v", table[0])
	}
}

func TestMutate_ErrorLeavesFileUntouched(t *testing.T) {
	s := tempStore(t)
	if err := s.Save(Table{{ID: "1", Status: "faulty"}}); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(s.Path())

	_, err := s.Mutate(func(t Table) (Table, error) {
		return nil, os.ErrInvalid
	})
	if err == nil {
		t.Fatal("Mutate should propagate fn error")
	}

	after, _ := os.ReadFile(s.Path())
	if !bytes.Equal(before, after) {
		t.Errorf("backing file changed despite failed mutation")
	}
}

func TestEncodeCSV_PreservesFieldsWithCommasAndNewlines(t *testing.T) {
	in := Table{{ID: "1", Notes: "line one\nline two, with comma"}}
	data, err := EncodeCSV(in)
	if err != nil {
		t.Fatalf("EncodeCSV failed: %v", err)
	}
	out, err := DecodeCSV(data)
	if err != nil {
		t.Fatalf("DecodeCSV failed: %v", err)
	}
	if out[0].Notes != in[0].Notes {
		t.Errorf("Notes = %q, want %q", out[0].Notes, in[0].Notes)
	}
}
