package history_test

import (
	"fmt"
	"testing"

	"github.com/Paril/angel-lsp/history"
)

func TestStore_RecordRun(t *testing.T) {
	s, err := history.NewMemoryStore()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	err = s.RecordRun(history.Run{
		URI:             "file:///a.as",
		DurationMs:      12,
		DiagnosticCount: 1,
		SymbolCount:     4,
		OK:              true,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestStore_RunsForURI(t *testing.T) {
	s, err := history.NewMemoryStore()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	for i := 0; i < 3; i++ {
		err := s.RecordRun(history.Run{
			URI:         fmt.Sprintf("file:///a%d.as", i),
			DurationMs:  int64(i),
			SymbolCount: i,
			OK:          true,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.RunsForURI("file:///a1.as")
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStore_LastSuccessfulRun(t *testing.T) {
	s, err := history.NewMemoryStore()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	uri := "file:///b.as"
	if err := s.RecordRun(history.Run{URI: uri, OK: false}); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordRun(history.Run{URI: uri, OK: true, SymbolCount: 7}); err != nil {
		t.Fatal(err)
	}

	last, err := s.LastSuccessfulRun(uri)
	if err != nil {
		t.Fatal(err)
	}
	if last.SymbolCount != 7 {
		t.Errorf("expected symbol count 7, got %d", last.SymbolCount)
	}

	if _, err := s.LastSuccessfulRun("file:///missing.as"); err == nil {
		t.Error("expected error for uri with no successful run")
	}
}
