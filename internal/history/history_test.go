package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndList(t *testing.T) {
	store := openTestStore(t)

	rec := &Record{
		Tool:       "validate.gaming",
		Target:     "/srv/api",
		Project:    "api",
		Outcome:    OutcomePassed,
		Score:      0.12,
		DurationMS: 340,
	}
	if err := store.Record(rec); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.ID == 0 {
		t.Error("ID should be assigned")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	records, err := store.List("", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len = %d, want 1", len(records))
	}
	got := records[0]
	if got.Tool != "validate.gaming" || got.Project != "api" || got.Score != 0.12 {
		t.Errorf("got %+v", got)
	}
}

func TestListFiltersAndOrders(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	for i, tool := range []string{"capture.pages", "validate.gaming", "validate.gaming"} {
		if err := store.Record(&Record{
			Tool:      tool,
			Outcome:   OutcomePassed,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	records, err := store.List("validate.gaming", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}
	if !records[0].CreatedAt.After(records[1].CreatedAt) {
		t.Error("records should be newest first")
	}

	limited, err := store.List("", 1)
	if err != nil {
		t.Fatalf("List limited: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit ignored, len = %d", len(limited))
	}
}

func TestSummarize(t *testing.T) {
	store := openTestStore(t)

	outcomes := []string{OutcomePassed, OutcomePassed, OutcomeFailed}
	for _, outcome := range outcomes {
		if err := store.Record(&Record{Tool: "validate.quality", Outcome: outcome}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := store.Record(&Record{Tool: "skill.invoke", Outcome: OutcomeError}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	summaries, err := store.Summarize()
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("len = %d, want 2", len(summaries))
	}

	// sorted by tool: skill.invoke before validate.quality
	if summaries[0].Tool != "skill.invoke" || summaries[0].Total != 1 {
		t.Errorf("summaries[0] = %+v", summaries[0])
	}
	vq := summaries[1]
	if vq.Total != 3 || vq.Passed != 2 || vq.Failed != 1 {
		t.Errorf("summaries[1] = %+v", vq)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.Record(&Record{Tool: "x", Outcome: OutcomePassed}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	records, err := second.List("", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("len = %d, want 1 after reopen", len(records))
	}
}
