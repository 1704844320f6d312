package pipeline

import (
	"testing"
	"time"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(h1))
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	h := ContentHashHex([]byte{})
	// BLAKE3-256 of empty input is well-known.
	want := "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}

func TestDocumentID_DiffersByContent(t *testing.T) {
	a := DocumentID([]byte("aaa"))
	b := DocumentID([]byte("bbb"))
	if a == b {
		t.Error("expected different ids for different inputs")
	}
	if len(a) != 32 {
		t.Errorf("expected 32 chars, got %d", len(a))
	}
	if a != DocumentID([]byte("aaa")) {
		t.Error("expected stable id for the same input")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob("test-1", "book.pdf", []byte("pdf"))

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusRendering, "rendering pages"},
		{StatusRecognizing, "recognizing pages"},
		{StatusAssembling, "assembling chapters"},
		{StatusPackaging, "packaging book"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}

	events := job.Events()
	if len(events) != len(transitions) {
		t.Fatalf("expected %d events, got %d", len(transitions), len(events))
	}
	for i, ev := range events {
		if ev.Seq != i+1 {
			t.Errorf("expected seq %d, got %d", i+1, ev.Seq)
		}
		if ev.Message != transitions[i].phase {
			t.Errorf("expected message %q, got %q", transitions[i].phase, ev.Message)
		}
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	for _, s := range []JobStatus{StatusCompleted, StatusFailed, StatusPartial} {
		if !s.Terminal() {
			t.Errorf("expected %q to be terminal", s)
		}
	}
	for _, s := range []JobStatus{StatusQueued, StatusRendering, StatusRecognizing, StatusAssembling, StatusPackaging} {
		if s.Terminal() {
			t.Errorf("expected %q not to be terminal", s)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("page 3 failed")
	job.AddError("page 7 failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "page 3 failed" {
		t.Errorf("expected first error %q, got %q", "page 3 failed", snap.Progress.Errors[0])
	}
}

func TestJob_UpdateProgress(t *testing.T) {
	job := &Job{ID: "incr-test", UpdatedAt: time.Now()}
	for range 3 {
		job.UpdateProgress(func(p *Progress) { p.PagesRecognized++ })
	}
	job.UpdateProgress(func(p *Progress) { p.TotalPages = 42 })

	snap := job.Snapshot()
	if snap.Progress.PagesRecognized != 3 {
		t.Errorf("expected 3 pages recognized, got %d", snap.Progress.PagesRecognized)
	}
	if snap.Progress.TotalPages != 42 {
		t.Errorf("expected 42 total pages, got %d", snap.Progress.TotalPages)
	}
}

func TestJob_Outputs(t *testing.T) {
	job := &Job{ID: "out-test"}
	if _, ok := job.Output(ArtifactEPUB); ok {
		t.Error("expected no epub output yet")
	}
	job.SetOutput(ArtifactEPUB, "out-test/book.epub")

	key, ok := job.Output(ArtifactEPUB)
	if !ok || key != "out-test/book.epub" {
		t.Errorf("expected key %q, got %q", "out-test/book.epub", key)
	}
	snap := job.Snapshot()
	if snap.Outputs[ArtifactEPUB] != "out-test/book.epub" {
		t.Errorf("expected snapshot output, got %v", snap.Outputs)
	}
}

func TestJob_FileData(t *testing.T) {
	job := &Job{ID: "data-test"}
	data := []byte("file content here")
	job.SetFileData(data)
	got := job.FileData()
	if string(got) != string(data) {
		t.Errorf("expected file data %q, got %q", data, got)
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJob_SubscribeReplaysAndStreams(t *testing.T) {
	job := NewJob("sub-1", "b.pdf", nil)
	job.Notify("first")
	job.Notify("second")

	past, live, cancel := job.Subscribe()
	defer cancel()

	if len(past) != 2 || past[0].Message != "first" || past[1].Message != "second" {
		t.Fatalf("unexpected replay: %+v", past)
	}

	job.Notify("third")
	ev := <-live
	if ev.Message != "third" || ev.Seq != 3 {
		t.Errorf("expected third event with seq 3, got %+v", ev)
	}

	job.SetStatus(StatusCompleted, "done")
	ev = <-live
	if ev.Message != "done" || ev.Status != StatusCompleted {
		t.Errorf("expected done event, got %+v", ev)
	}
	if _, ok := <-live; ok {
		t.Error("expected channel to close after terminal status")
	}
}

func TestJob_SubscribeAfterFinish(t *testing.T) {
	job := NewJob("sub-2", "b.pdf", nil)
	job.SetStatus(StatusFailed, "rendering failed")

	past, live, cancel := job.Subscribe()
	defer cancel()
	if len(past) != 1 {
		t.Fatalf("expected 1 past event, got %d", len(past))
	}
	if _, ok := <-live; ok {
		t.Error("expected closed channel for finished job")
	}
}

func TestJob_SubscribeCancel(t *testing.T) {
	job := NewJob("sub-3", "b.pdf", nil)
	_, live, cancel := job.Subscribe()
	cancel()
	cancel()
	if _, ok := <-live; ok {
		t.Error("expected channel to close on cancel")
	}
	// Emitting after cancel must not panic.
	job.Notify("later")
	job.SetStatus(StatusCompleted, "done")
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", Status: StatusCompleted, UpdatedAt: time.Now()}
	running := &Job{ID: "running", Status: StatusRecognizing, UpdatedAt: time.Now()}
	store.Put(expired)
	store.Put(running)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := &Job{ID: "new", Status: StatusCompleted, UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
	if store.Get("running") == nil {
		t.Error("expected in-flight job to survive cleanup")
	}
	if store.Len() != 2 {
		t.Errorf("expected 2 jobs left, got %d", store.Len())
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}
