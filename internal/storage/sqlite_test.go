package storage

import (
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

// TestMigrationsOrdered verifies migrations are applied in ascending numeric order.
func TestMigrationsOrdered(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(versions) != 2 {
		t.Fatalf("applied migrations = %v, want 2", versions)
	}

	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Errorf("migrations not in ascending order: %v", versions)
			break
		}
	}
}

// TestIndexesExist verifies that the migrations create the expected indexes.
func TestIndexesExist(t *testing.T) {
	s := openTestStore(t)

	indexes := []string{"idx_factors_sort_order", "idx_jobs_status_run_after", "idx_jobs_type_status"}
	for _, idx := range indexes {
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&count)
		if err != nil {
			t.Fatalf("querying sqlite_master for %q: %v", idx, err)
		}
		if count != 1 {
			t.Errorf("index %q not found in sqlite_master", idx)
		}
	}
}

func TestFactorsOrderedBySortOrderThenInsertion(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC()

	for _, f := range []Factor{
		{ID: "c", Name: "Third", SortOrder: 2, IsActive: true, CreatedAt: now},
		{ID: "a", Name: "First", SortOrder: 0, IsActive: true, CreatedAt: now},
		{ID: "b2", Name: "Tie later", SortOrder: 1, IsActive: true, CreatedAt: now},
		{ID: "b1", Name: "Tie earlier?", SortOrder: 1, IsActive: false, CreatedAt: now},
	} {
		if err := s.InsertFactor(f); err != nil {
			t.Fatalf("InsertFactor(%s): %v", f.ID, err)
		}
	}

	got, err := s.ListFactors()
	if err != nil {
		t.Fatalf("ListFactors: %v", err)
	}
	want := []string{"a", "b2", "b1", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %d factors, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("factor[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
	if got[2].IsActive {
		t.Error("b1 should be inactive")
	}
}

func TestUpdateAndDeleteFactor(t *testing.T) {
	s := openTestStore(t)
	f := Factor{ID: "f1", Name: "Stress", SortOrder: 0, IsCustom: true, IsActive: true, CreatedAt: time.Now()}
	if err := s.InsertFactor(f); err != nil {
		t.Fatalf("InsertFactor: %v", err)
	}

	f.Name = "Work stress"
	f.IsActive = false
	if err := s.UpdateFactor(f); err != nil {
		t.Fatalf("UpdateFactor: %v", err)
	}
	got, err := s.GetFactor("f1")
	if err != nil {
		t.Fatalf("GetFactor: %v", err)
	}
	if got.Name != "Work stress" || got.IsActive || !got.IsCustom {
		t.Errorf("got %+v after update", got)
	}

	if err := s.DeleteFactor("f1"); err != nil {
		t.Fatalf("DeleteFactor: %v", err)
	}
	if err := s.DeleteFactor("f1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteFactor error = %v, want ErrNotFound", err)
	}
	if err := s.UpdateFactor(f); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateFactor on missing = %v, want ErrNotFound", err)
	}
	if _, err := s.GetFactor("f1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetFactor on missing = %v, want ErrNotFound", err)
	}
}

func TestSeedFactorsRunsOnce(t *testing.T) {
	s := openTestStore(t)
	seed := []Factor{
		{ID: "s1", Name: "One", SortOrder: 0, IsActive: true, CreatedAt: time.Now()},
		{ID: "s2", Name: "Two", SortOrder: 1, IsActive: true, CreatedAt: time.Now()},
	}

	seeded, err := s.SeedFactors(seed, "factors.seeded")
	if err != nil {
		t.Fatalf("SeedFactors: %v", err)
	}
	if !seeded {
		t.Fatal("first SeedFactors should seed")
	}

	// Even after the table is emptied, the flag prevents reseeding.
	for _, f := range seed {
		if err := s.DeleteFactor(f.ID); err != nil {
			t.Fatalf("DeleteFactor: %v", err)
		}
	}
	seeded, err = s.SeedFactors([]Factor{{ID: "s3", Name: "Three", CreatedAt: time.Now()}}, "factors.seeded")
	if err != nil {
		t.Fatalf("second SeedFactors: %v", err)
	}
	if seeded {
		t.Error("second SeedFactors should be a no-op")
	}
	factors, err := s.ListFactors()
	if err != nil {
		t.Fatalf("ListFactors: %v", err)
	}
	if len(factors) != 0 {
		t.Errorf("got %d factors, want 0", len(factors))
	}
}

func TestSeedFactorsSkipsNonEmptyTable(t *testing.T) {
	s := openTestStore(t)
	if err := s.InsertFactor(Factor{ID: "existing", Name: "Existing", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("InsertFactor: %v", err)
	}
	seeded, err := s.SeedFactors([]Factor{{ID: "s1", Name: "One", CreatedAt: time.Now()}}, "factors.seeded")
	if err != nil {
		t.Fatalf("SeedFactors: %v", err)
	}
	if seeded {
		t.Error("SeedFactors should not seed a non-empty table")
	}
	if _, err := s.GetSetting("factors.seeded"); err != nil {
		t.Errorf("seed flag should be set: %v", err)
	}
}

func newRecord(id, day string, scores map[string]int) DayRecord {
	now := time.Now().UTC()
	return DayRecord{ID: id, Day: day, Scores: scores, CreatedAt: now, UpdatedAt: now}
}

func TestSaveAndGetRecord(t *testing.T) {
	s := openTestStore(t)

	r := newRecord("r1", "2026-10-01", map[string]int{"f1": 3, "f2": 10})
	r.Notes = "slept badly"
	if err := s.SaveRecord(r); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	got, err := s.GetRecordByDay("2026-10-01")
	if err != nil {
		t.Fatalf("GetRecordByDay: %v", err)
	}
	if got.ID != "r1" || got.Notes != "slept badly" {
		t.Errorf("got %+v", got)
	}
	if got.Scores["f1"] != 3 || got.Scores["f2"] != 10 || len(got.Scores) != 2 {
		t.Errorf("scores = %v", got.Scores)
	}
	if !got.UpdatedAt.Equal(r.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, r.UpdatedAt)
	}

	r.Scores["f1"] = 4
	r.UpdatedAt = r.UpdatedAt.Add(time.Minute)
	if err := s.SaveRecord(r); err != nil {
		t.Fatalf("SaveRecord update: %v", err)
	}
	got, err = s.GetRecordByDay("2026-10-01")
	if err != nil {
		t.Fatalf("GetRecordByDay: %v", err)
	}
	if got.Scores["f1"] != 4 {
		t.Errorf("f1 = %d, want 4", got.Scores["f1"])
	}
	if !got.UpdatedAt.Equal(r.UpdatedAt) {
		t.Errorf("UpdatedAt not updated: %v", got.UpdatedAt)
	}
}

func TestSaveRecordRejectsOutOfRangeScores(t *testing.T) {
	s := openTestStore(t)
	for _, v := range []int{0, 11, -3} {
		r := newRecord("bad", "2026-10-02", map[string]int{"f1": v})
		if err := s.SaveRecord(r); err == nil {
			t.Errorf("SaveRecord with score %d: expected error", v)
		}
	}
}

func TestCreateRecordIfAbsentKeepsFirst(t *testing.T) {
	s := openTestStore(t)

	if err := s.CreateRecordIfAbsent(newRecord("first", "2026-10-03", nil)); err != nil {
		t.Fatalf("CreateRecordIfAbsent: %v", err)
	}
	if err := s.CreateRecordIfAbsent(newRecord("second", "2026-10-03", nil)); err != nil {
		t.Fatalf("CreateRecordIfAbsent (dup): %v", err)
	}

	got, err := s.GetRecordByDay("2026-10-03")
	if err != nil {
		t.Fatalf("GetRecordByDay: %v", err)
	}
	if got.ID != "first" {
		t.Errorf("ID = %q, want first", got.ID)
	}
	if got.Scores == nil || len(got.Scores) != 0 {
		t.Errorf("scores = %v, want empty map", got.Scores)
	}

	all, err := s.ListRecords()
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("got %d records, want 1", len(all))
	}
}

func TestListRecordsBetweenInclusiveDescending(t *testing.T) {
	s := openTestStore(t)
	for i, day := range []string{"2026-09-30", "2026-10-01", "2026-10-05", "2026-10-07", "2026-10-08"} {
		if err := s.SaveRecord(newRecord(string(rune('a'+i)), day, nil)); err != nil {
			t.Fatalf("SaveRecord(%s): %v", day, err)
		}
	}

	got, err := s.ListRecordsBetween("2026-10-01", "2026-10-07")
	if err != nil {
		t.Fatalf("ListRecordsBetween: %v", err)
	}
	want := []string{"2026-10-07", "2026-10-05", "2026-10-01"}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i, day := range want {
		if got[i].Day != day {
			t.Errorf("record[%d].Day = %s, want %s", i, got[i].Day, day)
		}
	}

	all, err := s.ListRecords()
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if all[0].Day != "2026-10-08" || all[len(all)-1].Day != "2026-09-30" {
		t.Errorf("ListRecords not descending: first=%s last=%s", all[0].Day, all[len(all)-1].Day)
	}
}

func TestDeleteRecord(t *testing.T) {
	s := openTestStore(t)
	if err := s.SaveRecord(newRecord("r1", "2026-10-01", nil)); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	if err := s.DeleteRecord("r1"); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if err := s.DeleteRecord("r1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteRecord = %v, want ErrNotFound", err)
	}
	if _, err := s.GetRecordByDay("2026-10-01"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRecordByDay after delete = %v, want ErrNotFound", err)
	}
}

func TestSettings(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetSetting("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSetting(missing) = %v, want ErrNotFound", err)
	}
	if err := s.SetSetting("notificationSettings", `{"isEnabled":true}`); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := s.SetSetting("notificationSettings", `{"isEnabled":false}`); err != nil {
		t.Fatalf("SetSetting overwrite: %v", err)
	}
	v, err := s.GetSetting("notificationSettings")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if v != `{"isEnabled":false}` {
		t.Errorf("value = %q", v)
	}
}

func TestJobLifecycle(t *testing.T) {
	s := openTestStore(t)

	if err := s.ReplacePendingJobs("daily_reminder", Job{ID: "j1", Type: "daily_reminder", PayloadJSON: "{}", MaxAttempts: 2}); err != nil {
		t.Fatalf("ReplacePendingJobs: %v", err)
	}

	job, err := s.ClaimNextJob([]string{"other"})
	if err != nil || job != nil {
		t.Fatalf("ClaimNextJob(other) = %v, %v; want nil, nil", job, err)
	}

	job, err = s.ClaimNextJob([]string{"daily_reminder"})
	if err != nil {
		t.Fatalf("ClaimNextJob: %v", err)
	}
	if job == nil || job.ID != "j1" || job.Status != JobRunning {
		t.Fatalf("claimed %+v", job)
	}

	if err := s.FailJob("j1", "boom"); err != nil {
		t.Fatalf("FailJob: %v", err)
	}
	got, err := s.GetJob("j1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != JobPending || got.Attempts != 1 || got.LastError != "boom" {
		t.Errorf("after first failure: %+v", got)
	}
	if !got.RunAfter.After(time.Now().Add(-time.Second)) {
		t.Errorf("RunAfter should be pushed into the future, got %v", got.RunAfter)
	}

	if err := s.FailJob("j1", "boom again"); err != nil {
		t.Fatalf("FailJob: %v", err)
	}
	got, _ = s.GetJob("j1")
	if got.Status != JobFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}

	if err := s.CompleteJob("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("CompleteJob(missing) = %v, want ErrNotFound", err)
	}
}

func TestReplaceAndCancelPendingJobs(t *testing.T) {
	s := openTestStore(t)
	later := time.Now().Add(time.Hour)

	if err := s.ReplacePendingJobs("daily_reminder", Job{ID: "old", Type: "daily_reminder", PayloadJSON: "{}", RunAfter: later}); err != nil {
		t.Fatalf("ReplacePendingJobs: %v", err)
	}
	if err := s.ReplacePendingJobs("other", Job{ID: "unrelated", Type: "other", PayloadJSON: "{}", RunAfter: later}); err != nil {
		t.Fatalf("ReplacePendingJobs: %v", err)
	}

	if err := s.ReplacePendingJobs("daily_reminder", Job{ID: "new", Type: "daily_reminder", PayloadJSON: "{}", RunAfter: later}); err != nil {
		t.Fatalf("ReplacePendingJobs: %v", err)
	}

	next, err := s.NextPendingJob("daily_reminder")
	if err != nil {
		t.Fatalf("NextPendingJob: %v", err)
	}
	if next == nil || next.ID != "new" {
		t.Fatalf("next = %+v, want new", next)
	}
	if _, err := s.GetJob("old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old job should be gone, got %v", err)
	}

	n, err := s.CancelPendingJobs("daily_reminder")
	if err != nil {
		t.Fatalf("CancelPendingJobs: %v", err)
	}
	if n != 1 {
		t.Errorf("cancelled %d, want 1", n)
	}
	next, err = s.NextPendingJob("daily_reminder")
	if err != nil || next != nil {
		t.Errorf("NextPendingJob after cancel = %v, %v", next, err)
	}
	if _, err := s.GetJob("unrelated"); err != nil {
		t.Errorf("unrelated job should survive: %v", err)
	}
}
