package tracker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/emotrack/internal/calendar"
	"github.com/kalambet/emotrack/internal/storage"
)

// RecordStore defines the storage operations the Journal needs.
// Implemented by storage.Store.
type RecordStore interface {
	GetRecordByDay(day string) (storage.DayRecord, error)
	CreateRecordIfAbsent(r storage.DayRecord) error
	SaveRecord(r storage.DayRecord) error
	ListRecords() ([]storage.DayRecord, error)
	ListRecordsBetween(fromDay, toDay string) ([]storage.DayRecord, error)
	DeleteRecord(id string) error
}

// Journal stores one DailyRecord per calendar day of its Calendar. Writes
// are serialized so concurrent edits of one day never drop each other.
type Journal struct {
	mu    sync.Mutex
	store RecordStore
	cal   calendar.Calendar
	newID func() string
}

func NewJournal(store RecordStore, cal calendar.Calendar) *Journal {
	return &Journal{store: store, cal: cal, newID: uuid.NewString}
}

// Calendar returns the calendar records are keyed by.
func (j *Journal) Calendar() calendar.Calendar {
	return j.cal
}

// GetForDate returns the record of the day date falls on, or nil if there is none.
func (j *Journal) GetForDate(date time.Time) (*DailyRecord, error) {
	key := j.cal.DayKey(date)
	row, err := j.store.GetRecordByDay(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading record for %s: %w", key, err)
	}
	rec, err := j.fromRow(row)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetOrCreate returns the record of the day date falls on, creating and
// persisting an empty one first if needed.
func (j *Journal) GetOrCreate(date time.Time) (*DailyRecord, error) {
	key := j.cal.DayKey(date)
	now := j.cal.Now()
	err := j.store.CreateRecordIfAbsent(storage.DayRecord{
		ID:        j.newID(),
		Day:       key,
		Scores:    map[string]int{},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("creating record for %s: %w", key, err)
	}
	rec, err := j.GetForDate(date)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("record for %s missing after create", key)
	}
	return rec, nil
}

func (j *Journal) GetOrCreateToday() (*DailyRecord, error) {
	return j.GetOrCreate(j.cal.Now())
}

// ListAll returns every record, most recent first.
func (j *Journal) ListAll() ([]DailyRecord, error) {
	rows, err := j.store.ListRecords()
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return j.fromRows(rows)
}

// ListInRange returns records from start's calendar day through end's
// calendar day inclusive, most recent first.
func (j *Journal) ListInRange(start, end time.Time) ([]DailyRecord, error) {
	from, to := j.cal.DayKey(start), j.cal.DayKey(end)
	rows, err := j.store.ListRecordsBetween(from, to)
	if err != nil {
		return nil, fmt.Errorf("listing records %s..%s: %w", from, to, err)
	}
	return j.fromRows(rows)
}

// Save persists rec as is. Callers update UpdatedAt through the record's
// own mutators before saving.
func (j *Journal) Save(rec DailyRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.save(rec)
}

func (j *Journal) save(rec DailyRecord) error {
	row := storage.DayRecord{
		ID:        rec.ID,
		Day:       j.cal.DayKey(rec.Date),
		Scores:    rec.Scores,
		Notes:     rec.Notes,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if err := j.store.SaveRecord(row); err != nil {
		return fmt.Errorf("saving record %s: %w", rec.ID, err)
	}
	return nil
}

// Delete removes the record with the given identity. Deleting a record that
// no longer exists is a no-op.
func (j *Journal) Delete(id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	err := j.store.DeleteRecord(id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}
	return nil
}

// SetScore records score for factorID on the day date falls on.
func (j *Journal) SetScore(date time.Time, factorID string, score int) (*DailyRecord, error) {
	return j.mutate(date, func(rec *DailyRecord, now time.Time) {
		rec.SetScore(factorID, score, now)
	})
}

// ClearScore removes the score for factorID on the day date falls on.
func (j *Journal) ClearScore(date time.Time, factorID string) (*DailyRecord, error) {
	return j.mutate(date, func(rec *DailyRecord, now time.Time) {
		rec.ClearScore(factorID, now)
	})
}

func (j *Journal) SetNotes(date time.Time, notes string) (*DailyRecord, error) {
	return j.mutate(date, func(rec *DailyRecord, now time.Time) {
		rec.SetNotes(notes, now)
	})
}

// mutate holds the write lock from the read through the save.
func (j *Journal) mutate(date time.Time, fn func(rec *DailyRecord, now time.Time)) (*DailyRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	rec, err := j.GetOrCreate(date)
	if err != nil {
		return nil, err
	}
	fn(rec, j.cal.Now())
	if err := j.save(*rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (j *Journal) fromRows(rows []storage.DayRecord) ([]DailyRecord, error) {
	records := make([]DailyRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := j.fromRow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (j *Journal) fromRow(row storage.DayRecord) (DailyRecord, error) {
	date, err := j.cal.ParseDayKey(row.Day)
	if err != nil {
		return DailyRecord{}, err
	}
	scores := row.Scores
	if scores == nil {
		scores = make(map[string]int)
	}
	return DailyRecord{
		ID:        row.ID,
		Date:      date,
		Scores:    scores,
		Notes:     row.Notes,
		CreatedAt: row.CreatedAt.In(j.cal.Location()),
		UpdatedAt: row.UpdatedAt.In(j.cal.Location()),
	}, nil
}
