package store

import (
	"errors"
	"reflect"
	"testing"

	"github.com/rowanvale/daybook/internal/database"
	"github.com/rowanvale/daybook/internal/model"
	"github.com/rowanvale/daybook/internal/richtext"
)

func setupScheduleTestDB(t *testing.T) (*ScheduleStore, *model.User) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// Ensure foreign keys are enforced (modernc/sqlite may not honor DSN param for :memory:)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	user, err := NewUserStore(db).Create("alice@example.com", "Alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewScheduleStore(db), user
}

func placeDoc(text string) *richtext.Doc {
	return &richtext.Doc{
		Type: "doc",
		Content: []richtext.Node{
			{Type: "paragraph", Content: []richtext.Node{{Type: "text", Text: text}}},
		},
	}
}

func TestScheduleCreateAndGetByID(t *testing.T) {
	s, user := setupScheduleTestDB(t)

	link := "https://example.com/thread/42"
	created, err := s.Create(model.NewSchedule{
		UserID:       user.ID,
		ScheduleDate: "2025-05-07",
		TimeRange:    model.TimeRange{Start: "09:00", End: "10:30"},
		Place:        placeDoc("Harbor cafe"),
		Activity:     placeDoc("Breakfast meeting"),
		CommentLink:  &link,
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	if created.ID == "" {
		t.Error("expected assigned id")
	}
	if created.UserID != user.ID {
		t.Errorf("user_id = %q, want %q", created.UserID, user.ID)
	}
	if created.ScheduleDate != "2025-05-07" {
		t.Errorf("schedule_date = %q, want 2025-05-07", created.ScheduleDate)
	}
	if created.TimeRange.Start != "09:00" || created.TimeRange.End != "10:30" {
		t.Errorf("time_range = %+v", created.TimeRange)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected assigned timestamps")
	}

	got, err := s.GetByID(user.ID, created.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if !reflect.DeepEqual(got.Place, created.Place) {
		t.Errorf("place = %#v, want %#v", got.Place, created.Place)
	}
	if !reflect.DeepEqual(got.Activity, created.Activity) {
		t.Errorf("activity = %#v, want %#v", got.Activity, created.Activity)
	}
	if got.CommentLink == nil || *got.CommentLink != link {
		t.Errorf("comment_link = %v, want %q", got.CommentLink, link)
	}
}

func TestScheduleCreateMissingRequiredFields(t *testing.T) {
	s, user := setupScheduleTestDB(t)

	_, err := s.Create(model.NewSchedule{
		UserID:       user.ID,
		ScheduleDate: "2025-05-07",
		TimeRange:    model.TimeRange{Start: "09:00"}, // no end
	})
	if err == nil {
		t.Error("expected error for missing time_range.end")
	}

	_, err = s.Create(model.NewSchedule{
		ScheduleDate: "2025-05-07",
		TimeRange:    model.TimeRange{Start: "09:00", End: "10:00"},
	})
	if err == nil {
		t.Error("expected error for missing user id")
	}
}

func TestScheduleNullPlaceAndActivity(t *testing.T) {
	s, user := setupScheduleTestDB(t)

	created, err := s.Create(model.NewSchedule{
		UserID:       user.ID,
		ScheduleDate: "2025-05-07",
		TimeRange:    model.TimeRange{Start: "09:00", End: "10:00"},
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	if created.Place != nil || created.Activity != nil || created.CommentLink != nil {
		t.Errorf("expected null place/activity/comment_link, got %+v", created)
	}
}

func TestScheduleGetByIDNotFound(t *testing.T) {
	s, user := setupScheduleTestDB(t)

	_, err := s.GetByID(user.ID, "no-such-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestScheduleGetByIDScopedToOwner(t *testing.T) {
	s, user := setupScheduleTestDB(t)

	created, err := s.Create(model.NewSchedule{
		UserID:       user.ID,
		ScheduleDate: "2025-05-07",
		TimeRange:    model.TimeRange{Start: "09:00", End: "10:00"},
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}

	// Another user must not be able to read the row by id.
	if _, err := s.GetByID("someone-else", created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user get err = %v, want ErrNotFound", err)
	}
}

func TestScheduleListDateRange(t *testing.T) {
	s, user := setupScheduleTestDB(t)

	mk := func(date string) {
		t.Helper()
		_, err := s.Create(model.NewSchedule{
			UserID:       user.ID,
			ScheduleDate: date,
			TimeRange:    model.TimeRange{Start: "09:00", End: "10:00"},
		})
		if err != nil {
			t.Fatalf("create schedule for %s: %v", date, err)
		}
	}
	mk("2025-05-07")
	mk("2025-05-08")

	got, err := s.List(user.ID, model.ScheduleQueryParams{StartDate: "2025-05-07", EndDate: "2025-05-07"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d schedules, want 1", len(got))
	}
	if got[0].ScheduleDate != "2025-05-07" {
		t.Errorf("schedule_date = %q, want 2025-05-07", got[0].ScheduleDate)
	}
}

func TestScheduleListOrderAndPagination(t *testing.T) {
	s, user := setupScheduleTestDB(t)

	for _, date := range []string{"2025-05-09", "2025-05-07", "2025-05-08"} {
		_, err := s.Create(model.NewSchedule{
			UserID:       user.ID,
			ScheduleDate: date,
			TimeRange:    model.TimeRange{Start: "09:00", End: "10:00"},
		})
		if err != nil {
			t.Fatalf("create schedule: %v", err)
		}
	}

	all, err := s.List(user.ID, model.ScheduleQueryParams{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d schedules, want 3", len(all))
	}
	for i, want := range []string{"2025-05-07", "2025-05-08", "2025-05-09"} {
		if all[i].ScheduleDate != want {
			t.Errorf("all[%d].schedule_date = %q, want %q", i, all[i].ScheduleDate, want)
		}
	}

	page, err := s.List(user.ID, model.ScheduleQueryParams{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 1 || page[0].ScheduleDate != "2025-05-08" {
		t.Errorf("page = %+v, want single 2025-05-08 entry", page)
	}
}

func TestScheduleListScopedToOwner(t *testing.T) {
	s, user := setupScheduleTestDB(t)

	_, err := s.Create(model.NewSchedule{
		UserID:       user.ID,
		ScheduleDate: "2025-05-07",
		TimeRange:    model.TimeRange{Start: "09:00", End: "10:00"},
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}

	got, err := s.List("someone-else", model.ScheduleQueryParams{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d schedules for other user, want 0", len(got))
	}
}

func TestScheduleUpdatePartial(t *testing.T) {
	s, user := setupScheduleTestDB(t)

	link := "https://example.com/notes"
	created, err := s.Create(model.NewSchedule{
		UserID:       user.ID,
		ScheduleDate: "2025-05-07",
		TimeRange:    model.TimeRange{Start: "09:00", End: "10:00"},
		Place:        placeDoc("Old place"),
		CommentLink:  &link,
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}

	newEnd := "11:00"
	updated, err := s.Update(user.ID, created.ID, model.UpdateSchedule{TimeEnd: &newEnd})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.TimeRange.End != "11:00" {
		t.Errorf("time_end = %q, want 11:00", updated.TimeRange.End)
	}
	// Untouched fields survive.
	if updated.TimeRange.Start != "09:00" || updated.ScheduleDate != "2025-05-07" {
		t.Errorf("unrelated fields changed: %+v", updated)
	}
	if updated.Place == nil || updated.Place.PlainText() != "Old place" {
		t.Errorf("place changed: %#v", updated.Place)
	}
	if updated.CommentLink == nil || *updated.CommentLink != link {
		t.Errorf("comment_link changed: %v", updated.CommentLink)
	}
}

func TestScheduleUpdateClearsPlace(t *testing.T) {
	s, user := setupScheduleTestDB(t)

	created, err := s.Create(model.NewSchedule{
		UserID:       user.ID,
		ScheduleDate: "2025-05-07",
		TimeRange:    model.TimeRange{Start: "09:00", End: "10:00"},
		Place:        placeDoc("Old place"),
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}

	updated, err := s.Update(user.ID, created.ID, model.UpdateSchedule{PlaceSet: true, Place: nil})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Place != nil {
		t.Errorf("place = %#v, want nil", updated.Place)
	}
}

func TestScheduleUpdateNotFound(t *testing.T) {
	s, user := setupScheduleTestDB(t)

	date := "2025-05-08"
	_, err := s.Update(user.ID, "no-such-id", model.UpdateSchedule{ScheduleDate: &date})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestScheduleDeleteIdempotence(t *testing.T) {
	s, user := setupScheduleTestDB(t)

	created, err := s.Create(model.NewSchedule{
		UserID:       user.ID,
		ScheduleDate: "2025-05-07",
		TimeRange:    model.TimeRange{Start: "09:00", End: "10:00"},
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}

	if err := s.Delete(user.ID, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetByID(user.ID, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete err = %v, want ErrNotFound", err)
	}

	// Second delete fails cleanly with NotFound.
	if err := s.Delete(user.ID, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}
