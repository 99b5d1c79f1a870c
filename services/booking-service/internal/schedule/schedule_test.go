package schedule

import (
	"context"
	"errors"
	"testing"

	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/timeofday"
)

type fakeRepo struct {
	days map[int]model.ScheduleDay
	err  error
}

func (f *fakeRepo) ListDays(context.Context, string) ([]model.ScheduleDay, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.ScheduleDay
	for _, d := range f.days {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeRepo) UpsertDay(_ context.Context, d model.ScheduleDay) (model.ScheduleDay, error) {
	if f.err != nil {
		return model.ScheduleDay{}, f.err
	}
	if f.days == nil {
		f.days = map[int]model.ScheduleDay{}
	}
	f.days[d.Weekday] = d
	return d, nil
}

func boolPtr(b bool) *bool { return &b }

func TestSetDayNormalizes(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	day, err := svc.SetDay(context.Background(), "biz", 2, []BlockInput{
		{Start: "14:00", End: "18:00", Enabled: boolPtr(false)},
		{Start: " 09:00 ", End: "12:00"},
		{Start: "", End: "13:00"},
	})
	if err != nil {
		t.Fatalf("SetDay: %v", err)
	}
	if len(day.Blocks) != 2 {
		t.Fatalf("expected blank block to be dropped, got %+v", day.Blocks)
	}
	if day.Blocks[0].Start != timeofday.MustParse("09:00") || !day.Blocks[0].Enabled {
		t.Fatalf("expected 09:00 enabled first, got %+v", day.Blocks[0])
	}
	if day.Blocks[1].Start != timeofday.MustParse("14:00") || day.Blocks[1].Enabled {
		t.Fatalf("expected 14:00 disabled second, got %+v", day.Blocks[1])
	}
	if _, ok := repo.days[2]; !ok {
		t.Fatal("expected day to be upserted")
	}
}

func TestSetDayValidation(t *testing.T) {
	svc := NewService(&fakeRepo{})
	cases := []struct {
		name    string
		weekday int
		blocks  []BlockInput
		want    error
	}{
		{name: "weekday", weekday: 7, want: ErrInvalidWeekday},
		{name: "negative weekday", weekday: -1, want: ErrInvalidWeekday},
		{name: "format", weekday: 1, blocks: []BlockInput{{Start: "9:00", End: "12:00"}}, want: ErrInvalidTimeFormat},
		{name: "range", weekday: 1, blocks: []BlockInput{{Start: "12:00", End: "12:00"}}, want: ErrInvalidBlockRange},
		{name: "overlap", weekday: 1, blocks: []BlockInput{{Start: "11:00", End: "13:00"}, {Start: "09:00", End: "12:00"}}, want: ErrOverlappingBlocks},
		{name: "format before range", weekday: 1, blocks: []BlockInput{{Start: "12:00", End: "10:00"}, {Start: "1300", End: "14:00"}}, want: ErrInvalidTimeFormat},
	}
	for _, tc := range cases {
		_, err := svc.SetDay(context.Background(), "biz", tc.weekday, tc.blocks)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestTouchingBlocksAreAllowed(t *testing.T) {
	blocks, err := Normalize([]BlockInput{{Start: "12:00", End: "15:00"}, {Start: "09:00", End: "12:00"}})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if blocks[0].End != blocks[1].Start {
		t.Fatalf("unexpected blocks %+v", blocks)
	}
}

func TestClearingADay(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	day, err := svc.SetDay(context.Background(), "biz", 0, nil)
	if err != nil || len(day.Blocks) != 0 {
		t.Fatalf("expected empty day, got %+v, %v", day, err)
	}
}

func TestWeekSynthesizesMissingDays(t *testing.T) {
	repo := &fakeRepo{days: map[int]model.ScheduleDay{
		3: {BusinessID: "biz", Weekday: 3, Blocks: []model.Block{{Start: 540, End: 720, Enabled: true}}},
	}}
	week, err := NewService(repo).Week(context.Background(), "biz")
	if err != nil {
		t.Fatalf("Week: %v", err)
	}
	for i, d := range week {
		if d.Weekday != i {
			t.Fatalf("day %d has weekday %d", i, d.Weekday)
		}
		if i == 3 && len(d.Blocks) != 1 {
			t.Fatalf("expected stored blocks on day 3")
		}
		if i != 3 && (d.Blocks == nil || len(d.Blocks) != 0) {
			t.Fatalf("expected empty non-nil blocks on day %d", i)
		}
	}

	repo.err = errors.New("db down")
	if _, err := NewService(repo).Week(context.Background(), "biz"); err == nil {
		t.Fatal("expected storage error")
	}
}
