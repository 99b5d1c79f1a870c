// Package schedule validates and stores the weekly opening hours of a business.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/timeofday"
)

var (
	ErrInvalidWeekday    = errors.New("weekday must be between 0 and 6")
	ErrInvalidTimeFormat = errors.New("invalid time format (HH:MM)")
	ErrInvalidBlockRange = errors.New("block start must be before its end")
	ErrOverlappingBlocks = errors.New("blocks must not overlap")
)

type Repository interface {
	ListDays(ctx context.Context, businessID string) ([]model.ScheduleDay, error)
	UpsertDay(ctx context.Context, day model.ScheduleDay) (model.ScheduleDay, error)
}

// BlockInput is an unvalidated block as submitted by the owner.
// A nil Enabled means enabled.
type BlockInput struct {
	Start   string
	End     string
	Enabled *bool
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Week returns the seven days Sunday..Saturday. Days never configured come back with no blocks.
func (s *Service) Week(ctx context.Context, businessID string) ([7]model.ScheduleDay, error) {
	var week [7]model.ScheduleDay
	for i := range week {
		week[i] = model.ScheduleDay{BusinessID: businessID, Weekday: i, Blocks: []model.Block{}}
	}
	days, err := s.repo.ListDays(ctx, businessID)
	if err != nil {
		return week, fmt.Errorf("list schedule days: %w", err)
	}
	for _, d := range days {
		if d.Weekday < 0 || d.Weekday > 6 {
			continue
		}
		if d.Blocks == nil {
			d.Blocks = []model.Block{}
		}
		week[d.Weekday] = d
	}
	return week, nil
}

// SetDay replaces the blocks of one weekday.
func (s *Service) SetDay(ctx context.Context, businessID string, weekday int, in []BlockInput) (model.ScheduleDay, error) {
	if weekday < 0 || weekday > 6 {
		return model.ScheduleDay{}, ErrInvalidWeekday
	}
	blocks, err := Normalize(in)
	if err != nil {
		return model.ScheduleDay{}, err
	}
	day, err := s.repo.UpsertDay(ctx, model.ScheduleDay{BusinessID: businessID, Weekday: weekday, Blocks: blocks})
	if err != nil {
		return model.ScheduleDay{}, fmt.Errorf("upsert schedule day: %w", err)
	}
	return day, nil
}

// Normalize validates blocks and returns them sorted by start. Blocks with a
// blank start or end are dropped before validation.
func Normalize(in []BlockInput) ([]model.Block, error) {
	type raw struct {
		start, end string
		enabled    bool
	}
	kept := make([]raw, 0, len(in))
	for _, b := range in {
		start, end := strings.TrimSpace(b.Start), strings.TrimSpace(b.End)
		if start == "" || end == "" {
			continue
		}
		kept = append(kept, raw{start: start, end: end, enabled: b.Enabled == nil || *b.Enabled})
	}

	blocks := make([]model.Block, 0, len(kept))
	for _, b := range kept {
		start, err1 := timeofday.ParseHHMM(b.start)
		end, err2 := timeofday.ParseHHMM(b.end)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: %s-%s", ErrInvalidTimeFormat, b.start, b.end)
		}
		blocks = append(blocks, model.Block{Start: start, End: end, Enabled: b.enabled})
	}
	for _, b := range blocks {
		if b.Start >= b.End {
			return nil, fmt.Errorf("%w: %s", ErrInvalidBlockRange, b.Interval())
		}
	}

	SortBlocks(blocks)
	for i := 1; i < len(blocks); i++ {
		if blocks[i].Start < blocks[i-1].End {
			return nil, fmt.Errorf("%w: %s and %s", ErrOverlappingBlocks, blocks[i-1].Interval(), blocks[i].Interval())
		}
	}
	return blocks, nil
}

func SortBlocks(blocks []model.Block) {
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Start < blocks[j].Start })
}
