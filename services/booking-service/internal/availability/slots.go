package availability

import (
	"sort"

	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/timeofday"
)

// Slot is a bookable [Start, End) window.
type Slot struct {
	Start timeofday.Minutes `json:"startTime"`
	End   timeofday.Minutes `json:"endTime"`
}

// NoCutoff disables the same-day past-slot filter.
const NoCutoff timeofday.Minutes = -1

// Walk tiles each enabled block with back-to-back slots of duration minutes,
// dropping slots that start before notBefore or overlap a busy interval.
// A slot already under way at notBefore is not offered.
// A trailing remainder shorter than duration is never offered.
func Walk(blocks []model.Block, duration int, busy []timeofday.Interval, notBefore timeofday.Minutes) []Slot {
	if duration <= 0 {
		return nil
	}
	sorted := make([]model.Block, len(blocks))
	copy(sorted, blocks)
	sortBlocks(sorted)

	var slots []Slot
	for _, b := range sorted {
		if !b.Enabled {
			continue
		}
		for cursor := b.Start; cursor.Add(duration) <= b.End; cursor = cursor.Add(duration) {
			if cursor < notBefore {
				continue
			}
			candidate := timeofday.Interval{Start: cursor, End: cursor.Add(duration)}
			if overlapsAny(candidate, busy) {
				continue
			}
			slots = append(slots, Slot{Start: candidate.Start, End: candidate.End})
		}
	}
	return slots
}

func overlapsAny(iv timeofday.Interval, busy []timeofday.Interval) bool {
	for _, b := range busy {
		if iv.Overlaps(b) {
			return true
		}
	}
	return false
}

// Fits reports whether iv lies entirely inside one enabled block.
func Fits(blocks []model.Block, iv timeofday.Interval) bool {
	for _, b := range blocks {
		if b.Enabled && b.Interval().Contains(iv) {
			return true
		}
	}
	return false
}

// Conflicts reports whether iv overlaps an active appointment other than excludeID.
func Conflicts(appts []model.Appointment, iv timeofday.Interval, excludeID string) bool {
	for _, a := range appts {
		if excludeID != "" && a.ID == excludeID {
			continue
		}
		if !a.Status.IsActive() {
			continue
		}
		if iv.Overlaps(a.Interval()) {
			return true
		}
	}
	return false
}

func sortBlocks(blocks []model.Block) {
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Start < blocks[j].Start })
}
