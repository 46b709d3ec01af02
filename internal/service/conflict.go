package service

import (
	"strconv"
	"strings"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
)

// Pure conflict predicates shared by the slot mapper and the invigilator
// assigner. They never touch storage; callers load the relevant mapping
// slots first and evaluate before any write.

// parseClock converts a zero-padded "HH:MM" string to minutes since
// midnight. Malformed input yields -1 so it never overlaps anything.
func parseClock(raw string) int {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return -1
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return -1
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return -1
	}
	return hours*60 + minutes
}

// intervalsOverlap applies the half-open overlap test a.start < b.end && b.start < a.end.
func intervalsOverlap(aStart, aEnd, bStart, bEnd int) bool {
	if aStart < 0 || aEnd < 0 || bStart < 0 || bEnd < 0 {
		return false
	}
	return aStart < bEnd && bStart < aEnd
}

// sessionsOverlap reports whether two sessions share any sub-interval on the
// same calendar date.
func sessionsOverlap(a, b models.ExamSession) bool {
	if !a.SameDate(b) {
		return false
	}
	return intervalsOverlap(parseClock(a.StartTime), parseClock(a.EndTime), parseClock(b.StartTime), parseClock(b.EndTime))
}

// slotOverlapsSession reports whether a committed mapping slot collides in
// time with the candidate session.
func slotOverlapsSession(slot models.MappingSlot, session models.ExamSession) bool {
	if slot.Date.Format("2006-01-02") != session.Date.Format("2006-01-02") {
		return false
	}
	return intervalsOverlap(
		parseClock(slot.StartTime), parseClock(slot.EndTime),
		parseClock(session.StartTime), parseClock(session.EndTime),
	)
}

// roomIsFree reports whether the room has no time-overlapping mapping among
// the supplied slots. A mapping may be excluded by ID, which lets a move
// ignore the mapping being relocated.
func roomIsFree(roomID string, session models.ExamSession, slots []models.MappingSlot, excludeMappingID string) bool {
	for _, slot := range slots {
		if slot.RoomID != roomID {
			continue
		}
		if excludeMappingID != "" && slot.MappingID == excludeMappingID {
			continue
		}
		if slotOverlapsSession(slot, session) {
			return false
		}
	}
	return true
}

// teacherIsFree reports whether the teacher holds no invigilator role in any
// time-overlapping mapping among the supplied slots.
func teacherIsFree(teacherID string, session models.ExamSession, slots []models.MappingSlot) bool {
	for _, slot := range slots {
		if !slotOverlapsSession(slot, session) {
			continue
		}
		if slot.MainTeacherID != nil && *slot.MainTeacherID == teacherID {
			return false
		}
		if slot.AssistantTeacherID != nil && *slot.AssistantTeacherID == teacherID {
			return false
		}
	}
	return true
}
