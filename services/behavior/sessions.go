package behavior

import (
	"time"
)

// Session is one planned contiguous block of sends inside the
// business-hours window.
type Session struct {
	Start      time.Time `json:"start"`
	EmailCount int       `json:"emailCount"`
	GapMinutes int       `json:"gapMinutes"`
}

func (s Session) Duration() time.Duration {
	return time.Duration(s.EmailCount*s.GapMinutes) * time.Minute
}

func (s Session) End() time.Time {
	return s.Start.Add(s.Duration())
}

// PlanDailySessions distributes up to dailyLimit emails across at most
// sessionCount non-overlapping sessions with randomized offsets inside
// the sending window of the given day. The sum of per-session counts
// never exceeds dailyLimit and every session fits inside the window.
func (s *Service) PlanDailySessions(day time.Time, sessionCount, dailyLimit int) []Session {
	windowMinutes := (s.cfg.SendingHourEnd - s.cfg.SendingHourStart) * 60
	if windowMinutes <= 0 || sessionCount <= 0 || dailyLimit <= 0 {
		return nil
	}

	type draft struct {
		count int
		gap   int
	}

	remaining := dailyLimit
	drafts := make([]draft, 0, sessionCount)
	busyMinutes := 0
	for i := 0; i < sessionCount && remaining > 0; i++ {
		maxCount := s.cfg.SessionEmailsMax
		if maxCount > remaining {
			maxCount = remaining
		}
		count := maxCount
		if maxCount > s.cfg.SessionEmailsMin {
			count = s.randIntBetween(s.cfg.SessionEmailsMin, maxCount)
		}
		gap := s.randIntBetween(s.cfg.MinMinutesBetweenEmails, s.cfg.MaxMinutesBetweenEmails)
		drafts = append(drafts, draft{count: count, gap: gap})
		remaining -= count
		busyMinutes += count * gap
	}

	// Split the idle time into slots around the sessions, jittered so
	// the plan never looks mechanical. Offsets stay non-negative, which
	// keeps sessions ordered and non-overlapping by construction.
	freeMinutes := windowMinutes - busyMinutes
	if freeMinutes < 0 {
		freeMinutes = 0
	}
	slot := freeMinutes / (len(drafts) + 1)
	jitterRange := int(float64(slot) * 0.4)

	day = day.In(s.loc)
	cursor := time.Date(day.Year(), day.Month(), day.Day(), s.cfg.SendingHourStart, 0, 0, 0, s.loc)
	windowEnd := time.Date(day.Year(), day.Month(), day.Day(), s.cfg.SendingHourEnd, 0, 0, 0, s.loc)

	sessions := make([]Session, 0, len(drafts))
	for _, d := range drafts {
		offset := slot
		if jitterRange > 0 {
			offset += s.randIntBetween(-jitterRange, jitterRange)
		}
		cursor = cursor.Add(time.Duration(offset) * time.Minute)

		session := Session{Start: cursor, EmailCount: d.count, GapMinutes: d.gap}
		if !session.Start.Before(windowEnd) || session.End().After(windowEnd) {
			break
		}
		sessions = append(sessions, session)
		cursor = session.End()
	}

	return sessions
}

// IsWithinSession reports whether t falls inside any planned session.
func IsWithinSession(t time.Time, sessions []Session) bool {
	for _, session := range sessions {
		if !t.Before(session.Start) && t.Before(session.End()) {
			return true
		}
	}
	return false
}

// NextSessionStart returns the start of the next session after t, if
// one remains today.
func NextSessionStart(t time.Time, sessions []Session) (time.Time, bool) {
	for _, session := range sessions {
		if session.Start.After(t) {
			return session.Start, true
		}
	}
	return time.Time{}, false
}
