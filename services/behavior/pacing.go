package behavior

import (
	"math"
	"time"
)

// jitterFloorMinutes is the hard lower bound on any jittered cooldown.
const jitterFloorMinutes = 5

// timeOfDayMultipliers stretches cooldowns during low-engagement hours.
// Hours outside the map use 1.0.
var timeOfDayMultipliers = map[int]float64{
	7:  1.0,
	8:  1.0,
	9:  1.0,
	10: 1.05,
	11: 1.05,
	12: 1.15,
	13: 1.1,
	14: 1.0,
	15: 1.0,
	16: 1.05,
	17: 1.1,
	18: 1.15,
}

func TimeOfDayMultiplier(hour int) float64 {
	if m, ok := timeOfDayMultipliers[hour]; ok {
		return m
	}
	return 1.0
}

// ApplyJitter draws from a normal distribution centered on the base
// with a sigma proportional to pct, floored so two sends are never
// mechanically close together.
func (s *Service) ApplyJitter(baseMinutes int, pct float64) int {
	sigma := float64(baseMinutes) * pct / 2
	jittered := s.randNorm()*sigma + float64(baseMinutes)

	minutes := int(math.Round(jittered))
	if minutes < jitterFloorMinutes {
		return jitterFloorMinutes
	}
	return minutes
}

// HumanCooldownMinutes is the baseline pacing draw: a random wait in
// the configured band, stretched by the time-of-day multiplier, then
// jittered.
func (s *Service) HumanCooldownMinutes(at time.Time) int {
	base := s.randIntBetween(s.cfg.MinMinutesBetweenEmails, s.cfg.MaxMinutesBetweenEmails)
	adjusted := float64(base) * TimeOfDayMultiplier(at.In(s.loc).Hour())
	return s.ApplyJitter(int(math.Round(adjusted)), s.cfg.CooldownJitterPct)
}

func (s *Service) ShouldSkipSend() bool {
	return s.randFloat() < s.cfg.SkipSendProbability
}

// ReplyPause is how long an identity stays quiet after a detected
// reply, 30 to 90 minutes.
func (s *Service) ReplyPause() time.Duration {
	return time.Duration(s.randIntBetween(30, 90)) * time.Minute
}

// BounceSlowdownMultiplier is a non-decreasing step function of the
// recent bounce rate. It is applied on top of whatever pacing the
// controller chose, so deliverability safety wins over catch-up speed.
func BounceSlowdownMultiplier(bounceRate float64) float64 {
	switch {
	case bounceRate >= 0.10:
		return 3.0
	case bounceRate >= 0.05:
		return 2.0
	case bounceRate >= 0.03:
		return 1.5
	default:
		return 1.0
	}
}
