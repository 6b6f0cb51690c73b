package dto

import "time"

type IdentityBlocked struct {
	IdentityEmail string    `json:"identityEmail"`
	Reason        string    `json:"reason"`
	BlockedUntil  time.Time `json:"blockedUntil"`
	BlockCount    int       `json:"blockCount"`
}

type ReputationAlert struct {
	IdentityEmail string  `json:"identityEmail"`
	Score         float64 `json:"score"`
	BounceRate    float64 `json:"bounceRate"`
	Threshold     int     `json:"threshold"`
	Level         string  `json:"level"`
	Reason        string  `json:"reason"`
}

type DailyTargetReached struct {
	Date   string `json:"date"`
	Target int    `json:"target"`
}
