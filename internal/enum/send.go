package enum

type SendStatus string

const (
	SendStatusDraft   SendStatus = "draft"
	SendStatusQueued  SendStatus = "queued"
	SendStatusSent    SendStatus = "sent"
	SendStatusBounced SendStatus = "bounced"
	SendStatusReplied SendStatus = "replied"
	SendStatusFailed  SendStatus = "failed"
)

func (t SendStatus) String() string {
	return string(t)
}

type IdentityState string

const (
	IdentityStateEligible         IdentityState = "eligible"
	IdentityStateBlocked          IdentityState = "blocked"
	IdentityStateAtDailyLimit     IdentityState = "at_daily_limit"
	IdentityStateInCooldown       IdentityState = "in_cooldown"
	IdentityStateReputationPaused IdentityState = "reputation_paused"
	IdentityStateLocked           IdentityState = "locked"
)

func (t IdentityState) String() string {
	return string(t)
}
