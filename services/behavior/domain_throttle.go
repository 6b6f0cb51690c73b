package behavior

import (
	"strings"
	"sync"
	"time"

	"github.com/primestrides/sendstack/internal/utils"
)

// webmailProviders get a higher daily allowance: their inbound volume
// dwarfs a niche corporate domain's, so concentration is less risky.
var webmailProviders = map[string]struct{}{
	"gmail.com":      {},
	"googlemail.com": {},
	"outlook.com":    {},
	"hotmail.com":    {},
	"live.com":       {},
	"msn.com":        {},
	"yahoo.com":      {},
	"ymail.com":      {},
	"aol.com":        {},
	"icloud.com":     {},
	"me.com":         {},
	"protonmail.com": {},
	"proton.me":      {},
	"gmx.com":        {},
	"zoho.com":       {},
}

// DomainThrottle caps sends per recipient domain per calendar day. It
// is process-local and best-effort: counts reset when the date rolls
// over in the target timezone and are not shared across scheduler
// processes.
type DomainThrottle struct {
	maxPerDay         int
	webmailMultiplier int
	loc               *time.Location
	now               func() time.Time

	mu     sync.Mutex
	date   string
	counts map[string]int
}

func NewDomainThrottle(maxPerDay, webmailMultiplier int, loc *time.Location) *DomainThrottle {
	return &DomainThrottle{
		maxPerDay:         maxPerDay,
		webmailMultiplier: webmailMultiplier,
		loc:               loc,
		now:               utils.Now,
		counts:            make(map[string]int),
	}
}

func (t *DomainThrottle) limitFor(domain string) int {
	if _, ok := webmailProviders[domain]; ok {
		return t.maxPerDay * t.webmailMultiplier
	}
	return t.maxPerDay
}

// rollover must be called with the lock held.
func (t *DomainThrottle) rollover() {
	today := utils.DateKey(t.now().In(t.loc))
	if t.date != today {
		t.date = today
		t.counts = make(map[string]int)
	}
}

// CanSendTo reports whether the recipient's domain is still under
// today's cap. Malformed addresses are never throttled.
func (t *DomainThrottle) CanSendTo(recipientEmail string) bool {
	domain := utils.ExtractDomainFromEmail(recipientEmail)
	if domain == "" {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollover()
	return t.counts[domain] < t.limitFor(domain)
}

// RecordSend counts one send toward the recipient's domain. A no-op
// for malformed addresses.
func (t *DomainThrottle) RecordSend(recipientEmail string) {
	domain := utils.ExtractDomainFromEmail(recipientEmail)
	if domain == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollover()
	t.counts[domain]++
}

func (t *DomainThrottle) GetCount(domain string) int {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollover()
	return t.counts[domain]
}

// SaturatedDomains lists domains that hit today's cap, so upstream
// lead selection can skip them before drafting.
func (t *DomainThrottle) SaturatedDomains() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollover()

	var saturated []string
	for domain, count := range t.counts {
		if count >= t.limitFor(domain) {
			saturated = append(saturated, domain)
		}
	}
	return saturated
}
