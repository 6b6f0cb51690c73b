package behavior

import (
	"math/rand"
	"sync"
	"time"

	"github.com/primestrides/sendstack/config"
	"github.com/primestrides/sendstack/internal/logger"
	"github.com/primestrides/sendstack/internal/utils"
)

// Service bundles the human-like sending heuristics: pacing
// multipliers, jitter, session planning, skip/pause draws and the
// recipient-domain throttle. One instance is shared by the pool and
// the cron jobs; all randomness goes through a single guarded source
// so tests can seed it.
type Service struct {
	cfg      *config.SchedulerConfig
	log      logger.Logger
	loc      *time.Location
	now      func() time.Time
	throttle *DomainThrottle

	mu  sync.Mutex
	rng *rand.Rand
}

func NewService(cfg *config.SchedulerConfig, log logger.Logger, loc *time.Location) *Service {
	s := &Service{
		cfg: cfg,
		log: log,
		loc: loc,
		now: utils.Now,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.throttle = NewDomainThrottle(cfg.MaxEmailsPerRecipientDomain, cfg.WebmailDomainMultiplier, loc)
	return s
}

func (s *Service) randIntBetween(min, max int) int {
	if max <= min {
		return min
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + s.rng.Intn(max-min+1)
}

func (s *Service) randFloat() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *Service) randNorm() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.NormFloat64()
}

// Shuffle randomizes an indexed collection through the shared source.
func (s *Service) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(n, swap)
}

// Domain throttle passthroughs

func (s *Service) CanSendTo(recipientEmail string) bool {
	return s.throttle.CanSendTo(recipientEmail)
}

func (s *Service) RecordDomainSend(recipientEmail string) {
	s.throttle.RecordSend(recipientEmail)
}

func (s *Service) DomainCount(domain string) int {
	return s.throttle.GetCount(domain)
}

func (s *Service) SaturatedDomains() []string {
	return s.throttle.SaturatedDomains()
}
