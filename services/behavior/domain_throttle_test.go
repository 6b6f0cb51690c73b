package behavior

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestThrottle() (*DomainThrottle, *time.Location, *time.Time) {
	loc, _ := time.LoadLocation("America/New_York")
	current := time.Date(2025, time.March, 11, 10, 0, 0, 0, loc)
	throttle := NewDomainThrottle(5, 10, loc)
	throttle.now = func() time.Time { return current }
	return throttle, loc, &current
}

func TestDomainThrottle_CapsPerDomain(t *testing.T) {
	throttle, _, _ := newTestThrottle()

	for i := 0; i < 5; i++ {
		assert.True(t, throttle.CanSendTo("lead@acme.io"))
		throttle.RecordSend("lead@acme.io")
	}

	assert.False(t, throttle.CanSendTo("other@acme.io"), "cap is per domain, not per recipient")
	assert.True(t, throttle.CanSendTo("lead@globex.com"), "other domains are unaffected")
	assert.Equal(t, 5, throttle.GetCount("acme.io"))
}

func TestDomainThrottle_WebmailGetsHigherCap(t *testing.T) {
	throttle, _, _ := newTestThrottle()

	for i := 0; i < 50; i++ {
		assert.True(t, throttle.CanSendTo("lead@gmail.com"))
		throttle.RecordSend("lead@gmail.com")
	}
	assert.False(t, throttle.CanSendTo("another@gmail.com"))
}

func TestDomainThrottle_CaseInsensitive(t *testing.T) {
	throttle, _, _ := newTestThrottle()

	throttle.RecordSend("Lead@ACME.io")
	assert.Equal(t, 1, throttle.GetCount("acme.io"))
	assert.Equal(t, 1, throttle.GetCount(" ACME.IO "))
}

func TestDomainThrottle_MalformedAddressesNeverThrottled(t *testing.T) {
	throttle, _, _ := newTestThrottle()

	assert.True(t, throttle.CanSendTo("not-an-email"))
	throttle.RecordSend("not-an-email")
	assert.True(t, throttle.CanSendTo("not-an-email"))
	assert.Equal(t, 0, throttle.GetCount(""))
}

func TestDomainThrottle_ResetsOnDateRollover(t *testing.T) {
	throttle, loc, current := newTestThrottle()

	for i := 0; i < 5; i++ {
		throttle.RecordSend("lead@acme.io")
	}
	assert.False(t, throttle.CanSendTo("lead@acme.io"))

	*current = time.Date(2025, time.March, 12, 9, 0, 0, 0, loc)
	assert.True(t, throttle.CanSendTo("lead@acme.io"))
	assert.Equal(t, 0, throttle.GetCount("acme.io"))
}

func TestDomainThrottle_SaturatedDomains(t *testing.T) {
	throttle, _, _ := newTestThrottle()

	for i := 0; i < 5; i++ {
		throttle.RecordSend("lead@acme.io")
	}
	throttle.RecordSend("lead@globex.com")

	saturated := throttle.SaturatedDomains()
	assert.Equal(t, []string{"acme.io"}, saturated)
}
