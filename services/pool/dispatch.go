package pool

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/primestrides/sendstack/interfaces"
	"github.com/primestrides/sendstack/internal/tracing"
)

// Dispatch runs one admission cycle for a single message: acquire an
// identity, maybe skip (the deliberate human no-show), hand off to the
// transport, then book the outcome. The bool reports whether the
// message actually went out.
//
// A permanent provider rejection blocks the identity; transient
// transport errors are returned to the caller for retry after the
// identity's normal cooldown.
func (s *Service) Dispatch(ctx context.Context, transport interfaces.Transport, recipientEmail, messageID string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PoolService.Dispatch")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	identity, ok := s.Acquire(ctx, "", recipientEmail)
	if !ok {
		span.LogKV("outcome", "no identity acquired")
		return false, nil
	}
	defer s.Release(identity)
	tracing.TagIdentity(span, identity)

	if s.behavior.ShouldSkipSend() {
		s.log.Debugf("Skipping send from %s this cycle", identity)
		span.LogKV("outcome", "skipped")
		return false, nil
	}

	if err := transport.Send(ctx, identity, recipientEmail, messageID); err != nil {
		tracing.TraceErr(span, err)
		if interfaces.IsPermanentRejection(err) {
			if blockErr := s.MarkBlocked(ctx, identity, err.Error()); blockErr != nil {
				s.log.Errorf("Failed to block %s after rejection: %v", identity, blockErr)
			}
		}
		return false, errors.Wrapf(err, "send via %s", identity)
	}

	if err := s.RecordSend(ctx, identity, recipientEmail); err != nil {
		// The message is out; booking failures must not resurface as
		// send failures or the caller would retry a delivered message.
		s.log.Errorf("Failed to record send from %s: %v", identity, err)
	}

	return true, nil
}
