package interfaces

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Transport is the delivery call owned by the send pipeline. The
// scheduler never speaks SMTP itself; it admits a send and hands the
// identity to the transport.
type Transport interface {
	Send(ctx context.Context, identityEmail, recipientEmail, messageID string) error
}

// PermanentRejectionError signals an irrecoverable provider rejection.
// The dispatcher reacts by blocking the identity; transient transport
// errors leave the identity eligible after its normal cooldown.
type PermanentRejectionError struct {
	Reason string
}

func (e *PermanentRejectionError) Error() string {
	return fmt.Sprintf("permanent rejection: %s", e.Reason)
}

func IsPermanentRejection(err error) bool {
	var rejection *PermanentRejectionError
	return errors.As(err, &rejection)
}
