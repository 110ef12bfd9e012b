package payment

import "errors"

// Failures from the external rails.  Both abort a card or mixed attempt
// without touching basket state so the counsellor can simply retry;
// handlers translate them into 502 responses with the message attached.
var (
    // ErrCheckoutUnavailable means the external checkout session could not
    // be created or came back without a URL.
    ErrCheckoutUnavailable = errors.New("checkout session unavailable")
    // ErrPersistenceFailed means the pending-basket snapshot could not be
    // written, so a redirect-based checkout would be unrecoverable.
    ErrPersistenceFailed = errors.New("pending basket persistence failed")
)
