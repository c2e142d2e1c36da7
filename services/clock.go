package services

import "time"

// Clock supplies the current time. Services take one instead of calling
// time.Now directly so expiry and deadline logic is deterministic in tests.
type Clock func() time.Time

func SystemClock() time.Time { return time.Now() }
