package coingecko

import "time"

// SetClock replaces the cache clock in tests.
func SetClock(c *Client, now func() time.Time) { c.now = now }
