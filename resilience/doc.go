// Package resilience retries store connections with exponential backoff.
//
//	err := resilience.Do(ctx, resilience.Connect(cfg.MaxRetries), func(attempt int) error {
//	    return client.Ping(ctx)
//	})
package resilience
