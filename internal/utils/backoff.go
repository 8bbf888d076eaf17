package utils

import "time"

// Backoff retries an operation with exponentially growing waits. The
// wait happens between attempts; once retries run out the last error
// comes back immediately.
type Backoff struct {
	base       time.Duration
	cap        time.Duration
	maxRetries int
}

func NewBackoff(base time.Duration, maxRetries int) Backoff {
	return Backoff{base: base, cap: 30 * time.Second, maxRetries: maxRetries}
}

func (b Backoff) Do(fn func(i int) error) error {
	var err error
	for i := 0; ; i++ {
		if err = fn(i); err == nil {
			return nil
		}
		if i >= b.maxRetries {
			return err
		}
		d := time.Duration(1<<uint(i)) * b.base
		if d > b.cap {
			d = b.cap // tope sano
		}
		time.Sleep(d)
	}
}
