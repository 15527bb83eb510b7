package consumer

import (
	"log/slog"
	"time"
)

// progress is a rate-limiting accumulator for "still alive" logging. Each
// consumer loop owns its own instance; counts are per topic and a line is
// emitted whenever a topic reaches every N messages or the interval elapsed
// since that topic last logged.
type progress struct {
	every    int
	interval time.Duration
	counts   map[string]int
	lastLog  map[string]time.Time
}

func newProgress(every int, interval time.Duration) *progress {
	return &progress{
		every:    every,
		interval: interval,
		counts:   make(map[string]int),
		lastLog:  make(map[string]time.Time),
	}
}

// observe is only called from the single consumer goroutine, so no locking.
func (p *progress) observe(logger *slog.Logger, topic string) {
	p.counts[topic]++
	n := p.counts[topic]
	last, seen := p.lastLog[topic]
	if n%p.every == 0 || !seen || time.Since(last) >= p.interval {
		logger.Info("processed messages",
			"topic", topic,
			"count", n,
		)
		p.lastLog[topic] = time.Now()
	}
}
