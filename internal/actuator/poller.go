package actuator

import (
	"context"
	"log"
	"time"
)

// Poller ticks the lock state API and keeps the relay in sync. Any
// failure mode relocks: poll errors, malformed payloads, and a server
// that has not answered within StaleAfter.
type Poller struct {
	reader       StateReader
	relay        Relay
	pollInterval time.Duration
	staleAfter   time.Duration

	lastGoodPoll time.Time
	lastLocked   bool
}

// NewPoller creates a Poller over the given reader and relay.
func NewPoller(reader StateReader, relay Relay, pollInterval, staleAfter time.Duration) *Poller {
	return &Poller{
		reader:       reader,
		relay:        relay,
		pollInterval: pollInterval,
		staleAfter:   staleAfter,
		lastLocked:   true,
	}
}

// poll performs one read-and-actuate cycle.
func (p *Poller) poll(ctx context.Context, now time.Time) {
	locked, err := p.reader.ReadLocked(ctx)
	if err != nil {
		if p.staleAfter <= 0 || now.Sub(p.lastGoodPoll) >= p.staleAfter {
			if !p.lastLocked {
				log.Printf("Lock state stale, failing safe to locked: %v", err)
			}
			p.drive(true)
		}
		return
	}

	p.lastGoodPoll = now
	p.drive(locked)
}

func (p *Poller) drive(locked bool) {
	if err := p.relay.SetLocked(locked); err != nil {
		log.Printf("Failed to drive relay: %v", err)
		return
	}
	if locked != p.lastLocked {
		if locked {
			log.Println("Relay locked")
		} else {
			log.Println("Relay open")
		}
	}
	p.lastLocked = locked
}

// Run polls until the context is cancelled. The relay starts and ends
// locked.
func (p *Poller) Run(ctx context.Context) error {
	p.drive(true)
	p.lastGoodPoll = time.Now()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.drive(true)
			return ctx.Err()
		case now := <-ticker.C:
			p.poll(ctx, now)
		}
	}
}
