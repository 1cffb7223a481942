package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/mannyAndem/crypto-clone/internal/observability"
	"github.com/mannyAndem/crypto-clone/internal/queue"
)

// Entry is one periodic schedule line: a name, an interval, and a job
// factory.
type Entry struct {
	Name  string
	Every time.Duration
	Make  func() queue.Job
}

// Entries builds the monitoring schedule with the given intervals.
func Entries(priceEvery, fanoutEvery time.Duration) []Entry {
	return []Entry{
		{
			Name:  queue.TypePriceRefresh,
			Every: priceEvery,
			Make:  func() queue.Job { return queue.PriceRefreshJob{} },
		},
		{
			Name:  queue.TypeWalletFanout,
			Every: fanoutEvery,
			Make:  func() queue.Job { return queue.WalletFanoutJob{} },
		},
	}
}

// DefaultEntries returns the production schedule: the USD rate refresh
// every minute and the campaign wallet fan-out every 15 seconds.
func DefaultEntries() []Entry {
	return Entries(60*time.Second, 15*time.Second)
}

// BeatOptions configures a beat.
type BeatOptions struct {
	// Resolution bounds how long the beat sleeps between due checks.
	// Defaults to one second.
	Resolution time.Duration

	// Now overrides the clock. Used in tests.
	Now func() time.Time

	Logger *log.Logger
}

// Beat fires schedule entries on their intervals and enqueues the jobs
// they produce. All timing is in UTC. An entry whose anchor is absent or
// stale fires immediately on start, so a beat that was down across a due
// time still produces one (and only one) catch-up job.
type Beat struct {
	entries  []Entry
	enqueuer queue.Enqueuer
	anchors  AnchorStore

	resolution time.Duration
	now        func() time.Time
	logger     *log.Logger
}

// NewBeat creates a beat over the given entries.
func NewBeat(entries []Entry, enqueuer queue.Enqueuer, anchors AnchorStore, opts BeatOptions) *Beat {
	resolution := opts.Resolution
	if resolution <= 0 {
		resolution = time.Second
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Beat{
		entries:    entries,
		enqueuer:   enqueuer,
		anchors:    anchors,
		resolution: resolution,
		now:        now,
		logger:     logger,
	}
}

// Run ticks the schedule until ctx is cancelled.
func (b *Beat) Run(ctx context.Context) {
	ticker := time.NewTicker(b.resolution)
	defer ticker.Stop()

	b.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Tick(ctx)
		}
	}
}

// Tick fires every due entry once. A failed enqueue is logged and leaves
// the entry's anchor untouched, so the next tick retries it; one entry's
// failure never blocks the others.
func (b *Beat) Tick(ctx context.Context) {
	now := b.now().UTC()

	for _, entry := range b.entries {
		last, err := b.anchors.LastRun(ctx, entry.Name)
		if err != nil {
			b.logger.Printf("beat: read anchor %s: %v", entry.Name, err)
			continue
		}
		if !last.IsZero() && now.Sub(last) < entry.Every {
			continue
		}

		id, err := b.enqueuer.Enqueue(ctx, entry.Make())
		if err != nil {
			observability.RecordBeatEnqueueError(entry.Name)
			b.logger.Printf("beat: enqueue %s: %v", entry.Name, err)
			continue
		}
		observability.RecordBeatFire(entry.Name)

		if err := b.anchors.SetLastRun(ctx, entry.Name, now); err != nil {
			b.logger.Printf("beat: store anchor %s: %v", entry.Name, err)
		}
		b.logger.Printf("beat: fired %s (job %s)", entry.Name, id)
	}
}
