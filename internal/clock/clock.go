// Package clock drives the live local-time display for the city on screen.
package clock

import (
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
)

// Layout is the display format of the clock string.
const Layout = "Monday, January 2, 2006 3:04:05 PM"

// Session identifies one displayed city. A new Display ends the previous session.
type Session struct {
	ID        uuid.UUID
	City      string
	UTCOffset int // seconds east of UTC
}

// Sink receives each rendered clock string.
type Sink func(sess Session, text string)

// Clock owns the single periodic job that redraws the clock.
type Clock struct {
	mu        sync.Mutex
	scheduler *gocron.Scheduler
	interval  time.Duration
	sink      Sink
	now       func() time.Time

	job     *gocron.Job
	current Session
}

// New creates a Clock and starts its scheduler. Nothing ticks until Display is called.
func New(interval time.Duration, sink Sink) *Clock {
	if interval <= 0 {
		interval = time.Second
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	s.StartAsync()

	return &Clock{
		scheduler: s,
		interval:  interval,
		sink:      sink,
		now:       time.Now,
	}
}

// Display starts a session for city, cancelling the previous session's job
// first. The first clock string is emitted before Display returns.
func (c *Clock) Display(city string, utcOffset int) Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.job != nil {
		c.scheduler.RemoveByReference(c.job)
		c.job = nil
	}

	sess := Session{ID: uuid.New(), City: city, UTCOffset: utcOffset}
	c.current = sess
	c.emitUnlocked(sess)

	job, err := c.scheduler.Every(c.interval).WaitForSchedule().Do(c.tick, sess)
	if err != nil {
		log.Printf("ERROR: clock: failed to schedule tick for %s: %v", city, err)
		return sess
	}
	c.job = job

	return sess
}

// Current returns the active session, if any.
func (c *Clock) Current() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current, c.current.ID != uuid.Nil
}

// Stop cancels the active session and the scheduler.
//
// The scheduler waits for running ticks, and a tick needs mu, so mu is
// released before the scheduler is stopped.
func (c *Clock) Stop() {
	c.mu.Lock()
	if c.job != nil {
		c.scheduler.RemoveByReference(c.job)
		c.job = nil
	}
	c.current = Session{}
	c.mu.Unlock()

	c.scheduler.Stop()
}

func (c *Clock) tick(sess Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A tick already in flight when its session was replaced.
	if sess.ID != c.current.ID {
		return
	}
	c.emitUnlocked(sess)
}

func (c *Clock) emitUnlocked(sess Session) {
	if c.sink != nil {
		c.sink(sess, Format(c.now(), sess.UTCOffset))
	}
}

// Format renders now as wall-clock time at the given UTC offset.
func Format(now time.Time, utcOffset int) string {
	return now.In(time.FixedZone("", utcOffset)).Format(Layout)
}
