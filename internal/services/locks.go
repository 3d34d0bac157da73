package services

import "sync"

// CareerLocks serialises all state-mutating work on a single career.
// Auction bids, match balls and season transitions on the same career never
// interleave; different careers proceed concurrently.
type CareerLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewCareerLocks() *CareerLocks {
	return &CareerLocks{locks: make(map[uint]*sync.Mutex)}
}

func (c *CareerLocks) lockFor(careerID uint) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[careerID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[careerID] = l
	}
	return l
}

// Lock acquires the career's exclusive guard.
func (c *CareerLocks) Lock(careerID uint) {
	c.lockFor(careerID).Lock()
}

// Unlock releases the career's exclusive guard.
func (c *CareerLocks) Unlock(careerID uint) {
	c.lockFor(careerID).Unlock()
}

// WithLock runs fn while holding the career's guard.
func (c *CareerLocks) WithLock(careerID uint, fn func() error) error {
	c.Lock(careerID)
	defer c.Unlock(careerID)
	return fn()
}
