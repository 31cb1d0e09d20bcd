package cache

import (
	"time"

	log "github.com/sirupsen/logrus"
)

func (c *Cache) cleanup(quit <-chan struct{}) {
	if c.cleanupInterval == 0 {
		return
	}
	ticker := time.NewTicker(c.cleanupInterval)
	for {
		select {
		case <-ticker.C:
			c.evictIdle()
		case <-quit:
			ticker.Stop()
			return
		}
	}
}

// evictIdle drops unsubscribed entries that have not been read within
// the idle expiration. Subscribed entries and entries with a fetch in
// flight are never evicted.
func (c *Cache) evictIdle() {
	if c.idleExpiration == 0 {
		return
	}
	log.Debug("started evicting idle cache entries")

	cutoff := time.Now().Add(-c.idleExpiration)
	c.m.Lock()
	for key, e := range c.entries {
		if e.subs > 0 || e.flight != nil {
			continue
		}
		if e.lastRead.Before(cutoff) {
			log.Debugf("entry %s expired", key)
			delete(c.entries, key)
			c.evictions++
		}
	}
	c.m.Unlock()

	log.Debug("finished evicting idle cache entries")
}
