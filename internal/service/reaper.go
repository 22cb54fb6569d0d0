package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	redisrepo "github.com/Mark-Phillipson/Risk/internal/repository/redis"
)

// SessionReaper evicts idle sessions. With Redis it listens for expired
// keep-alive keys; a polling sweep runs either way to catch anything the
// notifications miss.
type SessionReaper struct {
	rdb      *redis.Client
	mgr      *SessionManager
	interval time.Duration
}

// NewSessionReaper creates a SessionReaper. rdb may be nil.
func NewSessionReaper(rdb *redis.Client, mgr *SessionManager) *SessionReaper {
	return &SessionReaper{rdb: rdb, mgr: mgr, interval: 30 * time.Second}
}

// Start runs until ctx is cancelled.
func (r *SessionReaper) Start(ctx context.Context) {
	if r.rdb != nil {
		go r.listenKeyspace(ctx)
	}
	r.pollIdle(ctx)
}

// listenKeyspace subscribes to Redis keyspace notifications for expired keys.
func (r *SessionReaper) listenKeyspace(ctx context.Context) {
	pubsub := r.rdb.PSubscribe(ctx, "__keyevent@*__:expired")
	defer pubsub.Close()

	log.Info().Msg("Session reaper listening for expired keys")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.handleExpiry(msg.Payload)
		}
	}
}

func (r *SessionReaper) pollIdle(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", r.interval).Msg("Idle session sweep started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Idle session sweep stopped")
			return
		case now := <-ticker.C:
			if n := r.mgr.EvictIdle(now); n > 0 {
				log.Info().Int("count", n).Msg("Sweep evicted idle sessions")
			}
		}
	}
}

// handleExpiry evicts the session behind an expired keep-alive key. Other
// keys are ignored.
func (r *SessionReaper) handleExpiry(key string) {
	id, ok := redisrepo.SessionIDFromKey(key)
	if !ok {
		return
	}
	if r.mgr.Evict(id) {
		log.Info().Str("sessionId", id).Msg("Session expired")
	}
}
