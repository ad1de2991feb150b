// Package sound plays notification cues without blocking the caller.
package sound

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	queueSize         = 8
	DefaultRetryDelay = 2 * time.Second
)

type Player interface {
	Play(ctx context.Context, source string, volume float64) error
}

type request struct {
	source string
	volume float64
}

// Dispatcher hands each sound to a player on its own goroutine. A failed
// playback is retried once after a fixed delay and then abandoned.
type Dispatcher struct {
	player     Player
	queue      chan request
	retryDelay time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	stopOnce   sync.Once
	log        *slog.Logger
}

func NewDispatcher(player Player, retryDelay time.Duration, log *slog.Logger) *Dispatcher {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dispatcher{
		player:     player,
		queue:      make(chan request, queueSize),
		retryDelay: retryDelay,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		log:        log,
	}

	go d.processQueue()

	return d
}

// Dispatch queues a sound and returns immediately. It reports false when
// the sound was dropped.
func (d *Dispatcher) Dispatch(source string, volume float64) bool {
	if d.ctx.Err() != nil {
		return false
	}

	select {
	case d.queue <- request{source: source, volume: volume}:
		return true
	default:
		d.log.Warn("Sound queue is full, dropping sound",
			"source", source,
			"queueLen", len(d.queue))

		return false
	}
}

// Stop drops queued sounds and waits for the playing one to finish.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(d.cancel)
	<-d.done
}

func (d *Dispatcher) processQueue() {
	defer close(d.done)

	for {
		select {
		case req := <-d.queue:
			d.handleRequest(req)
		case <-d.ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) handleRequest(req request) {
	err := d.player.Play(d.ctx, req.source, req.volume)
	if err == nil {
		return
	}

	d.log.WarnContext(d.ctx, "Failed to play sound, retrying",
		"error", err,
		"source", req.source,
		"retryDelay", d.retryDelay)

	select {
	case <-time.After(d.retryDelay):
	case <-d.ctx.Done():
		return
	}

	if err = d.player.Play(d.ctx, req.source, req.volume); err != nil {
		d.log.ErrorContext(d.ctx, "Abandoned sound playback",
			"error", err,
			"source", req.source)
	}
}
