/*
 * Mesh
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package wire

import (
	"sync"
	"time"
)

/*
RateWindow is the sliding window of the per-client rate limit.
*/
const RateWindow = 60 * time.Second

/*
RateLimit is the maximum number of requests per client per window.
*/
const RateLimit = 1500

/*
ThrottleLimit is the number of throttles after which a client should be
disconnected.
*/
const ThrottleLimit = 10

/*
RateCleanupInterval is the interval of the cleanup sweep which drops idle
clients.
*/
const RateCleanupInterval = 15 * time.Second

/*
rateIdleReset is the idle time after which a client's counters are dropped
(10 idle windows).
*/
const rateIdleReset = 10 * RateWindow

/*
clientRate is the rate limiting state of a single client.
*/
type clientRate struct {
	requests  []int64 // Request timestamps within the current window
	throttles int     // Number of throttles of this client
	lastSeen  int64   // Timestamp of the last request
}

/*
RateLimiter is a sliding window rate limiter tracking requests per client.
*/
type RateLimiter struct {
	clients map[string]*clientRate // Per-client rate state
	ticker  *time.Ticker           // Cleanup ticker (nil if disabled)
	done    chan bool              // Shutdown signal for the cleanup thread
	mutex   *sync.Mutex            // Mutex to protect client state
}

/*
NewRateLimiter creates a new rate limiter. The cleanup sweep should be
disabled in unit tests.
*/
func NewRateLimiter(cleanup bool) *RateLimiter {
	rl := &RateLimiter{make(map[string]*clientRate), nil, make(chan bool),
		&sync.Mutex{}}

	if cleanup {
		rl.ticker = time.NewTicker(RateCleanupInterval)

		go func() {
			for {
				select {
				case <-rl.ticker.C:
					rl.cleanup()
				case <-rl.done:
					return
				}
			}
		}()
	}

	return rl
}

/*
Check records a request of a given client. If the client exceeded the rate
limit a delay is returned which the caller should apply to the client. Once
the client was throttled too often the disconnect flag is set.
*/
func (rl *RateLimiter) Check(clientID string) (time.Duration, bool) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now().UnixNano() / int64(time.Millisecond)
	window := int64(RateWindow / time.Millisecond)

	client, ok := rl.clients[clientID]
	if !ok {
		client = &clientRate{}
		rl.clients[clientID] = client
	}

	client.lastSeen = now

	// Slide the window

	valid := client.requests[:0]
	for _, ts := range client.requests {
		if now-ts < window {
			valid = append(valid, ts)
		}
	}
	client.requests = valid

	if len(client.requests) >= RateLimit {

		// Sleep until the oldest request leaves the window

		client.throttles++

		delay := time.Duration(window-(now-client.requests[0])) * time.Millisecond

		return delay, client.throttles >= ThrottleLimit
	}

	client.requests = append(client.requests, now)

	return 0, false
}

/*
Stop stops the cleanup sweep.
*/
func (rl *RateLimiter) Stop() {
	if rl.ticker != nil {
		rl.ticker.Stop()
		rl.done <- true
		rl.ticker = nil
	}
}

/*
cleanup drops clients which have been idle for several windows.
*/
func (rl *RateLimiter) cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now().UnixNano() / int64(time.Millisecond)
	reset := int64(rateIdleReset / time.Millisecond)

	for clientID, client := range rl.clients {
		if now-client.lastSeen > reset {
			delete(rl.clients, clientID)
		}
	}
}
