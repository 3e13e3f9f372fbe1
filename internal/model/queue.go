package model

import (
	"sync"
	"time"
)

type queueEntry struct {
	player Player
	joined time.Time
}

// Queue is the matchmaking line. Players are paired strictly in arrival order.
type Queue struct {
	mu      sync.Mutex
	waiting []queueEntry
	now     func() time.Time
}

func NewQueue() *Queue {
	return &Queue{now: time.Now}
}

// AddPlayer appends player and returns its 1-based place in line.
func (q *Queue) AddPlayer(player Player) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.indexOf(player.ID) >= 0 {
		return 0, ErrAlreadyQueued
	}
	q.waiting = append(q.waiting, queueEntry{player: player, joined: q.now()})
	return len(q.waiting), nil
}

// GetNextPair pops the two players who have been waiting longest.
func (q *Queue) GetNextPair() (Player, Player, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.waiting) < 2 {
		return Player{}, Player{}, false
	}
	first, second := q.waiting[0].player, q.waiting[1].player
	q.waiting = q.waiting[2:]
	return first, second, true
}

// Waiting reports the player's place in line and how long they have waited.
func (q *Queue) Waiting(playerID string) (int, time.Duration, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexOf(playerID)
	if i < 0 {
		return 0, 0, false
	}
	return i + 1, q.now().Sub(q.waiting[i].joined), true
}

// Remove drops a player who stopped waiting.
func (q *Queue) Remove(playerID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexOf(playerID)
	if i < 0 {
		return false
	}
	q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
	return true
}

func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}

func (q *Queue) indexOf(playerID string) int {
	for i, e := range q.waiting {
		if e.player.ID == playerID {
			return i
		}
	}
	return -1
}
