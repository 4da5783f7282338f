package services

import (
	"fmt"
	"sync"
)

// KeyedMutex hands out one mutex per entity key so state transitions on the
// same proposal, contract, or claim are serialized regardless of transport.
// Locks are never released back to the map; entity counts are bounded by the
// ledger size.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Claims have no key of their own: every claim mutation locks the owning
// contract, which also serializes claims against submission, settlement, and
// the expiration sweep.
func proposalKey(id int64) string { return fmt.Sprintf("proposal:%d", id) }
func contractKey(id int64) string { return fmt.Sprintf("contract:%d", id) }
func reviewKey(id int64) string   { return fmt.Sprintf("review:%d", id) }
func rewardKey(id string) string  { return "reward:" + id }
