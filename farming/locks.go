package farming

import (
	"sync"

	"github.com/gagliardetto/solana-go"
)

// locks hands out one *sync.Mutex per pubkey, lazily. It backs the
// engine's "per-farm and per-farmer exclusive lock" concurrency model:
// operations against different farms or farmers never block each
// other, and no operation holds more than one farm lock and one farmer
// lock at a time.
type locks struct {
	mu sync.Mutex
	m  map[solana.PublicKey]*sync.Mutex
}

func newLocks() *locks {
	return &locks{m: make(map[solana.PublicKey]*sync.Mutex)}
}

func (l *locks) get(key solana.PublicKey) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.m[key]
	if !ok {
		m = &sync.Mutex{}
		l.m[key] = m
	}
	return m
}

// lock acquires the per-key mutex and returns a function that unlocks
// it.
func (l *locks) lock(key solana.PublicKey) func() {
	m := l.get(key)
	m.Lock()
	return m.Unlock
}
