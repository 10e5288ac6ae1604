package services

import "sync"

// keyedMutex hands out one mutex per session id so concurrent requests
// against the same session serialize without a global lock.
type keyedMutex struct {
	mus sync.Map // session id -> *sync.Mutex
}

func (k *keyedMutex) Lock(key string) func() {
	v, _ := k.mus.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
