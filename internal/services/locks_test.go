package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesPerKey(t *testing.T) {
	var km keyedMutex

	const workers = 50
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("s1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	var km keyedMutex

	unlock := km.Lock("s1")
	defer unlock()

	done := make(chan struct{})
	go func() {
		u := km.Lock("s2")
		u()
		close(done)
	}()

	// a held lock on s1 must not block s2
	<-done
}
