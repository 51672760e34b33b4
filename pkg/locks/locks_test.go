package locks

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	km := NewKeyedMutex()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("book-1")
			defer km.Unlock("book-1")
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	km.Lock("book-1")
	done := make(chan struct{})
	go func() {
		km.Lock("book-2")
		km.Unlock("book-2")
		close(done)
	}()

	// A different key must not block behind book-1.
	<-done
	km.Unlock("book-1")
}

func TestKeyedMutexReusesLockPerKey(t *testing.T) {
	km := NewKeyedMutex()
	first := km.get("book-1")
	second := km.get("book-1")
	assert.Same(t, first, second)
}
