package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockerSerialisesSameKey(t *testing.T) {
	l := New()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("1|3|PHY101")
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, l.Len())
}

func TestLockerDistinctKeysDoNotBlock(t *testing.T) {
	l := New()
	unlockA := l.Lock("a")
	unlockB := l.Lock("b")
	assert.Equal(t, 2, l.Len())
	unlockA()
	unlockB()
	assert.Equal(t, 0, l.Len())
}
