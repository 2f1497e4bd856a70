package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTreeLockerSerializesPerOwner(t *testing.T) {
	locker := NewTreeLocker()
	owner := primitive.NewObjectID()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock(owner)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestTreeLockerDropsIdleEntries(t *testing.T) {
	locker := NewTreeLocker()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		owner := primitive.NewObjectID()
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock(owner)
			unlock()
		}()
	}
	wg.Wait()

	locker.mu.Lock()
	remaining := len(locker.locks)
	locker.mu.Unlock()
	assert.Equal(t, 0, remaining)
}
