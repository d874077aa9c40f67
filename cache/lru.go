// Copyright 2016-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package cache provides a small least-recently-used cache, keyed by
// string.  The SPARQL engine uses it to avoid reparsing repeated
// query and update strings.
package cache

import (
	"container/list"
	"sync"
)

type entry struct {
	key   string
	value interface{}
}

// LRU is a least-recently-used cache with a fixed capacity.  The
// cache can be safely accessed from multiple goroutines.
type LRU struct {
	size      int
	lock      sync.RWMutex
	evictList *list.List
	index     map[string]*list.Element
	hits      uint64
	misses    uint64
}

// NewLRU creates a cache holding at most size items.  A size of zero
// or less creates a cache that never holds anything, so every Get
// calls its fetch function.
func NewLRU(size int) *LRU {
	return &LRU{
		size:      size,
		evictList: list.New(),
		index:     make(map[string]*list.Element),
	}
}

// Get retrieves an item from the cache.  If it is not present, calls
// the fetch function, and if that succeeds, saves the item and
// returns it.  This should return an error only if the item is not
// present and the fetch function returns an error.
func (lru *LRU) Get(key string, fetch func(string) (interface{}, error)) (interface{}, error) {
	// This sadly happens under a writer lock, since we need to move
	// the item to the back of the list if it is present
	lru.lock.Lock()
	defer lru.lock.Unlock()

	// Is it there?
	if element, present := lru.index[key]; present {
		lru.hits++
		lru.evictList.MoveToBack(element)
		return element.Value.(*entry).value, nil
	}

	// Otherwise call the fetch function
	lru.misses++
	value, err := fetch(key)
	if err != nil {
		return value, err
	}
	lru.add(key, value)
	return value, nil
}

// Peek looks for an item in the cache and returns it if present, or
// returns nil if absent.  This runs under a reader lock, and so can
// run concurrently with itself but not calls to Put or Get.  This
// does not affect the recency of the item.
func (lru *LRU) Peek(key string) interface{} {
	lru.lock.RLock()
	defer lru.lock.RUnlock()

	if element, present := lru.index[key]; present {
		return element.Value.(*entry).value
	}
	return nil
}

// Put adds an item to the LRU cache, possibly evicting something.
func (lru *LRU) Put(key string, value interface{}) {
	lru.lock.Lock()
	defer lru.lock.Unlock()

	// Are we just updating an existing item?
	if element, present := lru.index[key]; present {
		element.Value.(*entry).value = value
		lru.evictList.MoveToBack(element)
		return
	}

	// Otherwise add it
	lru.add(key, value)
}

// Remove takes an item out of the cache.  It does nothing if that
// key does not exist.
func (lru *LRU) Remove(key string) {
	lru.lock.Lock()
	defer lru.lock.Unlock()

	if element, present := lru.index[key]; present {
		delete(lru.index, key)
		lru.evictList.Remove(element)
	}
}

// Len returns the number of items in the cache.
func (lru *LRU) Len() int {
	lru.lock.RLock()
	defer lru.lock.RUnlock()
	return len(lru.index)
}

// Stats returns the number of Get calls that found their item and
// the number that had to fetch it.
func (lru *LRU) Stats() (hits, misses uint64) {
	lru.lock.RLock()
	defer lru.lock.RUnlock()
	return lru.hits, lru.misses
}

// add is an internal helper, running under the write lock, that adds a
// new item to the cache.  The item is known to not already exist.
func (lru *LRU) add(key string, value interface{}) {
	if lru.size <= 0 {
		return
	}
	element := lru.evictList.PushBack(&entry{key: key, value: value})
	lru.index[key] = element

	// If this caused the cache to go over size, start evicting items
	for len(lru.index) > lru.size {
		head := lru.evictList.Front()
		delete(lru.index, head.Value.(*entry).key)
		lru.evictList.Remove(head)
	}
}
