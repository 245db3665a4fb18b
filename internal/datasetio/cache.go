// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package datasetio

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// Cache memoizes parsed Datasets by file path, so that repeated
// cluster/classify/report invocations against the same input file in
// one process don't re-parse it. Grounded on the teacher's
// cmd/btrfs-mount/lru.go generic LRUCache wrapper around
// hashicorp/golang-lru's adaptive-replacement cache.
type Cache struct {
	initOnce sync.Once
	size     int
	inner    *lru.ARCCache
}

// NewCache returns a Cache holding up to size parsed datasets. A
// non-positive size falls back to 128, matching the teacher's
// hardcoded default.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = 128
	}
	return &Cache{size: size}
}

func (c *Cache) init() {
	c.initOnce.Do(func() {
		c.inner, _ = lru.NewARC(c.size)
	})
}

// GetOrRead returns the cached Dataset for path, parsing it with
// reader and populating the cache on a miss.
func (c *Cache) GetOrRead(reader *Reader, path string) (*Dataset, error) {
	c.init()
	if v, ok := c.inner.Get(path); ok {
		return v.(*Dataset), nil
	}
	ds, err := reader.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c.inner.Add(path, ds)
	return ds, nil
}

// Purge discards every cached dataset.
func (c *Cache) Purge() {
	c.init()
	c.inner.Purge()
}
