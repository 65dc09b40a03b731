// Package cache provides an in-memory LRU cache for rendered page fragments,
// bounded by the total size of the cached strings.
package cache
