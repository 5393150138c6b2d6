// Package cache provides a generic in-process LRU cache with optional
// per-entry expiry.
package cache
