// Package redisstore mirrors session activity into Redis so that idle
// eviction can be coordinated across replicas. Keys carry a TTL equal to
// the idle timeout; a key that has expired in Redis means every replica may
// treat the session as idle.
package redisstore
