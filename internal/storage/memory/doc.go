// Package memory provides the in-memory key-value store for respkv.
//
// The store maps keys to entries carrying a value and an optional absolute
// expiry. Expiry is lazy: the store never evicts on its own and Get returns
// entries whether or not they have expired. Callers decide liveness with
// Entry.ExpiredAt. An expired entry is reclaimed only when its key is
// written again.
package memory
