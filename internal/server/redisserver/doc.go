// Package redisserver serves the key-value store over a subset of the Redis
// RESP protocol.
//
// Supported commands are PING, ECHO, SET (with optional PX) and GET. Each
// connection keeps a growable buffer so frames split across reads, and
// several frames in one read, are handled. A frame that cannot be decoded
// gets a single "-ERR Protocol error" line and the connection is closed.
package redisserver
