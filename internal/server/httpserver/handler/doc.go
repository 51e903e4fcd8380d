// Package handler provides the HTTP handlers for respkv's operational
// endpoints.
package handler
