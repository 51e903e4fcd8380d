// Package resp implements the subset of the RESP wire protocol served by
// respkv.
//
// Requests are decoded from a caller-owned byte buffer with Decode, which
// returns the decoded Value together with the unconsumed remainder. A
// truncated frame yields ErrIncomplete: the caller keeps the bytes and calls
// Decode again once more input has arrived. Every other decode error is
// permanent for the stream (see IsMalformed).
//
// Replies are produced with Encode/AppendValue, which only accept the reply
// set (Null and simple strings). EncodeCommand builds request frames.
package resp
