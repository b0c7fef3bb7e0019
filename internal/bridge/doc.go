// Package bridge provides the REST client for talking to a Hue-compatible
// lighting bridge.
//
// The bridge exposes its resource collections under
// http://<address>/api/<key>/. Reads return the resource JSON directly;
// mutating calls return an array of per-item results, each either a
// "success" object or an "error" object carrying a bridge error code,
// address, and description. This package folds that protocol into plain Go
// errors: a rejected operation surfaces as *Error, and transport-level
// failures are wrapped with request context.
//
// The client issues one request at a time from the caller's perspective;
// it holds no state beyond the connection pool and is safe for reuse
// across an entire backup or restore run.
package bridge
