// Package storetest provides an in-memory fake store plus a reusable
// conformance suite for IStore implementations.
//
// The fake supports failure injection (whole-batch pipeline failures and
// per-key write failures) so the writer's fallback path and the reader's
// degraded modes can be exercised without a live server. The conformance
// suite runs the same assertions against any IStore; it keeps the fake
// honest and can be pointed at a real backend from an integration test.
package storetest
