// Package mocks provides centralized mock implementations for testing.
//
// Each mock follows the same shape: optional ...Fn fields override a method
// entirely, and without them the mock falls back to a small, concurrency-safe
// in-memory implementation that behaves like the real adapter for the
// happy path and its documented not-found and duplicate errors.
package mocks
