// Package measure captures the size of a compile unit before and after it
// passes through a transformation pipeline.
//
// A measurement is taken in two steps:
//
//  1. PreCapture: Capture (or Tracker.Pre) records the UTF-8 byte length of
//     the source text and the unit identity.
//  2. PostCapture: Unit.Post (or Tracker.Post / Tracker.PostLatest) records
//     the byte length of the generated output and derives the change ratio.
//
// Records are owned by the invocation that created them. A Unit is a plain
// value held by the caller and needs no locking. A Tracker is an explicitly
// constructed registry for hosts that deliver pre and post as separate
// callbacks; records inside it are keyed by Key{Identity, Instance}, where
// Instance is a fresh UUIDv7 per Pre call, so interleaved or concurrent units
// never observe each other's sizes.
//
// There is no package-level state.
package measure
