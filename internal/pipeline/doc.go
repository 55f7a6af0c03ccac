// Package pipeline is a small reference host for the size hooks.
//
// A Runner takes compile units, calls the pre hook, runs a Transformer,
// calls the post hook and collects one Result per unit. Units run
// concurrently up to a configurable limit; hook failures are recorded on
// the unit's Result and never stop other units.
package pipeline
