// Package harness replays scripted hook sequences against the size hooks.
//
// A scenario is a YAML file listing pre and post hook calls in the order a
// host pipeline would make them, including interleaved units and misuse
// such as a post without a pre. Running a scenario yields the reports the
// hooks wrote and an event log, which tests compare against golden files.
//
// # Scenario Format
//
//	name: interleaved
//	description: "Two units compiled interleaved"
//	format: text            # optional, text|json
//	steps:
//	  - pre:  { unit: A, identity: src/a.js, source: "const a=1;" }
//	  - pre:  { unit: B, identity: src/b.js, source: "let b=2;" }
//	  - post: { unit: A, output: "const a = 1;" }
//	  - post: { identity: src/b.js, output: "let b = 2;" }
//	expect:
//	  reports: 2
//	  errors: []
//
// A post step naming a unit pairs with that unit's pre step. A post step
// with only an identity pairs with the most recent unmatched pre for that
// identity.
//
// Runs are deterministic: instance tokens are "instance-1", "instance-2", ...
// in pre order, and logs are discarded.
package harness
