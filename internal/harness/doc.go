// Package harness runs conformance scenarios against the parser and the
// rewriting engine.
//
// A scenario is a YAML file holding one piece of HPL text and a list of
// operations to apply to it:
//
//	name: response_trigger_split
//	description: a disjunctive trigger yields one property per channel
//	kind: property
//	input: "globally: (/a or /b) causes /c"
//	operations:
//	  - op: canonical
//	    expect:
//	      - "globally: /a { True } causes /c { True }"
//	      - "globally: /b { True } causes /c { True }"
//
// Each operation either lists the expected rendered output or names the
// error code it must fail with. Results can also be compared against
// golden files with RunWithGolden.
package harness
