// Package harness runs scripted tree scenarios as executable contract
// tests.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	root: Library
//	locale: sv            # optional, collation locale
//	setup:
//	  - op: add
//	    parent: root
//	    name: Sessions
//	    folder: true
//	    as: sessions
//	flow:
//	  - op: rename
//	    target: sessions
//	    name: Archive
//	    expect:
//	      reason: renamed
//	      old_index: 0
//	      new_index: 0
//	assertions:
//	  - type: trace_contains
//	    reason: renamed
//	    target: sessions
//	  - type: final_state
//	    folder: root
//	    names: [Archive]
//
// Items are referred to by the labels given with "as"; the root is always
// "root". Operations are add, rename, remove, move and reload.
//
// # Assertion Types
//
//   - trace_contains: a change with the reason on the target was recorded
//   - trace_order: "reason label" events appear in this order
//   - trace_count: the reason was recorded exactly N times (on target, if set)
//   - final_state: a folder's children have these names, in order
//   - delivered: a subscriber received N flow changes affecting a folder
//
// # Deterministic Testing
//
// Every run uses sequential identities (the root takes the first) and a
// fresh logical clock, so traces are identical across runs and can be
// compared against golden files. Changes are also written to an in-memory
// journal, and a run fails if the journal disagrees with the trace.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/resort.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
