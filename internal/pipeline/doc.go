// Package pipeline assembles the test generation workflow out of graphs run
// by the engine package.
//
// The top-level graph (Main) runs three stages in sequence:
//
//   - **Scan** lists candidate source files from storage and drops the ones
//     the filter rejects.
//   - **Generate** splits every file into work units, runs the Processor
//     graph once per unit in parallel, and merges the per-unit results into
//     one output file per source file.
//   - **Write** persists the output files.
//
// Every collaborator (storage, analyzer, text generator, consolidator,
// filter, namer) is passed in through Config, so any of them can be swapped
// in tests.
package pipeline
