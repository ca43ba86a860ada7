// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model holds the value types that flow through the test generation
// pipeline's channels.
//
// # Core Concepts
//
//   - SourceItem: one file found in storage. After Describe it also carries the
//     work units extracted from it.
//
//   - WorkUnit: one function or method inside a SourceItem. A unit refers back
//     to its item by ItemID only; the item is looked up in the items channel
//     when needed, never held by pointer.
//
//   - GeneratedArtifact: the text produced for one WorkUnit by a Processor
//     branch.
//
//   - OutputArtifact: the consolidated result for one SourceItem, ready to be
//     written.
//
//   - Message: one turn of the conversation a Processor branch carries
//     between its steps.
//
// Every type here is a plain value and implements channel.Entry, so it can be
// stored in a log channel keyed by its Key.
package model
