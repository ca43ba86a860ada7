// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the artifacts produced by generation.
package model

// GeneratedArtifact is the output of one Processor branch.
type GeneratedArtifact struct {
	ItemID    string
	UnitID    string
	UnitIndex int
	Text      string
}

// Key implements channel.Entry.
func (a GeneratedArtifact) Key() string { return a.ItemID + "#" + a.UnitID }

// OutputArtifact is the consolidated, persistable result for one SourceItem.
type OutputArtifact struct {
	ID       string `yaml:"id"`
	SourceID string `yaml:"source"`
	Text     string `yaml:"-"`
}

// Key implements channel.Entry.
func (o OutputArtifact) Key() string { return o.ID }
