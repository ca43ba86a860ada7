// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines SourceItem and WorkUnit, the inputs of generation.
package model

import "fmt"

// UnitKind is the closed set of work unit variants the pipeline knows how to
// format. Any other value is an unknown kind and is passed through untouched.
type UnitKind string

const (
	KindFunction UnitKind = "function"
	KindMethod   UnitKind = "method"
)

// Known reports whether k is one of the declared kinds.
func (k UnitKind) Known() bool {
	return k == KindFunction || k == KindMethod
}

// SourceItem is a candidate source file. ID is the path relative to the scanned
// folder, in slash form.
type SourceItem struct {
	ID      string
	Content string
	Units   []WorkUnit
}

// Key implements channel.Entry.
func (s SourceItem) Key() string { return s.ID }

// WithUnits returns a copy of the item carrying the given units.
func (s SourceItem) WithUnits(units []WorkUnit) SourceItem {
	s.Units = append([]WorkUnit(nil), units...)
	return s
}

// WorkUnit is an independently processable piece of a SourceItem.
type WorkUnit struct {
	ID       string
	Kind     UnitKind
	Name     string
	Receiver string
	Text     string
	ItemID   string
	Index    int
}

// Key implements channel.Entry. Unit ids are only unique within their item.
func (u WorkUnit) Key() string { return u.ItemID + "#" + u.ID }

func (u WorkUnit) String() string {
	return fmt.Sprintf("%s %s (%s)", u.Kind, u.ID, u.ItemID)
}
