// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines Message, the unit of a Processor's conversation log.
package model

import "github.com/google/uuid"

// Role identifies the author of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a conversation. IDs are random so the conversation
// log only ever grows under Upsert.
type Message struct {
	ID      string
	Role    Role
	Content string
}

// NewMessage creates a message with a fresh id.
func NewMessage(role Role, content string) Message {
	return Message{ID: uuid.NewString(), Role: role, Content: content}
}

// Key implements channel.Entry.
func (m Message) Key() string { return m.ID }
