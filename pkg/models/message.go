// Package models defines the domain models for the communication intelligence service
package models

import (
	"time"
)

// MessageType identifies who or what produced a message
type MessageType string

const (
	MessageTypeUser       MessageType = "user"
	MessageTypeAI         MessageType = "ai"
	MessageTypeSystem     MessageType = "system"
	MessageTypePrediction MessageType = "prediction"
)

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeUser, MessageTypeAI, MessageTypeSystem, MessageTypePrediction:
		return true
	}
	return false
}

// Priority is the urgency level assigned to a message or task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// MessageStatus is the delivery state of a message. Transitions are not
// implemented; every stored message stays "sent".
type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
	MessageStatusActedUpon MessageStatus = "acted_upon"
)

// Message is a unit of inbound or outbound communication processed by the
// intelligence service.
type Message struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Sender    string        `json:"sender"`
	Timestamp time.Time     `json:"timestamp"`
	Type      MessageType   `json:"type"`
	Priority  Priority      `json:"priority"`
	Status    MessageStatus `json:"status"`

	Context          map[string]any `json:"context,omitempty"`
	Suggestions      []string       `json:"suggestions,omitempty"`
	ExtractedTasks   []TaskDraft    `json:"extracted_tasks,omitempty"`
	WorkflowTriggers []string       `json:"workflow_triggers,omitempty"`
}

// MessageInput is the ingestion payload accepted by the service.
type MessageInput struct {
	Content string         `json:"content"`
	Sender  string         `json:"sender,omitempty"`
	Type    MessageType    `json:"type,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}
