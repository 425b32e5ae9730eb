package domain

import (
	"time"
)

const MaxTitleLength = 100

// Task is assigned by an instructor to an assignee inside one workspace.
// Status only changes through the lifecycle rules; ReminderSent only
// latches from false to true.
type Task struct {
	ID           int64
	WorkspaceID  int64
	InstructorID int64
	AssigneeID   int64
	Title        string
	DueAt        time.Time
	Status       TaskStatus
	ReminderSent bool
	Origin       MessageRef
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MessageRef points back to the chat message a task was created from.
// The core never writes to it; the notifier uses it for rendering context.
type MessageRef struct {
	ChannelID int64
	MessageID int64
}

type TaskFilter struct {
	WorkspaceID int64
	AssigneeID  int64
	Statuses    []TaskStatus
}

type NotificationKind string

const (
	NotificationNewTask       NotificationKind = "NEW_TASK"
	NotificationPreDeadline   NotificationKind = "PRE_DEADLINE_REMINDER"
	NotificationStatusChanged NotificationKind = "STATUS_CHANGED"
)

// Notification is the delivery request handed to the sink. Delivery is
// best effort; the core never depends on it succeeding.
type Notification struct {
	RecipientID int64
	TaskID      int64
	Kind        NotificationKind
}

// Clock abstracts time.Now so the resolver and the reminder worker are
// deterministic under test.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
