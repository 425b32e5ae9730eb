package notify

import (
	"fmt"

	"task_service/internal/domain"
)

// RenderMessage formats the chat line shown to the recipient for an
// event. Unknown kinds fall back to a generic mention so a newer
// producer never silences an older notifier.
func RenderMessage(e Event) string {
	switch e.Kind {
	case domain.NotificationNewTask:
		return fmt.Sprintf("You have been assigned task #%d. Reply to accept or decline it.", e.TaskID)
	case domain.NotificationPreDeadline:
		return fmt.Sprintf("Task #%d is due within the hour.", e.TaskID)
	case domain.NotificationStatusChanged:
		return fmt.Sprintf("Task #%d changed status.", e.TaskID)
	default:
		return fmt.Sprintf("Update on task #%d.", e.TaskID)
	}
}
