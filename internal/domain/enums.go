package domain

type TaskStatus string

const (
	TaskStatusUnspecified TaskStatus = "UNSPECIFIED"
	TaskStatusPending     TaskStatus = "PENDING"
	TaskStatusAccepted    TaskStatus = "ACCEPTED"
	TaskStatusCompleted   TaskStatus = "COMPLETED"
	TaskStatusDeclined    TaskStatus = "DECLINED"
	TaskStatusAbandoned   TaskStatus = "ABANDONED"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusAccepted, TaskStatusCompleted,
		TaskStatusDeclined, TaskStatusAbandoned:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition can leave s.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusDeclined || s == TaskStatusAbandoned
}

func ToTaskStatus(status string) TaskStatus {
	switch status {
	case "PENDING":
		return TaskStatusPending
	case "ACCEPTED":
		return TaskStatusAccepted
	case "COMPLETED":
		return TaskStatusCompleted
	case "DECLINED":
		return TaskStatusDeclined
	case "ABANDONED":
		return TaskStatusAbandoned
	default:
		return TaskStatusUnspecified
	}
}
