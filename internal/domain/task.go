package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a queued task.
type TaskStatus string

// Possible task status values.
const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusDispatched TaskStatus = "DISPATCHED"
	TaskStatusSucceeded  TaskStatus = "SUCCEEDED"
	TaskStatusFailed     TaskStatus = "FAILED"
)

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrTaskQueueEmpty is returned when a task has no queue name.
	ErrTaskQueueEmpty = errors.New("task queue cannot be empty")

	// ErrTaskNameEmpty is returned when a task has no name.
	ErrTaskNameEmpty = errors.New("task name cannot be empty")

	// ErrTaskPayloadInvalid is returned when a task payload is not valid JSON.
	ErrTaskPayloadInvalid = errors.New("task payload must be valid JSON")
)

// Task is one unit of background work on a named queue. The payload is opaque
// to the dispatcher; each queue's handler parses it into a typed struct.
// Tasks are created by an external enqueuer and only ever transition status
// here; nothing in this service deletes them.
type Task struct {
	ID             uuid.UUID       `json:"id"`
	Queue          string          `json:"queue"`
	TaskName       string          `json:"task_name"`
	Payload        json.RawMessage `json:"payload"`
	Status         TaskStatus      `json:"status"`
	AttemptCount   int             `json:"attempt_count"`
	ScheduleTime   *time.Time      `json:"schedule_time,omitempty"`
	FirstAttemptAt *time.Time      `json:"first_attempt_at,omitempty"`
	LastAttemptAt  *time.Time      `json:"last_attempt_at,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewTask creates a PENDING task on the given queue with the given payload.
// A nil scheduleTime means the task is eligible immediately.
// Returns an error if validation fails.
func NewTask(queue, taskName string, payload json.RawMessage, scheduleTime *time.Time) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:           uuid.New(),
		Queue:        queue,
		TaskName:     taskName,
		Payload:      payload,
		Status:       TaskStatusPending,
		ScheduleTime: scheduleTime,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.Queue == "" {
		return ErrTaskQueueEmpty
	}

	if t.TaskName == "" {
		return ErrTaskNameEmpty
	}

	if len(t.Payload) > 0 {
		var js json.RawMessage
		if err := json.Unmarshal(t.Payload, &js); err != nil {
			return ErrTaskPayloadInvalid
		}
	}

	return nil
}
