package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	appsync "github.com/relist/backend/internal/application/sync"
)

const (
	// QueueSync is the queue listing-import continuations run on.
	QueueSync = "sync"
	// TaskTypeListingsPage is the task type for one page of a listing import.
	TaskTypeListingsPage = "sync:listings:page"
)

// NewListingsPageTask constructs an Asynq task carrying the page cursor.
func NewListingsPageTask(cursor appsync.PageCursor) (*asynq.Task, error) {
	payload, err := json.Marshal(cursor)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeListingsPage, payload), nil
}
