package tasks

// TaskSchedulerInterface defines the interface for task scheduling
// operations. Used by the main application and the API handlers to manage
// background publishing work.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
