package pipeline

import (
	"context"

	"hound/internal/fileutil"
)

// downloadTask is one tracked background copy. The coordinator polls
// finished between cycles; the goroutine is always joined through it, never
// abandoned.
type downloadTask struct {
	job  *Job
	done chan struct{}
	err  error
}

func startDownload(ctx context.Context, job *Job) *downloadTask {
	task := &downloadTask{job: job, done: make(chan struct{})}
	go func() {
		defer close(task.done)
		if err := ctx.Err(); err != nil {
			task.err = err
			return
		}
		task.err = fileutil.CopyFileVerified(job.File.Path, job.DownloadPath)
	}()
	return task
}

func (t *downloadTask) finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *downloadTask) wait() {
	<-t.done
}
