package api

import (
	"sync"
	"time"

	"github.com/chenBenjamin97/pool-analyzer/pkg/video"
	"github.com/google/uuid"
)

// JobState is the life cycle state of a background analysis.
type JobState string

const (
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// Job is one background analysis of an uploaded video.
type Job struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	State    JobState       `json:"state"`
	Error    string         `json:"error,omitempty"`
	Summary  *video.Summary `json:"summary,omitempty"`
	Started  time.Time      `json:"started"`
	Finished *time.Time     `json:"finished,omitempty"`
}

// Jobs is the registry of the analyses started by the server, safe for concurrent use.
type Jobs struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

func NewJobs() *Jobs {
	return &Jobs{jobs: make(map[string]*Job)}
}

// Start registers a new running job for the given video name.
func (j *Jobs) Start(name string) Job {
	j.mu.Lock()
	defer j.mu.Unlock()

	job := &Job{ID: uuid.NewString(), Name: name, State: JobRunning, Started: time.Now()}
	j.jobs[job.ID] = job
	return *job
}

// Finish marks the job done, or failed when err is not nil.
func (j *Jobs) Finish(id string, summary video.Summary, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	job, ok := j.jobs[id]
	if !ok {
		return
	}

	now := time.Now()
	job.Finished = &now
	job.Summary = &summary
	if err != nil {
		job.State = JobFailed
		job.Error = err.Error()
		return
	}
	job.State = JobDone
}

// Get returns a copy of the job.
func (j *Jobs) Get(id string) (Job, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	job, ok := j.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}
