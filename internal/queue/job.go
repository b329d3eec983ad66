package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeTagDescription asks the worker to generate and store an AI
	// description for a tag.
	JobTypeTagDescription JobType = "tag_description"
	// JobTypeTagPrune asks the worker to delete tags no question uses.
	JobTypeTagPrune JobType = "tag_prune"
)

const defaultMaxRetries = 3

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID  `json:"id"`
	Type       JobType    `json:"type"`
	TagID      *uuid.UUID `json:"tag_id,omitempty"`
	TagName    string     `json:"tag_name,omitempty"`
	NotBefore  *time.Time `json:"not_before,omitempty"` // nil = immediate
	NotAfter   *time.Time `json:"not_after,omitempty"`  // nil = never expires
	CreatedAt  time.Time  `json:"created_at"`
	RetryCount int        `json:"retry_count"`
	MaxRetries int        `json:"max_retries"`
}

func newJob(jobType JobType) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		CreatedAt:  time.Now(),
		MaxRetries: defaultMaxRetries,
	}
}

// NewTagDescriptionJob creates a description job for one tag.
func NewTagDescriptionJob(tagID uuid.UUID, tagName string) *Job {
	job := newJob(JobTypeTagDescription)
	job.TagID = &tagID
	job.TagName = tagName
	return job
}

// NewTagPruneJob creates a job that removes unused tags.
func NewTagPruneJob() *Job {
	return newJob(JobTypeTagPrune)
}

// ShouldProcess reports whether the job is inside its processing window.
func (j *Job) ShouldProcess() bool {
	now := time.Now()
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	return !j.IsExpired()
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	return j.NotAfter != nil && time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// Retry returns a copy scheduled delay from now with the retry count bumped.
func (j *Job) Retry(delay time.Duration) *Job {
	next := *j
	next.RetryCount++
	notBefore := time.Now().Add(delay)
	next.NotBefore = &notBefore
	return &next
}
