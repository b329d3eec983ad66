package workers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/benvon/codemate/internal/apperror"
	"github.com/benvon/codemate/internal/models"
	"github.com/benvon/codemate/internal/queue"
	"github.com/benvon/codemate/internal/services/ai"
)

func TestMain(m *testing.M) {
	// The genai client pulls in opencensus, whose view worker starts in init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type fakeDelivery struct {
	job     *queue.Job
	acked   bool
	nacked  bool
	requeue bool
}

func (d *fakeDelivery) Ack() error { d.acked = true; return nil }
func (d *fakeDelivery) Nack(requeue bool) error {
	d.nacked, d.requeue = true, requeue
	return nil
}
func (d *fakeDelivery) GetJob() *queue.Job { return d.job }

type mockTags struct {
	GetByIDFunc        func(ctx context.Context, id uuid.UUID) (*models.Tag, error)
	SetDescriptionFunc func(ctx context.Context, id uuid.UUID, description string) error
	PruneEmptyFunc     func(ctx context.Context) (int64, error)
}

func (m *mockTags) GetByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockTags) SetDescription(ctx context.Context, id uuid.UUID, description string) error {
	return m.SetDescriptionFunc(ctx, id, description)
}

func (m *mockTags) PruneEmpty(ctx context.Context) (int64, error) {
	return m.PruneEmptyFunc(ctx)
}

type describerFunc func(ctx context.Context, tag string) (string, error)

func (f describerFunc) DescribeTag(ctx context.Context, tag string) (string, error) {
	return f(ctx, tag)
}

type recordingPublisher struct {
	mu   sync.Mutex
	jobs []*queue.Job
	err  error
}

func (p *recordingPublisher) Enqueue(_ context.Context, job *queue.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

func TestProcessTagDescription(t *testing.T) {
	t.Parallel()

	tagID := uuid.New()
	existing := "Go is a language."
	throttled := &ai.APIError{StatusCode: http.StatusTooManyRequests}

	tests := []struct {
		name         string
		job          func() *queue.Job
		tag          *models.Tag
		getErr       error
		describeErr  error
		publishErr   error
		wantStored   string
		wantAck      bool
		wantNack     bool
		wantRetries  int
		wantErr      bool
		wantDescribe bool
	}{
		{
			name:         "describes a new tag",
			job:          func() *queue.Job { return queue.NewTagDescriptionJob(tagID, "go") },
			tag:          &models.Tag{ID: tagID, Name: "go"},
			wantStored:   "Go is a statically typed language.",
			wantAck:      true,
			wantDescribe: true,
		},
		{
			name:    "keeps an existing description",
			job:     func() *queue.Job { return queue.NewTagDescriptionJob(tagID, "go") },
			tag:     &models.Tag{ID: tagID, Name: "go", Description: &existing},
			wantAck: true,
		},
		{
			name:    "tag deleted meanwhile",
			job:     func() *queue.Job { return queue.NewTagDescriptionJob(tagID, "go") },
			getErr:  apperror.NotFound("tag", tagID.String()),
			wantAck: true,
		},
		{
			name:     "missing tag id goes to dead letters",
			job:      func() *queue.Job { j := queue.NewTagDescriptionJob(tagID, "go"); j.TagID = nil; return j },
			wantNack: true,
			wantErr:  true,
		},
		{
			name:         "throttled provider is retried",
			job:          func() *queue.Job { return queue.NewTagDescriptionJob(tagID, "go") },
			tag:          &models.Tag{ID: tagID, Name: "go"},
			describeErr:  throttled,
			wantAck:      true,
			wantRetries:  1,
			wantErr:      true,
			wantDescribe: true,
		},
		{
			name: "retries exhausted",
			job: func() *queue.Job {
				j := queue.NewTagDescriptionJob(tagID, "go")
				j.RetryCount = j.MaxRetries
				return j
			},
			tag:          &models.Tag{ID: tagID, Name: "go"},
			describeErr:  throttled,
			wantNack:     true,
			wantErr:      true,
			wantDescribe: true,
		},
		{
			name:         "retry enqueue fails",
			job:          func() *queue.Job { return queue.NewTagDescriptionJob(tagID, "go") },
			tag:          &models.Tag{ID: tagID, Name: "go"},
			describeErr:  errors.New("connection reset"),
			publishErr:   errors.New("channel closed"),
			wantNack:     true,
			wantErr:      true,
			wantDescribe: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stored string
			described := false
			tags := &mockTags{
				GetByIDFunc: func(_ context.Context, id uuid.UUID) (*models.Tag, error) {
					assert.Equal(t, tagID, id)
					return tt.tag, tt.getErr
				},
				SetDescriptionFunc: func(_ context.Context, _ uuid.UUID, d string) error {
					stored = d
					return nil
				},
			}
			describer := describerFunc(func(_ context.Context, tag string) (string, error) {
				described = true
				assert.Equal(t, "go", tag)
				if tt.describeErr != nil {
					return "", tt.describeErr
				}
				return "Go is a statically typed language.", nil
			})
			pub := &recordingPublisher{err: tt.publishErr}
			w := NewTagWorker(tags, describer, pub, zaptest.NewLogger(t))

			job := tt.job()
			d := &fakeDelivery{job: job}
			err := w.ProcessJob(context.Background(), d)

			assert.Equal(t, tt.wantErr, err != nil, "error: %v", err)
			assert.Equal(t, tt.wantAck, d.acked)
			assert.Equal(t, tt.wantNack, d.nacked)
			assert.False(t, d.requeue)
			assert.Equal(t, tt.wantStored, stored)
			assert.Equal(t, tt.wantDescribe, described)
			require.Len(t, pub.jobs, tt.wantRetries)
			if tt.wantRetries > 0 {
				retry := pub.jobs[0]
				assert.Equal(t, job.ID, retry.ID)
				assert.Equal(t, job.RetryCount+1, retry.RetryCount)
				require.NotNil(t, retry.NotBefore)
				assert.True(t, retry.NotBefore.After(time.Now().Add(30*time.Second)))
			}
		})
	}
}

func TestProcessTagPrune(t *testing.T) {
	t.Parallel()

	calls := 0
	tags := &mockTags{PruneEmptyFunc: func(context.Context) (int64, error) {
		calls++
		return 4, nil
	}}
	w := NewTagWorker(tags, nil, &recordingPublisher{}, zaptest.NewLogger(t))

	d := &fakeDelivery{job: queue.NewTagPruneJob()}
	require.NoError(t, w.ProcessJob(context.Background(), d))
	assert.True(t, d.acked)
	assert.Equal(t, 1, calls)
}

func TestProcessJobScheduling(t *testing.T) {
	t.Parallel()

	t.Run("expired job is dropped", func(t *testing.T) {
		t.Parallel()
		past := time.Now().Add(-time.Minute)
		job := queue.NewTagPruneJob()
		job.NotAfter = &past

		pub := &recordingPublisher{}
		d := &fakeDelivery{job: job}
		require.NoError(t, NewTagWorker(&mockTags{}, nil, pub, zaptest.NewLogger(t)).ProcessJob(context.Background(), d))
		assert.True(t, d.acked)
		assert.Empty(t, pub.jobs)
	})

	t.Run("early job is deferred", func(t *testing.T) {
		t.Parallel()
		future := time.Now().Add(time.Hour)
		job := queue.NewTagPruneJob()
		job.NotBefore = &future

		pub := &recordingPublisher{}
		d := &fakeDelivery{job: job}
		require.NoError(t, NewTagWorker(&mockTags{}, nil, pub, zaptest.NewLogger(t)).ProcessJob(context.Background(), d))
		assert.True(t, d.acked)
		require.Len(t, pub.jobs, 1)
		assert.Equal(t, 0, pub.jobs[0].RetryCount)
	})

	t.Run("unknown type goes to dead letters", func(t *testing.T) {
		t.Parallel()
		job := queue.NewTagPruneJob()
		job.Type = "reindex"

		pub := &recordingPublisher{}
		d := &fakeDelivery{job: job}
		err := NewTagWorker(&mockTags{}, nil, pub, zaptest.NewLogger(t)).ProcessJob(context.Background(), d)
		assert.Error(t, err)
		assert.True(t, d.nacked)
		assert.Empty(t, pub.jobs)
	})
}

func TestRunStops(t *testing.T) {
	t.Parallel()

	w := NewTagWorker(&mockTags{}, nil, &recordingPublisher{}, zaptest.NewLogger(t))

	msgs := make(chan *queue.Message)
	close(msgs)
	w.Run(context.Background(), msgs)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, make(chan *queue.Message))
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
