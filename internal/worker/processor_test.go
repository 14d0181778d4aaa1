package worker

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genstudio-io/genstudio-be/internal/domain"
	"github.com/genstudio-io/genstudio-be/internal/queue"
)

type fakeWorkerStore struct {
	jobs            map[int64]*domain.Job
	users           map[int64]*domain.User
	deliveryFlags   map[int64]bool
	deactivated     []int64
	failClaim       error
	failSetDelivery error
}

func newFakeWorkerStore() *fakeWorkerStore {
	return &fakeWorkerStore{
		jobs:          make(map[int64]*domain.Job),
		users:         make(map[int64]*domain.User),
		deliveryFlags: make(map[int64]bool),
	}
}

func (f *fakeWorkerStore) ClaimJob(_ context.Context, jobID int64) (*domain.Job, error) {
	if f.failClaim != nil {
		return nil, f.failClaim
	}
	job, ok := f.jobs[jobID]
	if !ok || job.Status != domain.JobStatusQueued {
		return nil, domain.ErrJobNotQueued
	}
	job.Status = domain.JobStatusProcessing
	return job, nil
}

func (f *fakeWorkerStore) CompleteJob(_ context.Context, jobID int64, result *domain.Result) error {
	job := f.jobs[jobID]
	job.Status = domain.JobStatusDone
	job.Result = result
	return nil
}

func (f *fakeWorkerStore) FailJob(_ context.Context, jobID int64, message string) error {
	job := f.jobs[jobID]
	job.Status = domain.JobStatusError
	job.ErrorMessage = &message
	return nil
}

func (f *fakeWorkerStore) SetDeliveryFailed(_ context.Context, jobID int64, failed bool) error {
	if f.failSetDelivery != nil {
		return f.failSetDelivery
	}
	f.deliveryFlags[jobID] = failed
	return nil
}

func (f *fakeWorkerStore) JobByID(_ context.Context, jobID int64) (*domain.Job, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

func (f *fakeWorkerStore) UserByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeWorkerStore) ListActiveUsers(_ context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.users {
		if u.IsActive {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeWorkerStore) DeactivateUser(_ context.Context, userID int64) error {
	f.deactivated = append(f.deactivated, userID)
	if u, ok := f.users[userID]; ok {
		u.IsActive = false
	}
	return nil
}

type fakeGenerator struct {
	result *domain.Result
	err    error
	calls  int
}

func (f *fakeGenerator) Submit(_ context.Context, _ domain.RequestPayload) (*domain.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeDeliverer struct {
	delivered   []int64
	texts       map[int64][]string
	failFor     map[int64]bool
	failAllText bool
}

func newFakeDeliverer() *fakeDeliverer {
	return &fakeDeliverer{
		texts:   make(map[int64][]string),
		failFor: make(map[int64]bool),
	}
}

func (f *fakeDeliverer) Deliver(_ context.Context, user *domain.User, job *domain.Job) bool {
	if f.failFor[user.ExternalID] {
		return false
	}
	f.delivered = append(f.delivered, job.ID)
	return true
}

func (f *fakeDeliverer) SendText(_ context.Context, externalID int64, text string) bool {
	if f.failAllText || f.failFor[externalID] {
		return false
	}
	f.texts[externalID] = append(f.texts[externalID], text)
	return true
}

func newTestWorker(store *fakeWorkerStore, gen *fakeGenerator, del *fakeDeliverer) *Worker {
	return NewWorker(&Config{
		Logger:      slog.Default(),
		Store:       store,
		Generator:   gen,
		Deliverer:   del,
		Concurrency: 1,
		JobTimeout:  time.Second,
	})
}

func seedJob(store *fakeWorkerStore, status domain.JobStatus) *domain.Job {
	store.users[1] = &domain.User{ID: 1, ExternalID: 42, IsActive: true}
	job := &domain.Job{
		ID:     7,
		UserID: 1,
		Status: status,
		Payload: domain.RequestPayload{
			Section: domain.SectionText,
			Text:    &domain.TextRequest{Prompt: "hi"},
		},
	}
	store.jobs[job.ID] = job
	return job
}

func TestProcessJob_Success(t *testing.T) {
	store := newFakeWorkerStore()
	job := seedJob(store, domain.JobStatusQueued)
	gen := &fakeGenerator{result: &domain.Result{Message: "done"}}
	del := newFakeDeliverer()
	w := newTestWorker(store, gen, del)

	err := w.process(context.Background(), &taskMessage{
		envelope: queue.Message{Kind: queue.KindJob, JobID: job.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.JobStatusDone, job.Status)
	assert.Equal(t, "done", job.Result.Message)
	assert.Equal(t, []int64{job.ID}, del.delivered)
	assert.False(t, store.deliveryFlags[job.ID])
}

func TestProcessJob_GenerationFailure(t *testing.T) {
	store := newFakeWorkerStore()
	job := seedJob(store, domain.JobStatusQueued)
	gen := &fakeGenerator{err: errors.New("provider exploded")}
	del := newFakeDeliverer()
	w := newTestWorker(store, gen, del)

	err := w.process(context.Background(), &taskMessage{
		envelope: queue.Message{Kind: queue.KindJob, JobID: job.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.JobStatusError, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, "provider exploded", *job.ErrorMessage)

	// the failure is still delivered to the user
	assert.Equal(t, []int64{job.ID}, del.delivered)
	assert.False(t, store.deliveryFlags[job.ID])
}

func TestProcessJob_NotClaimable(t *testing.T) {
	store := newFakeWorkerStore()
	job := seedJob(store, domain.JobStatusDone)
	gen := &fakeGenerator{}
	del := newFakeDeliverer()
	w := newTestWorker(store, gen, del)

	// duplicate message for a finished job is dropped without error
	err := w.process(context.Background(), &taskMessage{
		envelope: queue.Message{Kind: queue.KindJob, JobID: job.ID},
	})
	require.NoError(t, err)
	assert.Zero(t, gen.calls)
	assert.Empty(t, del.delivered)
}

func TestProcessJob_DeliveryFailureRecorded(t *testing.T) {
	store := newFakeWorkerStore()
	job := seedJob(store, domain.JobStatusQueued)
	gen := &fakeGenerator{result: &domain.Result{Message: "done"}}
	del := newFakeDeliverer()
	del.failFor[42] = true
	w := newTestWorker(store, gen, del)

	err := w.process(context.Background(), &taskMessage{
		envelope: queue.Message{Kind: queue.KindJob, JobID: job.ID},
	})
	require.NoError(t, err)

	// job stays done, only the delivery flag records the miss
	assert.Equal(t, domain.JobStatusDone, job.Status)
	assert.True(t, store.deliveryFlags[job.ID])
	assert.NotEmpty(t, w.recorder.Recent())
}

func TestProcessRedeliver(t *testing.T) {
	store := newFakeWorkerStore()
	job := seedJob(store, domain.JobStatusDone)
	job.Result = &domain.Result{Message: "old result"}
	del := newFakeDeliverer()
	w := newTestWorker(store, &fakeGenerator{}, del)

	err := w.process(context.Background(), &taskMessage{
		envelope: queue.Message{Kind: queue.KindRedeliver, JobID: job.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{job.ID}, del.delivered)
	assert.False(t, store.deliveryFlags[job.ID])
}

func TestProcessRedeliver_NotFinished(t *testing.T) {
	store := newFakeWorkerStore()
	job := seedJob(store, domain.JobStatusQueued)
	del := newFakeDeliverer()
	w := newTestWorker(store, &fakeGenerator{}, del)

	err := w.process(context.Background(), &taskMessage{
		envelope: queue.Message{Kind: queue.KindRedeliver, JobID: job.ID},
	})
	assert.Error(t, err)
	assert.Empty(t, del.delivered)
}

func TestProcessBroadcast(t *testing.T) {
	store := newFakeWorkerStore()
	store.users[1] = &domain.User{ID: 1, ExternalID: 101, IsActive: true}
	store.users[2] = &domain.User{ID: 2, ExternalID: 102, IsActive: true}
	store.users[3] = &domain.User{ID: 3, ExternalID: 103, IsActive: false}

	del := newFakeDeliverer()
	w := newTestWorker(store, &fakeGenerator{}, del)

	err := w.process(context.Background(), &taskMessage{
		envelope: queue.Message{Kind: queue.KindBroadcast, Message: "maintenance tonight"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"maintenance tonight"}, del.texts[101])
	assert.Equal(t, []string{"maintenance tonight"}, del.texts[102])
	assert.Empty(t, del.texts[103])
	assert.Empty(t, store.deactivated)
}

func TestProcessBroadcast_DeactivatesUnreachable(t *testing.T) {
	store := newFakeWorkerStore()
	store.users[1] = &domain.User{ID: 1, ExternalID: 101, IsActive: true}
	store.users[2] = &domain.User{ID: 2, ExternalID: 102, IsActive: true}

	del := newFakeDeliverer()
	del.failFor[102] = true
	w := newTestWorker(store, &fakeGenerator{}, del)

	err := w.process(context.Background(), &taskMessage{
		envelope: queue.Message{Kind: queue.KindBroadcast, Message: "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, store.deactivated)
}

func TestProcess_UnknownKind(t *testing.T) {
	w := newTestWorker(newFakeWorkerStore(), &fakeGenerator{}, newFakeDeliverer())
	err := w.process(context.Background(), &taskMessage{
		envelope: queue.Message{Kind: "mystery"},
	})
	assert.Error(t, err)
}
