package delivery

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/genstudio-io/genstudio-be/internal/domain"
)

type fakeTransport struct {
	texts []string
	files []string
	fail  bool
}

func (f *fakeTransport) SendText(_ context.Context, _ int64, text string) error {
	if f.fail {
		return errors.New("gateway down")
	}
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeTransport) SendFile(_ context.Context, _ int64, filePath string) error {
	if f.fail {
		return errors.New("gateway down")
	}
	f.files = append(f.files, filePath)
	return nil
}

func strPtr(s string) *string { return &s }

func TestDeliver(t *testing.T) {
	user := &domain.User{ID: 1, ExternalID: 42}

	tests := []struct {
		name        string
		job         domain.Job
		fail        bool
		missingFile bool
		delivered   bool
		wantText    string
		wantFile    string
	}{
		{
			name: "file wins over everything",
			job: domain.Job{
				Status: domain.JobStatusDone,
				Result: &domain.Result{
					FilePath: "/data/out.png",
					FileURL:  "https://cdn/out.png",
					Message:  "done",
				},
			},
			delivered: true,
			wantFile:  "/data/out.png",
		},
		{
			name: "missing file falls through to url",
			job: domain.Job{
				Status: domain.JobStatusDone,
				Result: &domain.Result{
					FilePath: "/data/deleted.png",
					FileURL:  "https://cdn/out.png",
				},
			},
			missingFile: true,
			delivered:   true,
			wantText:    "https://cdn/out.png",
		},
		{
			name: "missing file without url falls through to message",
			job: domain.Job{
				Status: domain.JobStatusDone,
				Result: &domain.Result{FilePath: "/data/deleted.png", Message: "done"},
			},
			missingFile: true,
			delivered:   true,
			wantText:    "done",
		},
		{
			name: "url when no file",
			job: domain.Job{
				Status: domain.JobStatusDone,
				Result: &domain.Result{FileURL: "https://cdn/out.png", Message: "done"},
			},
			delivered: true,
			wantText:  "https://cdn/out.png",
		},
		{
			name: "message text",
			job: domain.Job{
				Status: domain.JobStatusDone,
				Result: &domain.Result{Message: "hi"},
			},
			delivered: true,
			wantText:  "hi",
		},
		{
			name: "empty result falls back to generic notice",
			job: domain.Job{
				Status: domain.JobStatusDone,
				Result: &domain.Result{},
			},
			delivered: true,
			wantText:  genericDoneText,
		},
		{
			name:      "nil result falls back to generic notice",
			job:       domain.Job{Status: domain.JobStatusDone},
			delivered: true,
			wantText:  genericDoneText,
		},
		{
			name: "errored job sends the error message",
			job: domain.Job{
				Status:       domain.JobStatusError,
				ErrorMessage: strPtr("provider rejected the prompt"),
			},
			delivered: true,
			wantText:  "provider rejected the prompt",
		},
		{
			name:      "errored job without message sends generic failure",
			job:       domain.Job{Status: domain.JobStatusError},
			delivered: true,
			wantText:  "Your request failed.",
		},
		{
			name: "transport failure reports false",
			job: domain.Job{
				Status: domain.JobStatusDone,
				Result: &domain.Result{Message: "hi"},
			},
			fail:      true,
			delivered: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &fakeTransport{fail: tt.fail}
			svc := NewService(transport, slog.Default())
			svc.stat = func(string) (fs.FileInfo, error) {
				if tt.missingFile {
					return nil, fs.ErrNotExist
				}
				return nil, nil
			}

			got := svc.Deliver(context.Background(), user, &tt.job)
			assert.Equal(t, tt.delivered, got)

			if tt.wantText != "" {
				assert.Equal(t, []string{tt.wantText}, transport.texts)
			}
			if tt.wantFile != "" {
				assert.Equal(t, []string{tt.wantFile}, transport.files)
			} else {
				assert.Empty(t, transport.files)
			}
		})
	}
}

func TestSendText(t *testing.T) {
	transport := &fakeTransport{}
	svc := NewService(transport, slog.Default())

	assert.True(t, svc.SendText(context.Background(), 42, "hello"))
	assert.Equal(t, []string{"hello"}, transport.texts)

	transport.fail = true
	assert.False(t, svc.SendText(context.Background(), 42, "hello"))
}
