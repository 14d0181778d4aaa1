// Package delivery pushes finished job results back to users. Delivery is
// best effort: a failure here never disturbs the job's terminal state, it is
// only recorded so the result can be re-sent later.
package delivery

import (
	"context"
	"io/fs"
	"log/slog"
	"os"

	"github.com/genstudio-io/genstudio-be/internal/domain"
)

// Service sends job outcomes over a transport.
type Service struct {
	transport Transport
	logger    *slog.Logger

	// stat is swapped out in tests.
	stat func(string) (fs.FileInfo, error)
}

// NewService creates a delivery service.
func NewService(transport Transport, logger *slog.Logger) *Service {
	return &Service{
		transport: transport,
		logger:    logger,
		stat:      os.Stat,
	}
}

// genericDoneText is sent when a done job carries an empty result.
const genericDoneText = "Your request is finished."

// Deliver sends the job's outcome to the user and reports success. Result
// content is tried in a fixed order: a still-readable local file, then URL,
// then message text, then a generic completion notice. A file path whose
// file is gone falls through to the next option. Errored jobs get the error
// message. Transport failures are swallowed and reported as false.
func (s *Service) Deliver(ctx context.Context, user *domain.User, job *domain.Job) bool {
	var err error
	switch {
	case job.Status == domain.JobStatusError:
		text := "Your request failed."
		if job.ErrorMessage != nil && *job.ErrorMessage != "" {
			text = *job.ErrorMessage
		}
		err = s.transport.SendText(ctx, user.ExternalID, text)
	case job.Result != nil && job.Result.FilePath != "" && s.fileReachable(job.Result.FilePath):
		err = s.transport.SendFile(ctx, user.ExternalID, job.Result.FilePath)
	case job.Result != nil && job.Result.FileURL != "":
		err = s.transport.SendText(ctx, user.ExternalID, job.Result.FileURL)
	case job.Result != nil && job.Result.Message != "":
		err = s.transport.SendText(ctx, user.ExternalID, job.Result.Message)
	default:
		err = s.transport.SendText(ctx, user.ExternalID, genericDoneText)
	}

	if err != nil {
		s.logger.Warn("Failed to deliver job result",
			slog.Int64("job_id", job.ID),
			slog.Int64("user_id", user.ID),
			slog.Any("error", err),
		)
		return false
	}
	return true
}

func (s *Service) fileReachable(path string) bool {
	_, err := s.stat(path)
	return err == nil
}

// SendText pushes a plain message to a user, reporting success.
func (s *Service) SendText(ctx context.Context, externalID int64, text string) bool {
	if err := s.transport.SendText(ctx, externalID, text); err != nil {
		s.logger.Warn("Failed to send message",
			slog.Int64("external_id", externalID),
			slog.Any("error", err),
		)
		return false
	}
	return true
}
