package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/genstudio-io/genstudio-be/internal/api/dto"
	"github.com/genstudio-io/genstudio-be/internal/config"
	"github.com/genstudio-io/genstudio-be/internal/diagnostics"
	"github.com/genstudio-io/genstudio-be/internal/dispatcher"
	"github.com/genstudio-io/genstudio-be/internal/domain"
	"github.com/genstudio-io/genstudio-be/internal/queue"
	"github.com/genstudio-io/genstudio-be/internal/storage"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger     *slog.Logger
	Storage    *storage.Storage
	Dispatcher *dispatcher.Dispatcher
	Publisher  *queue.Publisher
	Config     *config.Config
	Recorder   *diagnostics.Recorder
}

// writeError maps domain errors onto HTTP status codes with a JSON body.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrJobNotFound),
		errors.Is(err, domain.ErrDraftNotFound),
		errors.Is(err, domain.ErrPriceNotFound),
		errors.Is(err, domain.ErrBroadcastPreviewNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUserBanned):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInsufficientBalance):
		status = http.StatusPaymentRequired
	case errors.Is(err, domain.ErrDraftNotReady),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrNoActiveDraft),
		errors.Is(err, domain.ErrAmbiguousDraft),
		errors.Is(err, domain.ErrUnknownSection),
		errors.Is(err, domain.ErrJobNotQueued):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrQueueUnavailable):
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

// queryInt64 reads a required integer query parameter, writing the 400
// itself when missing or malformed.
func queryInt64(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " is required"})
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be an integer"})
		return 0, false
	}
	return v, true
}

func taskDTO(job *domain.Job) dto.TaskDTO {
	out := dto.TaskDTO{
		ID:             job.ID,
		Section:        string(job.Section),
		Status:         string(job.Status),
		Price:          job.Price,
		ErrorMessage:   job.ErrorMessage,
		DeliveryFailed: job.DeliveryFailed,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}
	if job.Result != nil {
		out.Result = &dto.ResultDTO{
			FilePath: job.Result.FilePath,
			FileURL:  job.Result.FileURL,
			Message:  job.Result.Message,
		}
	}
	return out
}
