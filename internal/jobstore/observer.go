package jobstore

import (
	"context"
	"log/slog"
	"time"

	"cuecast/internal/jobs"
	"cuecast/internal/logging"
)

const recordTimeout = 5 * time.Second

// Observer returns a registry observer that persists every transition.
// Persistence failures are logged and never affect the job itself.
func (s *Store) Observer(logger *slog.Logger) jobs.Observer {
	logger = logging.NewComponentLogger(logger, "jobstore")
	return func(snap jobs.Snapshot) {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := s.Record(ctx, snap); err != nil {
			logger.Warn("job history write failed",
				logging.String(logging.FieldJobID, snap.ID),
				logging.String("status", string(snap.Status)),
				logging.Error(err),
				logging.String(logging.FieldEventType, "history_write_failed"),
			)
		}
	}
}
