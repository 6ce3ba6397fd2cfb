package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldCandidateID = "candidate_id"
	FieldJobID       = "job_id"
	FieldBatchID     = "batch_id"
	FieldStore       = "store"
)

// WithFields attaches fields to the logger. A nil logger becomes a no-op
// logger so components can be built without one.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// PairFields describes a candidate/job pair. Blank ids are omitted.
func PairFields(candidateID, jobID string) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if id := strings.TrimSpace(candidateID); id != "" {
		fields = append(fields, zap.String(FieldCandidateID, id))
	}
	if id := strings.TrimSpace(jobID); id != "" {
		fields = append(fields, zap.String(FieldJobID, id))
	}
	return fields
}

// ForStore tags the logger with the vector store backend name.
func ForStore(logger *zap.Logger, name string) *zap.Logger {
	name = strings.TrimSpace(name)
	if name == "" {
		return WithFields(logger)
	}
	return WithFields(logger, zap.String(FieldStore, name))
}
