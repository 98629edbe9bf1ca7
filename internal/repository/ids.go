package repository

import (
	"strings"

	"github.com/google/uuid"
)

func newTaskID() string {
	return "TASK-" + strings.ToUpper(uuid.NewString())
}

func newCoverageRequestID() string {
	return "COV-" + strings.ToUpper(uuid.NewString())
}
