package usecase

import (
	"fmt"

	"github.com/google/uuid"
)

func chunkKey(sessionID uuid.UUID, index int) string {
	return fmt.Sprintf("uploads/%s/chunks/%05d", sessionID, index)
}

func chunkPrefix(sessionID uuid.UUID) string {
	return fmt.Sprintf("uploads/%s/chunks/", sessionID)
}

func sourceKey(sessionID uuid.UUID, fileName string) string {
	return fmt.Sprintf("uploads/%s/source/%s", sessionID, fileName)
}
