package services

import (
	"fmt"
	"strings"

	"github.com/boulodrome/tournament-engine/models"
	"github.com/boulodrome/tournament-engine/storage"
)

func populateResultPhotoURL(result *models.MatchResult, uploader storage.FileUploader) {
	if result == nil || result.PhotoKey == nil || *result.PhotoKey == "" || uploader == nil {
		return
	}
	if url := uploader.GetPublicURL(*result.PhotoKey); url != "" {
		result.PhotoURL = &url
	}
}

func extensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && strings.HasPrefix(parts[0], "image") && parts[1] != "" {
			return "." + strings.Split(parts[1], "+")[0], nil
		}
		return "", fmt.Errorf("could not determine file extension from content type: '%s'", contentType)
	}
}
