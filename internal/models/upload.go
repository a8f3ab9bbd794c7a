package models

import "time"

// UploadKind selects validation and storage prefix for an upload.
type UploadKind string

const (
	UploadPoster UploadKind = "poster"
	UploadSlides UploadKind = "ppt"
)

// UploadResult describes a stored file and how to fetch it.
type UploadResult struct {
	Key         string    `json:"key"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
