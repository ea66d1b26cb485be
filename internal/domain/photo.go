package domain

import (
	"path"
	"regexp"
	"strings"
)

type PhotoUploadRequest struct {
	FileName    string `json:"fileName" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,oneof=image/jpeg image/png image/heic image/webp image/gif"`
}

func (r *PhotoUploadRequest) Normalize() {
	r.FileName = strings.TrimSpace(r.FileName)
	r.ContentType = strings.ToLower(strings.TrimSpace(r.ContentType))
}

func (r *PhotoUploadRequest) Validate() error {
	return validateStruct(r).orNil()
}

type PhotoUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
	ExpiresIn int64  `json:"expiresIn"`
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeFileName strips directories and anything outside a conservative
// character set so the name is safe inside an object key.
func SanitizeFileName(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	clean := strings.Trim(unsafeFileChars.ReplaceAllString(base, "-"), "-.")
	if clean == "" {
		return "photo"
	}
	if len(clean) > 100 {
		clean = clean[len(clean)-100:]
	}
	return clean
}
