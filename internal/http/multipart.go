package http

import (
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// stageUpload writes the named multipart file into tmpDir under a
// fresh name and returns its path, or "" when the field is absent.
// The media relay owns removal of the staged file.
func stageUpload(c *gin.Context, tmpDir, field string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}
	dst := filepath.Join(tmpDir, uuid.NewString()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", err
	}
	return dst, nil
}
