package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vidtube/internal/service"
)

// VideoHandler holds dependencies for video endpoints.
type VideoHandler struct {
	logger    *zap.Logger
	videoServ *service.VideoService
	tmpDir    string
}

func NewVideoHandler(logger *zap.Logger, videoServ *service.VideoService, tmpDir string) *VideoHandler {
	return &VideoHandler{
		logger:    logger,
		videoServ: videoServ,
		tmpDir:    tmpDir,
	}
}

// Publish handles POST /videos/publish-video (multipart form).
func (h *VideoHandler) Publish(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		abortWithError(c, NewAPIError(http.StatusUnauthorized, "unauthorized request"))
		return
	}

	videoPath, thumbPath, ok := h.stageVideoPair(c)
	if !ok {
		return
	}

	video, err := h.videoServ.Publish(c.Request.Context(), service.PublishInput{
		OwnerID:       user.ID,
		Title:         c.PostForm("title"),
		Description:   c.PostForm("discription"),
		VideoPath:     videoPath,
		ThumbnailPath: thumbPath,
	})
	if err != nil {
		h.logger.Warn("publish video failed", zap.Error(err), zap.String("userId", user.ID))
		abortWithError(c, mapServiceError(err))
		return
	}

	respond(c, http.StatusOK, video, "Video uploaded successfully")
}

// GetByID handles GET /videos/c/:videoId. The fetch is recorded in the
// caller's watch history.
func (h *VideoHandler) GetByID(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		abortWithError(c, NewAPIError(http.StatusUnauthorized, "unauthorized request"))
		return
	}

	videoID := c.Param("videoId")
	if videoID == "" {
		abortWithError(c, NewAPIError(http.StatusBadRequest, "videoId is required"))
		return
	}

	video, err := h.videoServ.Get(c.Request.Context(), videoID, user.ID)
	if err != nil {
		abortWithError(c, mapServiceError(err))
		return
	}

	respond(c, http.StatusOK, video, "Video found successfully")
}

// Update handles PATCH /videos/c/update-video/:videoId (multipart
// form).
func (h *VideoHandler) Update(c *gin.Context) {
	videoID := c.Param("videoId")
	if videoID == "" {
		abortWithError(c, NewAPIError(http.StatusBadRequest, "videoId is required"))
		return
	}

	videoPath, thumbPath, ok := h.stageVideoPair(c)
	if !ok {
		return
	}

	video, err := h.videoServ.Update(c.Request.Context(), service.UpdateInput{
		VideoID:       videoID,
		Title:         c.PostForm("title"),
		Description:   c.PostForm("discription"),
		VideoPath:     videoPath,
		ThumbnailPath: thumbPath,
	})
	if err != nil {
		h.logger.Warn("update video failed", zap.Error(err), zap.String("videoId", videoID))
		abortWithError(c, mapServiceError(err))
		return
	}

	respond(c, http.StatusOK, video, "Video updated successfully")
}

func (h *VideoHandler) stageVideoPair(c *gin.Context) (string, string, bool) {
	videoPath, err := stageUpload(c, h.tmpDir, "videoFile")
	if err != nil {
		h.logger.Warn("stage video file failed", zap.Error(err))
		abortWithError(c, NewAPIError(http.StatusBadRequest, "videoFile and thumbnail are required"))
		return "", "", false
	}
	thumbPath, err := stageUpload(c, h.tmpDir, "thumbnail")
	if err != nil {
		h.logger.Warn("stage thumbnail failed", zap.Error(err))
		abortWithError(c, NewAPIError(http.StatusBadRequest, "videoFile and thumbnail are required"))
		return "", "", false
	}
	if videoPath == "" || thumbPath == "" {
		abortWithError(c, NewAPIError(http.StatusBadRequest, "videoFile and thumbnail are required"))
		return "", "", false
	}
	return videoPath, thumbPath, true
}
