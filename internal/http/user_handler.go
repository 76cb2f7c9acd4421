package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vidtube/internal/domain"
	"vidtube/internal/service"
)

// CookieOptions controls how auth cookies are written. Secure is
// configurable so plain-HTTP local runs still work.
type CookieOptions struct {
	Secure        bool
	AccessMaxAge  int
	RefreshMaxAge int
}

// UserHandler holds dependencies for account and channel endpoints.
type UserHandler struct {
	logger    *zap.Logger
	userServ  *service.UserService
	videoServ *service.VideoService
	tokenServ *service.TokenService
	cookies   CookieOptions
	tmpDir    string
}

func NewUserHandler(logger *zap.Logger, userServ *service.UserService, videoServ *service.VideoService, tokenServ *service.TokenService, cookies CookieOptions, tmpDir string) *UserHandler {
	return &UserHandler{
		logger:    logger,
		userServ:  userServ,
		videoServ: videoServ,
		tokenServ: tokenServ,
		cookies:   cookies,
		tmpDir:    tmpDir,
	}
}

// Register handles POST /users/register (multipart form).
func (h *UserHandler) Register(c *gin.Context) {
	username := c.PostForm("username")
	email := c.PostForm("email")
	password := c.PostForm("password")
	fullName := c.PostForm("fullname")

	avatarPath, err := stageUpload(c, h.tmpDir, "avatar")
	if err != nil {
		h.logger.Warn("stage avatar failed", zap.Error(err))
		abortWithError(c, NewAPIError(http.StatusBadRequest, "avatar is required"))
		return
	}
	coverPath, err := stageUpload(c, h.tmpDir, "coverImage")
	if err != nil {
		h.logger.Warn("stage cover image failed", zap.Error(err))
		coverPath = ""
	}

	user, err := h.userServ.Register(c.Request.Context(), service.RegisterInput{
		Username:       username,
		Email:          email,
		Password:       password,
		FullName:       fullName,
		AvatarPath:     avatarPath,
		CoverImagePath: coverPath,
	})
	if err != nil {
		h.logger.Warn("register failed", zap.Error(err), zap.String("username", username))
		abortWithError(c, mapServiceError(err))
		return
	}

	respond(c, http.StatusCreated, user, "User registered successfully")
}

// Login handles POST /users/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewAPIError(http.StatusBadRequest, "invalid request body"))
		return
	}
	if req.Username == "" && req.Email == "" {
		abortWithError(c, NewAPIError(http.StatusBadRequest, "username or email is required"))
		return
	}

	user, err := h.userServ.Authenticate(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.logger.Warn("login failed", zap.Error(err), zap.String("username", req.Username))
		abortWithError(c, mapServiceError(err))
		return
	}

	pair, err := h.tokenServ.IssuePair(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("issue token pair failed", zap.Error(err), zap.String("userId", user.ID))
		abortWithError(c, NewAPIError(http.StatusInternalServerError, "could not create session"))
		return
	}

	h.setAuthCookies(c, pair)
	respond(c, http.StatusOK, gin.H{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "User logged in successfully")
}

// Logout handles POST /users/logout.
func (h *UserHandler) Logout(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		abortWithError(c, NewAPIError(http.StatusUnauthorized, "unauthorized request"))
		return
	}

	if err := h.tokenServ.Invalidate(c.Request.Context(), user.ID); err != nil {
		h.logger.Error("invalidate session failed", zap.Error(err), zap.String("userId", user.ID))
		abortWithError(c, NewAPIError(http.StatusInternalServerError, "could not end session"))
		return
	}

	h.clearAuthCookies(c)
	respond(c, http.StatusOK, gin.H{}, "User logged out")
}

// RefreshToken handles POST /users/refresh-token. The refresh token is
// read from the cookie or the body.
func (h *UserHandler) RefreshToken(c *gin.Context) {
	presented, _ := c.Cookie("refreshToken")
	if presented == "" {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := c.ShouldBindJSON(&req); err == nil {
			presented = req.RefreshToken
		}
	}
	if presented == "" {
		abortWithError(c, NewAPIError(http.StatusUnauthorized, "unauthorized request"))
		return
	}

	pair, err := h.tokenServ.Rotate(c.Request.Context(), presented)
	if err != nil {
		h.logger.Warn("token rotation failed", zap.Error(err))
		abortWithError(c, NewAPIError(http.StatusUnauthorized, "refresh token is expired or used"))
		return
	}

	h.setAuthCookies(c, pair)
	respond(c, http.StatusOK, pair, "Access token refreshed")
}

// ChangePassword handles POST /users/change-password.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		abortWithError(c, NewAPIError(http.StatusUnauthorized, "unauthorized request"))
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewAPIError(http.StatusBadRequest, "currentPassword and newPassword are required"))
		return
	}

	if err := h.userServ.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.logger.Warn("change password failed", zap.Error(err), zap.String("userId", user.ID))
		abortWithError(c, mapServiceError(err))
		return
	}

	respond(c, http.StatusOK, gin.H{}, "Password updated successfully")
}

// GetCurrentUser handles GET /users/current-user.
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		abortWithError(c, NewAPIError(http.StatusUnauthorized, "unauthorized request"))
		return
	}
	respond(c, http.StatusOK, user, "Current user fetched successfully")
}

// UpdateAccountDetails handles PATCH /users/update-account-details.
func (h *UserHandler) UpdateAccountDetails(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		abortWithError(c, NewAPIError(http.StatusUnauthorized, "unauthorized request"))
		return
	}

	var req struct {
		FullName string `json:"fullname"`
		Email    string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewAPIError(http.StatusBadRequest, "invalid request body"))
		return
	}

	updated, err := h.userServ.UpdateDetails(c.Request.Context(), user.ID, req.FullName, req.Email)
	if err != nil {
		h.logger.Warn("update account details failed", zap.Error(err), zap.String("userId", user.ID))
		abortWithError(c, mapServiceError(err))
		return
	}

	respond(c, http.StatusOK, updated, "Account details updated successfully")
}

// UpdateAvatar handles PATCH /users/update-avatar (multipart form).
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	h.updateImage(c, "avatar", h.userServ.UpdateAvatar, "Avatar updated successfully")
}

// UpdateCoverImage handles PATCH /users/update-coverImage (multipart
// form).
func (h *UserHandler) UpdateCoverImage(c *gin.Context) {
	h.updateImage(c, "coverImage", h.userServ.UpdateCoverImage, "Cover image updated successfully")
}

// GetChannelProfile handles GET /users/c/:username.
func (h *UserHandler) GetChannelProfile(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		abortWithError(c, NewAPIError(http.StatusUnauthorized, "unauthorized request"))
		return
	}

	profile, err := h.userServ.ChannelProfile(c.Request.Context(), c.Param("username"), user.ID)
	if err != nil {
		abortWithError(c, mapServiceError(err))
		return
	}

	respond(c, http.StatusOK, profile, "User channel fetched successfully")
}

// GetWatchHistory handles GET /users/history.
func (h *UserHandler) GetWatchHistory(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		abortWithError(c, NewAPIError(http.StatusUnauthorized, "unauthorized request"))
		return
	}

	history, err := h.videoServ.WatchHistory(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("load watch history failed", zap.Error(err), zap.String("userId", user.ID))
		abortWithError(c, mapServiceError(err))
		return
	}

	respond(c, http.StatusOK, history, "Watch history fetched successfully")
}

func (h *UserHandler) updateImage(c *gin.Context, field string, apply func(ctx context.Context, userID, localPath string) (domain.User, error), message string) {
	user, ok := CurrentUser(c)
	if !ok {
		abortWithError(c, NewAPIError(http.StatusUnauthorized, "unauthorized request"))
		return
	}

	localPath, err := stageUpload(c, h.tmpDir, field)
	if err != nil || localPath == "" {
		abortWithError(c, NewAPIError(http.StatusBadRequest, field+" file is required"))
		return
	}

	updated, err := apply(c.Request.Context(), user.ID, localPath)
	if err != nil {
		h.logger.Warn("image update failed", zap.Error(err), zap.String("userId", user.ID), zap.String("field", field))
		abortWithError(c, mapServiceError(err))
		return
	}

	respond(c, http.StatusOK, updated, message)
}

func (h *UserHandler) setAuthCookies(c *gin.Context, pair service.TokenPair) {
	c.SetCookie("accessToken", pair.AccessToken, h.cookies.AccessMaxAge, "/", "", h.cookies.Secure, true)
	c.SetCookie("refreshToken", pair.RefreshToken, h.cookies.RefreshMaxAge, "/", "", h.cookies.Secure, true)
}

func (h *UserHandler) clearAuthCookies(c *gin.Context) {
	c.SetCookie("accessToken", "", -1, "/", "", h.cookies.Secure, true)
	c.SetCookie("refreshToken", "", -1, "/", "", h.cookies.Secure, true)
}
