// Package web is the server-rendered session shell: the home page with the
// URL and upload forms, the result board, and the sign-in pages.
package web

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"review-analyzer/internal/auth"
	"review-analyzer/internal/display"
	"review-analyzer/internal/shared/server/middleware"
	"review-analyzer/internal/submission"
	"review-analyzer/internal/uploads"
)

const callbackPath = "/auth/callback"

type Handler struct {
	Workspaces *Workspaces
	Auth       *auth.Service
	Logger     *zap.Logger
	// BaseURL is the externally visible origin used in confirmation links.
	BaseURL        string
	SecureCookies  bool
	GoogleEnabled  bool
	MaxUploadBytes int64
	// ProbeUploads spools uploads to disk so their duration can be probed.
	ProbeUploads bool
}

// Register installs the page templates and routes on r.
func (h *Handler) Register(r *gin.Engine) {
	if h.Logger == nil {
		h.Logger = zap.NewNop()
	}
	r.SetHTMLTemplate(Templates())
	r.GET("/", h.home)
	r.POST("/analyze", h.analyze)
	r.POST("/upload", h.upload)
	r.POST("/reset", h.reset)
	r.POST("/results/:index/toggle", h.toggle)
	r.GET("/login", h.loginPage)
	r.POST("/login", h.login)
	r.POST("/signup", h.signup)
	r.POST("/logout", h.logout)
	r.GET(callbackPath, h.callback)
}

type homeData struct {
	User       *middleware.Identity
	Submission submission.View
	Upload     uploads.View
	Board      display.View
}

type loginData struct {
	Error   string
	Message string
	Email   string
	Google  bool
}

func (h *Handler) workspace(c *gin.Context) *Workspace {
	id, _ := c.Cookie(WorkspaceCookie)
	ws := h.Workspaces.Get(id)
	if ws.ID != id {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(WorkspaceCookie, ws.ID, 0, "/", "", h.SecureCookies, true)
	}
	return ws
}

func (h *Handler) home(c *gin.Context) {
	ws := h.workspace(c)
	data := homeData{
		Submission: ws.Submission.View(),
		Upload:     ws.Upload.View(),
		Board:      ws.Board.View(),
	}
	if userID := middleware.UserIDFromContext(c); userID != "" {
		data.User = &middleware.Identity{UserID: userID, Email: middleware.UserEmailFromContext(c)}
	}
	c.HTML(http.StatusOK, "home.html", data)
}

func (h *Handler) analyze(c *gin.Context) {
	ws := h.workspace(c)
	_, err := ws.Submission.Submit(c.Request.Context(), middleware.UserIDFromContext(c), c.PostForm("url"))
	if err != nil && !errors.Is(err, submission.ErrEmptyURL) {
		h.Logger.Info("url submission failed", zap.String("workspace", ws.ID), zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) upload(c *gin.Context) {
	ws := h.workspace(c)
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+1<<20)
	}

	file, cleanup, err := h.readUpload(c)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			// The body was cut off, so only "over the limit" is known.
			file = uploads.File{Name: "upload", Size: h.MaxUploadBytes + 1, Body: strings.NewReader("")}
		} else if !errors.Is(err, http.ErrMissingFile) {
			h.Logger.Warn("read upload failed", zap.Error(err))
		}
	}
	defer cleanup()

	if _, err := ws.Upload.Upload(c.Request.Context(), middleware.UserIDFromContext(c), file); err != nil {
		h.Logger.Info("upload failed", zap.String("workspace", ws.ID), zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// readUpload returns the submitted video. Missing files yield a zero File so
// the workflow reports the validation message.
func (h *Handler) readUpload(c *gin.Context) (uploads.File, func(), error) {
	noop := func() {}
	fh, err := c.FormFile("video")
	if err != nil {
		return uploads.File{}, noop, err
	}
	if h.ProbeUploads {
		return spoolUpload(c, fh)
	}
	f, err := fh.Open()
	if err != nil {
		return uploads.File{}, noop, err
	}
	return uploads.File{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	}, func() { _ = f.Close() }, nil
}

func spoolUpload(c *gin.Context, fh *multipart.FileHeader) (uploads.File, func(), error) {
	noop := func() {}
	dir, err := os.MkdirTemp("", "upload-*")
	if err != nil {
		return uploads.File{}, noop, err
	}
	removeDir := func() { _ = os.RemoveAll(dir) }
	path := filepath.Join(dir, "video"+filepath.Ext(filepath.Base(fh.Filename)))
	if err := c.SaveUploadedFile(fh, path); err != nil {
		removeDir()
		return uploads.File{}, noop, err
	}
	f, err := os.Open(path)
	if err != nil {
		removeDir()
		return uploads.File{}, noop, err
	}
	return uploads.File{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        io.Reader(f),
			Path:        path,
		}, func() {
			_ = f.Close()
			removeDir()
		}, nil
}

func (h *Handler) reset(c *gin.Context) {
	ws := h.workspace(c)
	var err error
	switch c.PostForm("target") {
	case "upload":
		err = ws.Upload.Reset()
	default:
		err = ws.Submission.Reset()
	}
	if err != nil {
		h.Logger.Info("reset refused", zap.String("workspace", ws.ID), zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) toggle(c *gin.Context) {
	ws := h.workspace(c)
	index, err := strconv.Atoi(c.Param("index"))
	if err == nil {
		_, err = ws.Board.Toggle(index)
	}
	if err != nil {
		c.String(http.StatusNotFound, "No such result")
		return
	}
	c.Redirect(http.StatusSeeOther, "/#results")
}

func (h *Handler) loginPage(c *gin.Context) {
	if middleware.UserIDFromContext(c) != "" {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	h.renderLogin(c, http.StatusOK, loginData{})
}

func (h *Handler) login(c *gin.Context) {
	email := c.PostForm("email")
	sess, err := h.Auth.SignIn(c.Request.Context(), email, c.PostForm("password"))
	if err != nil {
		h.renderLogin(c, statusFor(err), loginData{Error: auth.UserMessage(err), Email: email})
		return
	}
	auth.SetSessionCookie(c, sess, h.SecureCookies)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) signup(c *gin.Context) {
	err := h.Auth.SignUp(c.Request.Context(), auth.SignUpInput{
		Email:           c.PostForm("email"),
		Password:        c.PostForm("password"),
		ConfirmPassword: c.PostForm("confirm_password"),
		RedirectTo:      strings.TrimRight(h.BaseURL, "/") + callbackPath,
	})
	if err != nil {
		h.renderLogin(c, statusFor(err), loginData{Error: auth.UserMessage(err)})
		return
	}
	h.renderLogin(c, http.StatusOK, loginData{Message: auth.MsgSignUpSuccess})
}

func (h *Handler) logout(c *gin.Context) {
	if token := middleware.SessionTokenFromContext(c); token != "" {
		if err := h.Auth.SignOut(c.Request.Context(), token); err != nil {
			h.Logger.Warn("sign out failed", zap.Error(err))
		}
	}
	auth.ClearSessionCookie(c, h.SecureCookies)
	if id, err := c.Cookie(WorkspaceCookie); err == nil && id != "" {
		h.Workspaces.Remove(id)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(WorkspaceCookie, "", -1, "/", "", h.SecureCookies, true)
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) callback(c *gin.Context) {
	user, err := h.Auth.Confirm(c.Request.Context(), c.Query("token"))
	if err != nil {
		h.renderLogin(c, http.StatusBadRequest, loginData{Error: auth.UserMessage(err)})
		return
	}
	sess, err := h.Auth.IssueSession(user)
	if err != nil {
		h.renderLogin(c, http.StatusInternalServerError, loginData{Error: auth.UserMessage(err)})
		return
	}
	auth.SetSessionCookie(c, sess, h.SecureCookies)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) renderLogin(c *gin.Context, status int, data loginData) {
	data.Google = h.GoogleEnabled
	c.HTML(status, "login.html", data)
}

func statusFor(err error) int {
	var vErr *auth.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrEmailNotConfirmed):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrUserExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
