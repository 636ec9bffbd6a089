package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"trading-journal/internal/auth"
)

type credentials struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type sessionResponse struct {
	Token   string        `json:"token"`
	Session *auth.Session `json:"session"`
}

// SignUp registers an account.
func (h *APIHandler) SignUp(c *gin.Context) {
	var req credentials
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, errBadRequest)
		return
	}
	u, err := h.auth.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": u.ID, "email": u.Email})
}

// Login opens a session, sets the session cookie and returns the token for
// clients that prefer a bearer header.
func (h *APIHandler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, errBadRequest)
		return
	}
	sess, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.cookie.set(c, sess.ID)
	c.JSON(http.StatusOK, sessionResponse{Token: sess.ID, Session: sess})
}

// Logout ends the session and drops its workspace. It succeeds even
// without a session.
func (h *APIHandler) Logout(c *gin.Context) {
	if id := sessionID(c); id != "" {
		h.auth.SignOut(id)
		h.workspaces.Close(id)
	}
	h.cookie.clear(c)
	c.Status(http.StatusNoContent)
}

// CurrentSession returns the caller's session.
func (h *APIHandler) CurrentSession(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c))
}
