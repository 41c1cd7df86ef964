// Package api is the thin HTTP surface over the session registry:
// list/create/destroy session metadata. The WebSocket upgrade itself
// lives in wsbridge; this package only handles the REST verbs gin
// routes to it.
//
// Grounded on blaxel-ai-sandbox/sandbox-api's handler.BaseHandler
// (ErrorResponse/SendError/SendJSON conventions) and router.go's route
// registration style, generalized from filesystem/process CRUD to
// session CRUD per spec.md §6.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/den-labs/termhub/internal/ptyspawn"
	"github.com/den-labs/termhub/internal/registry"
	"github.com/den-labs/termhub/internal/session"
	"github.com/den-labs/termhub/internal/termerr"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error" example:"session not found"`
} // @name ErrorResponse

// SessionResponse is the JSON view of one session returned by list/create.
type SessionResponse struct {
	Name        string `json:"name" example:"default"`
	CreatedAt   int64  `json:"createdAt" example:"1700000000"`
	Alive       bool   `json:"alive" example:"true"`
	ClientCount int    `json:"clientCount" example:"1"`
} // @name SessionResponse

// CreateSessionRequest is the body of POST /terminal/sessions. Command, if
// set, replaces the registry's default shell with an arbitrary program —
// the "higher layer that needs an embedded CLI" path (e.g. a long-running
// assistant or build tool run inside a multiplexed, replayable session)
// rather than an interactive shell.
type CreateSessionRequest struct {
	Name    string   `json:"name" binding:"required" example:"build"`
	Cols    uint16   `json:"cols" example:"80"`
	Rows    uint16   `json:"rows" example:"24"`
	Command string   `json:"command,omitempty" example:"claude"`
	Args    []string `json:"args,omitempty" example:"-p,hello"`
} // @name CreateSessionRequest

// Handler wires the session registry to gin routes.
type Handler struct {
	Registry *registry.Registry
}

// New returns a Handler for reg.
func New(reg *registry.Registry) *Handler {
	return &Handler{Registry: reg}
}

// Register attaches the session CRUD routes to r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/terminal/sessions", h.HandleList)
	r.POST("/terminal/sessions", h.HandleCreate)
	r.DELETE("/terminal/sessions/:name", h.HandleDestroy)
}

// HandleList godoc
// @Summary List sessions
// @Description Lists every known session and its client count
// @Tags terminal
// @Produce json
// @Success 200 {array} SessionResponse
// @Router /terminal/sessions [get]
func (h *Handler) HandleList(c *gin.Context) {
	sessions := h.Registry.List()
	out := make([]SessionResponse, 0, len(sessions))
	for _, info := range sessions {
		out = append(out, SessionResponse{
			Name:        info.Name,
			CreatedAt:   info.CreatedAt,
			Alive:       info.Alive,
			ClientCount: info.ClientCount,
		})
	}
	c.JSON(http.StatusOK, out)
}

// HandleCreate godoc
// @Summary Create a session
// @Description Spawns a new named PTY session, optionally running an
// @Description embedded command instead of the default shell
// @Tags terminal
// @Accept json
// @Produce json
// @Param request body CreateSessionRequest true "Session parameters"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /terminal/sessions [post]
func (h *Handler) HandleCreate(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	cols, rows := req.Cols, req.Rows
	if cols == 0 {
		cols = 80
	}
	if rows == 0 {
		rows = 24
	}

	var (
		sess *session.Shared
		err  error
	)
	if req.Command != "" {
		sess, err = h.createWithCommand(req.Name, req.Command, req.Args, cols, rows)
	} else {
		sess, err = h.Registry.Create(req.Name, cols, rows)
	}
	if err != nil {
		sendTermErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, SessionResponse{
		Name:        sess.Name,
		CreatedAt:   sess.CreatedAt.Unix(),
		Alive:       sess.IsAlive(),
		ClientCount: sess.ClientCount(),
	})
}

// createWithCommand spawns command/args in its own PTY and hands it to
// the registry's CreateWithPTY path instead of the default-shell Create,
// so a session can run an embedded program (e.g. a long-lived CLI) under
// the same multiplexing/replay/resize machinery as an interactive shell.
func (h *Handler) createWithCommand(name, command string, args []string, cols, rows uint16) (*session.Shared, error) {
	if !registry.IsValidName(name) {
		return nil, termerr.InvalidName(name)
	}
	if h.Registry.Exists(name) {
		return nil, termerr.AlreadyExists(name)
	}

	pty, err := ptyspawn.Spawn(command, args, cols, rows)
	if err != nil {
		return nil, termerr.SpawnFailed(err)
	}

	return h.Registry.CreateWithPTY(name, pty)
}

// HandleDestroy godoc
// @Summary Destroy a session
// @Description Kills the session's PTY and removes it from the registry
// @Tags terminal
// @Produce json
// @Param name path string true "Session name"
// @Success 200 {object} map[string]interface{} "name and destroyed=true"
// @Failure 404 {object} ErrorResponse
// @Router /terminal/sessions/{name} [delete]
func (h *Handler) HandleDestroy(c *gin.Context) {
	name := c.Param("name")
	if !h.Registry.Exists(name) {
		sendError(c, http.StatusNotFound, termerr.NotFound(name))
		return
	}
	h.Registry.Destroy(name)
	c.JSON(http.StatusOK, gin.H{"name": name, "destroyed": true})
}

func sendError(c *gin.Context, status int, err error) {
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

// sendTermErr maps a termerr.Kind to its HTTP status and writes the
// error body.
func sendTermErr(c *gin.Context, err error) {
	kind, ok := termerr.KindOf(err)
	if !ok {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	switch kind {
	case termerr.KindInvalidName:
		sendError(c, http.StatusBadRequest, err)
	case termerr.KindAlreadyExists:
		sendError(c, http.StatusConflict, err)
	case termerr.KindNotFound:
		sendError(c, http.StatusNotFound, err)
	case termerr.KindDead:
		sendError(c, http.StatusGone, err)
	case termerr.KindSpawnFailed, termerr.KindWriteFailed, termerr.KindInternal:
		sendError(c, http.StatusInternalServerError, err)
	default:
		sendError(c, http.StatusInternalServerError, err)
	}
}
