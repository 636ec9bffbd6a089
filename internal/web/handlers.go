package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"trading-journal/internal/auth"
	"trading-journal/internal/editor"
	"trading-journal/internal/imaging"
	"trading-journal/internal/journal"
	"trading-journal/internal/models"
	"trading-journal/internal/playbook"
	"trading-journal/internal/repository"
	"trading-journal/internal/workspace"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log        *zap.Logger
	auth       *auth.Service
	repo       repository.Repository
	compressor imaging.Compressor
	playbook   *playbook.Playbook
	workspaces *Workspaces
	cookie     cookieSettings
	origins    []string
	now        func() time.Time
}

func (h *APIHandler) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

// Health reports liveness.
func (h *APIHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Playbook returns the static strategy reference.
func (h *APIHandler) Playbook(c *gin.Context) {
	c.JSON(http.StatusOK, h.playbook)
}

type optionsResponse struct {
	Symbols []string      `json:"symbols"`
	Models  []string      `json:"models"`
	Sides   []models.Side `json:"sides"`
	Years   []int         `json:"years"`
	Tabs    []journal.Tab `json:"tabs"`
}

// Options returns the values offered by the selectors and the editor.
func (h *APIHandler) Options(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, optionsResponse{
		Symbols: models.SuggestedSymbols,
		Models:  models.SuggestedModels,
		Sides:   []models.Side{models.SideLong, models.SideShort},
		Years:   ws.Years(h.clock()),
		Tabs:    journal.Tabs(),
	})
}

// ListTrades returns the view for ?year=&tab=&model=&side=.
func (h *APIHandler) ListTrades(c *gin.Context) {
	scope, err := h.scope(c)
	if err != nil {
		respondError(c, err)
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ws.View(scope))
}

type statsResponse struct {
	Title   string                `json:"title"`
	Stats   *journal.Stats        `json:"stats"`
	Display *journal.StatsDisplay `json:"display,omitempty"`
}

// Stats returns the statistics of the selected period.
func (h *APIHandler) Stats(c *gin.Context) {
	scope, err := h.scope(c)
	if err != nil {
		respondError(c, err)
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	v := ws.View(scope)
	resp := statsResponse{Title: v.Title, Stats: v.Stats}
	if v.Stats != nil {
		d := v.Stats.Display()
		resp.Display = &d
	}
	c.JSON(http.StatusOK, resp)
}

type equityResponse struct {
	Title  string               `json:"title"`
	Equity *journal.EquityCurve `json:"equity"`
}

// Equity returns the equity curve of the selected period.
func (h *APIHandler) Equity(c *gin.Context) {
	scope, err := h.scope(c)
	if err != nil {
		respondError(c, err)
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	v := ws.View(scope)
	c.JSON(http.StatusOK, equityResponse{Title: v.Title, Equity: v.Equity})
}

// GetTrade returns one trade.
func (h *APIHandler) GetTrade(c *gin.Context) {
	sess := currentSession(c)
	t, err := h.repo.GetTrade(c.Request.Context(), sess.OwnerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// CreateTrade records a new trade from a multipart or url-encoded form.
// Omitted fields take the editor defaults.
func (h *APIHandler) CreateTrade(c *gin.Context) {
	sess := currentSession(c)
	ed := h.newEditor(sess)

	if err := h.fillEditor(c, ed); err != nil {
		respondError(c, err)
		return
	}
	t, err := ed.Submit(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	h.refresh(c.Request.Context(), c, sess)
	c.JSON(http.StatusCreated, t)
}

// UpdateTrade rewrites a trade. Omitted fields keep their stored value;
// repeated "keep" values select which saved screenshots survive.
func (h *APIHandler) UpdateTrade(c *gin.Context) {
	sess := currentSession(c)
	ctx := c.Request.Context()

	existing, err := h.repo.GetTrade(ctx, sess.OwnerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ed := h.newEditor(sess)
	ed.Edit(existing)

	if keep, ok := c.GetPostFormArray("keep"); ok {
		indices, err := parseIndices(keep)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := ed.KeepSaved(indices); err != nil {
			respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
	}
	if err := h.fillEditor(c, ed); err != nil {
		respondError(c, err)
		return
	}
	t, err := ed.Submit(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	h.refresh(ctx, c, sess)
	c.JSON(http.StatusOK, t)
}

// DeleteTrade removes a trade. The caller confirms with ?confirm=true.
func (h *APIHandler) DeleteTrade(c *gin.Context) {
	sess := currentSession(c)
	ed := h.newEditor(sess)
	confirmed := editor.ConfirmFunc(func(context.Context, string) bool {
		ok, _ := strconv.ParseBool(c.Query("confirm"))
		return ok
	})
	if err := ed.Delete(c.Request.Context(), c.Param("id"), confirmed); err != nil {
		respondError(c, err)
		return
	}
	h.refresh(c.Request.Context(), c, sess)
	c.Status(http.StatusNoContent)
}

func (h *APIHandler) newEditor(sess *auth.Session) *editor.Editor {
	return editor.New(h.repo, h.compressor, sess.OwnerID, editor.Options{Log: h.log})
}

var formFields = []struct {
	name string
	set  func(*editor.Draft, string)
}{
	{"date", func(d *editor.Draft, v string) { d.Date = v }},
	{"symbol", func(d *editor.Draft, v string) { d.Symbol = v }},
	{"model", func(d *editor.Draft, v string) { d.Model = v }},
	{"side", func(d *editor.Draft, v string) { d.Side = v }},
	{"result", func(d *editor.Draft, v string) { d.Result = v }},
	{"notes", func(d *editor.Draft, v string) { d.Notes = v }},
}

// fillEditor overlays the submitted form fields and queues uploaded files.
func (h *APIHandler) fillEditor(c *gin.Context, ed *editor.Editor) error {
	for _, f := range formFields {
		if v, ok := c.GetPostForm(f.name); ok {
			ed.Update(func(d *editor.Draft) { f.set(d, v) })
		}
	}

	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil
		}
		if isBodyTooLarge(err) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	for _, fh := range form.File["attachments"] {
		raw, err := readUpload(fh)
		if err != nil {
			return err
		}
		if err := ed.Attach(fh.Filename, raw); err != nil {
			return err
		}
	}
	return nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}
	return raw, nil
}

func parseIndices(values []string) ([]int, error) {
	out := make([]int, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		i, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: keep %q is not an index", errBadRequest, v)
		}
		out = append(out, i)
	}
	return out, nil
}

// scope reads ?year=&tab=&model=&side=. Year defaults to the current one.
func (h *APIHandler) scope(c *gin.Context) (journal.Scope, error) {
	s := journal.Scope{Year: h.clock().Year(), Tab: journal.TabAll}
	if y := c.Query("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return s, fmt.Errorf("%w: year %q is not a number", errBadRequest, y)
		}
		s.Year = year
	}
	tab, err := journal.ParseTab(c.Query("tab"))
	if err != nil {
		return s, err
	}
	s.Tab = tab
	s.Model = strings.TrimSpace(c.Query("model"))
	if side := c.Query("side"); side != "" {
		parsed, err := models.ParseSide(side)
		if err != nil {
			return s, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		s.Side = parsed
	}
	return s, nil
}

// workspace returns the caller's workspace or writes an error response.
func (h *APIHandler) workspace(c *gin.Context) (*workspace.Workspace, bool) {
	sess := currentSession(c)
	ws, err := h.workspaces.Get(c.Request.Context(), sess.ID, sess.OwnerID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return ws, true
}

// refresh reloads the caller's workspace so the next read sees the write.
func (h *APIHandler) refresh(ctx context.Context, c *gin.Context, sess *auth.Session) {
	ws, err := h.workspaces.Get(ctx, sess.ID, sess.OwnerID)
	if err != nil {
		h.log.Warn("Failed to open workspace after write", zap.Error(err))
		return
	}
	if err := ws.Reload(ctx); err != nil {
		h.log.Warn("Failed to reload workspace after write", zap.String("path", c.FullPath()), zap.Error(err))
	}
}
