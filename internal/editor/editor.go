// Package editor implements the create/update workflow for a single trade.
//
// An Editor holds the user's in-progress draft: text fields as typed, the
// screenshots already saved on the trade being edited and new attachments
// that have not been compressed yet. Nothing is written until Submit.
package editor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"trading-journal/internal/imaging"
	"trading-journal/internal/models"
	"trading-journal/internal/repository"
)

// Defaults applied by Reset.
const (
	DefaultSymbol = "NQ"
	DefaultModel  = "Unicorn"
	DefaultSide   = models.SideLong
)

var (
	// ErrDeleteNotConfirmed is returned when the user declines a delete.
	ErrDeleteNotConfirmed = errors.New("delete not confirmed")
	// ErrSubmitting is returned when Submit is called while another submit
	// from the same editor is still in flight.
	ErrSubmitting = errors.New("a submit is already in progress")
	// ErrNotImage is returned by Attach for non-image content.
	ErrNotImage = errors.New("attachment is not an image")
)

// ValidationError reports a user-correctable problem with one field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Mode tells whether Submit creates a new trade or updates an existing one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

func (m Mode) String() string {
	if m == ModeUpdate {
		return "update"
	}
	return "create"
}

// Draft is the editable text of the form, exactly as entered.
type Draft struct {
	Date   string `json:"date" form:"date"`
	Symbol string `json:"symbol" form:"symbol"`
	Model  string `json:"model" form:"model"`
	Side   string `json:"side" form:"side"`
	Result string `json:"result" form:"result"`
	Notes  string `json:"notes" form:"notes"`
}

// Attachment is a new image that has not been compressed yet.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// Options configures an Editor.
type Options struct {
	// OnSaved is called after a successful create or update, once the
	// editor has reset itself.
	OnSaved func(*models.Trade)
	// Today supplies the default date. Defaults to models.Today.
	Today func() models.Date
	Log   *zap.Logger
}

// Editor is safe for concurrent use; repository and compression calls are
// made without holding its lock.
type Editor struct {
	repo       repository.Repository
	compressor imaging.Compressor
	ownerID    string
	opts       Options
	log        *zap.Logger

	mu          sync.Mutex
	editing     *models.Trade
	draft       Draft
	saved       []string
	attachments []Attachment
	submitting  bool
	err         error
}

// New creates an editor in create mode with default values.
func New(repo repository.Repository, compressor imaging.Compressor, ownerID string, opts Options) *Editor {
	if opts.Today == nil {
		opts.Today = models.Today
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	e := &Editor{
		repo:       repo,
		compressor: compressor,
		ownerID:    ownerID,
		opts:       opts,
		log:        log.Named("editor"),
	}
	e.resetLocked()
	return e
}

// Edit switches to update mode and loads every field of t.
func (e *Editor) Edit(t *models.Trade) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cp := *t
	cp.Screenshots = append(cp.Screenshots[:0:0], t.Screenshots...)
	e.editing = &cp
	e.draft = Draft{
		Date:   t.Date.String(),
		Symbol: t.Symbol,
		Model:  t.Model,
		Side:   t.Side.String(),
		Result: decimal.NewFromFloat(t.Result).String(),
		Notes:  t.Notes,
	}
	e.saved = append([]string(nil), t.Screenshots...)
	e.attachments = nil
	e.err = nil
}

// Reset returns to create mode with default values.
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *Editor) resetLocked() {
	e.editing = nil
	e.draft = Draft{
		Date:   e.opts.Today().String(),
		Symbol: DefaultSymbol,
		Model:  DefaultModel,
		Side:   DefaultSide.String(),
	}
	e.saved = nil
	e.attachments = nil
	e.err = nil
}

// Mode reports whether Submit will create or update.
func (e *Editor) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editing != nil {
		return ModeUpdate
	}
	return ModeCreate
}

// EditingID returns the id of the trade being edited, or "".
func (e *Editor) EditingID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editing == nil {
		return ""
	}
	return e.editing.ID
}

// Draft returns the current form values.
func (e *Editor) Draft() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// SetDraft replaces the form values.
func (e *Editor) SetDraft(d Draft) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = d
}

// Update applies fn to the form values in place.
func (e *Editor) Update(fn func(*Draft)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.draft)
}

// Saved returns the screenshots already stored on the trade being edited
// that have not been removed.
func (e *Editor) Saved() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.saved...)
}

// Attachments returns the pending new images in attachment order.
func (e *Editor) Attachments() []Attachment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Attachment(nil), e.attachments...)
}

// Attach queues a new image. Content is sniffed; anything that is not an
// image is rejected with ErrNotImage.
func (e *Editor) Attach(name string, raw []byte) error {
	ct := http.DetectContentType(raw)
	if !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("%w: %s is %s", ErrNotImage, name, ct)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attachments = append(e.attachments, Attachment{Name: name, ContentType: ct, Data: raw})
	return nil
}

// RemoveSaved drops the i-th saved screenshot.
func (e *Editor) RemoveSaved(i int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.saved) {
		return fmt.Errorf("saved screenshot %d out of range", i)
	}
	e.saved = append(e.saved[:i:i], e.saved[i+1:]...)
	return nil
}

// KeepSaved drops every saved screenshot whose index is not listed.
// Order among the kept screenshots is preserved.
func (e *Editor) KeepSaved(indices []int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	keep := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(e.saved) {
			return fmt.Errorf("saved screenshot %d out of range", i)
		}
		keep[i] = true
	}
	kept := make([]string, 0, len(keep))
	for i, s := range e.saved {
		if keep[i] {
			kept = append(kept, s)
		}
	}
	e.saved = kept
	return nil
}

// RemoveAttachment drops the i-th pending attachment.
func (e *Editor) RemoveAttachment(i int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.attachments) {
		return fmt.Errorf("attachment %d out of range", i)
	}
	e.attachments = append(e.attachments[:i:i], e.attachments[i+1:]...)
	return nil
}

// Submitting reports whether a submit is in flight.
func (e *Editor) Submitting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitting
}

// Err returns the error of the last failed submit, if any.
func (e *Editor) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Validate parses the form values into a trade draft without any I/O.
func (e *Editor) Validate() (models.TradeDraft, error) {
	e.mu.Lock()
	d := e.draft
	e.mu.Unlock()
	return parseDraft(e.ownerID, d)
}

func parseDraft(ownerID string, d Draft) (models.TradeDraft, error) {
	date, err := models.ParseDate(strings.TrimSpace(d.Date))
	if err != nil {
		return models.TradeDraft{}, &ValidationError{Field: "date", Reason: "must be a date in YYYY-MM-DD form"}
	}
	symbol := strings.TrimSpace(d.Symbol)
	if symbol == "" {
		return models.TradeDraft{}, &ValidationError{Field: "symbol", Reason: "is required"}
	}
	model := strings.TrimSpace(d.Model)
	if model == "" {
		return models.TradeDraft{}, &ValidationError{Field: "model", Reason: "is required"}
	}
	side, err := models.ParseSide(d.Side)
	if err != nil {
		return models.TradeDraft{}, &ValidationError{Field: "side", Reason: "must be long or short"}
	}
	result, err := ParseResult(d.Result)
	if err != nil {
		return models.TradeDraft{}, err
	}
	return models.TradeDraft{
		OwnerID: ownerID,
		Date:    date,
		Symbol:  symbol,
		Model:   model,
		Side:    side,
		Result:  result,
		Notes:   d.Notes,
	}, nil
}

const (
	maxResultLength   = 32
	maxResultExponent = 15
	minResultExponent = -maxResultLength
)

// ParseResult parses a risk multiple such as "2", "-0.5" or "+1.25".
// Empty, non-numeric and non-finite input is rejected, as is anything whose
// digits or exponent would not fit a float64 comfortably.
func ParseResult(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ValidationError{Field: "result", Reason: "is required"}
	}
	if len(s) > maxResultLength {
		return 0, &ValidationError{Field: "result", Reason: "must be a number"}
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return 0, &ValidationError{Field: "result", Reason: "must be a number"}
	}
	// Exponent is checked before InexactFloat64, which expands it into a big.Int.
	if exp := d.Exponent(); exp > maxResultExponent || exp < minResultExponent {
		return 0, &ValidationError{Field: "result", Reason: "must be a number"}
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, &ValidationError{Field: "result", Reason: "must be a number"}
	}
	return f, nil
}

// Submit validates the form, compresses new attachments and writes the
// trade. On success the editor resets and OnSaved is called with the saved
// trade. On failure every field and attachment is kept and Err reports
// the failure; nothing is retried.
func (e *Editor) Submit(ctx context.Context) (*models.Trade, error) {
	e.mu.Lock()
	if e.submitting {
		e.mu.Unlock()
		return nil, ErrSubmitting
	}
	e.submitting = true
	e.err = nil
	editing := e.editing
	form := e.draft
	saved := append([]string(nil), e.saved...)
	pending := append([]Attachment(nil), e.attachments...)
	e.mu.Unlock()

	trade, err := e.submit(ctx, editing, form, saved, pending)

	e.mu.Lock()
	e.submitting = false
	if err != nil {
		e.err = err
		e.mu.Unlock()
		return nil, err
	}
	e.resetLocked()
	e.mu.Unlock()

	if e.opts.OnSaved != nil {
		e.opts.OnSaved(trade)
	}
	return trade, nil
}

func (e *Editor) submit(ctx context.Context, editing *models.Trade, form Draft, saved []string, pending []Attachment) (*models.Trade, error) {
	draft, err := parseDraft(e.ownerID, form)
	if err != nil {
		return nil, err
	}

	shots := make([]string, 0, len(saved)+len(pending))
	shots = append(shots, saved...)
	for _, a := range pending {
		uri, err := e.compressor.Compress(ctx, a.Data)
		if err != nil {
			e.log.Warn("Failed to compress attachment", zap.String("name", a.Name), zap.Error(err))
			return nil, fmt.Errorf("failed to compress %s: %w", a.Name, err)
		}
		shots = append(shots, uri)
	}
	draft.Screenshots = shots

	if editing == nil {
		t, err := e.repo.CreateTrade(ctx, draft)
		if err != nil {
			return nil, fmt.Errorf("failed to save trade: %w", err)
		}
		return t, nil
	}

	if err := e.repo.UpdateTrade(ctx, editing.ID, draft); err != nil {
		return nil, fmt.Errorf("failed to update trade: %w", err)
	}
	updated := *editing
	draft.ApplyTo(&updated)
	return &updated, nil
}

// Delete permanently removes a trade once confirm approves it.
func (e *Editor) Delete(ctx context.Context, id string, confirm Confirmer) error {
	if confirm == nil || !confirm.Confirm(ctx, "Delete this trade? This cannot be undone.") {
		return ErrDeleteNotConfirmed
	}
	if err := e.repo.DeleteTrade(ctx, e.ownerID, id); err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	e.log.Info("Trade deleted", zap.String("id", id))

	e.mu.Lock()
	if e.editing != nil && e.editing.ID == id {
		e.resetLocked()
	}
	e.mu.Unlock()
	return nil
}
