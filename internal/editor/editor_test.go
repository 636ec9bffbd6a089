package editor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"trading-journal/internal/models"
	"trading-journal/internal/repository"
)

// MockRepository is a mock implementation of repository.Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListTrades(ctx context.Context, ownerID string) ([]models.Trade, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]models.Trade), args.Error(1)
}

func (m *MockRepository) GetTrade(ctx context.Context, ownerID, id string) (*models.Trade, error) {
	args := m.Called(ctx, ownerID, id)
	t, _ := args.Get(0).(*models.Trade)
	return t, args.Error(1)
}

func (m *MockRepository) CreateTrade(ctx context.Context, draft models.TradeDraft) (*models.Trade, error) {
	args := m.Called(ctx, draft)
	t, _ := args.Get(0).(*models.Trade)
	return t, args.Error(1)
}

func (m *MockRepository) UpdateTrade(ctx context.Context, id string, draft models.TradeDraft) error {
	args := m.Called(ctx, id, draft)
	return args.Error(0)
}

func (m *MockRepository) DeleteTrade(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockRepository) SubscribeToChanges(ownerID string, onChange func()) func() {
	m.Called(ownerID, onChange)
	return func() {}
}

// MockCompressor is a mock implementation of imaging.Compressor.
type MockCompressor struct {
	mock.Mock
}

func (m *MockCompressor) Compress(ctx context.Context, raw []byte) (string, error) {
	args := m.Called(ctx, raw)
	return args.String(0), args.Error(1)
}

var (
	pngA = []byte("\x89PNG\r\n\x1a\nAAAA")
	pngB = []byte("\x89PNG\r\n\x1a\nBBBB")
)

func fixedToday() models.Date { return models.NewDate(2025, 3, 14) }

func setupTest(t *testing.T, opts Options) (*Editor, *MockRepository, *MockCompressor) {
	t.Helper()
	repo := new(MockRepository)
	comp := new(MockCompressor)
	if opts.Today == nil {
		opts.Today = fixedToday
	}
	return New(repo, comp, "alice", opts), repo, comp
}

func fill(e *Editor, result string) {
	e.Update(func(d *Draft) {
		d.Date = "2025-01-02"
		d.Symbol = "ES"
		d.Model = "FVG"
		d.Side = "short"
		d.Result = result
		d.Notes = "faded the open"
	})
}

func TestNew_Defaults(t *testing.T) {
	e, _, _ := setupTest(t, Options{})

	assert.Equal(t, ModeCreate, e.Mode())
	assert.Equal(t, "", e.EditingID())
	assert.Equal(t, Draft{Date: "2025-03-14", Symbol: "NQ", Model: "Unicorn", Side: "long"}, e.Draft())
	assert.Empty(t, e.Saved())
	assert.Empty(t, e.Attachments())
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(*Draft)
		wantField string
	}{
		{"bad date", func(d *Draft) { d.Date = "14/03/2025" }, "date"},
		{"empty symbol", func(d *Draft) { d.Symbol = "  " }, "symbol"},
		{"empty model", func(d *Draft) { d.Model = "" }, "model"},
		{"bad side", func(d *Draft) { d.Side = "flat" }, "side"},
		{"empty result", func(d *Draft) { d.Result = "" }, "result"},
		{"non-numeric result", func(d *Draft) { d.Result = "two" }, "result"},
		{"nan result", func(d *Draft) { d.Result = "NaN" }, "result"},
		{"inf result", func(d *Draft) { d.Result = "Inf" }, "result"},
		{"overflowing result", func(d *Draft) { d.Result = "1e400" }, "result"},
		{"negative overflowing result", func(d *Draft) { d.Result = "-1e400" }, "result"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, _, _ := setupTest(t, Options{})
			fill(e, "1")
			e.Update(tc.mutate)

			_, err := e.Validate()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.wantField, verr.Field)
		})
	}
}

func TestParseResult(t *testing.T) {
	testCases := []struct {
		in   string
		want float64
	}{
		{"2", 2},
		{"+1.25", 1.25},
		{"-0.5", -0.5},
		{" 0 ", 0},
		{"3e0", 3},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseResult(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseResult_Rejects(t *testing.T) {
	testCases := []string{
		"",
		"two",
		"NaN",
		"Inf",
		"1e400",
		"-1e400",
		"1e999999999",
		"1e-999999999",
		"1" + strings.Repeat("0", 40),
	}
	for _, in := range testCases {
		t.Run(in, func(t *testing.T) {
			_, err := ParseResult(in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "result", verr.Field)
		})
	}
}

func TestSubmit_CreateValidationFailureWritesNothing(t *testing.T) {
	e, repo, comp := setupTest(t, Options{})
	fill(e, "abc")

	_, err := e.Submit(context.Background())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, err, e.Err())
	assert.Equal(t, "abc", e.Draft().Result)
	repo.AssertNotCalled(t, "CreateTrade", mock.Anything, mock.Anything)
	comp.AssertNotCalled(t, "Compress", mock.Anything, mock.Anything)
}

func TestSubmit_CreateResetsAndSignals(t *testing.T) {
	var signalled *models.Trade
	e, repo, comp := setupTest(t, Options{OnSaved: func(tr *models.Trade) { signalled = tr }})
	fill(e, "+2")
	require.NoError(t, e.Attach("a.png", pngA))
	require.NoError(t, e.Attach("b.png", pngB))

	comp.On("Compress", mock.Anything, pngA).Return("data:a", nil).Once()
	comp.On("Compress", mock.Anything, pngB).Return("data:b", nil).Once()

	want := models.TradeDraft{
		OwnerID:     "alice",
		Date:        models.NewDate(2025, 1, 2),
		Symbol:      "ES",
		Model:       "FVG",
		Side:        models.SideShort,
		Result:      2,
		Notes:       "faded the open",
		Screenshots: []string{"data:a", "data:b"},
	}
	created := &models.Trade{ID: "t1", OwnerID: "alice"}
	want.ApplyTo(created)
	repo.On("CreateTrade", mock.Anything, want).Return(created, nil).Once()

	got, err := e.Submit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, created, signalled)
	assert.NoError(t, e.Err())
	assert.False(t, e.Submitting())
	assert.Equal(t, Draft{Date: "2025-03-14", Symbol: "NQ", Model: "Unicorn", Side: "long"}, e.Draft())
	assert.Empty(t, e.Attachments())
	repo.AssertExpectations(t)
	comp.AssertExpectations(t)
}

func TestSubmit_UpdateMergesSavedThenNew(t *testing.T) {
	e, repo, comp := setupTest(t, Options{})
	existing := &models.Trade{ID: "t9", OwnerID: "alice"}
	models.TradeDraft{
		Date:        models.NewDate(2025, 2, 3),
		Symbol:      "NQ",
		Model:       "Unicorn",
		Side:        models.SideLong,
		Result:      -0.5,
		Notes:       "early entry",
		Screenshots: []string{"s0", "s1", "s2"},
	}.ApplyTo(existing)

	e.Edit(existing)
	assert.Equal(t, ModeUpdate, e.Mode())
	assert.Equal(t, "t9", e.EditingID())
	assert.Equal(t, Draft{Date: "2025-02-03", Symbol: "NQ", Model: "Unicorn", Side: "long", Result: "-0.5", Notes: "early entry"}, e.Draft())

	require.NoError(t, e.RemoveSaved(1))
	require.NoError(t, e.Attach("new.png", pngA))
	e.Update(func(d *Draft) { d.Notes = "early entry, moved stop" })

	comp.On("Compress", mock.Anything, pngA).Return("data:new", nil).Once()
	repo.On("UpdateTrade", mock.Anything, "t9", mock.MatchedBy(func(d models.TradeDraft) bool {
		return assert.ObjectsAreEqual([]string{"s0", "s2", "data:new"}, d.Screenshots) &&
			d.Notes == "early entry, moved stop" &&
			d.Result == -0.5 &&
			d.OwnerID == "alice"
	})).Return(nil).Once()

	got, err := e.Submit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "t9", got.ID)
	assert.Equal(t, "early entry, moved stop", got.Notes)
	assert.Equal(t, ModeCreate, e.Mode())
	repo.AssertExpectations(t)
}

func TestSubmit_FailureRetainsState(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(repo *MockRepository, comp *MockCompressor)
	}{
		{
			name: "compression fails",
			setup: func(_ *MockRepository, comp *MockCompressor) {
				comp.On("Compress", mock.Anything, pngA).Return("", errors.New("corrupt"))
			},
		},
		{
			name: "repository fails",
			setup: func(repo *MockRepository, comp *MockCompressor) {
				comp.On("Compress", mock.Anything, pngA).Return("data:a", nil)
				repo.On("CreateTrade", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			e, repo, comp := setupTest(t, Options{OnSaved: func(*models.Trade) { called = true }})
			fill(e, "1.5")
			require.NoError(t, e.Attach("a.png", pngA))
			tc.setup(repo, comp)
			before := e.Draft()

			_, err := e.Submit(context.Background())

			require.Error(t, err)
			assert.Equal(t, err, e.Err())
			assert.False(t, called)
			assert.Equal(t, before, e.Draft())
			assert.Len(t, e.Attachments(), 1)
			assert.False(t, e.Submitting())
		})
	}
}

func TestSubmit_UpdateNotFound(t *testing.T) {
	e, repo, _ := setupTest(t, Options{})
	e.Edit(&models.Trade{ID: "gone", Date: models.NewDate(2025, 1, 1), Symbol: "NQ", Model: "FVG", Side: models.SideLong, Result: 1})
	repo.On("UpdateTrade", mock.Anything, "gone", mock.Anything).Return(repository.ErrNotFound)

	_, err := e.Submit(context.Background())

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, ModeUpdate, e.Mode())
}

func TestAttachments(t *testing.T) {
	e, _, _ := setupTest(t, Options{})

	err := e.Attach("notes.txt", []byte("plain text, not a picture"))
	assert.ErrorIs(t, err, ErrNotImage)

	require.NoError(t, e.Attach("a.png", pngA))
	require.NoError(t, e.Attach("b.png", pngB))
	require.NoError(t, e.RemoveAttachment(0))
	atts := e.Attachments()
	require.Len(t, atts, 1)
	assert.Equal(t, "b.png", atts[0].Name)
	assert.Equal(t, "image/png", atts[0].ContentType)

	assert.Error(t, e.RemoveAttachment(5))
	assert.Error(t, e.RemoveSaved(0))
}

func TestKeepSaved(t *testing.T) {
	e, _, _ := setupTest(t, Options{})
	e.Edit(&models.Trade{ID: "t1", Screenshots: []string{"a", "b", "c", "d"}})

	require.NoError(t, e.KeepSaved([]int{3, 0}))
	assert.Equal(t, []string{"a", "d"}, e.Saved())

	assert.Error(t, e.KeepSaved([]int{7}))
	assert.Equal(t, []string{"a", "d"}, e.Saved())
}

func TestEdit_DoesNotAliasTrade(t *testing.T) {
	e, _, _ := setupTest(t, Options{})
	tr := &models.Trade{ID: "t1", Screenshots: []string{"a", "b"}}
	e.Edit(tr)

	require.NoError(t, e.RemoveSaved(0))
	assert.Equal(t, []string{"a", "b"}, []string(tr.Screenshots))
}

func TestDelete(t *testing.T) {
	deny := ConfirmFunc(func(context.Context, string) bool { return false })
	allow := ConfirmFunc(func(context.Context, string) bool { return true })

	t.Run("declined", func(t *testing.T) {
		e, repo, _ := setupTest(t, Options{})
		err := e.Delete(context.Background(), "t1", deny)
		assert.ErrorIs(t, err, ErrDeleteNotConfirmed)
		repo.AssertNotCalled(t, "DeleteTrade", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no confirmer", func(t *testing.T) {
		e, _, _ := setupTest(t, Options{})
		assert.ErrorIs(t, e.Delete(context.Background(), "t1", nil), ErrDeleteNotConfirmed)
	})

	t.Run("confirmed resets editor on the deleted trade", func(t *testing.T) {
		e, repo, _ := setupTest(t, Options{})
		e.Edit(&models.Trade{ID: "t1"})
		repo.On("DeleteTrade", mock.Anything, "alice", "t1").Return(nil).Once()

		require.NoError(t, e.Delete(context.Background(), "t1", allow))
		assert.Equal(t, ModeCreate, e.Mode())
		repo.AssertExpectations(t)
	})

	t.Run("repository error", func(t *testing.T) {
		e, repo, _ := setupTest(t, Options{})
		repo.On("DeleteTrade", mock.Anything, "alice", "t2").Return(repository.ErrNotFound)

		assert.ErrorIs(t, e.Delete(context.Background(), "t2", allow), repository.ErrNotFound)
	})
}
