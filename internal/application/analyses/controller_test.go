package analyses

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/repair-analysis/internal/application"
	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

var fixedNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func newController(t *testing.T, repo *fakeRepo, opts ...Option) *Controller {
	t.Helper()
	opts = append([]Option{WithClock(application.FixedClock{T: fixedNow})}, opts...)
	return NewController(repo, nil, opts...)
}

func composeAndSubmit(t *testing.T, c *Controller, f domain.Fields) error {
	t.Helper()
	c.OpenForCreate()
	require.NoError(t, c.UpdateDraftField(domain.FieldDevice, f.Device))
	require.NoError(t, c.UpdateDraftField(domain.FieldAnalysis, f.Analysis))
	require.NoError(t, c.UpdateDraftField(domain.FieldCategory, string(f.Category)))
	require.NoError(t, c.UpdateDraftField(domain.FieldSeverity, string(f.Severity)))
	require.NoError(t, c.UpdateDraftField(domain.FieldDamageType, f.DamageType))
	return c.Submit(context.Background())
}

func visibleIn(c *Controller, tab domain.Category, q string) []domain.Analysis {
	return Visible(c.Store().Records(), tab, q)
}

func TestInitLoadsRecords(t *testing.T) {
	repo := &fakeRepo{}
	repo.seed(fields("HD", "setores", domain.CategoryLogical))
	c := newController(t, repo)

	st := c.State()
	assert.True(t, st.Loading)
	assert.Empty(t, st.Visible)

	require.NoError(t, c.Init(context.Background()))
	st = c.State()
	assert.False(t, st.Loading)
	assert.Len(t, st.Visible, 1)
	require.NotNil(t, st.RefreshedAt)
	assert.Equal(t, fixedNow, *st.RefreshedAt)
}

func TestInitFailureClearsLoading(t *testing.T) {
	repo := &fakeRepo{failList: true}
	c := newController(t, repo)

	err := c.Init(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIOFailure))
	assert.True(t, errors.Is(err, errBackendDown))

	st := c.State()
	assert.False(t, st.Loading)
	assert.Empty(t, st.Visible)
	assert.Contains(t, st.LastError, "list")
	assert.Nil(t, st.RefreshedAt)
}

func TestCreateAppearsOnceUnderItsTab(t *testing.T) {
	repo := &fakeRepo{}
	c := newController(t, repo)
	require.NoError(t, c.Init(context.Background()))

	require.NoError(t, composeAndSubmit(t, c, domain.Fields{
		Device: "X", Analysis: "Y", Category: domain.CategoryPhysical, Severity: domain.SeveritySimple,
	}))

	assert.Len(t, visibleIn(c, domain.CategoryPhysical, ""), 1)
	assert.Empty(t, visibleIn(c, domain.CategoryLogical, ""))
	assert.Empty(t, visibleIn(c, domain.CategoryElectronic, ""))

	st := c.State()
	assert.Equal(t, Idle, st.Session.State)
	assert.Equal(t, domain.BlankFields(), st.Session.Draft)
	assert.Equal(t, []string{"list", "create", "list"}, repo.callLog())
}

func TestEditMovesRecordBetweenTabs(t *testing.T) {
	repo := &fakeRepo{}
	id := repo.seed(fields("SSD", "firmware", domain.CategoryLogical))[0]
	c := newController(t, repo)
	require.NoError(t, c.Init(context.Background()))
	require.Len(t, visibleIn(c, domain.CategoryLogical, ""), 1)

	require.NoError(t, c.OpenForEdit(id))
	require.NoError(t, c.UpdateDraftField(domain.FieldCategory, string(domain.CategoryElectronic)))
	require.NoError(t, c.Submit(context.Background()))

	assert.Empty(t, visibleIn(c, domain.CategoryLogical, ""))
	got := visibleIn(c, domain.CategoryElectronic, "")
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
}

func TestEmptyDeviceNeverReachesRepository(t *testing.T) {
	repo := &fakeRepo{}
	c := newController(t, repo)
	require.NoError(t, c.Init(context.Background()))

	c.OpenForCreate()
	require.NoError(t, c.UpdateDraftField(domain.FieldAnalysis, "Y"))
	err := c.Submit(context.Background())

	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Empty(t, repo.mutations())
	st := c.State()
	assert.Equal(t, Composing, st.Session.State)
	assert.Equal(t, "Y", st.Session.Draft.Analysis)
	assert.NotEmpty(t, st.LastError)
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	repo := &fakeRepo{failCreate: true}
	n := &recordingNotifier{}
	c := newController(t, repo, WithNotifier(n))
	require.NoError(t, c.Init(context.Background()))

	err := composeAndSubmit(t, c, fields("HD", "cabeça", domain.CategoryPhysical))
	assert.True(t, errors.Is(err, domain.ErrIOFailure))

	st := c.State()
	assert.Equal(t, Composing, st.Session.State)
	assert.True(t, st.Session.Failed)
	assert.Equal(t, "HD", st.Session.Draft.Device)
	assert.Contains(t, st.LastError, "create")
	assert.Equal(t, []domain.EventKind{domain.EventRefreshed, domain.EventFailure}, n.kinds())

	// retry once the backend recovers
	repo.failCreate = false
	require.NoError(t, c.Submit(context.Background()))
	assert.Len(t, visibleIn(c, domain.CategoryPhysical, ""), 1)
	assert.Empty(t, c.State().LastError)
}

func TestDeleteRemovesFromEveryView(t *testing.T) {
	repo := &fakeRepo{}
	ids := repo.seed(
		fields("HD Seagate", "setores", domain.CategoryLogical),
		fields("HD WD", "setores", domain.CategoryLogical),
	)
	c := newController(t, repo)
	require.NoError(t, c.Init(context.Background()))
	c.SetSearchQuery("seagate")

	c.RequestDelete(ids[0])
	assert.Equal(t, ids[0], c.State().PendingDelete)
	require.NoError(t, c.ConfirmDelete(context.Background(), ids[0]))

	for _, tab := range domain.Categories {
		for _, q := range []string{"", "seagate", "setores"} {
			for _, r := range visibleIn(c, tab, q) {
				assert.NotEqual(t, ids[0], r.ID)
			}
		}
	}
	assert.Empty(t, c.State().PendingDelete)
	assert.Empty(t, c.State().Visible)
}

func TestDeleteTwiceDoesNotFail(t *testing.T) {
	repo := &fakeRepo{}
	id := repo.seed(fields("HD", "x", domain.CategoryLogical))[0]
	c := newController(t, repo)
	require.NoError(t, c.Init(context.Background()))

	deleted, err := c.Delete(context.Background(), id, answer(true))
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = c.Delete(context.Background(), id, answer(true))
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, c.Store().Records())
}

func TestDeclinedDeleteChangesNothing(t *testing.T) {
	repo := &fakeRepo{}
	id := repo.seed(fields("HD", "x", domain.CategoryLogical))[0]
	c := newController(t, repo)
	require.NoError(t, c.Init(context.Background()))
	before := c.State()

	deleted, err := c.Delete(context.Background(), id, answer(false))
	require.NoError(t, err)
	assert.False(t, deleted)

	if diff := cmp.Diff(before, c.State()); diff != "" {
		t.Fatalf("state changed after declined delete (-before +after):\n%s", diff)
	}
	assert.Empty(t, repo.mutations())
}

func TestConfirmWithoutRequest(t *testing.T) {
	repo := &fakeRepo{}
	id := repo.seed(fields("HD", "x", domain.CategoryLogical))[0]
	c := newController(t, repo)
	require.NoError(t, c.Init(context.Background()))

	err := c.ConfirmDelete(context.Background(), id)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	c.RequestDelete(id)
	c.DeclineDelete(id)
	err = c.ConfirmDelete(context.Background(), id)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	assert.Empty(t, repo.mutations())
}

func TestDeleteFailureLeavesStore(t *testing.T) {
	repo := &fakeRepo{failDelete: true}
	id := repo.seed(fields("HD", "x", domain.CategoryLogical))[0]
	c := newController(t, repo)
	require.NoError(t, c.Init(context.Background()))

	_, err := c.Delete(context.Background(), id, answer(true))
	assert.True(t, errors.Is(err, domain.ErrIOFailure))
	assert.Len(t, c.Store().Records(), 1)
	assert.Contains(t, c.State().LastError, "delete")
}

func TestEditThenCancelMakesNoCalls(t *testing.T) {
	repo := &fakeRepo{}
	id := repo.seed(fields("HD", "x", domain.CategoryLogical))[0]
	c := newController(t, repo)
	require.NoError(t, c.Init(context.Background()))
	before := c.Store().Records()

	require.NoError(t, c.OpenForEdit(id))
	require.NoError(t, c.UpdateDraftField(domain.FieldDevice, "changed"))
	require.NoError(t, c.Cancel())

	assert.Equal(t, Idle, c.State().Session.State)
	assert.Equal(t, before, c.Store().Records())
	assert.Empty(t, repo.mutations())
}

func TestNoOpEditRoundTrip(t *testing.T) {
	repo := &fakeRepo{}
	f := domain.Fields{
		Device: "SSD Kingston", DamageType: "Corrupção de Firmware", Analysis: "tabela",
		Category: domain.CategoryElectronic, Severity: domain.SeverityModerate,
	}
	id := repo.seed(f)[0]
	c := newController(t, repo)
	require.NoError(t, c.Init(context.Background()))
	original, _ := c.Store().Find(id)

	require.NoError(t, c.OpenForEdit(id))
	assert.Equal(t, original.Fields, c.State().Session.Draft)
	assert.Equal(t, id, c.State().Session.EditingID)

	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, []string{"update"}, repo.mutations())

	after, ok := c.Store().Find(id)
	require.True(t, ok)
	assert.Equal(t, original, after)
}

func TestOpenForEditUnknownID(t *testing.T) {
	c := newController(t, &fakeRepo{})
	require.NoError(t, c.Init(context.Background()))
	assert.True(t, errors.Is(c.OpenForEdit("missing"), domain.ErrNotFound))
	assert.Equal(t, Idle, c.State().Session.State)
}

func TestSelectTabAndSearch(t *testing.T) {
	repo := &fakeRepo{}
	repo.seed(
		fields("HD Seagate", "setores", domain.CategoryLogical),
		fields("Pendrive", "conector USB", domain.CategoryPhysical),
	)
	c := newController(t, repo)
	require.NoError(t, c.Init(context.Background()))

	assert.Equal(t, domain.CategoryLogical, c.State().Tab)
	require.NoError(t, c.SelectTab(domain.CategoryPhysical))
	c.SetSearchQuery("usb")
	st := c.State()
	require.Len(t, st.Visible, 1)
	assert.Equal(t, "Pendrive", st.Visible[0].Device)
	assert.Equal(t, 1, st.Counts[domain.CategoryLogical])

	err := c.SelectTab("optical")
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, domain.CategoryPhysical, c.State().Tab)
}

func TestRefreshAfterMutationFailure(t *testing.T) {
	repo := &fakeRepo{}
	c := newController(t, repo)
	require.NoError(t, c.Init(context.Background()))

	repo.failList = true
	err := composeAndSubmit(t, c, fields("X", "Y", domain.CategoryPhysical))
	var ioErr *domain.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "list", ioErr.Op)
	// mutation itself succeeded, form is closed
	assert.Equal(t, Idle, c.State().Session.State)
	assert.Empty(t, c.Store().Records())

	repo.failList = false
	require.NoError(t, c.Refresh(context.Background()))
	assert.Len(t, c.Store().Records(), 1)
}

func TestSeed(t *testing.T) {
	repo := &fakeRepo{}
	c := newController(t, repo)

	n, err := c.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, c.Store().IsLoading())
	for _, tab := range domain.Categories {
		assert.Len(t, visibleIn(c, tab, ""), 1, "tab %s", tab)
	}
}

func TestSeedPartialFailureReportsRefreshToo(t *testing.T) {
	repo := &fakeRepo{failCreateAfter: 1, failList: true}
	c := newController(t, repo)

	n, err := c.Seed(context.Background())
	assert.Equal(t, 1, n)
	require.Error(t, err)

	var ioErr *domain.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "create", ioErr.Op)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	var ops []string
	for _, e := range joined.Unwrap() {
		require.True(t, errors.As(e, &ioErr))
		ops = append(ops, ioErr.Op)
	}
	assert.Equal(t, []string{"create", "list"}, ops)

	// the create failure is what the state shows
	require.True(t, errors.As(c.LastError(), &ioErr))
	assert.Equal(t, "create", ioErr.Op)
	assert.Equal(t, []string{"create", "create", "list"}, repo.callLog())
}

func TestSeedPartialFailureRefreshes(t *testing.T) {
	repo := &fakeRepo{failCreateAfter: 2}
	c := newController(t, repo)

	n, err := c.Seed(context.Background())
	assert.Equal(t, 2, n)
	var ioErr *domain.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "create", ioErr.Op)
	assert.Len(t, c.Store().Records(), 2)
}

func TestRepositoryCallsNeverOverlap(t *testing.T) {
	base := &fakeRepo{}
	ids := base.seed(
		fields("HD", "a", domain.CategoryLogical),
		fields("SSD", "b", domain.CategoryElectronic),
		fields("Pendrive", "c", domain.CategoryPhysical),
	)
	repo := &inFlightRepo{Repository: base}
	c := NewController(repo, nil, WithClock(application.FixedClock{T: fixedNow}))
	ctx := context.Background()
	require.NoError(t, c.Init(ctx))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		id := ids[i%len(ids)]
		wg.Add(3)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Refresh(ctx))
		}()
		go func() {
			defer wg.Done()
			_, err := c.Seed(ctx)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			c.RequestDelete(id)
			// another goroutine may take over the single confirmation slot
			if err := c.ConfirmDelete(ctx, id); err != nil {
				assert.ErrorIs(t, err, domain.ErrInvalidTransition)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), repo.max.Load())
	assert.Equal(t, int32(0), repo.cur.Load())
	assert.NoError(t, c.LastError())
}

type stubArchive struct {
	key  string
	data []byte
}

func (a *stubArchive) PutJSON(_ context.Context, key string, data []byte) (string, error) {
	a.key, a.data = key, data
	return "http://minio.local/analyses/" + key, nil
}

func TestExport(t *testing.T) {
	repo := &fakeRepo{}
	repo.seed(fields("HD", "x", domain.CategoryLogical))
	arch := &stubArchive{}
	c := newController(t, repo, WithArchive(arch))

	_, err := c.Export(context.Background())
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	require.NoError(t, c.Init(context.Background()))
	url, err := c.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "snapshots/2026-10-16/analyses-093000.json", arch.key)
	assert.Equal(t, "http://minio.local/analyses/"+arch.key, url)
	assert.Contains(t, string(arch.data), `"count": 1`)
	assert.Contains(t, string(arch.data), `"device": "HD"`)
}

type stubAdvisor struct{ got domain.Fields }

func (a *stubAdvisor) SuggestAnalysis(_ context.Context, f domain.Fields) (string, error) {
	a.got = f
	return "Diagnóstico sugerido para " + f.Device, nil
}

func TestSuggestAnalysis(t *testing.T) {
	adv := &stubAdvisor{}
	c := newController(t, &fakeRepo{}, WithAdvisor(adv))

	err := c.SuggestAnalysis(context.Background())
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	c.OpenForCreate()
	err = c.SuggestAnalysis(context.Background())
	assert.True(t, errors.Is(err, domain.ErrValidation))

	require.NoError(t, c.UpdateDraftField(domain.FieldDevice, "HD Seagate"))
	require.NoError(t, c.UpdateDraftField(domain.FieldDamageType, "Falha de Setores"))
	require.NoError(t, c.SuggestAnalysis(context.Background()))

	assert.Equal(t, "Falha de Setores", adv.got.DamageType)
	st := c.State()
	assert.Equal(t, Composing, st.Session.State)
	assert.Equal(t, "Diagnóstico sugerido para HD Seagate", st.Session.Draft.Analysis)
}

func TestSuggestAnalysisBlankDevice(t *testing.T) {
	adv := &stubAdvisor{}
	c := newController(t, &fakeRepo{}, WithAdvisor(adv))

	c.OpenForCreate()
	require.NoError(t, c.UpdateDraftField(domain.FieldDevice, "   "))
	err := c.SuggestAnalysis(context.Background())

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{domain.FieldDevice}, verr.Fields)
	assert.Empty(t, c.State().Session.Draft.Analysis)
	assert.Empty(t, adv.got.Device)
}

func TestOptionalCollaboratorsMissing(t *testing.T) {
	c := newController(t, &fakeRepo{})
	require.NoError(t, c.Init(context.Background()))

	_, err := c.Export(context.Background())
	assert.True(t, errors.Is(err, ErrNotConfigured))

	c.OpenForCreate()
	err = c.SuggestAnalysis(context.Background())
	assert.True(t, errors.Is(err, ErrNotConfigured))
}
