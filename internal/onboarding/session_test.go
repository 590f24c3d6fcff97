package onboarding_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/auth"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/catalog"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/notify"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/payer"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/review"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/servicearea"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/supplier"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/supplier/suppliertest"
	"github.com/georgemunganga/supplier-onboarding/internal/onboarding"
	"github.com/georgemunganga/supplier-onboarding/internal/onboarding/autosave"
	"github.com/georgemunganga/supplier-onboarding/internal/onboarding/client"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var _ onboarding.DraftStore = (*client.Client)(nil)

const adminPassword = "ops-password"

type env struct {
	repo     *suppliertest.Repo
	children *suppliertest.StaticChildren
	srv      *httptest.Server
	patches  int32
	admin    *client.AdminClient
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{repo: suppliertest.NewRepo(), children: &suppliertest.StaticChildren{}}
	logger := zap.NewNop()
	notifier := notify.NewLogNotifier(logger)
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	suppliers := supplier.NewService(e.repo, e.children, supplier.DefaultSteps(), issuer, notifier, logger)
	reviews := review.NewService(e.repo, e.children, suppliers, notifier, "https://onboard.test", logger)
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	r := chi.NewRouter()
	supplier.NewHandler(suppliers, issuer).RegisterRoutes(r, auth.RequireSupplier(issuer))
	review.NewHandler(reviews).RegisterRoutes(r, auth.AdminGuard(string(hash)))

	e.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPatch {
			atomic.AddInt32(&e.patches, 1)
		}
		r.ServeHTTP(w, req)
	}))
	t.Cleanup(e.srv.Close)
	e.admin = client.NewAdmin(e.srv.URL, adminPassword)
	return e
}

func (e *env) patchCount() int { return int(atomic.LoadInt32(&e.patches)) }

// open signs in with the invite link and opens a session.
func (e *env) open(t *testing.T, s *supplier.Supplier, opts ...autosave.Option) *onboarding.Session {
	t.Helper()
	ctx := context.Background()
	c := client.New(e.srv.URL)
	info, err := c.VerifyInvite(ctx, s.InviteToken)
	require.NoError(t, err)
	require.NotEmpty(t, info.AccessToken)

	sess, err := onboarding.Open(ctx, c, s.ID, onboarding.Config{Autosave: opts})
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close(context.Background()) })
	return sess
}

func readyChildren() supplier.Children {
	return supplier.Children{
		Products:     []*catalog.Product{{ID: uuid.New(), ProductName: "CPAP Mask", ApprovedBySupplier: true}},
		Payers:       []*payer.Payer{{ID: uuid.New(), PayerName: "Aetna", NetworkType: "PPO"}},
		ServiceAreas: []*servicearea.ServiceArea{{ID: uuid.New(), State: "TX", StandardDeliveryDays: 3}},
	}
}

func readySupplier(status supplier.Status) *supplier.Supplier {
	return &supplier.Supplier{
		ID:                         uuid.New(),
		InviteToken:                uuid.NewString(),
		Email:                      "jane@acme.test",
		EmailVerified:              true,
		CompanyName:                "Acme Medical Supply",
		CompanyAddress:             "1 Main St, Austin, TX",
		TaxID:                      "123456789",
		NPI:                        "1234567890",
		OperationsContactName:      "Jane Doe",
		OperationsContactEmail:     "jane@acme.test",
		Tier:                       supplier.Tier2,
		SupportEmail:               "support@acme.test",
		OrderTransmittalPreference: supplier.TransmittalAPI,
		SLAAcknowledged:            true,
		SLAAcknowledgedBy:          "Jane Doe",
		Status:                     status,
		CurrentStep:                11,
		MaxStepReached:             11,
	}
}

func TestSession_SubmitThenAdminCanClaim(t *testing.T) {
	e := newEnv(t)
	e.children.Set(readyChildren())
	s := readySupplier(supplier.StatusInProgress)
	e.repo.Put(s)
	sess := e.open(t, s)
	ctx := context.Background()

	assert.Empty(t, sess.Readiness())
	resp, err := sess.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, supplier.StatusSubmitted, resp.Status)
	require.NotNil(t, resp.SubmittedAt)
	assert.False(t, sess.Actions().CanSubmit)

	detail, err := e.admin.Detail(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, detail.Actions.CanClaim)

	res, err := e.admin.Claim(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, supplier.StatusUnderReview, res.Status)

	_, err = e.admin.Claim(ctx, s.ID)
	assert.ErrorIs(t, err, supplier.ErrIllegalTransition)
}

func TestSession_ReadinessFailureOpensFailingSteps(t *testing.T) {
	e := newEnv(t)
	s := readySupplier(supplier.StatusInProgress)
	s.MaxStepReached = 2
	s.CurrentStep = 2
	e.repo.Put(s)
	sess := e.open(t, s)

	_, err := sess.Submit(context.Background())
	var re *supplier.ReadinessError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, []int{3, 4, 6}, sess.Controller().OpenSteps())
	assert.True(t, sess.Controller().CanAccess(6))
	assert.False(t, sess.Controller().CanAccess(7))

	ctx := context.Background()
	require.NoError(t, sess.Refresh(ctx))
	assert.Equal(t, []int{3, 4, 6}, sess.Controller().OpenSteps())
	require.NoError(t, sess.Controller().GoTo(ctx, 6))
	assert.Equal(t, 6, sess.Controller().CurrentStep())

	stored, err := e.repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.CurrentStep)
	assert.Equal(t, 2, stored.MaxStepReached)
}

func TestSession_FlaggedJumpDoesNotUnlockSkippedSteps(t *testing.T) {
	e := newEnv(t)
	e.children.Set(readyChildren())
	s := readySupplier(supplier.StatusSubmitted)
	s.CurrentStep, s.MaxStepReached = 4, 4
	e.repo.Put(s)
	sess := e.open(t, s)
	ctx := context.Background()

	_, err := e.admin.RequestCorrections(ctx, s.ID, review.CorrectionsInput{
		ReviewerName: "Sam",
		Corrections:  []supplier.CorrectionRequest{{StepNumber: 10, Comment: "sign the SLA"}},
	})
	require.NoError(t, err)
	require.NoError(t, sess.Refresh(ctx))

	ctrl := sess.Controller()
	require.NoError(t, ctrl.GoTo(ctx, 10))
	assert.Equal(t, 4, ctrl.MaxStepReached())

	stored, err := e.repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.CurrentStep)
	assert.Equal(t, 4, stored.MaxStepReached)

	require.NoError(t, sess.Refresh(ctx))
	assert.Equal(t, 10, ctrl.CurrentStep())
	assert.Equal(t, 4, ctrl.MaxStepReached())
	assert.False(t, ctrl.CanAccess(7))
	assert.True(t, ctrl.CanAccess(10))
}

func TestSession_CorrectionsReopenStep(t *testing.T) {
	e := newEnv(t)
	e.children.Set(readyChildren())
	s := readySupplier(supplier.StatusSubmitted)
	e.repo.Put(s)
	sess := e.open(t, s)
	ctx := context.Background()
	assert.Empty(t, sess.Corrections())

	res, err := e.admin.RequestCorrections(ctx, s.ID, review.CorrectionsInput{
		ReviewerName: "Sam",
		Corrections:  []supplier.CorrectionRequest{{StepNumber: 3, Comment: "missing SKUs"}},
	})
	require.NoError(t, err)
	assert.Equal(t, supplier.StatusActionNeeded, res.Status)

	require.NoError(t, sess.Refresh(ctx))
	notes := sess.Corrections()
	require.Len(t, notes, 1)
	assert.Equal(t, 3, notes[0].StepNumber)
	assert.False(t, notes[0].Resolved)
	groups := sess.CorrectionGroups()
	require.Len(t, groups, 1)
	assert.Equal(t, "Product Catalog", groups[0].Label)

	ctrl := sess.Controller()
	assert.Equal(t, 11, ctrl.MaxStepReached())
	require.NoError(t, ctrl.GoTo(ctx, 3))
	assert.Equal(t, 3, ctrl.CurrentStep())
	assert.Equal(t, 11, ctrl.MaxStepReached())

	stored, err := e.repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.CurrentStep)
	assert.Equal(t, 11, stored.MaxStepReached)

	require.NoError(t, sess.Save(ctx, supplier.Patch{SupportHours: supplier.String("24/7")}, true))
	resp, err := sess.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, supplier.StatusSubmitted, resp.Status)
}

func TestSession_AutosaveCoalescesIntoOnePatch(t *testing.T) {
	e := newEnv(t)
	s := readySupplier(supplier.StatusInProgress)
	e.repo.Put(s)
	sess := e.open(t, s, autosave.WithDelay(30*time.Millisecond))
	ctx := context.Background()

	require.NoError(t, sess.Save(ctx, supplier.Patch{CompanyName: supplier.String("1")}, false))
	require.NoError(t, sess.Save(ctx, supplier.Patch{SupportHours: supplier.String("2")}, false))
	require.NoError(t, sess.Save(ctx, supplier.Patch{CompanyName: supplier.String("3")}, false))
	assert.Equal(t, "3", sess.Draft().CompanyName)

	assert.Eventually(t, func() bool {
		return sess.Autosave().Status() == autosave.StatusSaved
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, e.patchCount())

	stored, err := e.repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "3", stored.CompanyName)
	assert.Equal(t, "2", stored.SupportHours)
}

func TestSession_AdvanceFlushesFieldsFirst(t *testing.T) {
	e := newEnv(t)
	s := &supplier.Supplier{
		ID:             uuid.New(),
		InviteToken:    uuid.NewString(),
		Email:          "new@acme.test",
		EmailVerified:  true,
		Tier:           supplier.Tier1,
		Status:         supplier.StatusInProgress,
		CurrentStep:    1,
		MaxStepReached: 1,
	}
	e.repo.Put(s)
	sess := e.open(t, s, autosave.WithDelay(time.Hour))
	ctx := context.Background()
	ctrl := sess.Controller()

	res, err := ctrl.Advance(ctx)
	assert.ErrorIs(t, err, onboarding.ErrStepInvalid)
	assert.False(t, res.Valid)
	assert.Equal(t, 1, ctrl.CurrentStep())
	assert.Zero(t, e.patchCount())

	require.NoError(t, sess.Save(ctx, supplier.Patch{
		CompanyName:            supplier.String("Acme"),
		TaxID:                  supplier.String("123456789"),
		NPI:                    supplier.String("1234567890"),
		OperationsContactName:  supplier.String("Jane"),
		OperationsContactEmail: supplier.String("jane@acme.test"),
	}, false))
	assert.Zero(t, e.patchCount())

	_, err = ctrl.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ctrl.CurrentStep())
	assert.Equal(t, 2, ctrl.MaxStepReached())
	assert.Equal(t, 2, e.patchCount())

	stored, err := e.repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", stored.CompanyName)
	assert.Equal(t, 2, stored.CurrentStep)
	assert.Equal(t, 2, stored.MaxStepReached)

	require.NoError(t, ctrl.Back(ctx))
	assert.Equal(t, 1, ctrl.CurrentStep())
	assert.Equal(t, 2, ctrl.MaxStepReached())
	assert.NoError(t, ctrl.Back(ctx))
	assert.Equal(t, 1, ctrl.CurrentStep())
}

func TestSession_EditsRejectedAfterSubmission(t *testing.T) {
	e := newEnv(t)
	s := readySupplier(supplier.StatusUnderReview)
	e.repo.Put(s)
	sess := e.open(t, s)

	err := sess.Save(context.Background(), supplier.Patch{CompanyName: supplier.String("x")}, true)
	assert.ErrorIs(t, err, supplier.ErrNotEditable)
	assert.Zero(t, e.patchCount())
}
