package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"leadgen-agent/internal/domain"
)

type fakeForms struct {
	form      domain.Form
	found     bool
	getErr    error
	incErr    error
	incCalled bool
}

func (f *fakeForms) GetForm(_ context.Context, _ string) (domain.Form, bool, error) {
	return f.form, f.found, f.getErr
}

func (f *fakeForms) IncrementLeadCount(_ context.Context, _ string) error {
	f.incCalled = true
	return f.incErr
}

type fakeLeadCreator struct {
	err     error
	created *domain.Lead
}

func (f *fakeLeadCreator) CreateLead(_ context.Context, lead domain.Lead) error {
	f.created = &lead
	return f.err
}

type fakeQuota struct {
	report QuotaReport
	err    error
}

func (f *fakeQuota) Check(_ context.Context, _ QuotaInput) (QuotaReport, error) {
	return f.report, f.err
}

func activeForm() domain.Form {
	return domain.Form{ID: "form-1", OwnerID: "user-1", Active: true, LeadCount: 2, LeadLimit: 100}
}

func submitInput() SubmitInput {
	return SubmitInput{FormID: "form-1", Email: "a@b.com", URL: "https://example.com", ApartmentSize: 55}
}

func mustSubmitService(t *testing.T, forms *fakeForms, leads *fakeLeadCreator, quota *fakeQuota) *SubmitService {
	t.Helper()
	s, err := NewSubmitService(forms, leads, quota)
	require.NoError(t, err)
	return s
}

func TestSubmit_HappyPath(t *testing.T) {
	old := newUUID
	newUUID = func() string { return "lead-fixed" }
	defer func() { newUUID = old }()

	forms := &fakeForms{form: activeForm(), found: true}
	leads := &fakeLeadCreator{}
	s := mustSubmitService(t, forms, leads, &fakeQuota{report: QuotaReport{UsageCount: 1, RemainingCount: 4, MaxCount: 5}})

	out, err := s.Submit(context.Background(), submitInput())
	require.NoError(t, err)
	require.Equal(t, "lead-fixed", out.LeadID)

	require.NotNil(t, leads.created)
	require.Equal(t, domain.LeadStatusPending, leads.created.Status)
	require.Equal(t, "form-1", leads.created.FormID)
	require.Equal(t, "a@b.com", leads.created.Email)
	require.Equal(t, "https://example.com", leads.created.URL)
	require.Equal(t, 55, leads.created.ApartmentSize)
	require.NotEmpty(t, leads.created.CreatedAt)
	require.True(t, forms.incCalled)
}

func TestSubmit_ValidatesInput(t *testing.T) {
	s := mustSubmitService(t, &fakeForms{}, &fakeLeadCreator{}, &fakeQuota{})

	for _, in := range []SubmitInput{
		{Email: "a@b.com", URL: "https://x"},
		{FormID: "form-1", URL: "https://x"},
		{FormID: "form-1", Email: "a@b.com"},
	} {
		_, err := s.Submit(context.Background(), in)
		requireCode(t, err, ErrorInvalidInput)
	}
}

func TestSubmit_UnknownForm(t *testing.T) {
	s := mustSubmitService(t, &fakeForms{found: false}, &fakeLeadCreator{}, &fakeQuota{})
	_, err := s.Submit(context.Background(), submitInput())
	requireCode(t, err, ErrorInvalidInput)
}

func TestSubmit_InactiveForm(t *testing.T) {
	form := activeForm()
	form.Active = false
	s := mustSubmitService(t, &fakeForms{form: form, found: true}, &fakeLeadCreator{}, &fakeQuota{})
	_, err := s.Submit(context.Background(), submitInput())
	requireCode(t, err, ErrorInvalidInput)
}

func TestSubmit_FormLimitReached(t *testing.T) {
	form := activeForm()
	form.LeadCount = form.LeadLimit
	leads := &fakeLeadCreator{}
	s := mustSubmitService(t, &fakeForms{form: form, found: true}, leads, &fakeQuota{})

	_, err := s.Submit(context.Background(), submitInput())
	requireCode(t, err, ErrorFormLimit)
	require.Nil(t, leads.created)
}

func TestSubmit_QuotaReached(t *testing.T) {
	leads := &fakeLeadCreator{}
	quota := &fakeQuota{report: QuotaReport{UsageCount: 5, MaxCount: 5, HasReachedLimit: true}}
	s := mustSubmitService(t, &fakeForms{form: activeForm(), found: true}, leads, quota)

	_, err := s.Submit(context.Background(), submitInput())
	requireCode(t, err, ErrorQuotaExceeded)
	require.Nil(t, leads.created)
}

func TestSubmit_QuotaCheckFailurePropagates(t *testing.T) {
	quota := &fakeQuota{err: newError(ErrorInternal, "lead_count_error", errors.New("boom"))}
	s := mustSubmitService(t, &fakeForms{form: activeForm(), found: true}, &fakeLeadCreator{}, quota)

	_, err := s.Submit(context.Background(), submitInput())
	requireCode(t, err, ErrorInternal)
}

func TestSubmit_StoreFailures(t *testing.T) {
	t.Run("form read", func(t *testing.T) {
		s := mustSubmitService(t, &fakeForms{getErr: errors.New("boom")}, &fakeLeadCreator{}, &fakeQuota{})
		_, err := s.Submit(context.Background(), submitInput())
		requireCode(t, err, ErrorInternal)
	})
	t.Run("lead create", func(t *testing.T) {
		s := mustSubmitService(t, &fakeForms{form: activeForm(), found: true}, &fakeLeadCreator{err: errors.New("boom")}, &fakeQuota{})
		_, err := s.Submit(context.Background(), submitInput())
		requireCode(t, err, ErrorInternal)
	})
	t.Run("counter update", func(t *testing.T) {
		s := mustSubmitService(t, &fakeForms{form: activeForm(), found: true, incErr: errors.New("boom")}, &fakeLeadCreator{}, &fakeQuota{})
		_, err := s.Submit(context.Background(), submitInput())
		requireCode(t, err, ErrorInternal)
	})
}
