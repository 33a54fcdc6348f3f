package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"leadgen-agent/internal/domain"
	"leadgen-agent/internal/usecase"
)

func TestRouter_Quota(t *testing.T) {
	f := newFixture(t)
	f.quota.out = usecase.QuotaReport{UsageCount: 1, RemainingCount: 4, MaxCount: 5}
	srv := httptest.NewServer(f.h.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/usage?formId=form-1&email=a%40b.com")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, usecase.QuotaInput{FormID: "form-1", Email: "a@b.com"}, f.quota.in)
	require.NotEmpty(t, resp.Header.Get("X-Correlation-Id"))
}

func TestRouter_GenerateErrorStatus(t *testing.T) {
	f := newFixture(t)
	f.generator.err = &usecase.Error{Code: usecase.ErrorUpstream, Reason: "model_error"}
	srv := httptest.NewServer(f.h.Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/generate", "application/json",
		strings.NewReader(`{"url":"https://example.com","leadId":"lead-1"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestRouter_ListUsersReadsIdentityHeader(t *testing.T) {
	f := newFixture(t)
	f.lister.out = usecase.ListUsersOutput{Users: []domain.UserStats{
		{User: domain.User{ID: "user-1"}, FormCount: 1, LeadCount: 3},
	}}
	srv := httptest.NewServer(f.h.Router())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/admin/users", nil)
	require.NoError(t, err)
	req.Header.Set("X-User-Id", "user-1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "user-1", f.lister.callerID)
}

func TestRouter_GetLead(t *testing.T) {
	f := newFixture(t)
	f.fetcher.out = domain.Lead{ID: "lead-1", Status: domain.LeadStatusProcessed, ResultText: "Offer"}
	srv := httptest.NewServer(f.h.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/leads/lead-1")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "lead-1", f.fetcher.leadID)
}

func TestRouter_SubmitInvalidBody(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.h.Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/leads", "application/json", strings.NewReader("not-json"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
