package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	ledgerservice "questfund/contexts/funding/ledger-service"
	ledgerhttp "questfund/contexts/funding/ledger-service/transport/http"
)

func newTestServer(t *testing.T) (*Server, ledgerservice.Module) {
	t.Helper()
	module := ledgerservice.NewInMemoryModule(nil, nil)
	module.Tokens.Credit("tok-1", "acct-a", 1000)
	return New(module, nil, ""), module
}

func postJSON(t *testing.T, handler http.Handler, path string, headers map[string]string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func campaignPayload() ledgerhttp.CreateCampaignRequest {
	return ledgerhttp.CreateCampaignRequest{
		Initiator:    "acct-a",
		Title:        "Launch push",
		IpfsCID:      "QmLaunchCid",
		RewardToken:  "tok-1",
		RewardAmount: 500,
		Challenges: []ledgerhttp.ChallengeInputDTO{
			{KPI: "signups", Points: 10, MaxContributions: 3},
		},
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ledgerhttp.ErrorResponse {
	t.Helper()
	var body ledgerhttp.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error response failed: %v", err)
	}
	return body
}

func TestCreateCampaignEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := postJSON(t, server.Handler(), "/v1/campaigns", map[string]string{
		"X-Caller-Account": "acct-a",
		"Idempotency-Key":  "create-1",
	}, campaignPayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var body ledgerhttp.CreateCampaignResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if body.Campaign.CampaignID != 1 {
		t.Fatalf("expected campaign id 1, got %d", body.Campaign.CampaignID)
	}
}

func TestCreateCampaignRequiresCallerHeader(t *testing.T) {
	server, _ := newTestServer(t)

	rec := postJSON(t, server.Handler(), "/v1/campaigns", map[string]string{
		"Idempotency-Key": "create-1",
	}, campaignPayload())
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if decodeError(t, rec).Code != "missing_caller" {
		t.Fatalf("unexpected error body: %s", rec.Body.String())
	}
}

func TestCreateCampaignStatusMapping(t *testing.T) {
	server, _ := newTestServer(t)
	headers := func(caller string) map[string]string {
		return map[string]string{
			"X-Caller-Account": caller,
			"Idempotency-Key":  "create-1",
		}
	}

	rec := postJSON(t, server.Handler(), "/v1/campaigns", headers("acct-b"), campaignPayload())
	if rec.Code != http.StatusForbidden || decodeError(t, rec).Code != "not_initiator" {
		t.Fatalf("expected 403 not_initiator, got %d: %s", rec.Code, rec.Body.String())
	}

	unfunded := campaignPayload()
	unfunded.RewardToken = "tok-empty"
	rec = postJSON(t, server.Handler(), "/v1/campaigns", headers("acct-a"), unfunded)
	if rec.Code != http.StatusConflict || decodeError(t, rec).Code != "escrow_failed" {
		t.Fatalf("expected 409 escrow_failed, got %d: %s", rec.Code, rec.Body.String())
	}

	invalid := campaignPayload()
	invalid.Title = ""
	rec = postJSON(t, server.Handler(), "/v1/campaigns", headers("acct-a"), invalid)
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "invalid_campaign_input" {
		t.Fatalf("expected 400 invalid_campaign_input, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = postJSON(t, server.Handler(), "/v1/campaigns", map[string]string{
		"X-Caller-Account": "acct-a",
	}, campaignPayload())
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "idempotency_key_required" {
		t.Fatalf("expected 400 idempotency_key_required, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestContributeEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := postJSON(t, server.Handler(), "/v1/campaigns", map[string]string{
		"X-Caller-Account": "acct-a",
		"Idempotency-Key":  "create-1",
	}, campaignPayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("campaign setup failed: %d", rec.Code)
	}

	rec = postJSON(t, server.Handler(), "/v1/contributions", map[string]string{
		"X-Caller-Account": "acct-anyone",
		"Idempotency-Key":  "batch-1",
	}, ledgerhttp.ContributeRequest{
		Contributions: []ledgerhttp.ContributionInputDTO{
			{CampaignID: 1, ChallengeIndex: 0, Amount: 2},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var body ledgerhttp.ContributeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if len(body.Contributions) != 1 || body.Contributions[0].ContributionID != 1 {
		t.Fatalf("unexpected response: %s", rec.Body.String())
	}

	rec = get(t, server.Handler(), "/v1/contributions/1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = get(t, server.Handler(), "/v1/campaigns/1/contributions")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestContributeRejectsInvalidRecord(t *testing.T) {
	server, _ := newTestServer(t)

	rec := postJSON(t, server.Handler(), "/v1/contributions", map[string]string{
		"Idempotency-Key": "batch-1",
	}, ledgerhttp.ContributeRequest{
		Contributions: []ledgerhttp.ContributionInputDTO{
			{CampaignID: 9, ChallengeIndex: 0, Amount: 1},
		},
	})
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "invalid_contribution" {
		t.Fatalf("expected 400 invalid_contribution, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = postJSON(t, server.Handler(), "/v1/contributions", map[string]string{
		"Idempotency-Key": "batch-2",
	}, ledgerhttp.ContributeRequest{})
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "empty_contribution_batch" {
		t.Fatalf("expected 400 empty_contribution_batch, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNotFoundAndBadIDResponses(t *testing.T) {
	server, _ := newTestServer(t)

	rec := get(t, server.Handler(), "/v1/campaigns/7")
	if rec.Code != http.StatusNotFound || decodeError(t, rec).Code != "campaign_not_found" {
		t.Fatalf("expected 404 campaign_not_found, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = get(t, server.Handler(), "/v1/contributions/7")
	if rec.Code != http.StatusNotFound || decodeError(t, rec).Code != "contribution_not_found" {
		t.Fatalf("expected 404 contribution_not_found, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = get(t, server.Handler(), "/v1/campaigns/not-a-number")
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "invalid_campaign_id" {
		t.Fatalf("expected 400 invalid_campaign_id, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCampaignsByAccountEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := postJSON(t, server.Handler(), "/v1/campaigns", map[string]string{
		"X-Caller-Account": "acct-a",
		"Idempotency-Key":  "create-1",
	}, campaignPayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("campaign setup failed: %d", rec.Code)
	}

	rec = get(t, server.Handler(), "/v1/accounts/acct-a/campaigns")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body ledgerhttp.ListAccountCampaignsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if len(body.CampaignIDs) != 1 || body.CampaignIDs[0] != 1 {
		t.Fatalf("unexpected ids %v", body.CampaignIDs)
	}

	rec = get(t, server.Handler(), "/v1/accounts/acct-none/campaigns")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown account, got %d", rec.Code)
	}
}
