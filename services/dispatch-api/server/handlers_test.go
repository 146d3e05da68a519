package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/abnp-academy/campaign-dispatch/internal/campaign"
	"github.com/abnp-academy/campaign-dispatch/internal/dispatch"
	"github.com/abnp-academy/campaign-dispatch/internal/mailer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeEngine struct {
	gotID string
	res   campaign.Result
	err   error
}

func (f *fakeEngine) Dispatch(ctx context.Context, campaignID string) (campaign.Result, error) {
	f.gotID = campaignID
	return f.res, f.err
}

type fakeMailer struct {
	got []mailer.Message
	err error
}

func (f *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	f.got = append(f.got, msg)
	return f.err
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSendCampaign_OK(t *testing.T) {
	eng := &fakeEngine{res: campaign.Result{Sent: 8, Failed: 2}}
	r := NewRouter(NewHandlers(eng, &fakeMailer{}))

	w := doJSON(t, r, http.MethodPost, "/functions/v1/send-campaign", `{"campaignId":"c-1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, w.Body.String())
	}
	if eng.gotID != "c-1" {
		t.Fatalf("engine got id %q", eng.gotID)
	}

	var resp campaign.SendCampaignResp
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.SentCount != 8 || resp.ErrorCount != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSendCampaign_BadRequest(t *testing.T) {
	r := NewRouter(NewHandlers(&fakeEngine{}, &fakeMailer{}))

	w := doJSON(t, r, http.MethodPost, "/functions/v1/send-campaign", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", w.Code)
	}
}

func TestSendCampaign_PipelineErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"not_found", dispatch.ErrNotFound, "campaign not found"},
		{"invalid_state", dispatch.ErrInvalidState, "only draft campaigns can be sent"},
		{"other", errors.New("db exploded"), "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRouter(NewHandlers(&fakeEngine{err: tc.err}, &fakeMailer{}))

			w := doJSON(t, r, http.MethodPost, "/functions/v1/send-campaign", `{"campaignId":"c-1"}`)
			if w.Code != http.StatusInternalServerError {
				t.Fatalf("want 500, got %d", w.Code)
			}
			var resp map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp["error"] != tc.wantMsg {
				t.Fatalf("want %q, got %q", tc.wantMsg, resp["error"])
			}
		})
	}
}

func TestPreflight(t *testing.T) {
	r := NewRouter(NewHandlers(&fakeEngine{}, &fakeMailer{}))

	req := httptest.NewRequest(http.MethodOptions, "/functions/v1/send-campaign", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("preflight body must be empty, got %q", w.Body.String())
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS origin header")
	}
}

func TestSendWelcomeEmail_OK(t *testing.T) {
	ml := &fakeMailer{}
	r := NewRouter(NewHandlers(&fakeEngine{}, ml))

	body := `{"email":"ana@example.com","displayName":"Ana","tempPassword":"tmp-1","role":"admin"}`
	w := doJSON(t, r, http.MethodPost, "/functions/v1/send-welcome-email", body)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(ml.got) != 1 || ml.got[0].To != "ana@example.com" {
		t.Fatalf("unexpected sends: %+v", ml.got)
	}
	if ml.got[0].HTML == "" {
		t.Fatal("welcome email body must be rendered")
	}
}

func TestSendWelcomeEmail_TransportFailure(t *testing.T) {
	ml := &fakeMailer{err: errors.New("resend: status 503")}
	r := NewRouter(NewHandlers(&fakeEngine{}, ml))

	body := `{"email":"ana@example.com","displayName":"Ana","tempPassword":"tmp-1","role":"user"}`
	w := doJSON(t, r, http.MethodPost, "/functions/v1/send-welcome-email", body)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", w.Code)
	}
}
