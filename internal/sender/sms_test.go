package sender

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTwilioSMSSender_Send(t *testing.T) {
	var gotPath, gotTo, gotFrom, gotBody string
	var gotUser, gotPass string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotTo = r.PostFormValue("To")
		gotFrom = r.PostFormValue("From")
		gotBody = r.PostFormValue("Body")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewTwilioSMSSender(TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "token",
		From:       "+15005550006",
		BaseURL:    srv.URL,
	})

	err := s.Send(context.Background(), "+61412345678", "Don't forget")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/2010-04-01/Accounts/AC123/Messages.json" {
		t.Errorf("path = %q", gotPath)
	}
	if gotUser != "AC123" || gotPass != "token" {
		t.Errorf("basic auth = %q/%q", gotUser, gotPass)
	}
	if gotTo != "+61412345678" || gotFrom != "+15005550006" || gotBody != "Don't forget" {
		t.Errorf("form = to:%q from:%q body:%q", gotTo, gotFrom, gotBody)
	}
}

func TestTwilioSMSSender_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code": 21211, "message": "The 'To' number is not a valid phone number."}`))
	}))
	defer srv.Close()

	s := NewTwilioSMSSender(TwilioConfig{AccountSID: "AC123", AuthToken: "t", From: "+1", BaseURL: srv.URL})

	err := s.Send(context.Background(), "not-a-number", "hi")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Errorf("error should carry status code, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "21211") {
		t.Errorf("error should carry provider code, got %q", err.Error())
	}
}

func TestTwilioSMSSender_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	s := NewTwilioSMSSender(TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "t",
		From:       "+1",
		BaseURL:    srv.URL,
		Timeout:    50 * time.Millisecond,
	})

	start := time.Now()
	err := s.Send(context.Background(), "+61412345678", "hi")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took %s, should be bounded by the configured 50ms", elapsed)
	}
}
