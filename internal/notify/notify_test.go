package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSlackSend(t *testing.T) {
	var got struct {
		Text string `json:"text"`
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type: %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	s := NewSlack(ts.URL)
	if s == nil {
		t.Fatal("webhook configured, want a client")
	}
	if err := s.Send(context.Background(), "2 checks failed", "details here"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.HasPrefix(got.Text, "*2 checks failed*\n") {
		t.Fatalf("payload text: %q", got.Text)
	}
}

func TestSlackSendNon2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	if err := NewSlack(ts.URL).Send(context.Background(), "t", "x"); err == nil {
		t.Fatal("want error on non-2xx")
	}
}

func TestNewSlackUnconfigured(t *testing.T) {
	if NewSlack("") != nil {
		t.Fatal("empty webhook must yield nil")
	}
}

type stubNotifier struct {
	calls int
	err   error
}

func (s *stubNotifier) Send(ctx context.Context, title, text string) error {
	s.calls++
	return s.err
}

func TestMultiSendsToAllChannels(t *testing.T) {
	a := &stubNotifier{err: errors.New("smtp down")}
	b := &stubNotifier{}

	err := Multi{a, nil, b}.Send(context.Background(), "t", "x")
	if err == nil {
		t.Fatal("first channel's error must surface")
	}
	if a.calls != 1 || b.calls != 1 {
		t.Fatalf("every channel gets attempted: a=%d b=%d", a.calls, b.calls)
	}
}
