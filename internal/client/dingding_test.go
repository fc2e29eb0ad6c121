package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kube-rca/sentry-dingding/internal/config"
	"github.com/kube-rca/sentry-dingding/internal/logger"
	"github.com/kube-rca/sentry-dingding/internal/model"
)

func newTestClient(cfg config.DingDingConfig) *DingDingClient {
	return NewDingDingClient(cfg, logger.Discard())
}

func TestSendPostsMarkdownEnvelope(t *testing.T) {
	var gotBody model.DingDingMessage
	var gotContentType, gotMethod, gotToken string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotToken = r.URL.Query().Get("access_token")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		_, _ = w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	c := newTestClient(config.DingDingConfig{WebhookURL: srv.URL + "/robot/send?access_token=abc"})
	resp, err := c.Send(context.Background(), model.NewMarkdownMessage("title", "**text**"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ErrCode != 0 || resp.ErrMsg != "ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if gotMethod != http.MethodPost || gotContentType != "application/json" || gotToken != "abc" {
		t.Fatalf("unexpected request: method=%s content-type=%s token=%s", gotMethod, gotContentType, gotToken)
	}
	if gotBody.MsgType != "markdown" || gotBody.Markdown == nil || gotBody.Markdown.Text != "**text**" {
		t.Fatalf("unexpected envelope: %+v", gotBody)
	}
}

func TestSendIgnoresRemoteFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server-error", status: http.StatusInternalServerError, body: "oops"},
		{name: "errcode", status: http.StatusOK, body: `{"errcode":310000,"errmsg":"keywords not in content"}`},
		{name: "not-json", status: http.StatusOK, body: "<html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newTestClient(config.DingDingConfig{WebhookURL: srv.URL})
			if _, err := c.Send(context.Background(), model.NewMarkdownMessage("t", "x")); err != nil {
				t.Fatalf("expected success, got %v", err)
			}
		})
	}
}

func TestSendNotConfigured(t *testing.T) {
	c := newTestClient(config.DingDingConfig{})
	if c.IsConfigured() {
		t.Fatal("expected client to be unconfigured")
	}
	if _, err := c.Send(context.Background(), model.NewMarkdownMessage("t", "x")); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSendTimeoutHidesURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(config.DingDingConfig{
		WebhookURL: srv.URL + "/robot/send?access_token=secret-token",
		Timeout:    50 * time.Millisecond,
	})
	_, err := c.Send(context.Background(), model.NewMarkdownMessage("t", "x"))
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "Timeout") {
		t.Fatalf("expected timeout message, got %q", err.Error())
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Fatalf("error leaks webhook url: %q", err.Error())
	}
}

func TestSignedURL(t *testing.T) {
	c := newTestClient(config.DingDingConfig{
		WebhookURL: "https://oapi.dingtalk.com/robot/send?access_token=abc",
		Secret:     "SECtest",
	})
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }

	got, err := c.signedURL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "access_token=abc") || !strings.Contains(got, "timestamp=1700000000000") {
		t.Fatalf("unexpected signed url: %s", got)
	}
	if !strings.Contains(got, "sign=") {
		t.Fatalf("missing sign parameter: %s", got)
	}

	// 같은 입력이면 같은 서명
	if sign("1700000000000", "SECtest") != sign("1700000000000", "SECtest") {
		t.Fatal("sign is not deterministic")
	}
	if sign("1700000000000", "SECtest") == sign("1700000000001", "SECtest") {
		t.Fatal("sign should depend on timestamp")
	}
}

func TestSignedURLWithoutSecret(t *testing.T) {
	raw := "https://oapi.dingtalk.com/robot/send?access_token=abc"
	c := newTestClient(config.DingDingConfig{WebhookURL: raw})
	got, err := c.signedURL()
	if err != nil || got != raw {
		t.Fatalf("signedURL() = %q, %v; want %q", got, err, raw)
	}
}
