// 외부 DingDing 로봇 웹훅과 통신하는 클라이언트 정의
//
// 환경변수:
//   - DINGDING_WEBHOOK_URL: 로봇 웹훅 URL (https://oapi.dingtalk.com/robot/send?access_token=...)
//   - DINGDING_SECRET: 로봇 "加签" 보안 설정을 켰을 때의 secret (SEC...)
//   - DINGDING_TIMEOUT: 요청 타임아웃 (기본 10s)
//
// 응답 코드와 errcode 는 검사만 하고 에러로 취급하지 않는다.
// 요청 자체가 실패한 경우(네트워크 오류, 타임아웃)만 에러를 반환한다.

package client

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kube-rca/sentry-dingding/internal/config"
	"github.com/kube-rca/sentry-dingding/internal/model"
)

const maxResponseBody = 1 << 20

var ErrNotConfigured = errors.New("dingding webhook URL not configured")

// DingDingClient 구조체 정의
type DingDingClient struct {
	webhookURL string
	secret     string
	httpClient *http.Client
	logger     *slog.Logger

	// 서명 timestamp 용 (테스트에서 교체)
	now func() time.Time
}

// DingDingClient 객체 생성
func NewDingDingClient(cfg config.DingDingConfig, logger *slog.Logger) *DingDingClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DingDingClient{
		webhookURL: cfg.WebhookURL,
		secret:     cfg.Secret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With(slog.String("component", "dingding")),
		now:    time.Now,
	}
}

// 웹훅 URL 이 설정되어 있는지 체크
func (c *DingDingClient) IsConfigured() bool {
	return c.webhookURL != ""
}

// Send - 메시지를 DingDing 로봇 웹훅으로 전송
func (c *DingDingClient) Send(ctx context.Context, msg model.DingDingMessage) (*model.DingDingResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	// JSON 직렬화
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	target, err := c.signedURL()
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook url: %w", err)
	}

	// HTTP 요청 생성
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// 요청 전송
	// url.Error 는 access_token 이 포함된 URL 을 메시지에 담으므로 벗겨낸다
	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	// 응답은 참고용 (읽기/파싱 실패도 전송 성공으로 본다)
	var ddResp model.DingDingResponse
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		c.logger.Warn("failed to read dingding response", slog.Any("err", err))
		return &ddResp, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("dingding returned non-2xx status",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)))
		return &ddResp, nil
	}
	if err := json.Unmarshal(body, &ddResp); err != nil {
		c.logger.Warn("failed to parse dingding response", slog.Any("err", err), slog.String("body", string(body)))
		return &ddResp, nil
	}
	if ddResp.ErrCode != 0 {
		c.logger.Warn("dingding rejected message",
			slog.Int("errcode", ddResp.ErrCode),
			slog.String("errmsg", ddResp.ErrMsg))
	}
	return &ddResp, nil
}

// signedURL - secret 이 있으면 timestamp 와 sign 쿼리를 붙인 URL 반환
func (c *DingDingClient) signedURL() (string, error) {
	if c.secret == "" {
		return c.webhookURL, nil
	}

	u, err := url.Parse(c.webhookURL)
	if err != nil {
		return "", err
	}
	timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)

	q := u.Query()
	q.Set("timestamp", timestamp)
	q.Set("sign", sign(timestamp, c.secret))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// sign = base64(HmacSHA256(secret, timestamp + "\n" + secret))
func sign(timestamp, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "\n" + secret))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
