// Sentry 웹훅 처리 비즈니스 로직 정의
// handler 에서 받은 페이로드를 markdown 으로 렌더링하고 client 를 통해 DingDing 으로 전송
//
// 처리 흐름:
//  1. 웹훅 URL 설정 여부 확인
//  2. template 으로 markdown 본문 렌더링
//  3. 렌더링 결과 로깅 (원본 페이로드는 handler 에서 로깅)
//  4. markdown 메시지로 감싸 DingDing 전송 (1회, 재시도 없음)

package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kube-rca/sentry-dingding/internal/model"
)

var ErrNotConfigured = errors.New("DingDing webhook URL not configured")

// messageSender - DingDing 전송 인터페이스
type messageSender interface {
	IsConfigured() bool
	Send(ctx context.Context, msg model.DingDingMessage) (*model.DingDingResponse, error)
}

// messageRenderer - markdown 렌더링 인터페이스
type messageRenderer interface {
	Render(w model.SentryWebhook) string
}

// SentryService 구조체 정의
type SentryService struct {
	sender   messageSender
	renderer messageRenderer
	logger   *slog.Logger
}

// SentryService 객체 생성
func NewSentryService(sender messageSender, renderer messageRenderer, logger *slog.Logger) *SentryService {
	return &SentryService{
		sender:   sender,
		renderer: renderer,
		logger:   logger.With(slog.String("component", "sentry")),
	}
}

func (s *SentryService) IsConfigured() bool {
	return s.sender.IsConfigured()
}

// Forward - 페이로드를 렌더링해서 DingDing 으로 보내고 렌더링된 본문을 반환
//
// 전송은 수신 요청의 context 와 분리된다. 수신 요청이 끊겨도 전송은
// client 타임아웃까지 진행된다. ctx 는 로깅 속성 조회에만 쓴다.
func (s *SentryService) Forward(ctx context.Context, webhook model.SentryWebhook) (string, error) {
	logger := s.logger
	if requestID, ok := ctx.Value(RequestIDKey{}).(string); ok && requestID != "" {
		logger = logger.With(slog.String("request_id", requestID))
	}

	if !s.sender.IsConfigured() {
		logger.Error("dingding webhook url not configured")
		return "", ErrNotConfigured
	}

	text := s.renderer.Render(webhook)
	logger.Info("rendered dingding message", slog.String("text", text))

	msg := model.NewMarkdownMessage(model.SentryAlertTitle, text)
	if _, err := s.sender.Send(context.Background(), msg); err != nil {
		logger.Error("failed to send message to dingding", slog.Any("err", err))
		return text, err
	}

	logger.Info("message sent to dingding")
	return text, nil
}

// RequestIDKey - 요청 ID 를 담는 context 키 (handler 미들웨어가 설정)
type RequestIDKey struct{}
