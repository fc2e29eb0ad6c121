// Sentry 웹훅 요청을 처리하는 핸들러
//
// 요청 흐름:
//  1. POST 외의 메서드는 405 (OPTIONS 는 CORSMiddleware 가 먼저 200 으로 응답)
//  2. Raw payload 로깅 후 SentryWebhook 구조체로 파싱 (실패 시 일반 실패 500)
//  3. 웹훅 URL 미설정이면 500
//  4. service 레이어에서 렌더링 + DingDing 전송

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/kube-rca/sentry-dingding/internal/model"
	"github.com/kube-rca/sentry-dingding/internal/service"
)

const (
	msgMethodNotAllowed = "Method Not Allowed"
	msgNotConfigured    = "DingDing webhook URL not configured"
	msgProcessFailed    = "Failed to process webhook"
	msgSent             = "Message sent to DingDing successfully"
)

// sentryService - 서비스 인터페이스
type sentryService interface {
	IsConfigured() bool
	Forward(ctx context.Context, webhook model.SentryWebhook) (string, error)
}

// SentryHandler - Sentry 웹훅 핸들러
type SentryHandler struct {
	svc    sentryService
	logger *slog.Logger
}

func NewSentryHandler(svc sentryService, logger *slog.Logger) *SentryHandler {
	return &SentryHandler{
		svc:    svc,
		logger: logger.With(slog.String("component", "handler")),
	}
}

// Webhook godoc
// @Summary Receive a Sentry webhook and forward it to DingDing
// @Tags webhook
// @Accept json
// @Produce json
// @Param request body model.SentryWebhook true "Sentry webhook payload (event or action shape)"
// @Success 200 {object} model.WebhookResponse
// @Failure 405,500 {object} model.ErrorResponse
// @Router / [post]
func (h *SentryHandler) Webhook(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, model.ErrorResponse{Error: msgMethodNotAllowed})
		return
	}

	logger := h.logger.With(slog.String("request_id", GetRequestID(c)))

	// 1. Raw payload 로깅 (디버깅용, 파싱 실패한 본문도 남긴다)
	body, err := c.GetRawData()
	if err != nil {
		logger.Error("failed to read sentry webhook body", slog.Any("err", err))
		h.fail(c, err)
		return
	}
	logger.Info("received sentry webhook", slog.String("payload", string(body)))

	// 2. JSON 페이로드 파싱
	// 잘못된 JSON 도 별도 400 없이 일반 실패로 처리
	var webhook model.SentryWebhook
	if err := binding.JSON.BindBody(body, &webhook); err != nil {
		logger.Error("failed to parse sentry webhook", slog.Any("err", err))
		h.fail(c, err)
		return
	}

	// 3. 설정 확인 (파싱 성공 후에만 검사)
	if !h.svc.IsConfigured() {
		logger.Error("dingding webhook url not configured")
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: msgNotConfigured})
		return
	}

	// 4. 렌더링 + 전송
	if _, err := h.svc.Forward(c.Request.Context(), webhook); err != nil {
		if errors.Is(err, service.ErrNotConfigured) {
			c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: msgNotConfigured})
			return
		}
		logger.Error("failed to process sentry webhook", slog.Any("err", err))
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, model.WebhookResponse{Success: true, Message: msgSent})
}

func (h *SentryHandler) fail(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, model.ErrorResponse{
		Error:   msgProcessFailed,
		Details: err.Error(),
	})
}
