package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kube-rca/sentry-dingding/internal/model"
)

// Ping godoc
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} model.PingResponse
// @Router /ping [get]
func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, model.PingResponse{Message: "pong"})
}

// 설정 상태 체크 (웹훅 URL 미설정이어도 200, status 로 구분)
type configChecker interface {
	IsConfigured() bool
}

// Healthz godoc
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} model.HealthResponse
// @Router /healthz [get]
func Healthz(checker configChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !checker.IsConfigured() {
			c.JSON(http.StatusOK, model.HealthResponse{Status: "degraded", Message: msgNotConfigured})
			return
		}
		c.JSON(http.StatusOK, model.HealthResponse{Status: "ok", Message: "sentry-dingding bridge is running"})
	}
}
