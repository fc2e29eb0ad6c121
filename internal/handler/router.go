package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter - 라우터 구성
//
// 경로는 의미가 없으므로 등록되지 않은 모든 경로는 Sentry 웹훅 핸들러로 보낸다.
func NewRouter(sentryHandler *SentryHandler, checker configChecker, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	// 경로와 무관하게 모든 요청을 웹훅으로 처리해야 하므로 "/x/" -> "/x" 리다이렉트를 끈다
	r.RedirectTrailingSlash = false
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(logger))
	r.Use(CORSMiddleware())

	r.GET("/ping", Ping)
	r.GET("/healthz", Healthz(checker))
	r.GET("/openapi.json", OpenAPIDoc)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.Any("/", sentryHandler.Webhook)
	r.Any("/webhook/sentry", sentryHandler.Webhook)
	r.NoRoute(sentryHandler.Webhook)

	return r
}
