package model

// ErrorResponse - 모든 실패 응답 본문
// Details 는 처리 중 발생한 내부 에러 메시지 (일반 실패일 때만 존재)
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WebhookResponse - Sentry 웹훅 처리 성공 응답
type WebhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type PingResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
