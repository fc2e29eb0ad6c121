// DingDing 로봇 웹훅 메시지 구조체 정의

package model

const (
	DingDingMsgTypeMarkdown = "markdown"

	// SentryAlertTitle - DingDing 메시지 제목 (알림 목록에 표시)
	SentryAlertTitle = "🚨 Sentry 告警"
)

// DingDingMessage - DingDing 로봇 웹훅 요청 본문
type DingDingMessage struct {
	MsgType  string            `json:"msgtype"`
	Markdown *DingDingMarkdown `json:"markdown,omitempty"`
}

// DingDingMarkdown - markdown 타입 메시지 내용
type DingDingMarkdown struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// DingDingResponse - DingDing 응답. errcode 가 0 이 아니면 전송 실패
type DingDingResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func NewMarkdownMessage(title, text string) DingDingMessage {
	return DingDingMessage{
		MsgType:  DingDingMsgTypeMarkdown,
		Markdown: &DingDingMarkdown{Title: title, Text: text},
	}
}
