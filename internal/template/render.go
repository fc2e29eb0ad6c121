// Package template renders Sentry webhook payloads into DingDing markdown.
//
// 렌더링 흐름:
//  1. DetectShape 로 event / action 형태 판별
//  2. 형태에 맞게 필드를 추출해 alertView 로 정규화 (기본값 적용)
//  3. 순서가 고정된 block 목록을 돌며 해당 필드가 있는 block 만 출력
//
// 어떤 필드가 없어도 실패하지 않는다. 없는 필드의 block 은 통째로 생략된다.
package template

import (
	"strings"
	"time"

	"github.com/kube-rca/sentry-dingding/internal/model"
)

const (
	heading      = "## 🚨 Sentry 告警"
	fallbackText = heading + "\n\n**错误**: 无法解析错误数据"

	defaultLevel       = "info"
	defaultEnvironment = "production"
	unknownTitle       = "未知错误"

	datetimeLayout = "2006-01-02 15:04:05"
)

// 중국 표준시 (DST 없음)
var chinaStandardTime = time.FixedZone("CST", 8*60*60)

// Shape - 수신 페이로드 형태
type Shape int

const (
	ShapeAction Shape = iota
	ShapeEvent
)

func (s Shape) String() string {
	if s == ShapeEvent {
		return "event"
	}
	return "action"
}

// DetectShape - data.error 가 있으면 action, action/data 없이 이벤트 필드만 있으면 event.
// 둘 다 아니면 action 으로 보고 fallback 문구를 렌더링하게 된다.
func DetectShape(w model.SentryWebhook) Shape {
	if w.Data != nil && w.Data.Error != nil {
		return ShapeAction
	}
	if w.Action == "" && w.Data == nil && w.HasEventFields() {
		return ShapeEvent
	}
	return ShapeAction
}

// Renderer - 시각 표시 기준(Location)과 현재 시각(Now)을 주입할 수 있는 렌더러
type Renderer struct {
	Location *time.Location
	Now      func() time.Time
}

func NewRenderer() *Renderer {
	return &Renderer{
		Location: chinaStandardTime,
		Now:      time.Now,
	}
}

var defaultRenderer = NewRenderer()

// Render - 기본 렌더러로 markdown 본문 생성
func Render(w model.SentryWebhook) string {
	return defaultRenderer.Render(w)
}

func (r *Renderer) Render(w model.SentryWebhook) string {
	shape := DetectShape(w)

	event := &w.SentryEvent
	if shape == ShapeAction {
		if w.Data == nil || w.Data.Error == nil {
			return fallbackText
		}
		event = w.Data.Error
	}

	v := r.newView(shape, w, event)
	return renderBlocks(&v)
}

// alertView - 두 형태에서 추출한 값을 기본값까지 적용해 정규화한 중간 표현
type alertView struct {
	shape Shape

	action      string
	project     string
	environment string
	level       string
	datetime    string
	title       string
	message     string

	exception *model.SentryExceptionValue
	user      *model.SentryUser
	request   *model.SentryRequest
	contexts  *model.SentryContexts
	tags      model.KeyValues
	actor     *model.SentryActor

	webURL  string
	issueID string
}

func (r *Renderer) newView(shape Shape, w model.SentryWebhook, e *model.SentryEvent) alertView {
	v := alertView{
		shape:       shape,
		project:     firstNonEmpty(e.Project.String(), e.ProjectName.String()),
		environment: firstNonEmpty(e.Environment.String(), defaultEnvironment),
		level:       firstNonEmpty(e.Level.String(), defaultLevel),
		datetime:    r.formatDatetime(e.Datetime.String()),
		title:       firstNonEmpty(e.Title.String(), e.Message.String(), unknownTitle),
		message:     e.Message.String(),
		user:        e.User,
		request:     e.Request,
		contexts:    e.Contexts,
		tags:        e.Tags,
		issueID:     e.IssueID.String(),
	}

	if e.Exception != nil && len(e.Exception.Values) > 0 {
		v.exception = &e.Exception.Values[0]
	}

	if shape == ShapeAction {
		v.action = w.Action.String()
		v.actor = w.Actor
		v.webURL = e.WebURL.String()
	} else {
		v.webURL = firstNonEmpty(e.WebURL.String(), e.URL.String())
	}
	return v
}

func (r *Renderer) formatDatetime(raw string) string {
	loc := r.Location
	if loc == nil {
		loc = chinaStandardTime
	}
	if raw == "" {
		now := time.Now
		if r.Now != nil {
			now = r.Now
		}
		return now().In(loc).Format(datetimeLayout)
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.In(loc).Format(datetimeLayout)
		}
	}
	return raw
}

func renderBlocks(v *alertView) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		lines := b.lines(v)
		if len(lines) == 0 {
			continue
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
