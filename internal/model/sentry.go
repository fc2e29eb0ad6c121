// Sentry 웹훅 페이로드 구조체 정의
// handler, service, template 레이어에서 공통으로 사용하기 때문에 model 레이어에 별도로 정의
//
// Sentry는 두 가지 형태로 웹훅을 보낸다:
//   - event 형태: 이벤트 필드(title, level, exception ...)가 최상위에 평평하게 위치
//   - action 형태: Integration Platform 웹훅. {action, actor, data: {error: {...이벤트 필드}}}
//
// 모든 필드는 선택적이며 누락은 정상 상황이다.
// 타입이 맞지 않는 필드(숫자 자리에 문자열, 객체 자리에 배열 등)도 에러 없이 없는 값으로 처리한다.

package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// SentryWebhook - 두 형태를 모두 담을 수 있는 수신 페이로드
type SentryWebhook struct {
	// event 형태의 최상위 필드
	SentryEvent

	// action 형태에서만 존재 (예: "triggered", "created")
	Action FlexString   `json:"action"`
	Actor  *SentryActor `json:"actor"`
	Data   *SentryData  `json:"data"`
}

// UnmarshalJSON - 임베드된 SentryEvent 의 UnmarshalJSON 이 승격되어
// action/actor/data 를 삼키지 않도록 두 번에 나눠 디코딩한다.
func (w *SentryWebhook) UnmarshalJSON(data []byte) error {
	*w = SentryWebhook{}
	if !isJSONObject(data) {
		return nil
	}
	if err := json.Unmarshal(data, &w.SentryEvent); err != nil {
		return err
	}

	var shape struct {
		Action FlexString   `json:"action"`
		Actor  *SentryActor `json:"actor"`
		Data   *SentryData  `json:"data"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return err
	}
	w.Action, w.Actor, w.Data = shape.Action, shape.Actor, shape.Data

	fields := rawFields(data)
	dropUnlessObject(fields, "actor", &w.Actor)
	dropUnlessObject(fields, "data", &w.Data)
	return nil
}

// SentryData - action 형태의 data 객체
// error 가 객체가 아니면 없는 것으로 본다.
type SentryData struct {
	Error *SentryEvent `json:"error"`
}

func (d *SentryData) UnmarshalJSON(data []byte) error {
	*d = SentryData{}
	var raw struct {
		Error json.RawMessage `json:"error"`
	}
	if err := unmarshalObject(data, &raw); err != nil {
		return err
	}
	if !isJSONObject(raw.Error) {
		return nil
	}
	var e SentryEvent
	if err := json.Unmarshal(raw.Error, &e); err != nil {
		return err
	}
	d.Error = &e
	return nil
}

// SentryActor - 웹훅을 발생시킨 주체 (user, application, sentry)
type SentryActor struct {
	Type FlexString `json:"type"`
	ID   FlexString `json:"id"`
	Name FlexString `json:"name"`
}

func (a *SentryActor) UnmarshalJSON(data []byte) error {
	type plain SentryActor
	var p plain
	if err := unmarshalObject(data, &p); err != nil {
		return err
	}
	*a = SentryActor(p)
	return nil
}

// SentryEvent - Sentry 이벤트(에러) 본문
// 스칼라는 모두 FlexString/FlexInt 로 받아 타입이 달라도 디코딩이 실패하지 않는다.
type SentryEvent struct {
	EventID     FlexString `json:"event_id"`
	IssueID     FlexString `json:"issue_id"`
	Project     FlexString `json:"project"`
	ProjectName FlexString `json:"project_name"`
	Level       FlexString `json:"level"`
	Environment FlexString `json:"environment"`
	Title       FlexString `json:"title"`
	Message     FlexString `json:"message"`
	Culprit     FlexString `json:"culprit"`

	// ISO-8601 문자열. 비어 있으면 렌더링 시점의 현재 시각을 사용
	Datetime FlexString `json:"datetime"`

	User      *SentryUser      `json:"user"`
	Request   *SentryRequest   `json:"request"`
	Exception *SentryException `json:"exception"`
	Contexts  *SentryContexts  `json:"contexts"`

	// {"release": "1.2"} 또는 [["release", "1.2"]] 형태 모두 허용
	Tags KeyValues `json:"tags"`

	WebURL FlexString `json:"web_url"`
	URL    FlexString `json:"url"`
}

func (e *SentryEvent) UnmarshalJSON(data []byte) error {
	type plain SentryEvent
	var p plain
	if err := unmarshalObject(data, &p); err != nil {
		return err
	}
	fields := rawFields(data)
	dropUnlessObject(fields, "user", &p.User)
	dropUnlessObject(fields, "request", &p.Request)
	dropUnlessObject(fields, "exception", &p.Exception)
	dropUnlessObject(fields, "contexts", &p.Contexts)
	*e = SentryEvent(p)
	return nil
}

// HasEventFields - event 형태의 필드가 하나라도 있는지 확인
func (e SentryEvent) HasEventFields() bool {
	scalars := []FlexString{
		e.EventID, e.IssueID, e.Project, e.ProjectName, e.Level, e.Environment,
		e.Title, e.Message, e.Culprit, e.Datetime, e.WebURL, e.URL,
	}
	for _, s := range scalars {
		if s != "" {
			return true
		}
	}
	return e.User != nil ||
		e.Request != nil ||
		e.Exception != nil ||
		e.Contexts != nil ||
		e.Tags != nil
}

type SentryUser struct {
	ID        FlexString `json:"id"`
	Email     FlexString `json:"email"`
	Username  FlexString `json:"username"`
	IPAddress FlexString `json:"ip_address"`
	Geo       *SentryGeo `json:"geo"`
}

func (u *SentryUser) UnmarshalJSON(data []byte) error {
	type plain SentryUser
	var p plain
	if err := unmarshalObject(data, &p); err != nil {
		return err
	}
	dropUnlessObject(rawFields(data), "geo", &p.Geo)
	*u = SentryUser(p)
	return nil
}

type SentryGeo struct {
	City        FlexString `json:"city"`
	Region      FlexString `json:"region"`
	CountryCode FlexString `json:"country_code"`
}

func (g *SentryGeo) UnmarshalJSON(data []byte) error {
	type plain SentryGeo
	var p plain
	if err := unmarshalObject(data, &p); err != nil {
		return err
	}
	*g = SentryGeo(p)
	return nil
}

type SentryRequest struct {
	Method FlexString `json:"method"`
	URL    FlexString `json:"url"`

	// 매핑 또는 [key, value] 쌍의 리스트
	Headers KeyValues `json:"headers"`
}

func (r *SentryRequest) UnmarshalJSON(data []byte) error {
	type plain SentryRequest
	var p plain
	if err := unmarshalObject(data, &p); err != nil {
		return err
	}
	*r = SentryRequest(p)
	return nil
}

type SentryException struct {
	Values ExceptionValues `json:"values"`
}

func (x *SentryException) UnmarshalJSON(data []byte) error {
	type plain SentryException
	var p plain
	if err := unmarshalObject(data, &p); err != nil {
		return err
	}
	*x = SentryException(p)
	return nil
}

// ExceptionValues - 배열이 아니면 빈 목록
type ExceptionValues []SentryExceptionValue

func (v *ExceptionValues) UnmarshalJSON(data []byte) error {
	var items []SentryExceptionValue
	if err := unmarshalArray(data, &items); err != nil {
		return err
	}
	*v = items
	return nil
}

type SentryExceptionValue struct {
	Type       FlexString        `json:"type"`
	Value      FlexString        `json:"value"`
	Stacktrace *SentryStacktrace `json:"stacktrace"`
}

func (v *SentryExceptionValue) UnmarshalJSON(data []byte) error {
	type plain SentryExceptionValue
	var p plain
	if err := unmarshalObject(data, &p); err != nil {
		return err
	}
	dropUnlessObject(rawFields(data), "stacktrace", &p.Stacktrace)
	*v = SentryExceptionValue(p)
	return nil
}

type SentryStacktrace struct {
	Frames StackFrames `json:"frames"`
}

func (s *SentryStacktrace) UnmarshalJSON(data []byte) error {
	type plain SentryStacktrace
	var p plain
	if err := unmarshalObject(data, &p); err != nil {
		return err
	}
	*s = SentryStacktrace(p)
	return nil
}

// StackFrames - 배열이 아니면 빈 목록
type StackFrames []SentryFrame

func (f *StackFrames) UnmarshalJSON(data []byte) error {
	var items []SentryFrame
	if err := unmarshalArray(data, &items); err != nil {
		return err
	}
	*f = items
	return nil
}

type SentryFrame struct {
	Filename FlexString `json:"filename"`
	AbsPath  FlexString `json:"abs_path"`
	Module   FlexString `json:"module"`
	Function FlexString `json:"function"`
	Lineno   FlexInt    `json:"lineno"`
	InApp    FlexBool   `json:"in_app"`
}

func (f *SentryFrame) UnmarshalJSON(data []byte) error {
	type plain SentryFrame
	var p plain
	if err := unmarshalObject(data, &p); err != nil {
		return err
	}
	*f = SentryFrame(p)
	return nil
}

// SentryContexts - 브라우저/OS/디바이스 컨텍스트
type SentryContexts struct {
	Browser *SentryContext `json:"browser"`
	OS      *SentryContext `json:"os"`
	Device  *SentryContext `json:"device"`
}

func (c *SentryContexts) UnmarshalJSON(data []byte) error {
	type plain SentryContexts
	var p plain
	if err := unmarshalObject(data, &p); err != nil {
		return err
	}
	fields := rawFields(data)
	dropUnlessObject(fields, "browser", &p.Browser)
	dropUnlessObject(fields, "os", &p.OS)
	dropUnlessObject(fields, "device", &p.Device)
	*c = SentryContexts(p)
	return nil
}

type SentryContext struct {
	Name    FlexString `json:"name"`
	Version FlexString `json:"version"`
	Family  FlexString `json:"family"`
	Model   FlexString `json:"model"`
}

func (c *SentryContext) UnmarshalJSON(data []byte) error {
	type plain SentryContext
	var p plain
	if err := unmarshalObject(data, &p); err != nil {
		return err
	}
	*c = SentryContext(p)
	return nil
}

// FlexString - 문자열 또는 숫자로 올 수 있는 스칼라 값
// (예: action 형태의 project, issue_id 는 숫자 ID)
// 객체/배열은 빈 문자열로 취급한다.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	v, err := decodeAny(data)
	if err != nil {
		return err
	}
	*s = FlexString(scalarString(v))
	return nil
}

func (s FlexString) String() string {
	return string(s)
}

// FlexInt - 숫자 또는 숫자 문자열 ("12"). 그 외는 0
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	v, err := decodeAny(data)
	if err != nil {
		return err
	}
	*n = 0
	var raw string
	switch t := v.(type) {
	case json.Number:
		raw = t.String()
	case string:
		raw = strings.TrimSpace(t)
	default:
		return nil
	}
	if i, err := strconv.Atoi(raw); err == nil {
		*n = FlexInt(i)
	} else if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*n = FlexInt(f)
	}
	return nil
}

// FlexBool - true/false 또는 "true"/"false", 1/0. 그 외는 false
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	v, err := decodeAny(data)
	if err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = FlexBool(t)
	case string:
		parsed, _ := strconv.ParseBool(strings.TrimSpace(t))
		*b = FlexBool(parsed)
	case json.Number:
		f, _ := t.Float64()
		*b = f != 0
	default:
		*b = false
	}
	return nil
}

// KeyValues - 매핑 {k: v}, 쌍 배열 [[k, v], ...], 객체 배열 [{key, value}, ...] 을
// 모두 같은 매핑으로 정규화한다. key 또는 value 가 falsy 인 항목은 건너뛴다.
type KeyValues map[string]string

func (kv *KeyValues) UnmarshalJSON(data []byte) error {
	raw, err := decodeAny(data)
	if err != nil {
		return err
	}

	// 매핑/배열이 아니면 (null 포함) 없는 것으로 취급
	out := KeyValues{}
	switch v := raw.(type) {
	case map[string]any:
		for key, val := range v {
			out.add(key, val)
		}
	case []any:
		for _, item := range v {
			switch pair := item.(type) {
			case []any:
				if len(pair) >= 2 {
					out.add(pair[0], pair[1])
				}
			case map[string]any:
				out.add(pair["key"], pair["value"])
			}
		}
	default:
		out = nil
	}
	*kv = out
	return nil
}

func (kv KeyValues) add(key, value any) {
	k, ok := truthyString(key)
	if !ok {
		return
	}
	v, ok := truthyString(value)
	if !ok {
		return
	}
	kv[k] = v
}

// Lookup - 대소문자를 구분하지 않고 값을 조회
func (kv KeyValues) Lookup(name string) string {
	if v, ok := kv[name]; ok {
		return v
	}
	for k, v := range kv {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func isJSONObject(data []byte) bool {
	t := bytes.TrimSpace(data)
	return len(t) > 0 && t[0] == '{'
}

func isJSONArray(data []byte) bool {
	t := bytes.TrimSpace(data)
	return len(t) > 0 && t[0] == '['
}

// unmarshalObject - data 가 객체일 때만 디코딩 (그 외 타입은 없는 것으로 취급)
func unmarshalObject(data []byte, v any) error {
	if !isJSONObject(data) {
		return nil
	}
	return json.Unmarshal(data, v)
}

// unmarshalArray - data 가 배열일 때만 디코딩
func unmarshalArray(data []byte, v any) error {
	if !isJSONArray(data) {
		return nil
	}
	return json.Unmarshal(data, v)
}

// rawFields - 객체의 필드별 원본 JSON. 객체가 아니면 nil
func rawFields(data []byte) map[string]json.RawMessage {
	var fields map[string]json.RawMessage
	if err := unmarshalObject(data, &fields); err != nil {
		return nil
	}
	return fields
}

// dropUnlessObject - encoding/json 은 "user": "abc" 같은 값에도 포인터를 할당하므로
// 원본이 객체가 아닌 필드는 nil 로 되돌린다. 키 매칭은 encoding/json 과 같이 대소문자 무시.
func dropUnlessObject[T any](fields map[string]json.RawMessage, name string, ptr **T) {
	if *ptr == nil {
		return
	}
	raw, ok := fields[name]
	if !ok {
		for k, v := range fields {
			if strings.EqualFold(k, name) {
				raw = v
			}
		}
	}
	if !isJSONObject(raw) {
		*ptr = nil
	}
}

func decodeAny(data []byte) (any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// truthyString - falsy 값("", 0, false, null, 객체)을 걸러낸 문자열 표현
func truthyString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return "", false
		}
		return t.String(), true
	case bool:
		return "true", t
	default:
		return "", false
	}
}
