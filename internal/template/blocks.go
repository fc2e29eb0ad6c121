package template

import (
	"strconv"
	"strings"
)

const maxStackFrames = 3

// 출력할 태그 (이 순서대로 렌더링)
var allowedTags = []string{"release", "version", "browser", "os", "device", "transaction", "url"}

// block - 독립적으로 생략 가능한 markdown 섹션
// lines 가 비어 있으면 해당 block 은 출력하지 않는다.
type block struct {
	name  string
	lines func(v *alertView) []string
}

var blocks = []block{
	{name: "heading", lines: headingLines},
	{name: "basic", lines: basicLines},
	{name: "message", lines: messageLines},
	{name: "exception", lines: exceptionLines},
	{name: "user", lines: userLines},
	{name: "request", lines: requestLines},
	{name: "device", lines: deviceLines},
	{name: "tags", lines: tagLines},
	{name: "stacktrace", lines: stackLines},
	{name: "actor", lines: actorLines},
	{name: "link", lines: linkLines},
}

func headingLines(_ *alertView) []string {
	return []string{heading}
}

func basicLines(v *alertView) []string {
	lines := make([]string, 0, 6)
	if v.shape == ShapeAction && v.action != "" {
		lines = append(lines, "**动作**: "+v.action)
	}
	if v.project != "" {
		lines = append(lines, "**项目**: "+v.project)
	}
	return append(lines,
		"**环境**: "+v.environment,
		"**级别**: "+strings.ToUpper(v.level),
		"**时间**: "+v.datetime,
		"**标题**: "+v.title,
	)
}

func messageLines(v *alertView) []string {
	if v.message == "" || v.message == v.title {
		return nil
	}
	return []string{"**消息**: " + v.message}
}

func exceptionLines(v *alertView) []string {
	if v.exception == nil || (v.exception.Type == "" && v.exception.Value == "") {
		return nil
	}
	var lines []string
	if v.exception.Type != "" {
		lines = append(lines, "**异常类型**: "+v.exception.Type.String())
	}
	if v.exception.Value != "" {
		lines = append(lines, "**异常信息**: "+v.exception.Value.String())
	}
	return lines
}

func userLines(v *alertView) []string {
	u := v.user
	if u == nil {
		return nil
	}
	var city, region, country string
	if u.Geo != nil {
		city, region, country = u.Geo.City.String(), u.Geo.Region.String(), u.Geo.CountryCode.String()
	}
	if u.IPAddress == "" && city == "" {
		return nil
	}

	lines := []string{"**用户信息**:"}
	if u.ID != "" {
		lines = append(lines, "- ID: "+u.ID.String())
	}
	if u.Email != "" {
		lines = append(lines, "- 邮箱: "+u.Email.String())
	}
	if u.Username != "" {
		lines = append(lines, "- 用户名: "+u.Username.String())
	}
	if u.IPAddress != "" {
		lines = append(lines, "- IP: "+u.IPAddress.String())
	}
	if city != "" {
		lines = append(lines, "- 位置: "+joinNonEmpty(", ", city, region, country))
	}
	return lines
}

func requestLines(v *alertView) []string {
	req := v.request
	if req == nil {
		return nil
	}
	userAgent := req.Headers.Lookup("User-Agent")
	if req.URL == "" && userAgent == "" {
		return nil
	}

	lines := []string{"**请求信息**:"}
	if req.URL != "" {
		if req.Method != "" {
			lines = append(lines, "- 方法: "+req.Method.String())
		}
		lines = append(lines, "- URL: "+req.URL.String())
	}
	if userAgent != "" {
		lines = append(lines, "- User-Agent: "+userAgent)
	}
	return lines
}

func deviceLines(v *alertView) []string {
	if v.shape != ShapeAction || v.contexts == nil {
		return nil
	}
	c := v.contexts

	var lines []string
	if c.Browser != nil && c.Browser.Name != "" {
		lines = append(lines, "- 浏览器: "+joinNonEmpty(" ", c.Browser.Name.String(), c.Browser.Version.String()))
	}
	if c.OS != nil && c.OS.Name != "" {
		lines = append(lines, "- 系统: "+joinNonEmpty(" ", c.OS.Name.String(), c.OS.Version.String()))
	}
	if c.Device != nil && c.Device.Family != "" {
		lines = append(lines, "- 设备: "+joinNonEmpty(" ", c.Device.Family.String(), c.Device.Model.String()))
	}
	if len(lines) == 0 {
		return nil
	}
	return append([]string{"**设备信息**:"}, lines...)
}

func tagLines(v *alertView) []string {
	var lines []string
	for _, key := range allowedTags {
		if value := v.tags[key]; value != "" {
			lines = append(lines, "- "+key+": "+value)
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return append([]string{"**标签**:"}, lines...)
}

func stackLines(v *alertView) []string {
	if v.exception == nil || v.exception.Stacktrace == nil {
		return nil
	}
	frames := v.exception.Stacktrace.Frames
	if len(frames) == 0 {
		return nil
	}
	if len(frames) > maxStackFrames {
		frames = frames[len(frames)-maxStackFrames:]
	}

	lines := make([]string, 0, len(frames)+1)
	lines = append(lines, "**堆栈信息**:")
	for _, f := range frames {
		lineno := "?"
		if f.Lineno > 0 {
			lineno = strconv.Itoa(int(f.Lineno))
		}
		line := "- `" + firstNonEmpty(f.Filename.String(), f.AbsPath.String(), f.Module.String(), "?") + ":" + lineno +
			" in " + firstNonEmpty(f.Function.String(), "?") + "`"
		if v.shape == ShapeAction {
			if f.InApp {
				line += " [in-app]"
			} else {
				line += " [external]"
			}
		}
		lines = append(lines, line)
	}
	return lines
}

func actorLines(v *alertView) []string {
	if v.shape != ShapeAction || v.actor == nil || v.actor.Type == "" || v.actor.Name == "" {
		return nil
	}
	return []string{"**触发者**: " + v.actor.Name.String() + " (" + v.actor.Type.String() + ")"}
}

func linkLines(v *alertView) []string {
	if v.webURL != "" {
		return []string{"[查看详情](" + v.webURL + ")"}
	}
	if v.shape == ShapeAction && v.issueID != "" {
		return []string{"**问题 ID**: " + v.issueID}
	}
	return nil
}

func joinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}
