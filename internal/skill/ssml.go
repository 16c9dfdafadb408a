package skill

import "strings"

// escaper 转义 SSML 里的 XML 特殊字符。
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Speak 把 SSML 片段包进 <speak> 根元素。
func Speak(inner string) string {
	return "<speak>" + inner + "</speak>"
}

// AudioTag 生成指向音频资源的 <audio> 标签。
// src 可以是 HTTPS URL 或 data URI。
func AudioTag(src string) string {
	return `<audio src="` + escaper.Replace(src) + `"/>`
}

// EscapeText 转义将直接念出的文本。
func EscapeText(text string) string {
	return escaper.Replace(text)
}
