package skill

import (
	"context"

	"github.com/iabetor/voxskill/internal/delivery"
	"github.com/iabetor/voxskill/internal/logger"
)

// Texts 技能各场景的应答文案。
type Texts struct {
	Name     string // 卡片标题
	Motivate string
	Help     string
	Goodbye  string
	Fallback string
	Reprompt string
	Apology  string
}

// Handler 处理技能请求：按意图选择文案，经解析器合成自定义音色，
// 再装进响应信封。
type Handler struct {
	resolver *delivery.Resolver
	voice    string
	texts    Texts
}

// NewHandler 创建技能处理器。
func NewHandler(resolver *delivery.Resolver, voice string, texts Texts) *Handler {
	return &Handler{resolver: resolver, voice: voice, texts: texts}
}

// HandleRequest 处理一个请求信封并返回响应信封。
// 永不返回 nil：任何失败都降级为平台默认音色的道歉语。
func (h *Handler) HandleRequest(ctx context.Context, env *RequestEnvelope) (resp *ResponseEnvelope) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[skill] 处理请求时 panic: %v", r)
			resp = h.apologize()
		}
	}()

	switch env.Request.Type {
	case "LaunchRequest":
		return h.respond(ctx, h.texts.Motivate, true, "")
	case "IntentRequest":
		return h.handleIntent(ctx, env)
	case "SessionEndedRequest":
		// 会话结束通知不需要语音响应
		return &ResponseEnvelope{Version: "1.0"}
	default:
		logger.Warnf("[skill] 未知请求类型: %s", env.Request.Type)
		return h.respond(ctx, h.texts.Fallback, false, h.texts.Reprompt)
	}
}

func (h *Handler) handleIntent(ctx context.Context, env *RequestEnvelope) *ResponseEnvelope {
	name := ""
	if env.Request.Intent != nil {
		name = env.Request.Intent.Name
	}

	switch name {
	case "MotivateIntent":
		return h.respond(ctx, h.texts.Motivate, true, "")
	case "AMAZON.HelpIntent":
		return h.respond(ctx, h.texts.Help, false, h.texts.Reprompt)
	case "AMAZON.CancelIntent", "AMAZON.StopIntent":
		return h.respond(ctx, h.texts.Goodbye, true, "")
	case "AMAZON.FallbackIntent":
		return h.respond(ctx, h.texts.Fallback, false, h.texts.Reprompt)
	default:
		logger.Warnf("[skill] 未知意图: %s", name)
		return h.respond(ctx, h.texts.Fallback, false, h.texts.Reprompt)
	}
}

// respond 合成 text 并构造响应。合成或投递失败时降级：
// 先退回平台默认音色念原文，连道歉文案也只能默认音色。
func (h *Handler) respond(ctx context.Context, text string, endSession bool, reprompt string) *ResponseEnvelope {
	ssml := h.speak(ctx, text)

	resp := &ResponseEnvelope{
		Version: "1.0",
		Response: Response{
			OutputSpeech: &OutputSpeech{Type: "SSML", SSML: ssml},
			Card: &Card{
				Type:    "Simple",
				Title:   h.texts.Name,
				Content: text,
			},
			ShouldEndSession: endSession,
		},
	}

	if reprompt != "" {
		resp.Response.Reprompt = &Reprompt{
			OutputSpeech: &OutputSpeech{Type: "SSML", SSML: h.speak(ctx, reprompt)},
		}
	}

	return resp
}

// apologize 构造兜底的道歉响应。此时不再尝试自定义音色。
func (h *Handler) apologize() *ResponseEnvelope {
	ssml := Speak(EscapeText(h.texts.Apology))
	return &ResponseEnvelope{
		Version: "1.0",
		Response: Response{
			OutputSpeech: &OutputSpeech{Type: "SSML", SSML: ssml},
			Reprompt:     &Reprompt{OutputSpeech: &OutputSpeech{Type: "SSML", SSML: ssml}},
		},
	}
}

// speak 返回 text 的 SSML。自定义音色不可用时退回平台默认音色，
// 保证总有语音可播。
func (h *Handler) speak(ctx context.Context, text string) string {
	ref, err := h.resolver.Resolve(ctx, delivery.Request{Text: text, Voice: h.voice})
	if err != nil {
		logger.Errorf("[skill] 自定义音色合成失败，退回默认音色: %v", err)
		return Speak(EscapeText(text))
	}
	return Speak(AudioTag(ref.Value))
}
