package tts

import (
	"context"
	"fmt"

	"github.com/iabetor/voxskill/internal/config"
)

// Audio 是一次合成得到的完整音频载荷。
// Data 是容器编码后的字节（通常为 MP3），MimeType 标识其格式。
type Audio struct {
	Data     []byte
	MimeType string
}

// Engine 定义语音合成后端接口。
// 任何满足该接口的引擎都可以互换使用。
type Engine interface {
	// Synthesize 将文本合成为编码音频。
	// voice 为空时引擎使用各自的默认音色。
	Synthesize(ctx context.Context, text, voice string) (*Audio, error)
}

// New 根据配置创建合成引擎。
func New(cfg config.TTSConfig) (Engine, error) {
	switch cfg.Engine {
	case "edge", "":
		return NewEdgeEngine(cfg.Voice), nil
	case "tencent":
		return NewTencentEngine(TencentConfig{
			SecretID:  cfg.Tencent.SecretID,
			SecretKey: cfg.Tencent.SecretKey,
			Region:    cfg.Tencent.Region,
			Speed:     cfg.Tencent.Speed,
		})
	case "openai":
		return NewOpenAIEngine(OpenAIConfig{
			APIKey: cfg.OpenAI.APIKey,
			Model:  cfg.OpenAI.Model,
			Speed:  cfg.OpenAI.Speed,
			Voice:  cfg.Voice,
		})
	default:
		return nil, fmt.Errorf("[tts] 未知的合成引擎: %s", cfg.Engine)
	}
}
