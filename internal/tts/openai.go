package tts

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/sashabaranov/go-openai"
)

// OpenAIEngine 使用 OpenAI speech 接口实现语音合成，返回 MP3 音频。
type OpenAIEngine struct {
	client       *openai.Client
	model        string
	speed        float64
	defaultVoice string
}

// OpenAIConfig OpenAI TTS 配置。
type OpenAIConfig struct {
	APIKey string
	Model  string // "tts-1" 或 "tts-1-hd"
	Speed  float64
	Voice  string
}

// NewOpenAIEngine 创建 OpenAI TTS 引擎。
func NewOpenAIEngine(cfg OpenAIConfig) (*OpenAIEngine, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("[tts] OpenAI TTS 需要 APIKey")
	}
	if cfg.Model == "" {
		cfg.Model = "tts-1"
	}
	if cfg.Speed == 0 {
		cfg.Speed = 1.0
	}
	if cfg.Voice == "" {
		cfg.Voice = "nova"
	}

	return &OpenAIEngine{
		client:       openai.NewClient(cfg.APIKey),
		model:        cfg.Model,
		speed:        cfg.Speed,
		defaultVoice: cfg.Voice,
	}, nil
}

// Synthesize 将文本合成为 MP3 音频。
func (e *OpenAIEngine) Synthesize(ctx context.Context, text, voice string) (*Audio, error) {
	if text == "" {
		return nil, fmt.Errorf("[tts] OpenAI TTS: 文本不能为空")
	}
	if voice == "" {
		voice = e.defaultVoice
	}

	log.Printf("[tts] OpenAI TTS: 正在合成 %d 个字符，语音=%s", len([]rune(text)), voice)

	response, err := e.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(e.model),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		Speed:          e.speed,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("[tts] OpenAI TTS 合成失败: %w", err)
	}
	defer response.Close()

	data, err := io.ReadAll(response)
	if err != nil {
		return nil, fmt.Errorf("[tts] 读取音频数据失败: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("[tts] OpenAI TTS: 未返回音频数据")
	}

	log.Printf("[tts] OpenAI TTS: 收到 %d 字节 MP3 数据", len(data))

	return &Audio{Data: data, MimeType: "audio/mpeg"}, nil
}
