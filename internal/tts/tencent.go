package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strconv"

	tcommon "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tcvtts "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tts/v20190823"
)

// TencentEngine 使用腾讯云 TTS 实现语音合成。
// 适用于中国大陆网络环境，接口直接返回 Base64 编码的 MP3。
type TencentEngine struct {
	client *tcvtts.Client
	speed  float64
}

// TencentConfig 腾讯云 TTS 配置。
type TencentConfig struct {
	SecretID  string
	SecretKey string
	Region    string
	Speed     float64
}

// NewTencentEngine 创建腾讯云 TTS 引擎。
func NewTencentEngine(cfg TencentConfig) (*TencentEngine, error) {
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("[tts] 腾讯云 TTS 需要 SecretID 和 SecretKey")
	}
	if cfg.Region == "" {
		cfg.Region = "ap-guangzhou"
	}
	if cfg.Speed == 0 {
		cfg.Speed = 1.0
	}

	credential := tcommon.NewCredential(cfg.SecretID, cfg.SecretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "tts.tencentcloudapi.com"

	client, err := tcvtts.NewClient(credential, cfg.Region, cpf)
	if err != nil {
		return nil, fmt.Errorf("[tts] 创建腾讯云 TTS 客户端失败: %w", err)
	}

	log.Printf("[tts] 腾讯云 TTS 引擎已初始化 (region=%s)", cfg.Region)

	return &TencentEngine{client: client, speed: cfg.Speed}, nil
}

// Synthesize 将文本合成为 MP3 音频。
// voice 是腾讯云的数字音色编号（如 "1001"），为空时使用 1001。
func (e *TencentEngine) Synthesize(ctx context.Context, text, voice string) (*Audio, error) {
	if text == "" {
		return nil, fmt.Errorf("[tts] 腾讯云 TTS: 文本不能为空")
	}

	voiceType := int64(1001) // 默认音色：智瑜（女声）
	if voice != "" {
		vt, err := strconv.ParseInt(voice, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("[tts] 腾讯云 TTS: 无效的音色编号 %q: %w", voice, err)
		}
		voiceType = vt
	}

	log.Printf("[tts] 腾讯云 TTS: 正在合成 %d 个字符，音色=%d", len([]rune(text)), voiceType)

	request := tcvtts.NewTextToVoiceRequest()
	request.Text = tcommon.StringPtr(text)
	request.VoiceType = tcommon.Int64Ptr(voiceType)
	request.Codec = tcommon.StringPtr("mp3")
	request.Speed = tcommon.Float64Ptr(e.speed)
	request.Volume = tcommon.Float64Ptr(5.0)

	response, err := e.client.TextToVoiceWithContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("[tts] 腾讯云 TTS 合成失败: %w", err)
	}

	if response.Response == nil || response.Response.Audio == nil {
		return nil, fmt.Errorf("[tts] 腾讯云 TTS: 未返回音频数据")
	}

	data, err := base64.StdEncoding.DecodeString(*response.Response.Audio)
	if err != nil {
		return nil, fmt.Errorf("[tts] Base64 解码失败: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("[tts] 腾讯云 TTS: 音频数据为空")
	}

	log.Printf("[tts] 腾讯云 TTS: 收到 %d 字节 MP3 数据", len(data))

	return &Audio{Data: data, MimeType: "audio/mpeg"}, nil
}
