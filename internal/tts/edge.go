package tts

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/pp-group/edge-tts-go/biz/service/tts/edge"
)

// EdgeEngine 使用微软 Edge TTS 实现语音合成，
// 通过 edge-tts-go 获取 MP3 音频，原样返回容器字节。
type EdgeEngine struct {
	defaultVoice string
}

// NewEdgeEngine 创建 Edge TTS 引擎。
// defaultVoice 在请求未指定音色时使用。
func NewEdgeEngine(defaultVoice string) *EdgeEngine {
	return &EdgeEngine{defaultVoice: defaultVoice}
}

// Synthesize 将文本合成为 MP3 音频。
func (e *EdgeEngine) Synthesize(ctx context.Context, text, voice string) (*Audio, error) {
	if text == "" {
		return nil, fmt.Errorf("[tts] edge-tts: 文本不能为空")
	}
	if voice == "" {
		voice = e.defaultVoice
	}

	log.Printf("[tts] edge-tts: 正在合成 %d 个字符，语音=%s", len([]rune(text)), voice)

	// 创建 Communicate 实例并通过 Stream() 获取 MP3 音频块
	comm, err := edge.NewCommunicate(text, edge.WithVoice(voice))
	if err != nil {
		return nil, fmt.Errorf("[tts] edge-tts 创建实例失败: %w", err)
	}

	ch, err := comm.Stream()
	if err != nil {
		return nil, fmt.Errorf("[tts] edge-tts 开始流式合成失败: %w", err)
	}

	// 从 channel 收集所有音频数据
	var buf bytes.Buffer
	for msg := range ch {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		// Stream() 返回的 map 中，type=="audio" 的条目包含音频数据
		if msgType, ok := msg["type"].(string); ok && msgType == "audio" {
			if data, ok := msg["data"].([]byte); ok {
				buf.Write(data)
			}
		}
	}

	if buf.Len() == 0 {
		return nil, fmt.Errorf("[tts] edge-tts: 未收到音频数据")
	}

	log.Printf("[tts] edge-tts: 收到 %d 字节 MP3 数据", buf.Len())

	return &Audio{Data: buf.Bytes(), MimeType: "audio/mpeg"}, nil
}
