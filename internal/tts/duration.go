package tts

import (
	"bytes"
	"fmt"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// ClipDuration 解码 MP3 数据并返回音频时长。
// go-mp3 输出固定为双声道 16-bit PCM，即每帧 4 字节。
func ClipDuration(data []byte) (time.Duration, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("[tts] MP3 解码失败: %w", err)
	}

	sampleRate := decoder.SampleRate()
	if sampleRate <= 0 {
		return 0, fmt.Errorf("[tts] MP3 采样率无效: %d", sampleRate)
	}

	// Length() 对不可 seek 的源返回 -1，必须在除法前判掉
	total := decoder.Length()
	if total < 0 {
		return 0, fmt.Errorf("[tts] MP3 长度未知")
	}

	const bytesPerFrame = 4
	frames := total / bytesPerFrame

	seconds := float64(frames) / float64(sampleRate)
	return time.Duration(seconds * float64(time.Second)), nil
}
