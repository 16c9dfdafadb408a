package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iabetor/voxskill/internal/logger"
	"github.com/iabetor/voxskill/internal/storage"
	"github.com/iabetor/voxskill/internal/tts"
)

// Kind 标识投递引用的类别。
type Kind string

const (
	// KindInlineDataURI 音频以 base64 data URI 内联在引用里。
	KindInlineDataURI Kind = "inline_data_uri"
	// KindRemoteURL 音频已上传到对象存储，引用是公开 URL。
	KindRemoteURL Kind = "remote_url"
)

// Request 是一次合成请求。
type Request struct {
	Text  string
	Voice string
}

// Reference 是解析产出的投递引用，可直接嵌入 SSML audio 标签。
// 创建后不再修改。
type Reference struct {
	Kind  Kind
	Value string
}

// Record 是一次成功投递的观测记录。
type Record struct {
	Text       string
	Voice      string
	MimeType   string
	AudioBytes int
	Kind       Kind
	ValueLen   int
	Duration   time.Duration
}

// Recorder 接收投递记录，仅用于观测，失败不影响请求。
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// Options 投递策略配置。
type Options struct {
	// InlineLimit 内联 data URI 的最大字符数（整个 URI 字符串）。
	InlineLimit int
	// MaxClipDuration 单段音频的最大时长，0 表示不检查。
	MaxClipDuration time.Duration
	// Strict 为 true 时上传失败直接返回 DeliveryError，
	// 否则回退到内联投递。
	Strict bool
	// KeyPrefix 上传对象键的前缀目录。
	KeyPrefix string
	// DurationProbe 从音频字节探测时长，为 nil 时用 tts.ClipDuration。
	DurationProbe func([]byte) (time.Duration, error)
}

// Resolver 负责把响应文本变成可播放的投递引用：
// 调用合成引擎拿到音频字节，再按配置选择上传或内联。
// 每次 Resolve 相互独立，无共享可变状态。
type Resolver struct {
	engine   tts.Engine
	uploader storage.Uploader // nil 表示远程投递分支未配置
	recorder Recorder         // 可选
	opts     Options
}

// New 创建投递解析器。
// uploader 为 nil 时所有音频走内联 data URI。
func New(engine tts.Engine, uploader storage.Uploader, recorder Recorder, opts Options) *Resolver {
	if opts.InlineLimit <= 0 {
		opts.InlineLimit = 100000
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "tts"
	}
	if opts.DurationProbe == nil {
		opts.DurationProbe = tts.ClipDuration
	}
	return &Resolver{
		engine:   engine,
		uploader: uploader,
		recorder: recorder,
		opts:     opts,
	}
}

// Resolve 合成音频并返回投递引用。
// 失败返回 *SynthesisError 或 *DeliveryError。
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Reference, error) {
	if req.Text == "" {
		return nil, &SynthesisError{Err: fmt.Errorf("文本不能为空")}
	}

	audio, err := r.engine.Synthesize(ctx, req.Text, req.Voice)
	if err != nil {
		return nil, &SynthesisError{Err: err}
	}
	if audio == nil || len(audio.Data) == 0 {
		return nil, &SynthesisError{Err: fmt.Errorf("引擎未返回音频数据")}
	}

	// 平台拒绝超长音频段，能解码时提前拦下。
	// 非 MP3 载荷解码失败只告警，不影响投递。
	var clipDur time.Duration
	if r.opts.MaxClipDuration > 0 && audio.MimeType == "audio/mpeg" {
		d, derr := r.opts.DurationProbe(audio.Data)
		if derr != nil {
			logger.Warnf("[delivery] 无法探测音频时长: %v", derr)
		} else {
			clipDur = d
			if d > r.opts.MaxClipDuration {
				return nil, &DeliveryError{
					Reason: ReasonClipTooLong,
					Err:    fmt.Errorf("音频时长 %s 超过上限 %s", d, r.opts.MaxClipDuration),
				}
			}
		}
	}

	ref, err := r.deliver(ctx, audio)
	if err != nil {
		return nil, err
	}

	if r.recorder != nil {
		rec := Record{
			Text:       req.Text,
			Voice:      req.Voice,
			MimeType:   audio.MimeType,
			AudioBytes: len(audio.Data),
			Kind:       ref.Kind,
			ValueLen:   len(ref.Value),
			Duration:   clipDur,
		}
		if rerr := r.recorder.Record(ctx, rec); rerr != nil {
			logger.Warnf("[delivery] 写入合成记录失败: %v", rerr)
		}
	}

	return ref, nil
}

// deliver 执行投递分支选择：配置了对象存储先尝试上传，
// 否则（或上传失败且非严格模式时）内联编码。
func (r *Resolver) deliver(ctx context.Context, audio *tts.Audio) (*Reference, error) {
	if r.uploader != nil {
		url, err := r.uploader.Upload(ctx, r.objectKey(audio.MimeType), audio.Data, audio.MimeType)
		if err == nil {
			return &Reference{Kind: KindRemoteURL, Value: url}, nil
		}
		if r.opts.Strict {
			return nil, &DeliveryError{Reason: ReasonUploadFailed, Err: err}
		}
		logger.Warnf("[delivery] 上传失败，回退到内联投递: %v", err)
	}

	uri := EncodeDataURI(audio.MimeType, audio.Data)
	if len(uri) > r.opts.InlineLimit {
		return nil, &DeliveryError{
			Reason: ReasonPayloadTooLarge,
			Err:    fmt.Errorf("内联引用 %d 字符超过上限 %d", len(uri), r.opts.InlineLimit),
		}
	}

	return &Reference{Kind: KindInlineDataURI, Value: uri}, nil
}

// objectKey 生成防碰撞的对象键。
// uuid 保证并发请求（包括相同文本）不会互相覆盖。
func (r *Resolver) objectKey(mimeType string) string {
	ext := ".bin"
	if mimeType == "audio/mpeg" {
		ext = ".mp3"
	}
	return fmt.Sprintf("%s/%d_%s%s", r.opts.KeyPrefix, time.Now().Unix(), uuid.NewString(), ext)
}
