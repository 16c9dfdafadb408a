package delivery

import "fmt"

// Reason 标识投递失败的具体原因。
type Reason string

const (
	// ReasonUploadFailed 对象存储写入失败（且配置为严格模式）。
	ReasonUploadFailed Reason = "upload_failed"
	// ReasonPayloadTooLarge 内联编码超过平台上限且无远程存储可用。
	ReasonPayloadTooLarge Reason = "payload_too_large"
	// ReasonClipTooLong 音频时长超过平台允许的单段上限。
	ReasonClipTooLong Reason = "clip_too_long"
)

// SynthesisError 表示外部合成引擎失败或未返回可用音频。
// 不在本地重试，由调用方决定兜底话术。
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("合成失败: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// DeliveryError 表示合成成功但音频无法投递。
type DeliveryError struct {
	Reason Reason
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("投递失败 (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("投递失败 (%s)", e.Reason)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
