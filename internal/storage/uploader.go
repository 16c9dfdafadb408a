package storage

import "context"

// Uploader 定义音频对象上传接口。
// 实现负责把字节写入可公开读取的位置并返回访问 URL。
type Uploader interface {
	// Upload 上传对象并返回公开访问 URL。
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
