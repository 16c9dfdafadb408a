package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/iabetor/voxskill/internal/logger"
)

// S3Uploader 把音频对象上传到 S3 桶。
// 桶需要预先允许公开读取，这里只负责写入和拼 URL。
type S3Uploader struct {
	client *s3.Client
	bucket string
	region string
}

// NewS3Uploader 创建 S3 上传器。
// 凭证走 SDK 默认链（环境变量、实例角色等）。
func NewS3Uploader(ctx context.Context, bucket, region string) (*S3Uploader, error) {
	if bucket == "" || region == "" {
		return nil, fmt.Errorf("[storage] S3 上传器需要 bucket 和 region")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("[storage] 加载 AWS 配置失败: %w", err)
	}

	logger.Infof("[storage] S3 上传器已初始化 (bucket=%s, region=%s)", bucket, region)

	return &S3Uploader{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		region: region,
	}, nil
}

// Upload 上传对象（public-read ACL）并返回公开访问 URL。
func (u *S3Uploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	logger.Infof("[storage] 正在上传 %d 字节到 s3://%s/%s", len(data), u.bucket, key)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("[storage] S3 上传失败 (%s): %w", apiErr.ErrorCode(), err)
		}
		return "", fmt.Errorf("[storage] S3 上传失败: %w", err)
	}

	url := PublicURL(u.bucket, u.region, key)
	logger.Infof("[storage] 上传成功: %s", url)
	return url, nil
}

// PublicURL 按 S3 virtual-hosted 风格拼出对象的公开访问 URL。
func PublicURL(bucket, region, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}
