// say 是一次性的合成调试工具：
// 合成一段文本，把音频写到文件，或打印投递引用。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/iabetor/voxskill/internal/config"
	"github.com/iabetor/voxskill/internal/delivery"
	"github.com/iabetor/voxskill/internal/storage"
	"github.com/iabetor/voxskill/internal/tts"
)

func main() {
	configPath := flag.String("config", "configs/voxskill.yaml", "配置文件路径")
	text := flag.String("text", "", "要合成的文本")
	voice := flag.String("voice", "", "音色（为空时用配置默认值）")
	out := flag.String("out", "", "输出音频文件路径；为空则打印投递引用")
	timeout := flag.Duration("timeout", 30*time.Second, "合成超时")
	flag.Parse()

	if *text == "" {
		fmt.Fprintln(os.Stderr, "用法: say -text \"要合成的文本\" [-voice 音色] [-out speech.mp3]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	engine, err := tts.New(cfg.TTS)
	if err != nil {
		fmt.Fprintf(os.Stderr, "创建合成引擎失败: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	v := *voice
	if v == "" {
		v = cfg.TTS.Voice
	}

	// 写文件模式直接调引擎，跳过投递决策
	if *out != "" {
		audio, err := engine.Synthesize(ctx, *text, v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "合成失败: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, audio.Data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "写入文件失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("已写入 %s (%d 字节, %s)\n", *out, len(audio.Data), audio.MimeType)
		return
	}

	var uploader storage.Uploader
	if cfg.Storage.Enabled() {
		s3up, err := storage.NewS3Uploader(ctx, cfg.Storage.Bucket, cfg.Storage.Region)
		if err != nil {
			fmt.Fprintf(os.Stderr, "创建 S3 上传器失败: %v\n", err)
			os.Exit(1)
		}
		uploader = s3up
	}

	resolver := delivery.New(engine, uploader, nil, delivery.Options{
		InlineLimit:     cfg.Delivery.InlineLimit,
		MaxClipDuration: time.Duration(cfg.Delivery.MaxClipSeconds) * time.Second,
		Strict:          cfg.Storage.Strict,
		KeyPrefix:       cfg.Storage.KeyPrefix,
	})

	ref, err := resolver.Resolve(ctx, delivery.Request{Text: *text, Voice: v})
	if err != nil {
		fmt.Fprintf(os.Stderr, "解析失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("kind: %s\n", ref.Kind)
	if ref.Kind == delivery.KindInlineDataURI && len(ref.Value) > 120 {
		fmt.Printf("value: %s... (%d 字符)\n", ref.Value[:120], len(ref.Value))
	} else {
		fmt.Printf("value: %s\n", ref.Value)
	}
}
