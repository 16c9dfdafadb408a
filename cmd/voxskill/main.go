package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iabetor/voxskill/internal/config"
	"github.com/iabetor/voxskill/internal/delivery"
	"github.com/iabetor/voxskill/internal/history"
	"github.com/iabetor/voxskill/internal/logger"
	"github.com/iabetor/voxskill/internal/server"
	"github.com/iabetor/voxskill/internal/skill"
	"github.com/iabetor/voxskill/internal/storage"
	"github.com/iabetor/voxskill/internal/tts"
)

func main() {
	configPath := flag.String("config", "configs/voxskill.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log.Printf("[main] VoxSkill 启动中 (engine=%s, voice=%s)", cfg.TTS.Engine, cfg.TTS.Voice)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，优雅关闭
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("[main] 收到信号 %v，正在关闭...", sig)
		cancel()
	}()

	engine, err := tts.New(cfg.TTS)
	if err != nil {
		fmt.Fprintf(os.Stderr, "创建合成引擎失败: %v\n", err)
		os.Exit(1)
	}

	// 远程投递分支：bucket 和 region 缺一不可
	var uploader storage.Uploader
	if cfg.Storage.Enabled() {
		initCtx, initCancel := context.WithTimeout(ctx, 10*time.Second)
		s3up, err := storage.NewS3Uploader(initCtx, cfg.Storage.Bucket, cfg.Storage.Region)
		initCancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "创建 S3 上传器失败: %v\n", err)
			os.Exit(1)
		}
		uploader = s3up
	} else {
		log.Printf("[main] 未配置对象存储，所有音频走内联投递")
	}

	var recorder delivery.Recorder
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.DBPath, cfg.TTS.Engine)
		if err != nil {
			fmt.Fprintf(os.Stderr, "打开合成历史失败: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		recorder = store
	}

	resolver := delivery.New(engine, uploader, recorder, delivery.Options{
		InlineLimit:     cfg.Delivery.InlineLimit,
		MaxClipDuration: time.Duration(cfg.Delivery.MaxClipSeconds) * time.Second,
		Strict:          cfg.Storage.Strict,
		KeyPrefix:       cfg.Storage.KeyPrefix,
	})

	handler := skill.NewHandler(resolver, cfg.TTS.Voice, skill.Texts{
		Name:     cfg.Skill.Name,
		Motivate: cfg.Skill.MotivateText,
		Help:     cfg.Skill.HelpText,
		Goodbye:  cfg.Skill.GoodbyeText,
		Fallback: cfg.Skill.FallbackText,
		Reprompt: cfg.Skill.RepromptText,
		Apology:  cfg.Skill.ApologyText,
	})

	srv := server.New(cfg.Server, handler)
	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "服务运行出错: %v\n", err)
		os.Exit(1)
	}

	log.Println("[main] VoxSkill 已停止")
}
