// jtalk 是日语 TTS 命令行工具：把文本合成为 WAV 文件，或直接播放。
//
// 示例：
//
//	jtalk -text こんにちは -o hello.wav
//	jtalk -config configs/jtalk.yaml -i input.txt -play
//	jtalk -text こんにちは -engine edge -play
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	openjtalk "github.com/TrellixVulnTeam/pyopenjtalk-F9A2"
	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/audio"
	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/internal/cache"
	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/internal/config"
	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/internal/logger"
	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/internal/tts"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（可选）")
	text := flag.String("text", "", "要合成的文本")
	input := flag.String("i", "", "从文件读取文本（- 表示 stdin）")
	output := flag.String("o", "", "输出 WAV 文件路径")
	play := flag.Bool("play", false, "通过扬声器播放")
	speed := flag.Float64("speed", 0, "语速倍率（0 使用配置值）")
	halftone := flag.Float64("halftone", 0, "半音偏移（0 使用配置值）")
	engine := flag.String("engine", "", "合成引擎: openjtalk | sherpa | edge（默认取配置）")
	accent := flag.Bool("accent", false, "合成前做 marine 重音修正")
	showVersion := flag.Bool("version", false, "打印版本后退出")
	flag.Parse()

	if *showVersion {
		fmt.Println(openjtalk.Version())
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{Level: cfg.Log.Level, File: cfg.Log.File}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，优雅退出
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("[main] 收到信号 %v，正在退出...", sig)
		cancel()
	}()

	content, err := readText(*text, *input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取文本失败: %v\n", err)
		os.Exit(1)
	}
	if content == "" {
		fmt.Fprintln(os.Stderr, "未提供文本: 使用 -text 或 -i")
		os.Exit(1)
	}
	if *output == "" && !*play {
		fmt.Fprintln(os.Stderr, "未指定输出: 使用 -o 或 -play")
		os.Exit(1)
	}

	eng, cleanup, err := buildEngine(ctx, cfg, *engine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "创建合成引擎失败: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	params := tts.Params{
		Speed:     cfg.Synthesis.Speed,
		HalfTone:  cfg.Synthesis.HalfTone,
		RunMarine: *accent,
	}
	if *speed != 0 {
		params.Speed = *speed
	}
	if *halftone != 0 {
		params.HalfTone = *halftone
	}

	start := time.Now()
	samples, sampleRate, err := eng.Synthesize(ctx, content, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "合成失败: %v\n", err)
		os.Exit(1)
	}
	logger.Infof("[main] 合成完成: %d 个样本 @%d Hz, 耗时 %v", len(samples), sampleRate, time.Since(start))

	if *output != "" {
		if err := audio.EncodeWAVFile(*output, samples, sampleRate); err != nil {
			fmt.Fprintf(os.Stderr, "写入 WAV 失败: %v\n", err)
			os.Exit(1)
		}
		logger.Infof("[main] 已写入: %s", *output)
	}

	if *play {
		player, err := audio.NewPlayer()
		if err != nil {
			fmt.Fprintf(os.Stderr, "初始化播放器失败: %v\n", err)
			os.Exit(1)
		}
		defer player.Close()
		if err := player.Play(ctx, samples, sampleRate); err != nil && err != context.Canceled {
			fmt.Fprintf(os.Stderr, "播放失败: %v\n", err)
			os.Exit(1)
		}
	}
}

// loadConfig 读取配置文件，未指定路径时使用全默认配置。
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// readText 按优先级取文本：-text 标志、-i 文件（- 为 stdin）。
func readText(text, input string) (string, error) {
	if text != "" {
		return text, nil
	}
	if input == "" {
		return "", nil
	}
	if input == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(input)
	return string(data), err
}

// buildEngine 按配置组装合成后端，并在配置了缓存时套上缓存装饰器。
func buildEngine(ctx context.Context, cfg *config.Config, override string) (tts.Engine, func(), error) {
	name := cfg.TTS.Engine
	if override != "" {
		name = override
	}

	var (
		eng     tts.Engine
		voice   string
		cleanup = func() {}
	)

	switch name {
	case "openjtalk":
		pipeline, err := openjtalk.New(ctx, openjtalk.Config{
			DictDir:        cfg.Dict.Dir,
			DictURL:        cfg.Dict.URL,
			FrontendBin:    cfg.Frontend.Bin,
			HTSEngineBin:   cfg.Synthesis.Bin,
			VoicePath:      cfg.Synthesis.Voice,
			MarineEndpoint: cfg.Accent.Endpoint,
			MarineTimeout:  time.Duration(cfg.Accent.TimeoutSec) * time.Second,
		})
		if err != nil {
			return nil, nil, err
		}
		eng = tts.NewOpenJTalkEngine(pipeline)
		voice = cfg.Synthesis.Voice
	case "sherpa":
		se, err := tts.NewSherpaEngine(tts.SherpaConfig{
			ModelDir:   cfg.TTS.Sherpa.ModelDir,
			NumThreads: cfg.TTS.Sherpa.NumThreads,
			SpeakerID:  cfg.TTS.Sherpa.SpeakerID,
		})
		if err != nil {
			return nil, nil, err
		}
		eng = se
		voice = cfg.TTS.Sherpa.ModelDir
		cleanup = se.Close
	case "edge":
		eng = tts.NewEdgeEngine(cfg.TTS.Edge.Voice)
		voice = cfg.TTS.Edge.Voice
	default:
		return nil, nil, fmt.Errorf("未知的合成引擎: %s", name)
	}

	if cfg.Cache.MaxSizeMB > 0 {
		store, err := cache.Open(cfg.Cache.Dir, int(cfg.Cache.MaxSizeMB))
		if err != nil {
			logger.Warnf("[main] 打开缓存失败，继续但不使用缓存: %v", err)
			return eng, cleanup, nil
		}
		inner := cleanup
		cleanup = func() {
			store.Close()
			inner()
		}
		eng = tts.NewCached(eng, store, voice)
	}

	return eng, cleanup, nil
}
