package tts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/internal/logger"
)

// SherpaConfig 配置 sherpa-onnx 离线合成后端。
type SherpaConfig struct {
	// ModelDir VITS 模型目录，需包含 model.onnx 与 tokens.txt，
	// 可选 lexicon.txt 与 dict/ 子目录（日语模型需要）
	ModelDir string
	// NumThreads 推理线程数，零值为 2
	NumThreads int
	// SpeakerID 多说话人模型的说话人编号
	SpeakerID int
}

// SherpaEngine 使用 sherpa-onnx 的 VITS 模型做本地神经合成。
// 底层持有 C 侧资源，用完必须 Close。
type SherpaEngine struct {
	tts       *sherpa.OfflineTts
	speakerID int
}

// NewSherpaEngine 加载模型并创建后端。
func NewSherpaEngine(cfg SherpaConfig) (*SherpaEngine, error) {
	if cfg.ModelDir == "" {
		return nil, fmt.Errorf("[tts] sherpa: 未配置模型目录")
	}
	threads := cfg.NumThreads
	if threads <= 0 {
		threads = 2
	}

	ttsConfig := &sherpa.OfflineTtsConfig{}
	ttsConfig.Model.Vits.Model = filepath.Join(cfg.ModelDir, "model.onnx")
	ttsConfig.Model.Vits.Tokens = filepath.Join(cfg.ModelDir, "tokens.txt")
	// lexicon 与 dict 目录按模型可选
	if p := filepath.Join(cfg.ModelDir, "lexicon.txt"); fileExists(p) {
		ttsConfig.Model.Vits.Lexicon = p
	}
	if p := filepath.Join(cfg.ModelDir, "dict"); fileExists(p) {
		ttsConfig.Model.Vits.DictDir = p
	}
	ttsConfig.Model.NumThreads = threads
	ttsConfig.Model.Provider = "cpu"
	ttsConfig.MaxNumSentences = 1

	tts := sherpa.NewOfflineTts(ttsConfig)
	if tts == nil {
		return nil, fmt.Errorf("[tts] sherpa: 创建合成器失败，请检查模型目录 %s", cfg.ModelDir)
	}

	logger.Infof("[tts] sherpa: 模型已加载: %s (threads=%d)", cfg.ModelDir, threads)
	return &SherpaEngine{tts: tts, speakerID: cfg.SpeakerID}, nil
}

// Name 返回后端名。
func (e *SherpaEngine) Name() string { return "sherpa" }

// Synthesize 执行本地推理。HalfTone 与 marine 修正对该后端不生效。
func (e *SherpaEngine) Synthesize(ctx context.Context, text string, p Params) ([]float32, int, error) {
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	default:
	}
	if p.HalfTone != 0 {
		logger.Debugf("[tts] sherpa: 不支持半音偏移，忽略 halftone=%g", p.HalfTone)
	}

	speed := float32(p.Speed)
	if speed == 0 {
		speed = 1.0
	}

	logger.Debugf("[tts] sherpa: 正在合成 %d 个字符，speaker=%d speed=%g",
		len([]rune(text)), e.speakerID, speed)

	audio := e.tts.Generate(text, e.speakerID, speed)
	if audio == nil || len(audio.Samples) == 0 {
		return nil, 0, fmt.Errorf("[tts] sherpa: 未生成音频数据")
	}

	logger.Debugf("[tts] sherpa: 生成 %d 个样本 @%d Hz", len(audio.Samples), audio.SampleRate)
	return audio.Samples, audio.SampleRate, nil
}

// Close 释放 C 侧资源。
func (e *SherpaEngine) Close() {
	if e.tts != nil {
		sherpa.DeleteOfflineTts(e.tts)
		e.tts = nil
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
