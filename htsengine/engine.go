// Package htsengine 封装 hts_engine 命令行工具，将全上下文标签合成为语音波形。
//
// 调用约定：
//
//	hts_engine -m VOICE.htsvoice [-r SPEED] [-fm HALFTONE] -ow OUT.wav LABELFILE
//
// 标签文件为 HTS 全上下文标签，每行一条。合成结果从 OUT.wav 读回为
// float32 单声道样本。
package htsengine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/audio"
	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/internal/logger"
)

// Params 为单次合成的声学参数。
type Params struct {
	// Speed 语速倍率，零值按 1.0 处理
	Speed float64
	// HalfTone 半音偏移，0 表示不变调
	HalfTone float64
}

// Engine 通过外部 hts_engine 进程执行合成。
type Engine struct {
	bin   string
	voice string
}

// New 创建合成引擎。voice 为 .htsvoice 声学模型路径。
func New(bin, voice string) *Engine {
	if bin == "" {
		bin = "hts_engine"
	}
	return &Engine{bin: bin, voice: voice}
}

// VoicePath 返回当前声学模型路径。
func (e *Engine) VoicePath() string {
	return e.voice
}

// buildArgs 拼接 hts_engine 命令行参数。
func buildArgs(voice string, p Params, outWAV, labelFile string) []string {
	speed := p.Speed
	if speed == 0 {
		speed = 1.0
	}
	args := []string{"-m", voice, "-r", strconv.FormatFloat(speed, 'g', -1, 64)}
	if p.HalfTone != 0 {
		args = append(args, "-fm", strconv.FormatFloat(p.HalfTone, 'g', -1, 64))
	}
	args = append(args, "-ow", outWAV, labelFile)
	return args
}

// Synthesize 将全上下文标签合成为波形，返回样本与采样率。
func (e *Engine) Synthesize(ctx context.Context, labels []string, p Params) ([]float32, int, error) {
	if len(labels) == 0 {
		return nil, 0, fmt.Errorf("标签序列为空")
	}
	if e.voice == "" {
		return nil, 0, fmt.Errorf("未配置声学模型 (.htsvoice)")
	}

	workDir := os.TempDir()
	id := uuid.New().String()
	labelFile := filepath.Join(workDir, "jtalk-"+id+".lab")
	outWAV := filepath.Join(workDir, "jtalk-"+id+".wav")
	defer os.Remove(labelFile)
	defer os.Remove(outWAV)

	content := strings.Join(labels, "\n") + "\n"
	if err := os.WriteFile(labelFile, []byte(content), 0o644); err != nil {
		return nil, 0, fmt.Errorf("写入标签文件失败: %w", err)
	}

	args := buildArgs(e.voice, p, outWAV, labelFile)
	logger.Debugf("[htsengine] 执行: %s %s", e.bin, strings.Join(args, " "))

	start := time.Now()
	cmd := exec.CommandContext(ctx, e.bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, 0, fmt.Errorf("hts_engine 执行失败: %w: %s", err, msg)
		}
		return nil, 0, fmt.Errorf("hts_engine 执行失败: %w", err)
	}

	samples, sampleRate, err := audio.DecodeWAVFile(outWAV)
	if err != nil {
		return nil, 0, fmt.Errorf("解析合成结果失败: %w", err)
	}

	logger.Debugf("[htsengine] 合成完成: %d 条标签 -> %d 个样本 @%d Hz, 耗时 %v",
		len(labels), len(samples), sampleRate, time.Since(start))
	return samples, sampleRate, nil
}
