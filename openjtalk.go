// Package openjtalk 是日语 TTS 流水线的门面：
// 词典准备、文本前端（形态素解析 + 全上下文标签）、可选的 marine
// 重音修正、以及 hts_engine 声学合成，串成一条可直接调用的链路。
//
// 典型用法：
//
//	eng, err := openjtalk.New(ctx, openjtalk.Config{VoicePath: "mei_normal.htsvoice"})
//	samples, sr, err := eng.TTS(ctx, "こんにちは", openjtalk.SynthesisParams{})
//
// 懒加载的包级单例见 Default / Init，及对应的包级便捷函数。
package openjtalk

import (
	"context"
	"fmt"
	"time"

	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/dict"
	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/frontend"
	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/htsengine"
	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/marine"
	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/njd"
)

// Analyzer 是文本前端：文本到特征，特征到全上下文标签。
type Analyzer interface {
	RunFrontend(ctx context.Context, text string) ([]njd.Feature, error)
	MakeLabel(ctx context.Context, feats []njd.Feature) ([]string, error)
}

// Synthesizer 将全上下文标签合成为波形。
type Synthesizer interface {
	Synthesize(ctx context.Context, labels []string, params SynthesisParams) ([]float32, int, error)
}

// AccentEstimator 修正特征序列中的重音核与重音句边界。
type AccentEstimator interface {
	Estimate(ctx context.Context, feats []njd.Feature) ([]njd.Feature, error)
}

// SynthesisParams 为单次合成的参数，调用间互不影响。
type SynthesisParams struct {
	// Speed 语速倍率，零值按 1.0 处理
	Speed float64
	// HalfTone 半音偏移
	HalfTone float64
	// RunMarine 在生成标签前先做 marine 重音修正
	RunMarine bool
}

// Config 配置默认协作方的构建。通过 Option 注入实现时对应字段被忽略。
type Config struct {
	// DictDir 词典目录，为空则用 ~/.jtalk 下的默认目录（缺失时自动下载）
	DictDir string
	// DictURL 词典归档下载地址，为空则用官方 release
	DictURL string
	// FrontendBin 文本前端可执行文件，默认 jtalk-frontend
	FrontendBin string
	// HTSEngineBin 合成器可执行文件，默认 hts_engine
	HTSEngineBin string
	// VoicePath 声学模型 (.htsvoice)。为空则不构建默认合成器，
	// 此时仅前端相关操作可用
	VoicePath string
	// MarineEndpoint marine 服务地址，为空则重音修正不可用
	MarineEndpoint string
	// MarineTimeout marine 请求超时，零值为 30s
	MarineTimeout time.Duration
}

// Engine 将各协作方组合为一条 TTS 流水线。
// 构建后不可变，可并发使用。
type Engine struct {
	analyzer    Analyzer
	synthesizer Synthesizer
	estimator   AccentEstimator
}

// Option 在 New 中注入协作方实现。
type Option func(*Engine)

// WithAnalyzer 注入文本前端实现。
func WithAnalyzer(a Analyzer) Option {
	return func(e *Engine) { e.analyzer = a }
}

// WithSynthesizer 注入合成器实现。
func WithSynthesizer(s Synthesizer) Option {
	return func(e *Engine) { e.synthesizer = s }
}

// WithAccentEstimator 注入重音估计实现。
func WithAccentEstimator(m AccentEstimator) Option {
	return func(e *Engine) { e.estimator = m }
}

// htsSynthesizer 将 htsengine.Engine 适配到 Synthesizer 接口。
type htsSynthesizer struct {
	eng *htsengine.Engine
}

func (s *htsSynthesizer) Synthesize(ctx context.Context, labels []string, p SynthesisParams) ([]float32, int, error) {
	return s.eng.Synthesize(ctx, labels, htsengine.Params{Speed: p.Speed, HalfTone: p.HalfTone})
}

// New 创建引擎。未注入 Analyzer 时构建默认前端，此时才会检查并按需
// 下载词典；未注入 Synthesizer 且配置了 VoicePath 时构建默认合成器；
// 未注入 AccentEstimator 且配置了 MarineEndpoint 时构建 marine 客户端。
func New(ctx context.Context, cfg Config, opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}

	if e.analyzer == nil {
		dir, err := dict.Ensure(ctx, dict.Options{Dir: cfg.DictDir, URL: cfg.DictURL})
		if err != nil {
			return nil, err
		}
		bin := cfg.FrontendBin
		if bin == "" {
			bin = "jtalk-frontend"
		}
		e.analyzer = frontend.New(bin, dir)
	}

	if e.synthesizer == nil && cfg.VoicePath != "" {
		e.synthesizer = &htsSynthesizer{eng: htsengine.New(cfg.HTSEngineBin, cfg.VoicePath)}
	}

	if e.estimator == nil && cfg.MarineEndpoint != "" {
		e.estimator = marine.New(cfg.MarineEndpoint, cfg.MarineTimeout)
	}

	return e, nil
}

// RunFrontend 对文本运行前端，返回逐词素的语言特征。
func (e *Engine) RunFrontend(ctx context.Context, text string) ([]njd.Feature, error) {
	return e.analyzer.RunFrontend(ctx, text)
}

// MakeLabel 将特征序列转换为全上下文标签。
func (e *Engine) MakeLabel(ctx context.Context, feats []njd.Feature) ([]string, error) {
	return e.analyzer.MakeLabel(ctx, feats)
}

// EstimateAccent 用重音估计器修正特征。未配置估计器时返回 *DependencyError。
func (e *Engine) EstimateAccent(ctx context.Context, feats []njd.Feature) ([]njd.Feature, error) {
	if e.estimator == nil {
		return nil, errMarineMissing()
	}
	return e.estimator.Estimate(ctx, feats)
}

// ExtractFullContext 从文本生成全上下文标签。
// runMarine 为 true 时先做重音修正再格式化标签。
func (e *Engine) ExtractFullContext(ctx context.Context, text string, runMarine bool) ([]string, error) {
	feats, err := e.analyzer.RunFrontend(ctx, text)
	if err != nil {
		return nil, err
	}
	if runMarine {
		feats, err = e.EstimateAccent(ctx, feats)
		if err != nil {
			return nil, err
		}
	}
	return e.analyzer.MakeLabel(ctx, feats)
}

// Synthesize 将全上下文标签合成为波形，返回样本与采样率。
func (e *Engine) Synthesize(ctx context.Context, labels []string, params SynthesisParams) ([]float32, int, error) {
	if e.synthesizer == nil {
		return nil, 0, fmt.Errorf("未配置合成器: 需要设置 VoicePath 或注入 Synthesizer")
	}
	return e.synthesizer.Synthesize(ctx, labels, params)
}

// TTS 端到端合成：文本 -> 特征 -> (可选重音修正) -> 标签 -> 波形。
// 等价于 Synthesize(MakeLabel(RunFrontend(text)))。
func (e *Engine) TTS(ctx context.Context, text string, params SynthesisParams) ([]float32, int, error) {
	labels, err := e.ExtractFullContext(ctx, text, params.RunMarine)
	if err != nil {
		return nil, 0, err
	}
	return e.Synthesize(ctx, labels, params)
}
