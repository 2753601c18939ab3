package openjtalk

import (
	"context"
	"sync"

	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/njd"
)

// 包级单例：首次使用时按 Init 设置的配置懒加载构建。
var (
	defaultMu     sync.Mutex
	defaultCfg    Config
	defaultOpts   []Option
	defaultEngine *Engine
)

// Init 设置包级单例的配置。已构建的单例被丢弃，下次使用时按新配置重建。
func Init(cfg Config, opts ...Option) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultCfg = cfg
	defaultOpts = opts
	defaultEngine = nil
}

// Default 返回包级单例，首次调用时构建（可能触发词典下载）。
// 并发调用只构建一次。
func Default(ctx context.Context) (*Engine, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultEngine != nil {
		return defaultEngine, nil
	}
	e, err := New(ctx, defaultCfg, defaultOpts...)
	if err != nil {
		return nil, err
	}
	defaultEngine = e
	return e, nil
}

// 以下包级便捷函数委托给 Default 单例。

// RunFrontend 见 Engine.RunFrontend。
func RunFrontend(ctx context.Context, text string) ([]njd.Feature, error) {
	e, err := Default(ctx)
	if err != nil {
		return nil, err
	}
	return e.RunFrontend(ctx, text)
}

// MakeLabel 见 Engine.MakeLabel。
func MakeLabel(ctx context.Context, feats []njd.Feature) ([]string, error) {
	e, err := Default(ctx)
	if err != nil {
		return nil, err
	}
	return e.MakeLabel(ctx, feats)
}

// EstimateAccent 见 Engine.EstimateAccent。
func EstimateAccent(ctx context.Context, feats []njd.Feature) ([]njd.Feature, error) {
	e, err := Default(ctx)
	if err != nil {
		return nil, err
	}
	return e.EstimateAccent(ctx, feats)
}

// ExtractFullContext 见 Engine.ExtractFullContext。
func ExtractFullContext(ctx context.Context, text string, runMarine bool) ([]string, error) {
	e, err := Default(ctx)
	if err != nil {
		return nil, err
	}
	return e.ExtractFullContext(ctx, text, runMarine)
}

// G2P 见 Engine.G2P。
func G2P(ctx context.Context, text string, kana bool) ([]string, error) {
	e, err := Default(ctx)
	if err != nil {
		return nil, err
	}
	return e.G2P(ctx, text, kana)
}

// G2PString 见 Engine.G2PString。
func G2PString(ctx context.Context, text string, kana bool) (string, error) {
	e, err := Default(ctx)
	if err != nil {
		return "", err
	}
	return e.G2PString(ctx, text, kana)
}

// Synthesize 见 Engine.Synthesize。
func Synthesize(ctx context.Context, labels []string, params SynthesisParams) ([]float32, int, error) {
	e, err := Default(ctx)
	if err != nil {
		return nil, 0, err
	}
	return e.Synthesize(ctx, labels, params)
}

// TTS 见 Engine.TTS。
func TTS(ctx context.Context, text string, params SynthesisParams) ([]float32, int, error) {
	e, err := Default(ctx)
	if err != nil {
		return nil, 0, err
	}
	return e.TTS(ctx, text, params)
}
