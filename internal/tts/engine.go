// Package tts 定义文本级合成后端接口及其各个实现：
// openjtalk 流水线、sherpa-onnx 神经合成、edge-tts 在线合成，
// 以及给任意后端加磁盘缓存的装饰器。
package tts

import "context"

// Params 为单次合成的参数。不支持某参数的后端忽略之。
type Params struct {
	// Speed 语速倍率，零值按 1.0 处理
	Speed float64
	// HalfTone 半音偏移
	HalfTone float64
	// RunMarine 合成前做 marine 重音修正（仅 openjtalk 后端支持）
	RunMarine bool
}

// Engine 定义语音合成后端接口。
type Engine interface {
	// Name 返回后端名，用于日志与缓存键。
	Name() string
	// Synthesize 将文本转换为音频。
	// 返回 float32 单声道样本、采样率（Hz）和错误。
	Synthesize(ctx context.Context, text string, p Params) ([]float32, int, error)
}
