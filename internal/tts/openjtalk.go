package tts

import (
	"context"

	openjtalk "github.com/TrellixVulnTeam/pyopenjtalk-F9A2"
)

// OpenJTalkEngine 将 openjtalk 流水线适配为文本级合成后端。
type OpenJTalkEngine struct {
	eng *openjtalk.Engine
}

// NewOpenJTalkEngine 包装一个已构建好的流水线。
func NewOpenJTalkEngine(eng *openjtalk.Engine) *OpenJTalkEngine {
	return &OpenJTalkEngine{eng: eng}
}

// Name 返回后端名。
func (e *OpenJTalkEngine) Name() string { return "openjtalk" }

// Synthesize 执行端到端合成。
func (e *OpenJTalkEngine) Synthesize(ctx context.Context, text string, p Params) ([]float32, int, error) {
	return e.eng.TTS(ctx, text, openjtalk.SynthesisParams{
		Speed:     p.Speed,
		HalfTone:  p.HalfTone,
		RunMarine: p.RunMarine,
	})
}
