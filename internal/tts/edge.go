package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
	"github.com/pp-group/edge-tts-go/biz/service/tts/edge"

	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/audio"
	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/internal/logger"
)

// EdgeEngine 使用微软 Edge TTS 做在线合成，
// 通过 edge-tts-go 获取 MP3 音频，再用 go-mp3 解码为 PCM。
// 需要网络，适合做无本地模型时的兜底。
type EdgeEngine struct {
	voice string
}

// NewEdgeEngine 创建指定语音的 Edge TTS 后端。
// 日语常用语音为 ja-JP-NanamiNeural。
func NewEdgeEngine(voice string) *EdgeEngine {
	return &EdgeEngine{voice: voice}
}

// Name 返回后端名。
func (e *EdgeEngine) Name() string { return "edge" }

// Synthesize 将文本合成为单声道 float32 音频样本。
// 语速与半音参数不生效（Edge 的韵律控制走 SSML，这里未接）。
func (e *EdgeEngine) Synthesize(ctx context.Context, text string, p Params) ([]float32, int, error) {
	if p.Speed != 0 && p.Speed != 1.0 {
		logger.Debugf("[tts] edge: 不支持语速调节，忽略 speed=%g", p.Speed)
	}
	logger.Debugf("[tts] edge: 正在合成 %d 个字符，语音=%s", len([]rune(text)), e.voice)

	// 创建 Communicate 实例并通过 Stream() 获取 MP3 音频块
	comm, err := edge.NewCommunicate(text, edge.WithVoice(e.voice))
	if err != nil {
		return nil, 0, fmt.Errorf("[tts] edge 创建实例失败: %w", err)
	}

	ch, err := comm.Stream()
	if err != nil {
		return nil, 0, fmt.Errorf("[tts] edge 开始流式合成失败: %w", err)
	}

	// 从 channel 收集所有音频数据
	var mp3Buf bytes.Buffer
	for msg := range ch {
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		default:
		}
		// Stream() 返回的 map 中，type=="audio" 的条目包含音频数据
		if msgType, ok := msg["type"].(string); ok && msgType == "audio" {
			if data, ok := msg["data"].([]byte); ok {
				mp3Buf.Write(data)
			}
		}
	}

	mp3Data := mp3Buf.Bytes()
	if len(mp3Data) == 0 {
		return nil, 0, fmt.Errorf("[tts] edge: 未收到音频数据")
	}

	logger.Debugf("[tts] edge: 收到 %d 字节 MP3 数据", len(mp3Data))

	// 解码 MP3 为原始 PCM
	decoder, err := mp3.NewDecoder(bytes.NewReader(mp3Data))
	if err != nil {
		return nil, 0, fmt.Errorf("[tts] MP3 解码失败: %w", err)
	}

	sampleRate := decoder.SampleRate()

	pcmData, err := io.ReadAll(decoder)
	if err != nil {
		return nil, 0, fmt.Errorf("[tts] 读取 PCM 数据失败: %w", err)
	}

	// go-mp3 输出双声道 signed 16-bit LE PCM，折叠为单声道
	const bytesPerFrame = 4
	if len(pcmData)%bytesPerFrame != 0 {
		// 截掉不完整的尾部帧
		pcmData = pcmData[:len(pcmData)/bytesPerFrame*bytesPerFrame]
	}
	samples := audio.StereoToMono(audio.BytesToFloat32(pcmData))

	logger.Debugf("[tts] edge: 生成 %d 个单声道 float32 样本 @%d Hz", len(samples), sampleRate)
	return samples, sampleRate, nil
}
