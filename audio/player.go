package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/internal/logger"
)

// Player 使用 malgo (miniaudio) 通过默认扬声器播放单声道样本。
type Player struct {
	ctx    *malgo.AllocatedContext
	mu     sync.Mutex
	closed bool
}

// NewPlayer 创建音频播放实例。
func NewPlayer() (*Player, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("初始化播放上下文失败: %w", err)
	}
	return &Player{ctx: ctx}, nil
}

// Play 按指定采样率播放单声道 float32 样本，阻塞直到播放完成或 ctx 被取消。
func (p *Player) Play(ctx context.Context, samples []float32, sampleRate int) error {
	if len(samples) == 0 {
		return nil
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return fmt.Errorf("播放器已关闭")
	}
	p.mu.Unlock()

	pcm := Float32ToBytes(samples)
	pos := 0
	done := make(chan struct{})

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.PeriodSizeInFrames = 512
	deviceConfig.Periods = 2

	callbacks := malgo.DeviceCallbacks{
		Data: func(output, _ []byte, frameCount uint32) {
			need := int(frameCount) * 2 // 单声道 int16，每帧 2 字节
			if pos >= len(pcm) {
				// 数据播完，填充静音
				for i := range output[:need] {
					output[i] = 0
				}
				select {
				case done <- struct{}{}:
				default:
				}
				return
			}

			end := pos + need
			if end > len(pcm) {
				end = len(pcm)
			}
			copy(output, pcm[pos:end])
			for i := end - pos; i < need; i++ {
				output[i] = 0
			}
			pos = end
		},
	}

	device, err := malgo.InitDevice(p.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("初始化播放设备失败: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("启动播放设备失败: %w", err)
	}
	defer device.Stop()

	select {
	case <-ctx.Done():
		logger.Debug("[audio] 播放被取消")
		return ctx.Err()
	case <-done:
		logger.Debugf("[audio] 播放完成: %d 个样本 @%d Hz", len(samples), sampleRate)
		return nil
	}
}

// Close 释放所有资源。
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	if p.ctx != nil {
		_ = p.ctx.Uninit()
		p.ctx.Free()
		p.ctx = nil
	}
}
