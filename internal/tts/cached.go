package tts

import (
	"bytes"
	"context"
	"fmt"

	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/audio"
	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/internal/cache"
	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/internal/logger"
)

// Cached 给任意后端加磁盘缓存。缓存键由文本、后端名、语音名与
// 合成参数决定，同样的请求第二次直接从磁盘读回。
type Cached struct {
	inner Engine
	store *cache.Store
	voice string
}

// NewCached 包装后端。voice 参与缓存键，换声学模型后不会命中旧缓存。
func NewCached(inner Engine, store *cache.Store, voice string) *Cached {
	return &Cached{inner: inner, store: store, voice: voice}
}

// Name 返回被包装后端的名字。
func (c *Cached) Name() string { return c.inner.Name() }

// Synthesize 先查缓存，未命中时调用后端并回填。
// 缓存读写失败只打日志，不影响合成结果。
func (c *Cached) Synthesize(ctx context.Context, text string, p Params) ([]float32, int, error) {
	key := cache.Key(text, c.inner.Name(), c.voice,
		fmt.Sprintf("speed=%g,halftone=%g,marine=%t", p.Speed, p.HalfTone, p.RunMarine))

	if path, _, ok, err := c.store.Lookup(key); err == nil && ok {
		samples, sr, err := audio.DecodeWAVFile(path)
		if err == nil {
			logger.Debugf("[tts] 缓存命中: %s", key[:12])
			return samples, sr, nil
		}
		logger.Warnf("[tts] 缓存文件解析失败，回退到合成: %v", err)
	} else if err != nil {
		logger.Warnf("[tts] 缓存查询失败: %v", err)
	}

	samples, sr, err := c.inner.Synthesize(ctx, text, p)
	if err != nil {
		return nil, 0, err
	}

	var buf bytes.Buffer
	if encErr := audio.EncodeWAV(&buf, samples, sr); encErr != nil {
		logger.Warnf("[tts] 缓存编码失败: %v", encErr)
		return samples, sr, nil
	}
	if _, putErr := c.store.Put(key, buf.Bytes(), sr); putErr != nil {
		logger.Warnf("[tts] 缓存写入失败: %v", putErr)
	}
	return samples, sr, nil
}
