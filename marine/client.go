// Package marine 调用 marine 重音预测服务，修正形态素特征中的
// 重音核 (acc) 与重音句边界 (chain_flag)。
//
// 服务接口：
//
//	POST {endpoint}/api/v1/predict
//	请求:  {"features": [NJDFeature, ...]}
//	响应:  {"accent_status": [int, ...], "accent_phrase_boundary": [int, ...]}
//
// 两个数组长度必须与输入特征数一致。
package marine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/internal/logger"
	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/njd"
)

// Client 是 marine 服务的 HTTP 客户端。
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New 创建客户端。endpoint 形如 http://127.0.0.1:8765。
func New(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	Features []njd.Feature `json:"features"`
}

type predictResponse struct {
	AccentStatus         []int `json:"accent_status"`
	AccentPhraseBoundary []int `json:"accent_phrase_boundary"`
}

// Predict 请求重音预测，返回逐形态素的重音核与重音句边界标记。
func (c *Client) Predict(ctx context.Context, feats []njd.Feature) ([]int, []int, error) {
	body, err := json.Marshal(predictRequest{Features: feats})
	if err != nil {
		return nil, nil, fmt.Errorf("编码预测请求失败: %w", err)
	}

	url := c.endpoint + "/api/v1/predict"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("请求 marine 服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, nil, fmt.Errorf("marine 服务返回 %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, nil, fmt.Errorf("解析预测响应失败: %w", err)
	}

	logger.Debugf("[marine] 预测完成: %d 个形态素, 耗时 %v", len(feats), time.Since(start))
	return out.AccentStatus, out.AccentPhraseBoundary, nil
}

// Estimate 预测并将结果合并回特征序列，返回修正后的新切片。
func (c *Client) Estimate(ctx context.Context, feats []njd.Feature) ([]njd.Feature, error) {
	accents, boundaries, err := c.Predict(ctx, feats)
	if err != nil {
		return nil, err
	}
	return njd.MergeAccent(feats, accents, boundaries)
}
