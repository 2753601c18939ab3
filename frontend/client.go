// Package frontend 通过外部前端进程调用 OpenJTalk 的文本处理流水线
// （形态素解析、读音付与、全上下文标签生成）。
//
// 前端进程的约定：
//
//	jtalk-frontend run-frontend -x DICT   stdin: UTF-8 文本
//	                                      stdout: NJD 特征记录的 JSON 数组
//	jtalk-frontend make-label   -x DICT   stdin: NJD 特征记录的 JSON 数组
//	                                      stdout: 全上下文标签，每行一条
//
// 进程以非零码退出时，stderr 即原生层的诊断信息，原样透传给调用方。
package frontend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/internal/logger"
	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/njd"
)

// Client 持有前端可执行文件与词典目录，按调用派生子进程。
// 自身无可变状态，可并发使用。
type Client struct {
	bin     string
	dictDir string
}

// New 创建前端客户端。
// bin 是前端可执行文件（在 PATH 上或绝对路径），dictDir 是词典目录。
func New(bin, dictDir string) *Client {
	return &Client{bin: bin, dictDir: dictDir}
}

// DictDir 返回绑定的词典目录。
func (c *Client) DictDir() string {
	return c.dictDir
}

// RunFrontend 对归一化的 Unicode 文本运行文本前端，返回逐词素的语言特征。
func (c *Client) RunFrontend(ctx context.Context, text string) ([]njd.Feature, error) {
	logger.Debugf("[frontend] run-frontend: %d 个字符", len([]rune(text)))

	out, err := c.run(ctx, "run-frontend", strings.NewReader(text))
	if err != nil {
		return nil, err
	}

	var feats []njd.Feature
	if err := json.Unmarshal(out, &feats); err != nil {
		return nil, fmt.Errorf("[frontend] 解析特征输出失败: %w", err)
	}

	logger.Debugf("[frontend] run-frontend: 得到 %d 条特征记录", len(feats))
	return feats, nil
}

// MakeLabel 将特征序列转换为全上下文标签。输出只取决于输入特征。
func (c *Client) MakeLabel(ctx context.Context, feats []njd.Feature) ([]string, error) {
	payload, err := json.Marshal(feats)
	if err != nil {
		return nil, fmt.Errorf("[frontend] 序列化特征失败: %w", err)
	}

	out, err := c.run(ctx, "make-label", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	var labels []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			labels = append(labels, line)
		}
	}

	logger.Debugf("[frontend] make-label: 得到 %d 条标签", len(labels))
	return labels, nil
}

// run 执行一次前端子命令，返回 stdout。非零退出时附带 stderr 原文。
func (c *Client) run(ctx context.Context, subcommand string, stdin io.Reader) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.bin, subcommand, "-x", c.dictDir)
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("[frontend] %s 执行失败: %w: %s", subcommand, err, msg)
		}
		return nil, fmt.Errorf("[frontend] %s 执行失败: %w", subcommand, err)
	}

	return stdout.Bytes(), nil
}
