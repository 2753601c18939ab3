// Package dict 负责 OpenJTalk 词典目录的准备：
// 目录缺失时从固定的 release 地址下载 tar.gz 归档并解压到位。
package dict

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/internal/logger"
)

const (
	// DefaultURL 是官方词典归档的下载地址。
	DefaultURL = "https://github.com/r9y9/open_jtalk/releases/download/v1.11.1/open_jtalk_dic_utf_8-1.11.tar.gz"

	// DirName 是归档解压后得到的词典目录名。
	DirName = "open_jtalk_dic_utf_8-1.11"

	// EnvDictDir 指定词典目录的环境变量。设置后跳过下载，直接使用该目录。
	EnvDictDir = "OPEN_JTALK_DICT_DIR"
)

// ProvisionError 表示词典下载或解压失败。
type ProvisionError struct {
	URL string
	Err error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("词典准备失败 (%s): %v", e.URL, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// Options 控制 Ensure 的行为。
type Options struct {
	// Dir 目标词典目录，为空则使用 DefaultDir()。
	Dir string
	// URL 归档下载地址，为空则使用 DefaultURL。
	URL string
	// Client 用于下载的 HTTP 客户端，为空则使用 http.DefaultClient。
	Client *http.Client
}

// DefaultDir 返回默认词典目录 ~/.jtalk/open_jtalk_dic_utf_8-1.11。
func DefaultDir() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		return filepath.Join(".", DirName)
	}
	return filepath.Join(home, ".jtalk", DirName)
}

// Ensure 确保词典目录存在并返回其路径。
//
// 环境变量 OPEN_JTALK_DICT_DIR 被设置时直接返回该值，不做任何下载
// （目录不存在时由后续的引擎初始化报错）。否则目录缺失时下载归档、
// 解压并删除临时文件。下载失败不重试；解压中途失败可能留下不完整
// 的目录，后续调用只检查目录是否存在，不做内容校验。
func Ensure(ctx context.Context, opts Options) (string, error) {
	if env := os.Getenv(EnvDictDir); env != "" {
		logger.Debugf("[dict] 使用环境变量 %s 指定的词典目录: %s", EnvDictDir, env)
		return env, nil
	}

	dir := opts.Dir
	if dir == "" {
		dir = DefaultDir()
	}
	if _, err := os.Stat(dir); err == nil {
		return dir, nil
	}

	url := opts.URL
	if url == "" {
		url = DefaultURL
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}

	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return "", &ProvisionError{URL: url, Err: err}
	}

	archive := filepath.Join(parent, "dic-"+uuid.NewString()+".tar.gz")
	if err := download(ctx, client, url, archive); err != nil {
		os.Remove(archive)
		return "", &ProvisionError{URL: url, Err: err}
	}
	defer os.Remove(archive)

	logger.Infof("[dict] 正在解压词典归档: %s", archive)
	if err := extractTarGz(archive, parent); err != nil {
		return "", &ProvisionError{URL: url, Err: err}
	}

	if _, err := os.Stat(dir); err != nil {
		return "", &ProvisionError{URL: url, Err: fmt.Errorf("归档中不包含预期的词典目录 %s", filepath.Base(dir))}
	}

	logger.Infof("[dict] 词典已就绪: %s", dir)
	return dir, nil
}

// download 将 url 的内容流式写入 dest，并按进度打日志。
func download(ctx context.Context, client *http.Client, url, dest string) error {
	logger.Infof("[dict] 正在下载词典: %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	pw := &progressWriter{total: resp.ContentLength}
	if _, err := io.Copy(f, io.TeeReader(resp.Body, pw)); err != nil {
		return err
	}

	logger.Infof("[dict] 下载完成: %d bytes", pw.written)
	return nil
}

// progressWriter 统计写入字节数并按大致 10% 的步长打进度日志。
type progressWriter struct {
	total   int64 // Content-Length，未知时为 -1
	written int64
	lastPct int64
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.total > 0 {
		pct := p.written * 100 / p.total
		if pct >= p.lastPct+10 {
			p.lastPct = pct - pct%10
			logger.Infof("[dict] 下载进度: %d%% (%d/%d bytes)", p.lastPct, p.written, p.total)
		}
	}
	return len(b), nil
}

// extractTarGz 将 tar.gz 归档解压到 dest 目录，拒绝越出 dest 的路径。
func extractTarGz(archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("归档格式错误: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("归档格式错误: %w", err)
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode)&0777)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		default:
			// 符号链接等其他类型在词典归档中不会出现，跳过
			logger.Debugf("[dict] 跳过归档条目 %s (type=%d)", hdr.Name, hdr.Typeflag)
		}
	}
}

// safeJoin 拼接归档条目路径，拒绝路径穿越。
func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, name)
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("归档条目路径非法: %s", name)
	}
	return target, nil
}
