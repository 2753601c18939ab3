// g2p 把日语文本转为发音序列（音素或片假名）。
//
// 示例：
//
//	g2p こんにちは                  # => k o N n i ch i w a
//	g2p -kana 今日はいい天気        # => キョーワイーテンキ
//	echo こんにちは | g2p -
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	openjtalk "github.com/TrellixVulnTeam/pyopenjtalk-F9A2"
	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/internal/logger"
)

func main() {
	kana := flag.Bool("kana", false, "输出片假名而非音素")
	dictDir := flag.String("dict", "", "词典目录（默认自动下载到 ~/.jtalk）")
	frontendBin := flag.String("frontend", "", "文本前端可执行文件")
	logLevel := flag.String("log", "warn", "日志级别")
	flag.Parse()

	if err := logger.Init(logger.Config{Level: *logLevel}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	text, err := readText(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取文本失败: %v\n", err)
		os.Exit(1)
	}
	if text == "" {
		fmt.Fprintln(os.Stderr, "用法: g2p [-kana] 文本（或 - 从 stdin 读取）")
		os.Exit(1)
	}

	ctx := context.Background()
	eng, err := openjtalk.New(ctx, openjtalk.Config{
		DictDir:     *dictDir,
		FrontendBin: *frontendBin,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败: %v\n", err)
		os.Exit(1)
	}

	out, err := eng.G2PString(ctx, text, *kana)
	if err != nil {
		fmt.Fprintf(os.Stderr, "转换失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(out)
}

// readText 从位置参数取文本，参数为 - 或为空时读 stdin。
func readText(args []string) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}
	return strings.Join(args, ""), nil
}
