package openjtalk

import (
	"context"
	"strings"
)

// phoneFromLabel 从全上下文标签中取出当前音素，即首个 '-' 与首个 '+'
// 之间的子串。格式不符时返回空串。
func phoneFromLabel(label string) string {
	i := strings.IndexByte(label, '-')
	j := strings.IndexByte(label, '+')
	if i < 0 || j < 0 || j <= i {
		return ""
	}
	return label[i+1 : j]
}

// G2P 将文本转为发音序列。
//
// kana 为 false 时返回音素序列：对全上下文标签去掉首尾的静音标签后，
// 逐条取出当前音素。kana 为 true 时返回片假名发音：取各词素的 Pron
// （记号类词素取表层形），并去掉无声化记号「’」。
func (e *Engine) G2P(ctx context.Context, text string, kana bool) ([]string, error) {
	if kana {
		feats, err := e.RunFrontend(ctx, text)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(feats))
		for _, f := range feats {
			s := f.Pron
			if f.IsSymbol() {
				s = f.String
			}
			out = append(out, strings.ReplaceAll(s, "’", ""))
		}
		return out, nil
	}

	labels, err := e.ExtractFullContext(ctx, text, false)
	if err != nil {
		return nil, err
	}
	// 首尾是 sil 静音标签
	if len(labels) <= 2 {
		return nil, nil
	}
	phones := make([]string, 0, len(labels)-2)
	for _, lab := range labels[1 : len(labels)-1] {
		phones = append(phones, phoneFromLabel(lab))
	}
	return phones, nil
}

// G2PString 同 G2P，但拼接为单个字符串：音素以空格分隔，假名直接连接。
func (e *Engine) G2PString(ctx context.Context, text string, kana bool) (string, error) {
	parts, err := e.G2P(ctx, text, kana)
	if err != nil {
		return "", err
	}
	sep := " "
	if kana {
		sep = ""
	}
	return strings.Join(parts, sep), nil
}
