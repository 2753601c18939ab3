// Package njd 定义 OpenJTalk 文本前端输出的 NJD 语言特征记录，
// 以及将外部重音预测结果合并回特征序列的逻辑。
//
// 字段命名与 JSON 键和前端进程的输出一一对应。
package njd

import "fmt"

// symbolPos 是记号（标点等）词性的词性标签。
const symbolPos = "記号"

// Feature 是一个词素的语言特征记录。
// 由文本前端按输入顺序产出，下游的标签格式化与重音估计按位置消费。
type Feature struct {
	String    string `json:"string"`     // 表层形
	Pos       string `json:"pos"`        // 词性
	PosGroup1 string `json:"pos_group1"` // 词性细分类 1
	PosGroup2 string `json:"pos_group2"` // 词性细分类 2
	PosGroup3 string `json:"pos_group3"` // 词性细分类 3
	CType     string `json:"ctype"`      // 活用型
	CForm     string `json:"cform"`      // 活用形
	Orig      string `json:"orig"`       // 原形
	Read      string `json:"read"`       // 读音（片假名）
	Pron      string `json:"pron"`       // 发音（片假名，含韵律记号）
	Acc       int    `json:"acc"`        // 重音核位置
	MoraSize  int    `json:"mora_size"`  // 音拍数
	ChainRule string `json:"chain_rule"` // 重音结合规则
	ChainFlag int    `json:"chain_flag"` // 重音句边界标志
}

// IsSymbol 返回该记录是否为记号（标点等无发音的词素）。
func (f Feature) IsSymbol() bool {
	return f.Pos == symbolPos
}

// MergeAccent 将外部预测的重音核位置与重音句边界按位置合并回特征序列，
// 覆盖 Acc 与 ChainFlag，其余字段原样保留。不修改入参，返回新切片。
// 三个序列长度不一致时直接报错，不做截断或填充。
func MergeAccent(feats []Feature, accents, boundaries []int) ([]Feature, error) {
	if len(accents) != len(feats) || len(boundaries) != len(feats) {
		return nil, fmt.Errorf("重音预测结果长度不一致: features=%d accents=%d boundaries=%d",
			len(feats), len(accents), len(boundaries))
	}

	merged := make([]Feature, len(feats))
	for i, f := range feats {
		f.Acc = accents[i]
		f.ChainFlag = boundaries[i]
		merged[i] = f
	}
	return merged, nil
}
