package openjtalk

import "fmt"

// DependencyError 表示某项可选依赖未配置或不可用。
type DependencyError struct {
	// Dependency 依赖名
	Dependency string
	// Hint 修复提示
	Hint string
}

func (e *DependencyError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("缺少可选依赖 %s", e.Dependency)
	}
	return fmt.Sprintf("缺少可选依赖 %s: %s", e.Dependency, e.Hint)
}

func errMarineMissing() *DependencyError {
	return &DependencyError{
		Dependency: "marine",
		Hint:       "请配置 MarineEndpoint 并启动 marine 服务 (pip install pyopenjtalk[marine])",
	}
}
