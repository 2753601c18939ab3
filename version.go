package openjtalk

import "runtime/debug"

// Version 返回本模块的版本号。从构建信息读取，读不到时返回 "(devel)"。
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "(devel)"
	}
	return info.Main.Version
}
