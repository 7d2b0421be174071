// Package goid 提供当前 goroutine 的 ID，仅用于日志字段关联，不参与任何业务逻辑。
package goid

import "runtime"

// GetGID 获取当前 goroutine 的 ID
// 栈信息类似: "goroutine 123 [running]:\n"，解析失败返回0
func GetGID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]

	const prefix = len("goroutine ")
	var id uint64
	for i := prefix; i < len(b); i++ {
		c := b[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
