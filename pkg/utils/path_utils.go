package utils

import (
	"os"
	"path/filepath"
)

// GetAbsPath 获取相对路径对应的绝对路径
// 从当前工作目录逐级向上查找，直到找到目标文件或到达根目录
func GetAbsPath(relPath string) string {
	if filepath.IsAbs(relPath) {
		return relPath
	}

	dir, err := os.Getwd()
	if err != nil {
		return relPath
	}

	for {
		candidate := filepath.Join(dir, relPath)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	// 未找到时返回基于工作目录的路径，由调用方处理错误
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, relPath)
}

// UserStorageDir 返回会话数据的存储目录，不存在时自动创建
func UserStorageDir(base string) (string, error) {
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".wm_console")
	}
	if err := os.MkdirAll(base, 0o700); err != nil {
		return "", err
	}
	return base, nil
}
