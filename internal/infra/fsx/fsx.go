package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// 测试通过替换该函数模拟 rename 失败（EXDEV 等）。
var renameFunc = os.Rename

// linkFunc 同上，用于模拟 link 前目标被并发创建。
var linkFunc = os.Link

// PathTypeConflictError 表示目标路径类型不对（例如要写文件，但该路径是目录）。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// CrossDeviceError 表示临时文件与目标不在同一文件系统，rename 失败（EXDEV）。
// 临时文件总是建在目标目录内，正常情况下不会出现；出现时直接失败，不做 copy 兜底。
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("跨盘 rename 失败（EXDEV）：%q -> %q：%v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename 封装 os.Rename，并把 EXDEV 显式标记为 CrossDeviceError。
func Rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// WriteFileAtomicReplace 在 dir 下原子写入 name（同目录临时文件 + fsync + rename），覆盖同名文件。
// 导出 CSV 使用该函数：读者要么看到旧文件，要么看到完整的新文件。
func WriteFileAtomicReplace(dir, name string, data []byte) error {
	dst := filepath.Join(filepath.Clean(dir), name)
	if err := checkRegularOrMissing(dst); err != nil {
		return err
	}
	return writeFileAtomic(dir, name, data, 0o644, Rename)
}

// WriteFileAtomicNoOverwrite 与 WriteFileAtomicReplace 相同，但目标已存在时返回 os.ErrExist。
// 运行报告按 run_id 命名，使用该函数保证不会覆盖历史报告。
// 提交用 link(2) 而不是 rename：目标在检查之后才出现时 link 失败，已有文件保持不变。
func WriteFileAtomicNoOverwrite(dir, name string, data []byte) error {
	dst := filepath.Join(filepath.Clean(dir), name)
	if err := checkRegularOrMissing(dst); err != nil {
		return err
	}
	if _, err := os.Lstat(dst); err == nil {
		return os.ErrExist
	}
	return writeFileAtomic(dir, name, data, 0o644, linkNoReplace)
}

func linkNoReplace(src, dst string) error {
	if err := linkFunc(src, dst); err != nil {
		if errors.Is(err, os.ErrExist) {
			return os.ErrExist
		}
		return err
	}
	return nil
}

func checkRegularOrMissing(dst string) error {
	fi, err := os.Lstat(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if fi.IsDir() {
		return &PathTypeConflictError{Path: dst, Want: "file", Got: "dir"}
	}
	if !fi.Mode().IsRegular() {
		return &PathTypeConflictError{Path: dst, Want: "regular file", Got: fi.Mode().Type().String()}
	}
	return nil
}

func writeFileAtomic(dir, name string, data []byte, perm os.FileMode, commit func(src, dst string) error) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dst := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		// rename 成功后 tmpName 已不存在；link 成功后删掉的只是多余的一个名字。
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := writeAll(tmp, data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := commit(tmpName, dst); err != nil {
		return err
	}

	// 目录 fsync：best-effort。
	_ = syncDirBestEffort(dir)
	return nil
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func syncDirBestEffort(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
