package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/John-Robertt/mrev/internal/domain"
	"github.com/John-Robertt/mrev/internal/infra/fsx"
	"github.com/John-Robertt/mrev/internal/tmdb"
)

// DefaultDir 是默认缓存目录名（相对于工作目录）。
const DefaultDir = ".mrev-cache"

// Store 提供 <root>/rows 与 <root>/reports 下的文件缓存读写。
//
// 约束：
// - dry-run：只允许读（ReadOnly=true）
// - apply：允许写（ReadOnly=false）
type Store struct {
	Root     string
	ReadOnly bool
}

var ErrReadOnly = errors.New("cache: read-only")

func New(root string, readOnly bool) Store {
	return Store{
		Root:     filepath.Clean(strings.TrimSpace(root)),
		ReadOnly: readOnly,
	}
}

// RowsKey 由源文件的绝对路径、大小、修改时间与过滤条件计算缓存键。
// 文件或过滤条件任一变化都会得到新键。
func RowsKey(path string, f tmdb.Filter) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d\x00%s", abs, fi.Size(), fi.ModTime().UnixNano(), f.String())
	return hex.EncodeToString(h.Sum(nil))[:32], nil
}

// RowsPath 返回行缓存的绝对路径。
func (s Store) RowsPath(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, "rows", k+".json"), nil
}

// ReadRows 读取行缓存。文件不存在或内容损坏都视为未命中。
func (s Store) ReadRows(key string) ([]domain.MovieRow, bool, error) {
	path, err := s.RowsPath(key)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var rows []domain.MovieRow
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, false, nil
	}
	if rows == nil {
		rows = []domain.MovieRow{}
	}
	return rows, true, nil
}

func (s Store) WriteRows(key string, rows []domain.MovieRow) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []domain.MovieRow{}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomicReplace(filepath.Join(s.Root, "rows"), k+".json", b)
}

// ReportPath 返回运行报告的绝对路径。
func (s Store) ReportPath(runID string) (string, error) {
	k, err := cleanKey(runID)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, "reports", k+".json"), nil
}

// WriteReport 写入运行报告；同名报告已存在时返回 os.ErrExist（不覆盖）。
func (s Store) WriteReport(runID string, data []byte) (string, error) {
	if s.ReadOnly {
		return "", ErrReadOnly
	}
	path, err := s.ReportPath(runID)
	if err != nil {
		return "", err
	}
	if err := fsx.WriteFileAtomicNoOverwrite(filepath.Dir(path), filepath.Base(path), data); err != nil {
		return "", err
	}
	return path, nil
}

var keyRE = regexp.MustCompile(`^[a-z0-9-]+$`)

func cleanKey(k string) (string, error) {
	k = strings.ToLower(strings.TrimSpace(k))
	if k == "" {
		return "", fmt.Errorf("缓存键不能为空")
	}
	// 最小约束：避免路径穿越。
	if !keyRE.MatchString(k) {
		return "", fmt.Errorf("非法缓存键：%q", k)
	}
	return k, nil
}
