package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/John-Robertt/mrev/internal/domain"
	"github.com/John-Robertt/mrev/internal/tmdb"
)

func TestStore_ReadWriteRows(t *testing.T) {
	s := New(t.TempDir(), false)
	rows := []domain.MovieRow{{Title: "Heat", VoteAverage: domain.Float(8.3), VoteCount: 5, ReleaseYear: 2015}}

	if _, ok, err := s.ReadRows("abc"); err != nil || ok {
		t.Fatalf("空缓存期望未命中：ok=%v err=%v", ok, err)
	}
	if err := s.WriteRows("abc", rows); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	got, ok, err := s.ReadRows("abc")
	if err != nil || !ok {
		t.Fatalf("期望命中缓存：ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0].Title != "Heat" || got[0].VoteAverage == nil || *got[0].VoteAverage != 8.3 {
		t.Fatalf("缓存内容不一致：%+v", got)
	}

	path, err := s.RowsPath("abc")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("期望文件存在，但 Stat 失败：%v", err)
	}
}

func TestStore_CorruptRowsIsMiss(t *testing.T) {
	s := New(t.TempDir(), false)
	path, _ := s.RowsPath("bad")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("写入失败：%v", err)
	}
	if _, ok, err := s.ReadRows("bad"); err != nil || ok {
		t.Fatalf("损坏的缓存应视为未命中：ok=%v err=%v", ok, err)
	}
}

func TestStore_ReadOnlyRejectWrite(t *testing.T) {
	s := New(t.TempDir(), true)
	if err := s.WriteRows("abc", nil); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("期望 ErrReadOnly，实际：%v", err)
	}
	if _, err := s.WriteReport("run-1", []byte("{}")); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("期望 ErrReadOnly，实际：%v", err)
	}
	path, _ := s.RowsPath("abc")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("期望文件不存在，但 Stat err=%v", err)
	}
}

func TestStore_RejectsPathTraversal(t *testing.T) {
	s := New(t.TempDir(), false)
	for _, k := range []string{"", "../x", "a/b", "a.b"} {
		if _, err := s.RowsPath(k); err == nil {
			t.Fatalf("期望拒绝键 %q", k)
		}
	}
}

func TestStore_WriteReportNoOverwrite(t *testing.T) {
	s := New(t.TempDir(), false)
	path, err := s.WriteReport("7f3c-run", []byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if filepath.Base(path) != "7f3c-run.json" {
		t.Fatalf("报告路径不符合预期：%s", path)
	}
	if _, err := s.WriteReport("7f3c-run", []byte(`{"a":2}`)); !errors.Is(err, os.ErrExist) {
		t.Fatalf("重复写入期望 os.ErrExist，实际：%v", err)
	}
}

func TestRowsKey_ChangesWithFilterAndFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "movies.csv")
	if err := os.WriteFile(p, []byte("title\nA\n"), 0o644); err != nil {
		t.Fatalf("写入失败：%v", err)
	}

	k1, err := RowsKey(p, tmdb.DefaultFilter())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	k2, _ := RowsKey(p, tmdb.DefaultFilter())
	if k1 != k2 {
		t.Fatalf("相同输入应得到相同键")
	}

	f := tmdb.DefaultFilter()
	f.MinVotes = 100
	if k3, _ := RowsKey(p, f); k3 == k1 {
		t.Fatalf("过滤条件变化应得到新键")
	}

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(p, later, later); err != nil {
		t.Fatalf("Chtimes 失败：%v", err)
	}
	if k4, _ := RowsKey(p, tmdb.DefaultFilter()); k4 == k1 {
		t.Fatalf("文件修改时间变化应得到新键")
	}

	if _, err := RowsKey(filepath.Join(t.TempDir(), "missing.csv"), tmdb.DefaultFilter()); !os.IsNotExist(err) {
		t.Fatalf("缺失文件期望 NotExist，实际：%v", err)
	}
}
