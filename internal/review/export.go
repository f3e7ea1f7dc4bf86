package review

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/John-Robertt/mrev/internal/domain"
	"github.com/John-Robertt/mrev/internal/infra/fsx"
)

// ExportHeader 是导出文件的固定表头。
var ExportHeader = []string{"Author", "Content", "Rating"}

// Export 把评论写成 CSV（表头 + 每条评论一行，保持输入顺序），覆盖已存在的目标文件。
// 写入走原子替换：失败时不会留下半截文件。
// 字段内的换行统一为 \n（CSV 读取时 \r\n 会被折叠），因此 ReadExported 读回的内容与写入一致。
func Export(reviews []domain.CanonicalReview, path string) error {
	const op = "review.Export"
	if strings.TrimSpace(path) == "" {
		return domain.Errorf(domain.KindInvalidInput, op, "path 不能为空")
	}
	if len(reviews) == 0 {
		return domain.Errorf(domain.KindInvalidValue, op, "没有可导出的评论")
	}

	rows := make([][]string, 0, len(reviews))
	for _, r := range reviews {
		rows = append(rows, []string{normalizeNewlines(r.Author), normalizeNewlines(r.Content), FormatRating(r.Rating)})
	}
	return writeRows(op, rows, path)
}

// ExportEntries 与 Export 相同，但接收未类型化的条目（例如外部读入的行）：
// 不足三列的条目跳过，多余的列忽略。entries 为空返回 invalid_value。
func ExportEntries(entries [][]string, path string) error {
	const op = "review.ExportEntries"
	if strings.TrimSpace(path) == "" {
		return domain.Errorf(domain.KindInvalidInput, op, "path 不能为空")
	}
	if len(entries) == 0 {
		return domain.Errorf(domain.KindInvalidValue, op, "没有可导出的评论")
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		if len(e) < 3 {
			continue
		}
		rows = append(rows, []string{normalizeNewlines(e[0]), normalizeNewlines(e[1]), normalizeNewlines(e[2])})
	}
	return writeRows(op, rows, path)
}

var newlineReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func normalizeNewlines(s string) string {
	return newlineReplacer.Replace(s)
}

func writeRows(op string, rows [][]string, path string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(ExportHeader); err != nil {
		return &domain.Error{Kind: domain.KindIOFailed, Op: op, Err: err}
	}
	if err := w.WriteAll(rows); err != nil {
		return &domain.Error{Kind: domain.KindIOFailed, Op: op, Err: err}
	}

	path = filepath.Clean(path)
	if err := fsx.WriteFileAtomicReplace(filepath.Dir(path), filepath.Base(path), buf.Bytes()); err != nil {
		return &domain.Error{Kind: domain.KindIOFailed, Op: op, Err: err}
	}
	return nil
}

// ReadExported 读取 Export 写出的文件。
func ReadExported(path string) ([]domain.CanonicalReview, error) {
	const op = "review.ReadExported"
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.Error{Kind: domain.KindNotFound, Op: op, Err: err}
		}
		return nil, &domain.Error{Kind: domain.KindIOFailed, Op: op, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, domain.Errorf(domain.KindInvalidValue, op, "文件为空：%q", path)
		}
		return nil, &domain.Error{Kind: domain.KindInvalidValue, Op: op, Err: err}
	}
	if len(header) < 3 || header[0] != ExportHeader[0] || header[1] != ExportHeader[1] || header[2] != ExportHeader[2] {
		return nil, domain.Errorf(domain.KindInvalidValue, op, "表头不符合预期：%v", header)
	}

	out := make([]domain.CanonicalReview, 0, 16)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &domain.Error{Kind: domain.KindInvalidValue, Op: op, Err: err}
		}
		if len(rec) < 3 {
			continue
		}
		var rating *float64
		if s := strings.TrimSpace(rec[2]); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, domain.Errorf(domain.KindInvalidValue, op, "Rating 不是数字：%q", rec[2])
			}
			rating = &v
		}
		out = append(out, domain.CanonicalReview{Author: rec[0], Content: rec[1], Rating: rating})
	}
	return out, nil
}

// FormatRating 输出评分文本：缺失为空串；整数值保留一位小数（7 -> "7.0"）。
func FormatRating(v *float64) string {
	if v == nil {
		return ""
	}
	s := strconv.FormatFloat(*v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}
