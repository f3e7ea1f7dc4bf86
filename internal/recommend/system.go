package recommend

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/John-Robertt/mrev/internal/clean"
	"github.com/John-Robertt/mrev/internal/domain"
)

// System 是评论文件的 加载 → 清洗 → 推荐 流程。
// 文件每行：title,rating[,text...]，可选表头 title,rating。
// 各步骤必须按顺序调用，否则返回 invalid_state。
type System struct {
	path string
	rec  Recommender

	reviews [][]string
	cleaned [][]string
}

// NewSystem 构造 System；rec 为 nil 时使用 Basic。
func NewSystem(path string, rec Recommender) (*System, error) {
	if strings.TrimSpace(path) == "" {
		return nil, domain.Errorf(domain.KindInvalidInput, "recommend.NewSystem", "路径为空")
	}
	if rec == nil {
		rec = Basic{}
	}
	return &System{path: path, rec: rec}, nil
}

func (s *System) Path() string { return s.path }

// Load 读取评论文件，替换之前加载的内容并清空清洗结果。
func (s *System) Load() ([][]string, error) {
	const op = "recommend.System.Load"
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &domain.Error{Kind: domain.KindNotFound, Op: op, Err: err}
		}
		return nil, &domain.Error{Kind: domain.KindIOFailed, Op: op, Err: err}
	}
	defer f.Close()

	rows, err := readEntries(f)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindInvalidValue, Op: op, Err: err}
	}
	s.reviews = rows
	s.cleaned = nil
	return s.Reviews(), nil
}

func readEntries(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out [][]string
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if first {
			first = false
			if isHeader(rec) {
				continue
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func isHeader(rec []string) bool {
	if len(rec) < 2 || !strings.EqualFold(rec[0], "title") {
		return false
	}
	_, err := strconv.ParseFloat(rec[1], 64)
	return err != nil
}

// Clean 去重并去掉剧透条目。未加载（或文件为空）时返回 invalid_state。
func (s *System) Clean() ([][]string, error) {
	if len(s.reviews) == 0 {
		return nil, domain.Errorf(domain.KindInvalidState, "recommend.System.Clean", "尚未加载评论")
	}
	s.cleaned = clean.RemoveSpoilers(clean.Dedupe(s.reviews))
	return s.Cleaned(), nil
}

// Recommend 把清洗后的条目交给推荐器。没有清洗结果时返回 invalid_state。
// 每条取前两列作为 [title, rating]；rating 不是数值时保留原文，由推荐器跳过。
func (s *System) Recommend() ([]domain.Rated, error) {
	if len(s.cleaned) == 0 {
		return nil, domain.Errorf(domain.KindInvalidState, "recommend.System.Recommend", "没有可用的清洗结果")
	}
	entries := make([][]any, 0, len(s.cleaned))
	for _, e := range s.cleaned {
		switch len(e) {
		case 0:
			continue
		case 1:
			entries = append(entries, []any{e[0]})
		default:
			var rating any = e[1]
			if f, err := strconv.ParseFloat(e[1], 64); err == nil {
				rating = f
			}
			entries = append(entries, []any{e[0], rating})
		}
	}
	return s.rec.Recommend(entries), nil
}

func (s *System) Reviews() [][]string { return cloneEntries(s.reviews) }
func (s *System) Cleaned() [][]string { return cloneEntries(s.cleaned) }

func (s *System) String() string {
	return fmt.Sprintf("MovieReviewSystem: %d/%d reviews cleaned.", len(s.cleaned), len(s.reviews))
}

func cloneEntries(in [][]string) [][]string {
	if in == nil {
		return nil
	}
	out := make([][]string, len(in))
	for i, e := range in {
		out[i] = append([]string(nil), e...)
	}
	return out
}
