package review

import (
	"testing"

	"github.com/John-Robertt/mrev/internal/domain"
)

func sampleRows() []domain.MovieRow {
	return []domain.MovieRow{
		{Title: "Dune", VoteAverage: domain.Float(7.8), Overview: "  Paul travels to Arrakis.  "},
		{Title: "Dune: Part Two", VoteAverage: nil, Overview: "Paul unites with the Fremen."},
		{Title: "", OriginalTitle: "DUNE (Original)", VoteAverage: domain.Float(6), Overview: ""},
		{Title: "Arrival", VoteAverage: domain.Float(7.9), Overview: "Linguist meets aliens."},
		{Title: "   ", Overview: "no title"},
	}
}

func TestFindByTitle_CaseInsensitiveSubstring(t *testing.T) {
	got := FindByTitle("  dUnE ", sampleRows())
	if len(got) != 3 {
		t.Fatalf("期望匹配 3 条，实际 %d：%+v", len(got), got)
	}

	if got[0].Author != domain.DefaultAuthor {
		t.Fatalf("author 应为占位符，实际 %q", got[0].Author)
	}
	if got[0].Content != "Paul travels to Arrakis." {
		t.Fatalf("content 应为 trim 后的简介，实际 %q", got[0].Content)
	}
	if got[0].Rating == nil || *got[0].Rating != 7.8 {
		t.Fatalf("rating 不正确：%v", got[0].Rating)
	}
	if got[1].Rating != nil {
		t.Fatalf("缺失评分应为 nil，实际 %v", *got[1].Rating)
	}
	// title 为空时用 original_title 匹配。
	if got[2].Rating == nil || *got[2].Rating != 6 || got[2].Content != "" {
		t.Fatalf("original_title 回退匹配不正确：%+v", got[2])
	}
}

func TestFindByTitle_NoMatchReturnsEmpty(t *testing.T) {
	got := FindByTitle("Inception", sampleRows())
	if got == nil || len(got) != 0 {
		t.Fatalf("无匹配应返回空切片（非 nil），实际 %v", got)
	}
}

func TestFindByTitle_RatingIsCopied(t *testing.T) {
	rows := sampleRows()
	got := FindByTitle("Arrival", rows)
	*got[0].Rating = 1

	if *rows[3].VoteAverage != 7.9 {
		t.Fatalf("修改评论不应影响源行：%v", *rows[3].VoteAverage)
	}
}

func TestExtractor_StripMarkupAndAuthor(t *testing.T) {
	rows := []domain.MovieRow{{Title: "Her", Overview: "<p>A man<br>falls in love &amp; <i>more</i>.</p>"}}

	got := Extractor{Author: "critics", StripMarkup: true}.FindByTitle("her", rows)
	if len(got) != 1 {
		t.Fatalf("期望 1 条，实际 %d", len(got))
	}
	if got[0].Author != "critics" {
		t.Fatalf("自定义 author 未生效：%q", got[0].Author)
	}
	if got[0].Content != "A man falls in love & more ." && got[0].Content != "A man falls in love & more." {
		t.Fatalf("markup 未正确去除：%q", got[0].Content)
	}
}

func TestPlainText_PassThrough(t *testing.T) {
	if got := PlainText("  plain   text "); got != "plain text" {
		t.Fatalf("纯文本应只折叠空白，实际 %q", got)
	}
}

func TestMatch_EmptyQueryMatchesTitledRows(t *testing.T) {
	got := Match("", sampleRows())
	if len(got) != 4 {
		t.Fatalf("空 query 应匹配所有有标题的行（4），实际 %d", len(got))
	}
}
