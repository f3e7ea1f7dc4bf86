package review

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText 把可能带 HTML 标记/实体的简介转成纯文本（<br>/<p> 视为空白）。
// 解析失败时返回折叠空白后的原文。
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return normSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return normSpace(s)
	}
	// goquery 的 Text() 直接拼接文本节点：块级/换行元素之间需要补空白，否则单词会粘连。
	doc.Find("br, p, div, li").Each(func(_ int, sel *goquery.Selection) {
		sel.BeforeHtml(" ")
		sel.AfterHtml(" ")
	})
	return normSpace(doc.Text())
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }
