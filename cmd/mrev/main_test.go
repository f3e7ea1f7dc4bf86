package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/John-Robertt/mrev/internal/config"
	"github.com/John-Robertt/mrev/internal/domain"
)

func TestParseRunArgs(t *testing.T) {
	ra, err := parseRunArgs([]string{"The Matrix", "--input", "m.csv", "--out=o.csv", "--recommender=critic", "--apply=false"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := runArgs{
		Title: "The Matrix", TitleSet: true,
		Input: "m.csv", Out: "o.csv",
		Recommender: "critic", RecommenderSet: true,
		Apply: false, ApplySet: true,
	}
	if ra != want {
		t.Fatalf("解析结果不符合预期：%+v", ra)
	}
	if cli := ra.cli(); cli.Input != "m.csv" || !cli.ApplySet || cli.Recommender != "critic" {
		t.Fatalf("CLIArgs 转换不符合预期：%+v", cli)
	}
}

func TestParseRunArgs_Errors(t *testing.T) {
	cases := [][]string{
		{"a", "b"},
		{"--input"},
		{"--apply=yes"},
		{"--recommender", "magic"},
		{"--bogus"},
	}
	for _, c := range cases {
		if _, err := parseRunArgs(c); err == nil {
			t.Fatalf("期望参数错误：%v", c)
		}
	}
}

func TestReportForConfigError(t *testing.T) {
	err := &config.Error{Code: config.ErrCodeMissingInput, Path: "/x/mrev.json"}
	rr := reportForConfigError(runArgs{Title: "Heat", Apply: true, ApplySet: true}, err)
	if rr.Status != domain.StatusFailed || rr.ErrorCode != config.ErrCodeMissingInput || rr.DryRun {
		t.Fatalf("配置错误报告不符合预期：%+v", rr)
	}

	rr = reportForConfigError(runArgs{}, errors.New("boom"))
	if rr.ErrorCode != config.ErrCodeInvalid || !rr.DryRun || rr.Reviews == nil {
		t.Fatalf("未知错误应归为 config_invalid：%+v", rr)
	}
}

func TestWriteJSON_EncodeFailureWritesNothingToStdout(t *testing.T) {
	var stdout, stderr bytes.Buffer
	rr := domain.RunReport{Summary: domain.ReportSummary{AverageRating: math.NaN()}}
	rr.Finalize()

	if err := writeJSON(&stdout, &stderr, rr); err == nil {
		t.Fatalf("NaN 无法编码，期望返回错误")
	}
	if stdout.Len() != 0 {
		t.Fatalf("编码失败时 stdout 应为空：%q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "输出 JSON 失败") {
		t.Fatalf("编码失败应写 stderr：%q", stderr.String())
	}
}

func TestWriteJSON_SingleDocument(t *testing.T) {
	var stdout, stderr bytes.Buffer
	rr := domain.RunReport{Title: "Heat"}
	rr.Finalize()

	if err := writeJSON(&stdout, &stderr, rr); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	dec := json.NewDecoder(&stdout)
	var got map[string]any
	if err := dec.Decode(&got); err != nil {
		t.Fatalf("stdout 不是合法 JSON：%v", err)
	}
	if got["title"] != "Heat" || dec.More() {
		t.Fatalf("stdout 应只有一个 JSON 文档：%v", got)
	}
}
