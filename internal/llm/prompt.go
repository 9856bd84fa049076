package llm

import (
	"fmt"
	"strings"
	"time"
)

// TruncationMarker is appended when the document text is cut.
const TruncationMarker = "\n\n…（テキストが長いため以降は省略）"

// SystemPrompt is sent as the system turn of every completion.
const SystemPrompt = "あなたは体育館の個人開放スケジュールを読み取る専門家です。指定されたJSON形式だけで正確に回答してください。"

// TruncateText keeps the first max runes of s and appends TruncationMarker
// when anything was cut.
func TruncateText(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + TruncationMarker
}

// BuildUserPrompt renders the extraction instructions followed by the
// (already truncated) document text.
func BuildUserPrompt(req ExtractRequest, text string) string {
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	year, month := now.Year(), int(now.Month())

	var b strings.Builder
	b.WriteString("以下は体育館の個人開放スケジュールPDFから取り出したテキストです。\n")
	b.WriteString("内容を読み取り、次のJSON形式で出力してください。\n\n")
	b.WriteString(outputShape)
	b.WriteString("\n\nルール:\n")
	fmt.Fprintf(&b, "- 日付は YYYY-MM-DD 形式。年の記載がなければ%d年とし、月が%d月より前なら翌年（%d年）とする。\n", year, month, year+1)
	b.WriteString("- 時刻は24時間表記の HH:mm 形式（例: 9:00 → 09:00）。\n")
	b.WriteString("- 空き状況: ○・空き → available、△・残りわずか → few、×・満員 → full、休・休館・閉館 → closed。\n")
	b.WriteString("- 競技名は正式名称にする（例: バレー → バレーボール、バスケ → バスケットボール）。")
	if len(req.Sports) > 0 {
		b.WriteString("候補: " + strings.Join(req.Sports, "、"))
	}
	b.WriteString("\n")
	b.WriteString("- 受付方法: 当日受付 → same_day、事前予約 → reservation、抽選 → lottery。不明なら same_day。\n")
	b.WriteString("- 定員(capacity)と残り枠(remaining)は数値。分からなければ null。\n")
	b.WriteString("- 分からない文字項目は空文字にする。\n")
	b.WriteString("- 空き枠が見つからなければ slots は空配列にする。\n")
	b.WriteString("- JSON以外の文章は出力しない。\n")
	if req.SourceURL != "" {
		b.WriteString("\n参照元URL: " + req.SourceURL + "\n")
	}
	b.WriteString("\nテキスト:\n")
	b.WriteString(text)
	return b.String()
}

const outputShape = `{
  "gymName": "体育館名",
  "areaName": "市区町村名（例: 渋谷区）",
  "address": "住所",
  "tel": "電話番号",
  "slots": [
    {
      "date": "YYYY-MM-DD",
      "start_time": "HH:mm",
      "end_time": "HH:mm",
      "sport_name": "競技名",
      "status": "available | few | full | closed",
      "capacity": null,
      "remaining": null,
      "reception_type": "same_day | reservation | lottery",
      "target": "対象者",
      "notes": "備考"
    }
  ]
}`
