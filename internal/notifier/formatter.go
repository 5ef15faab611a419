package notifier

import (
	"fmt"
	"strings"
	"time"

	"SkytechIndex/internal/model"
	"SkytechIndex/internal/recorder"
)

// FormatSummary formats the latest index snapshot for a command reply.
func FormatSummary(snap *model.Snapshot) string {
	if snap == nil || snap.Summary == nil {
		return "まだ指数が計算されていません"
	}
	def := snap.Definition
	s := snap.Summary
	loc := def.Loc()

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 %s | %s\n\n", def.Key, s.LevelTime.In(loc).Format("2006/01/02 15:04")))
	b.WriteString(fmt.Sprintf("指数: %.2f (基準 %s = %.0f)\n", s.Level, def.Base.Date.In(loc).Format("2006-01-02"), def.Base.Level))
	b.WriteString(fmt.Sprintf("寄り比: %+.2f%%\n", snap.LastPct()))
	b.WriteString(fmt.Sprintf("前回比: %+.2f%%\n", s.PctVsPrev))
	b.WriteString(fmt.Sprintf("本日高値/安値: %.2f / %.2f (%d本)\n", s.SessionHigh, s.SessionLow, s.Points))
	b.WriteString(fmt.Sprintf("構成: %s\n", strings.Join(def.Codes(), "/")))
	b.WriteString(fmt.Sprintf("計算時刻: %s", s.ComputedAt.In(loc).Format("2006/01/02 15:04:05")))
	return b.String()
}

// FormatRunStatus formats the outcome of the last tracker run.
func FormatRunStatus(run *recorder.RunRecord) string {
	if run == nil {
		return "実行履歴はありません"
	}
	var b strings.Builder
	icon := "✅"
	if run.Status != recorder.StatusOK {
		icon = "❌"
	}
	b.WriteString(fmt.Sprintf("%s 最終実行: %s\n", icon, run.StartedAt.Format("2006/01/02 15:04:05")))
	b.WriteString(fmt.Sprintf("所要時間: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(10*time.Millisecond)))
	if run.Status == recorder.StatusOK {
		b.WriteString(fmt.Sprintf("データ: %s (%s, %d本)\n", run.Source, run.SessionDate, run.Points))
		b.WriteString(fmt.Sprintf("指数: %.2f | 寄り比: %+.2f%%", run.Level, run.PctIntraday))
	} else {
		b.WriteString(fmt.Sprintf("エラー: %s", run.Error))
	}
	return b.String()
}

// HelpText lists the supported commands.
func HelpText() string {
	return "利用可能なコマンド:\n• /index 最新の指数\n• /post 投稿テキスト\n• /status 最終実行\n• /run 今すぐ更新"
}
