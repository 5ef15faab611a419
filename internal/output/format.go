package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"SkytechIndex/internal/model"

	"github.com/shopspring/decimal"
)

// fixed formats v with places decimals, rounding half away from zero.
func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

// signed is fixed with an explicit sign for non-negative values.
func signed(v float64, places int32) string {
	d := decimal.NewFromFloat(v).Round(places)
	if d.Sign() >= 0 {
		return "+" + d.StringFixed(places)
	}
	return d.StringFixed(places)
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

const csvTimeLayout = "2006-01-02 15:04:05"

func pctCSV(points []model.PctPoint, loc *time.Location) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"datetime_jst", "pct"})
	for _, p := range points {
		w.Write([]string{p.Time.In(loc).Format(csvTimeLayout), fixed(p.Pct, 6)})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func levelsCSV(levels []model.IndexLevel, loc *time.Location) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"datetime_jst", "level"})
	for _, l := range levels {
		w.Write([]string{l.Time.In(loc).Format(csvTimeLayout), fixed(l.Level, 6)})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// Stats is the JSON document published next to the charts.
type Stats struct {
	Key         string   `json:"key"`
	PctIntraday float64  `json:"pct_intraday"`
	Level       float64  `json:"level"`
	PctVsPrev   float64  `json:"pct_vs_prev"`
	UpdatedAt   string   `json:"updated_at"`
	SessionDate string   `json:"session_date"`
	Unit        string   `json:"unit"`
	Tickers     []string `json:"tickers"`
	BaseDate    string   `json:"base_date"`
	BaseLevel   float64  `json:"base_level"`
}

func statsJSON(snap *model.Snapshot) ([]byte, error) {
	def := snap.Definition
	s := Stats{
		Key:         def.Key,
		PctIntraday: round(snap.LastPct(), 2),
		Level:       round(snap.Summary.Level, 2),
		PctVsPrev:   round(snap.Summary.PctVsPrev, 2),
		UpdatedAt:   snap.Summary.ComputedAt.In(def.Loc()).Format("2006/01/02 15:04"),
		SessionDate: snap.SessionDate.Format("2006-01-02"),
		Unit:        "pct",
		Tickers:     def.Codes(),
		BaseDate:    def.Base.Date.In(def.Loc()).Format("2006-01-02"),
		BaseLevel:   def.Base.Level,
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PostText builds the social-media post for the snapshot.
func PostText(snap *model.Snapshot) string {
	def := snap.Definition
	header := def.Key
	if def.Title != "" {
		header += "｜" + def.Title
	}
	lines := []string{
		fmt.Sprintf("【%s】", header),
		fmt.Sprintf("本日：%s%%", signed(snap.LastPct(), 2)),
		fmt.Sprintf("指数：%s", fixed(snap.Summary.Level, 2)),
		fmt.Sprintf("構成：%s", strings.Join(def.Codes(), "/")),
		"#桜Index #SkyTech",
	}
	return strings.Join(lines, "\n")
}
