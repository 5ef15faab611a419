package output

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"SkytechIndex/internal/index"
	"SkytechIndex/internal/model"
)

// Windows for the long-range level charts.
var longCharts = []struct {
	Suffix string
	Label  string
	Window time.Duration
}{
	{"7d", "7D", 7 * 24 * time.Hour},
	{"1m", "1M", 30 * 24 * time.Hour},
	{"1y", "1Y", 365 * 24 * time.Hour},
}

// Writer renders a snapshot into the artifact files under Dir.
type Writer struct {
	Dir string
	Now func() time.Time
}

// NewWriter creates a Writer for dir.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir, Now: time.Now}
}

// Slug turns an index key like "SKYTECH-3" into a file prefix "skytech_3".
func Slug(key string) string {
	return strings.ToLower(strings.NewReplacer("-", "_", " ", "_").Replace(key))
}

// Render produces every artifact in memory, keyed by file name.
func (w *Writer) Render(snap *model.Snapshot) (map[string][]byte, error) {
	if snap == nil || snap.Summary == nil || len(snap.Intraday) == 0 {
		return nil, errors.New("snapshot has no levels")
	}
	def := snap.Definition
	loc := def.Loc()
	p := Slug(def.Key)
	files := make(map[string][]byte)

	var err error
	if files[p+"_intraday.csv"], err = pctCSV(snap.IntradayPct, loc); err != nil {
		return nil, fmt.Errorf("intraday csv: %w", err)
	}
	if files[p+"_levels.csv"], err = levelsCSV(snap.History, loc); err != nil {
		return nil, fmt.Errorf("levels csv: %w", err)
	}
	title := fmt.Sprintf("%s Intraday Snapshot (%s JST)", def.Key, snap.SessionDate.Format("2006/01/02"))
	if files[p+"_intraday.png"], err = intradayChart(snap.IntradayPct, title, loc); err != nil {
		return nil, fmt.Errorf("intraday chart: %w", err)
	}
	for _, lc := range longCharts {
		levels := index.Trailing(snap.History, lc.Window)
		name := fmt.Sprintf("%s_%s.png", p, lc.Suffix)
		if files[name], err = levelChart(levels, def.Key+" | "+lc.Label, loc); err != nil {
			return nil, fmt.Errorf("%s chart: %w", lc.Suffix, err)
		}
	}
	if files[p+"_stats.json"], err = statsJSON(snap); err != nil {
		return nil, fmt.Errorf("stats json: %w", err)
	}
	files[p+"_post_intraday.txt"] = []byte(PostText(snap))
	files["last_run.txt"] = []byte(w.Now().In(loc).Format("2006/01/02 15:04:05"))
	return files, nil
}

// WriteAll renders the snapshot and then replaces every artifact.
// Nothing is written if rendering fails.
func (w *Writer) WriteAll(snap *model.Snapshot) error {
	files, err := w.Render(snap)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for name, data := range files {
		if err := writeFileAtomic(filepath.Join(w.Dir, name), data); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	log.Printf("[INFO] wrote %d artifacts to %s", len(files), w.Dir)
	return nil
}

// writeFileAtomic writes data to a temp file in the same directory and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
