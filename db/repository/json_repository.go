package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/amankumarsingh77/go-webtoon-crawler/db/models"
	"go.uber.org/zap"
)

// JSONRepo accumulates scraped webtoons in insertion order, keyed by title.
// It is not safe for concurrent use; the crawler drives it from a single goroutine.
type JSONRepo struct {
	Dir string

	webtoons []models.Webtoon
	byTitle  map[string]int
	nextID   int
	logger   *zap.Logger
}

func NewJSONRepo(dir string, logger *zap.Logger) *JSONRepo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONRepo{
		Dir:     dir,
		byTitle: make(map[string]int),
		logger:  logger,
	}
}

// Save appends a new title with the next sequence id, or merges the airing day
// into the existing entry and drops the rest of w.
func (r *JSONRepo) Save(w models.Webtoon) {
	if idx, ok := r.byTitle[w.Title]; ok {
		r.webtoons[idx].AddDay(w.Day)
		r.logger.Debug("merged webtoon day",
			zap.String("title", w.Title),
			zap.String("day", r.webtoons[idx].Day))
		return
	}

	w.ID = r.nextID
	r.nextID++
	r.byTitle[w.Title] = len(r.webtoons)
	r.webtoons = append(r.webtoons, w)
	r.logger.Debug("saved webtoon", zap.Int("id", w.ID), zap.String("title", w.Title))
}

func (r *JSONRepo) Exists(title string) bool {
	_, ok := r.byTitle[title]
	return ok
}

func (r *JSONRepo) Len() int {
	return len(r.webtoons)
}

// Webtoons returns a copy of the collection in insertion order.
func (r *JSONRepo) Webtoons() []models.Webtoon {
	out := make([]models.Webtoon, len(r.webtoons))
	copy(out, r.webtoons)
	return out
}

// Path is the file Export writes for filename.
func (r *JSONRepo) Path(filename string) string {
	return filepath.Join(r.Dir, filename+".json")
}

// Export writes the whole collection to <Dir>/<filename>.json, overwriting any previous file.
func (r *JSONRepo) Export(filename string) (err error) {
	if r.Dir != "" {
		if err := os.MkdirAll(r.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	path := r.Path(filename)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	webtoons := r.webtoons
	if webtoons == nil {
		webtoons = []models.Webtoon{}
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "    ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(webtoons); err != nil {
		return fmt.Errorf("failed to encode webtoons: %w", err)
	}

	r.logger.Info("exported webtoons", zap.String("path", path), zap.Int("count", len(webtoons)))
	return nil
}

// LoadJSON reads a file written by Export.
func LoadJSON(path string) ([]models.Webtoon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var webtoons []models.Webtoon
	if err := json.Unmarshal(data, &webtoons); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return webtoons, nil
}

// FindTitleIndex returns the position of title in webtoons, or -1.
func FindTitleIndex(webtoons []models.Webtoon, title string) int {
	for i, w := range webtoons {
		if w.Title == title {
			return i
		}
	}
	return -1
}
