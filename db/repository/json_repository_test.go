package repository

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amankumarsingh77/go-webtoon-crawler/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestJSONRepoSaveMergesDaysByTitle(t *testing.T) {
	repo := NewJSONRepo(t.TempDir(), zaptest.NewLogger(t))

	repo.Save(models.Webtoon{Title: "화산귀환", Day: "월", Rating: "9.9"})
	repo.Save(models.Webtoon{Title: "나 혼자만 레벨업", Day: "화"})
	repo.Save(models.Webtoon{Title: "화산귀환", Day: "화", Rating: "1.0"})

	got := repo.Webtoons()
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].ID)
	assert.Equal(t, "월, 화", got[0].Day)
	assert.Equal(t, "9.9", got[0].Rating, "a merge only touches the day")
	assert.Equal(t, 1, got[1].ID)
	assert.True(t, repo.Exists("나 혼자만 레벨업"))
	assert.False(t, repo.Exists("없는 웹툰"))
}

func TestJSONRepoWebtoonsIsACopy(t *testing.T) {
	repo := NewJSONRepo(t.TempDir(), nil)
	repo.Save(models.Webtoon{Title: "a", Day: "Mon"})

	got := repo.Webtoons()
	got[0].Day = "changed"
	assert.Equal(t, "Mon", repo.Webtoons()[0].Day)
}

func TestJSONRepoExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	repo := NewJSONRepo(dir, zaptest.NewLogger(t))

	id, episodes := 641253, 120
	repo.Save(models.Webtoon{
		UniqueID:         &id,
		Title:            "외모지상주의 <Lookism>",
		Day:              "금",
		Rating:           "9.87",
		ThumbnailURL:     "https://image-comic.pstatic.net/webtoon/641253/thumbnail.jpg",
		Story:            "못생긴 외모로 괴롭힘 당하던 \"형석\"",
		URL:              "https://comic.naver.com/webtoon/list?titleId=641253",
		AgeRating:        "15세",
		Authors:          []models.Author{{Name: "박태준", Role: "글", Link: "/author/1"}},
		Genres:           []string{"액션", "드라마"},
		EpisodeCount:     &episodes,
		FirstEpisodeLink: "https://comic.naver.com/webtoon/detail?titleId=641253&no=1",
		Platform:         "naver",
	})
	repo.Save(models.Webtoon{Title: "외모지상주의 <Lookism>", Day: "토"})
	repo.Save(models.Webtoon{
		Title:   "나 혼자만 레벨업",
		Day:     "목",
		Rating:  "0",
		Authors: []models.Author{},
		Genres:  []string{},
	})

	require.NoError(t, repo.Export("naver_webtoon_list"))

	path := filepath.Join(dir, "naver_webtoon_list.json")
	assert.Equal(t, path, repo.Path("naver_webtoon_list"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, `"title": "외모지상주의 <Lookism>"`)
	assert.Contains(t, text, `"day": "금, 토"`)
	assert.Contains(t, text, `"unique_id": null`)
	assert.NotContains(t, text, `\u`)
	assert.True(t, strings.HasPrefix(text, "[\n    {\n        \"id\": 0,"), text)

	loaded, err := LoadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, repo.Webtoons(), loaded)
	assert.Equal(t, 1, FindTitleIndex(loaded, "나 혼자만 레벨업"))
	assert.Equal(t, -1, FindTitleIndex(loaded, "missing"))
}

func TestJSONRepoExportUnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "taken")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	repo := NewJSONRepo(file, nil)
	repo.Save(models.Webtoon{Title: "a"})
	assert.Error(t, repo.Export("list"))
}

func TestJSONRepoExportEmpty(t *testing.T) {
	repo := NewJSONRepo(t.TempDir(), nil)
	require.NoError(t, repo.Export("kakao_webtoon_list"))

	raw, err := os.ReadFile(repo.Path("kakao_webtoon_list"))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(raw))
}

func TestJSONRepoExportOverwrites(t *testing.T) {
	repo := NewJSONRepo(t.TempDir(), nil)
	repo.Save(models.Webtoon{Title: "one"})
	require.NoError(t, repo.Export("list"))
	repo.Save(models.Webtoon{Title: "two"})
	require.NoError(t, repo.Export("list"))

	loaded, err := LoadJSON(repo.Path("list"))
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestLoadJSONMissingFile(t *testing.T) {
	_, err := LoadJSON(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
