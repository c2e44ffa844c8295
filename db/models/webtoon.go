package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Webtoon struct {
	ID               int      `bson:"seq_id" json:"id"`
	UniqueID         *int     `bson:"unique_id,omitempty" json:"unique_id"`
	Title            string   `bson:"title" json:"title"`
	Day              string   `bson:"day" json:"day"`
	Rating           string   `bson:"rating" json:"rating"`
	ThumbnailURL     string   `bson:"thumbnail_url,omitempty" json:"thumbnail_url"`
	Story            string   `bson:"story,omitempty" json:"story"`
	URL              string   `bson:"url" json:"url"`
	AgeRating        string   `bson:"age_rating,omitempty" json:"age_rating"`
	Authors          []Author `bson:"authors,omitempty" json:"authors"`
	Genres           []string `bson:"genres,omitempty" json:"genres"`
	EpisodeCount     *int     `bson:"episode_count,omitempty" json:"episode_count"`
	FirstEpisodeLink string   `bson:"first_episode_link,omitempty" json:"first_episode_link"`

	Platform    string             `bson:"platform" json:"platform,omitempty"`
	LastUpdated primitive.DateTime `bson:"last_updated,omitempty" json:"-"`
}

type Author struct {
	Name string `bson:"name" json:"name"`
	Role string `bson:"role" json:"role"`
	Link string `bson:"link" json:"link"`
}

// AddDay records another airing day for a title that appears on several listing tabs.
func (w *Webtoon) AddDay(day string) {
	w.Day += ", " + day
}
