package domain

import (
	"time"
)

// FollowModel is the GORM model for the event_follows table.
// UserID holds the follower key; on databases that predate the text
// migration the column is still an integer.
type FollowModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"column:user_id;type:text;not null;uniqueIndex:event_follows_user_id_event_id_key,priority:1"`
	EventID   int64     `gorm:"column:event_id;not null;uniqueIndex:event_follows_user_id_event_id_key,priority:2;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (FollowModel) TableName() string { return "event_follows" }

// PredictionModel is the GORM model for the predictions table.
type PredictionModel struct {
	ID          int64      `gorm:"column:id;primaryKey"`
	Title       string     `gorm:"column:title"`
	Description string     `gorm:"column:description"`
	Category    string     `gorm:"column:category"`
	ImageURL    string     `gorm:"column:image_url"`
	Deadline    *time.Time `gorm:"column:deadline"`
	MinStake    float64    `gorm:"column:min_stake"`
	Status      string     `gorm:"column:status"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
}

func (PredictionModel) TableName() string { return "predictions" }

// CategoryModel is the GORM model for the categories table.
type CategoryModel struct {
	ID   int64  `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name"`
	Icon string `gorm:"column:icon"`
}

func (CategoryModel) TableName() string { return "categories" }

// Event is the public metadata of a campaign.
type Event struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	ImageURL    string     `json:"image_url"`
	Deadline    *time.Time `json:"deadline"`
	MinStake    float64    `json:"min_stake"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToDomain converts the model into its public representation.
func (m *PredictionModel) ToDomain() Event {
	return Event{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Category:    m.Category,
		ImageURL:    m.ImageURL,
		Deadline:    m.Deadline,
		MinStake:    m.MinStake,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
	}
}

// FollowDetailEntry is an event a follower follows, annotated with its
// follower count. FollowersCount is never negative and always serialized.
type FollowDetailEntry struct {
	Event
	FollowersCount int64 `json:"followers_count"`
}

// Category is a listing category.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}
