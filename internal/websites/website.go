// Package websites manages the registered websites that visits are
// attributed to.
package websites

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WebsiteNotFoundError represents an error when a website is not found
type WebsiteNotFoundError struct {
	ID string
}

func (e *WebsiteNotFoundError) Error() string {
	return fmt.Sprintf("website not found for id: %s", e.ID)
}

// NewWebsiteNotFoundError creates a new WebsiteNotFoundError
func NewWebsiteNotFoundError(id string) *WebsiteNotFoundError {
	return &WebsiteNotFoundError{ID: id}
}

// Website represents a registered website accepting beacons
type Website struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	URL       string    `gorm:"not null" json:"url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a uuid primary key when none is set.
func (w *Website) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// CreateWebsite creates a new website
func CreateWebsite(db *gorm.DB, website *Website) error {
	website.CreatedAt = time.Now().UTC()
	website.UpdatedAt = website.CreatedAt
	return db.Create(website).Error
}

// GetWebsiteOrNotFound retrieves a website by id, returning a typed
// WebsiteNotFoundError when it does not exist. It accepts a transaction
// so it can run as part of a larger transactional process.
func GetWebsiteOrNotFound(tx *gorm.DB, id string) (*Website, error) {
	var website Website
	if err := tx.Where("id = ?", id).First(&website).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewWebsiteNotFoundError(id)
		}
		return nil, fmt.Errorf("unexpected error querying website: %w", err)
	}
	return &website, nil
}

// GetAllWebsites retrieves all websites
func GetAllWebsites(db *gorm.DB) ([]Website, error) {
	var websites []Website
	if err := db.Order("created_at ASC").Find(&websites).Error; err != nil {
		return nil, fmt.Errorf("failed to get websites: %w", err)
	}
	return websites, nil
}

// WebsiteWithVisitCount represents a website with its recorded visit count
type WebsiteWithVisitCount struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"created_at"`
	VisitCount int64     `json:"visit_count"`
}

// GetWebsitesWithVisitCounts retrieves all websites enriched with the
// number of visits recorded against each.
func GetWebsitesWithVisitCounts(db *gorm.DB) ([]WebsiteWithVisitCount, error) {
	allWebsites, err := GetAllWebsites(db)
	if err != nil {
		return nil, err
	}

	result := make([]WebsiteWithVisitCount, len(allWebsites))
	for i, website := range allWebsites {
		var visitCount int64
		err := db.Table("visits").
			Where("website_id = ?", website.ID).
			Count(&visitCount).Error
		if err != nil {
			// On error, default to 0 but continue
			visitCount = 0
		}

		result[i] = WebsiteWithVisitCount{
			ID:         website.ID,
			URL:        website.URL,
			CreatedAt:  website.CreatedAt,
			VisitCount: visitCount,
		}
	}

	return result, nil
}
