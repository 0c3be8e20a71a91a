// Package visits records ingested beacons: one visit per beacon plus
// one page view per page interaction reported in it.
package visits

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Visit is one recorded session/pageload event with geolocation and
// device metadata. Immutable once written.
type Visit struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	WebsiteID      string    `gorm:"index:idx_visits_website_created;size:36;not null" json:"website_id"`
	CreatedAt      time.Time `gorm:"index:idx_visits_website_created" json:"created_at"`
	Timestamp      time.Time `json:"timestamp"` // client-reported
	Country        string    `json:"country"`
	CountryISOCode string    `json:"country_iso_code"`
	Continent      string    `json:"continent"`
	ContinentCode  string    `json:"continent_code"`
	OS             string    `json:"os"`
	Browser        string    `json:"browser"`
	UserAgent      string    `json:"user_agent"`
	ScreenWidth    int       `json:"screen_width"`
	Referrer       string    `json:"referrer"`
}

// BeforeCreate assigns a uuid primary key when none is set.
func (v *Visit) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// PageView is one page-path interaction belonging to a visit, with its
// rank (order of visitation within the session) and dwell time in
// seconds. Immutable once written.
type PageView struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	VisitID   string    `gorm:"index;size:36;not null" json:"visit_id"`
	Page      string    `gorm:"index;not null" json:"page"`
	Rank      int       `json:"rank"`
	TimeSpent int       `json:"time_spent"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns a uuid primary key when none is set.
func (p *PageView) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
