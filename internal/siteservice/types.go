package siteservice

import (
	"database/sql"
	"time"

	"github.com/calliope-press/inkstone/internal/common"
)

// Site is one publication host. Timezone is the IANA zone name used when
// presenting instants for this site; storage stays in UTC.
type Site struct {
	ID        int       `json:"id"`
	Host      string    `json:"host"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle,omitempty"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SiteModel struct {
	db *sql.DB
}

type SiteService struct {
	m *SiteModel
	c *common.Cache
}
