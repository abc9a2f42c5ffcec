package models

import (
	"time"

	"gorm.io/datatypes"
)

// Document is one row of the documents table: a JSON payload addressed by
// game, collection and id. Game documents use an empty GameID.
type Document struct {
	GameID     string         `gorm:"primaryKey;size:128" json:"gameId"`
	Collection string         `gorm:"primaryKey;size:256" json:"collection"`
	DocID      string         `gorm:"primaryKey;size:256;column:doc_id" json:"id"`
	Data       datatypes.JSON `gorm:"not null" json:"data"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func (Document) TableName() string {
	return "documents"
}
