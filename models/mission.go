package models

import "time"

// Mission is visible to the members of its access group.
type Mission struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	AccessGroupID    string           `json:"accessGroupId"`
	StartTime        time.Time        `json:"startTime"`
	EndTime          time.Time        `json:"endTime"`
	Details          string           `json:"details"`
	AllegianceFilter AllegianceFilter `json:"allegianceFilter"`
}
