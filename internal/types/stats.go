package types

import "time"

// RegionStats is the number of attractions in one area.
type RegionStats struct {
	AreaCode string `json:"areaCode"`
	AreaName string `json:"areaName"`
	Count    int    `json:"count"`
}

// TypeStats is the number of attractions of one content type and its share of the total.
type TypeStats struct {
	ContentTypeID   string  `json:"contentTypeId"`
	ContentTypeName string  `json:"contentTypeName"`
	Count           int     `json:"count"`
	Percentage      float64 `json:"percentage"`
}

// StatsSummary is a point-in-time snapshot shown on the stats dashboard.
type StatsSummary struct {
	TotalCount  int           `json:"totalCount"`
	TopRegions  []RegionStats `json:"topRegions"`
	TopTypes    []TypeStats   `json:"topTypes"`
	LastUpdated time.Time     `json:"lastUpdated"`
}
