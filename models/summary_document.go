package models

// SummaryDocument is the JSON shape persisted for each run.
type SummaryDocument struct {
	Count         int                   `json:"count"`
	Min           float64               `json:"min"`
	Max           float64               `json:"max"`
	Avg           float64               `json:"avg"`
	LatestReading LatestReadingDocument `json:"latest_reading"`
}

// LatestReadingDocument is the latest_reading object of SummaryDocument.
type LatestReadingDocument struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}
