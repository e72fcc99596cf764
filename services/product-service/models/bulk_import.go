package models

// BulkRowError reports why a spreadsheet row was not imported. Row is 1-based
// and counts the header.
type BulkRowError struct {
	Row     int    `json:"row"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

type BulkImportResult struct {
	TotalRows     int            `json:"total_rows"`
	InsertedCount int            `json:"inserted_count"`
	ErrorsCount   int            `json:"errors_count"`
	Errors        []BulkRowError `json:"errors"`
	Message       string         `json:"message"`
}
