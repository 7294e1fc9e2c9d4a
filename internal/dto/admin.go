package dto

import "time"

// ProvenanceResponse describes the latest successful import.
type ProvenanceResponse struct {
	FileName      string    `json:"file_name"`
	ImportedCount int       `json:"imported_count"`
	Timestamp     time.Time `json:"timestamp"`
}

// AppInfoResponse is served to the UI header.
type AppInfoResponse struct {
	LastImport *ProvenanceResponse `json:"last_import"`
	ServerTime time.Time           `json:"server_time"`
}

// InboxFileResponse is one spreadsheet waiting in the inbox.
type InboxFileResponse struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// InboxResponse lists the inbox contents, newest first.
type InboxResponse struct {
	Dir   string              `json:"dir"`
	Files []InboxFileResponse `json:"files"`
}
