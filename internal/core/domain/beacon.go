package domain

import "time"

// Beacon is the lifecycle record for one generated bait file. Created when
// the file is synthesized, stamped with download details when the bytes are
// served, and activated at most once when the tracking reference inside the
// file resolves against the server.
type Beacon struct {
	ID             string     `json:"beacon_id"`
	FileType       string     `json:"file_type"`
	SourceEndpoint string     `json:"source_endpoint"`
	CreatedAt      time.Time  `json:"created_at"`
	DownloadIP     string     `json:"download_ip,omitempty"`
	DownloadedAt   *time.Time `json:"downloaded_at,omitempty"`
	Activated      bool       `json:"activated"`
	ActivatedIP    string     `json:"activated_ip,omitempty"`
	ActivatedAt    *time.Time `json:"activated_at,omitempty"`
}
