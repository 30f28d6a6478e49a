package models

// UploadRequest carries one batch of group rows to upsert on the server.
// Each row is checked against the stored version before it is applied.
type UploadRequest struct {
	Records []GroupRecord `json:"records"`
	Length  int           `json:"length"`
}

// UploadResponse reports per-record outcomes of an upload. Records rejected
// by the version precondition are listed in Conflicts with the version the
// server currently holds.
type UploadResponse struct {
	Applied   []string          `json:"applied"`
	Conflicts []VersionConflict `json:"conflicts,omitempty"`
}

// VersionConflict identifies a record whose version precondition failed.
type VersionConflict struct {
	ID            string `json:"id"`
	ServerVersion int64  `json:"server_version"`
}

// DownloadRequest selects group rows by owner, optionally narrowed to ids.
type DownloadRequest struct {
	IDs    []string `json:"ids,omitempty"`
	Length int      `json:"length"`
}

// DownloadResponse is the result of a download call.
type DownloadResponse struct {
	Records []GroupRecord `json:"records"`
	Length  int           `json:"length"`
}
