package github

import "time"

// ProvisionResult describes the candidate repository created from a seed.
type ProvisionResult struct {
	RepoFullName  string
	PinnedMainSHA string
}

// Commit is the metadata returned when listing branch history.
type Commit struct {
	SHA         string    `json:"sha"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
	Date        time.Time `json:"date"`
	Message     string    `json:"message"`
}

// DiffFile is a single file entry from a commit comparison.
type DiffFile struct {
	Filename  string `json:"filename"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
	Status    string `json:"status"`
	Patch     string `json:"patch,omitempty"`
}

// Comparison is the file-level diff between two refs of one repository.
type Comparison struct {
	Status       string     `json:"status"`
	AheadBy      int        `json:"ahead_by"`
	BehindBy     int        `json:"behind_by"`
	TotalCommits int        `json:"total_commits"`
	Files        []DiffFile `json:"files"`
}
