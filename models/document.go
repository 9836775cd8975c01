package models

// CaseRef is a validated reference to one case within a term. Case entries
// that fail validation at the parse boundary never become a CaseRef; they
// are routed to the junk sink instead.
type CaseRef struct {
	Term         int    `json:"term"`
	CaseID       string `json:"case_id"`
	DocketNumber string `json:"docket_number"`
}

// OARef points at one oral-argument document within a case. ID is the
// global identity of the ingested document.
type OARef struct {
	ID   string `json:"id"`
	Href string `json:"href"`
}

// WorkUnit is one discoverable fetch task: a single oral argument to
// download and persist. Session is the argument's position within the
// case's oral_argument_audio list.
type WorkUnit struct {
	Term    int
	Case    CaseRef
	Session int
	OA      OARef
}

// RawDocument is the full fetched JSON body for one oral argument,
// enriched with ingestion metadata before storage.
type RawDocument map[string]interface{}
