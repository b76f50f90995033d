package domain

import "time"

// SignCommand is a single signing attempt by one signer.
type SignCommand struct {
	DocumentID   string
	SignatureID  string
	Artifact     []byte
	ArtifactType string
	Consent      bool
	Verification VerificationContext
}

// SignResult is returned after a successful capture.
type SignResult struct {
	Document  Document
	Signature Signature
	// Completed is true when the document is signed after this request,
	// whether this request or a concurrent one performed the transition.
	Completed bool
	// CompletionPending is true when the completion check could not be
	// evaluated; a later recheck will lock the document.
	CompletionPending bool
}

// CompletionResult describes the outcome of a completion check.
type CompletionResult struct {
	DocumentID string
	Status     DocumentStatus
	Remaining  int
	Completed  bool
	// Transitioned is true only for the call that performed the lock.
	Transitioned bool
}

// CompletionEvent is emitted once per lock transition for downstream
// consumers such as the notification sender.
type CompletionEvent struct {
	EventID    string    `json:"eventID"`
	DocumentID string    `json:"documentID"`
	ClientID   string    `json:"clientID"`
	Title      string    `json:"title"`
	SignedAt   time.Time `json:"signedAt"`
	Path       string    `json:"path"`
}

// ViewState is what a signer sees when opening their signing link.
type ViewState string

const (
	ViewReady         ViewState = "ready"
	ViewAlreadySigned ViewState = "already_signed"
	ViewLocked        ViewState = "locked"
)

// ViewResult is the read-path result of opening a signing link.
type ViewResult struct {
	State      ViewState
	Document   Document
	Signature  Signature
	Signatures []Signature
}

// RequestEvidence is the raw request data the verification collector works from.
type RequestEvidence struct {
	RemoteAddr string
	ClientIP   string
	UserAgent  string
	Headers    map[string]string
}
