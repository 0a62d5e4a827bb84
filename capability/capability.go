// Package capability defines the abstract external-system abilities an agent
// may hold (messaging, documents, social posting) and an explicit optional
// binding set. The fixed Kind enumeration replaces ad hoc "does this adapter
// exist" checks: each kind is either bound to a concrete adapter or absent,
// and agents receive only the subset they are entitled to.
package capability

import (
	"context"
	"errors"
	"time"
)

// Kind identifies one of the fixed capability kinds.
type Kind string

const (
	// KindMessaging is the channel create/join/post capability.
	KindMessaging Kind = "messaging"
	// KindDocuments is the collection/record persistence capability.
	KindDocuments Kind = "documents"
	// KindSocial is the short-post publishing capability.
	KindSocial Kind = "social"
)

// Kinds lists every capability kind in a stable order.
func Kinds() []Kind { return []Kind{KindMessaging, KindDocuments, KindSocial} }

// ErrNotBound is returned by Set accessors when a capability is absent.
var ErrNotBound = errors.New("capability not bound")

// Result is the uniform outcome shape of every agent tool operation, so the
// protocol layer can branch without distinguishing adapters.
type Result struct {
	Success bool   `json:"success"`
	Tool    string `json:"tool"`
	Err     string `json:"error,omitempty"`
	// Unbound marks a no-op outcome from a capability that was never bound,
	// as opposed to a bound adapter failing. Callers branch on this rather
	// than parsing Err.
	Unbound bool `json:"unbound,omitempty"`
}

// Unavailable builds a failure-shaped no-op Result for an unbound capability.
func Unavailable(tool string) Result {
	return Result{Success: false, Tool: tool, Err: tool + " not available", Unbound: true}
}

// Channel is the outcome of an EnsureChannel call.
type Channel struct {
	ID             string `json:"id"`
	AlreadyExisted bool   `json:"already_existed"`
}

// Receipt is the outcome of a Post call.
type Receipt struct {
	Success   bool       `json:"success"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Messaging is the channel capability: create or find a named channel,
// ensure a given identity is a member, and post as that identity.
type Messaging interface {
	// EnsureChannel creates the named channel or returns the existing one.
	// "Already exists" is success, not an error.
	EnsureChannel(ctx context.Context, name string) (Channel, error)

	// EnsureMember makes identity a member of the channel. Failures are
	// expected to be treated as non-fatal by callers.
	EnsureMember(ctx context.Context, channelID, identity string) error

	// Post sends text to the named channel as the given identity.
	Post(ctx context.Context, channel, identity, text string) (Receipt, error)

	// Channels returns the names of every channel known to this adapter,
	// in registration order.
	Channels() []string
}

// FieldType enumerates the record schema field types.
type FieldType string

const (
	// FieldText is a free-text field.
	FieldText FieldType = "text"
	// FieldSelect is a closed enumeration field.
	FieldSelect FieldType = "select"
	// FieldTimestamp is a point-in-time field.
	FieldTimestamp FieldType = "timestamp"
)

// SchemaField describes one field of a collection schema.
type SchemaField struct {
	Name    string    `json:"name"`
	Type    FieldType `json:"type"`
	Options []string  `json:"options,omitempty"` // select fields only
}

// Schema is the small fixed schema a collection is created with.
type Schema struct {
	Fields []SchemaField `json:"fields"`
}

// Collection is the outcome of an EnsureCollection call.
type Collection struct {
	ID             string `json:"id"`
	AlreadyExisted bool   `json:"already_existed"`
}

// Record is one typed entry in a collection.
type Record struct {
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Body      string    `json:"body"`
	Author    string    `json:"author"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter narrows a Query. Zero-value fields are ignored.
type Filter struct {
	Category string `json:"category,omitempty"`
	Author   string `json:"author,omitempty"`
}

// Documents is the persistence capability: named collections of typed
// records with duplicate-title suppression.
type Documents interface {
	// EnsureCollection finds the collection by exact name or creates it
	// with the given schema. Never creates a second collection of the
	// same name.
	EnsureCollection(ctx context.Context, name string, schema Schema) (Collection, error)

	// FindByTitle returns the id of a record with the exact title, if any.
	FindByTitle(ctx context.Context, collectionID, title string) (string, bool, error)

	// Append adds a record. An exact-title duplicate within the collection
	// is suppressed: the existing record id is returned and nothing is
	// inserted.
	Append(ctx context.Context, collectionID string, rec Record) (string, error)

	// Query returns records matching the filter (all records if nil).
	Query(ctx context.Context, collectionID string, filter *Filter) ([]Record, error)
}

// Post is the outcome of a Publish call.
type Post struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Social is the short-post publishing capability.
type Social interface {
	Publish(ctx context.Context, text string) (Post, error)
}

// Set holds the optional capability bindings of one orchestrator. It is
// populated once during bootstrap and read by every agent; nothing mutates
// it afterwards.
type Set struct {
	messaging Messaging
	documents Documents
	social    Social
}

// NewSet creates an empty capability set.
func NewSet() *Set { return &Set{} }

// BindMessaging attaches the messaging adapter.
func (s *Set) BindMessaging(m Messaging) { s.messaging = m }

// BindDocuments attaches the documents adapter.
func (s *Set) BindDocuments(d Documents) { s.documents = d }

// BindSocial attaches the social adapter.
func (s *Set) BindSocial(so Social) { s.social = so }

// Messaging returns the bound messaging adapter, or false if absent.
func (s *Set) Messaging() (Messaging, bool) { return s.messaging, s.messaging != nil }

// Documents returns the bound documents adapter, or false if absent.
func (s *Set) Documents() (Documents, bool) { return s.documents, s.documents != nil }

// Social returns the bound social adapter, or false if absent.
func (s *Set) Social() (Social, bool) { return s.social, s.social != nil }

// Has reports whether the given kind is bound.
func (s *Set) Has(kind Kind) bool {
	switch kind {
	case KindMessaging:
		return s.messaging != nil
	case KindDocuments:
		return s.documents != nil
	case KindSocial:
		return s.social != nil
	default:
		return false
	}
}

// Bound returns the bound kinds in stable order.
func (s *Set) Bound() []Kind {
	var kinds []Kind
	for _, k := range Kinds() {
		if s.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
