package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	// idPrefix starts the canonical text form: UUID2:<tag>@<uuid>.
	idPrefix = "UUID2:"

	// UntypedTag is the tag given to a bare UUID that carries no kind.
	UntypedTag = "UUID"
)

// Kind is implemented by the marker types that parameterize ID. KindName
// returns the runtime tag that travels with erased identifiers.
type Kind interface {
	comparable
	KindName() string
}

// Marker kinds for the library roles.
type (
	AccountRole struct{}
	BookRole    struct{}
	UserRole    struct{}
	LibraryRole struct{}
)

func (AccountRole) KindName() string { return "Role.Account" }
func (BookRole) KindName() string    { return "Role.Book" }
func (UserRole) KindName() string    { return "Role.User" }
func (LibraryRole) KindName() string { return "Role.Library" }

// TagOf returns the runtime tag of kind K.
func TagOf[K Kind]() string {
	var k K
	return k.KindName()
}

// ID is a UUID bound at compile time to kind K. Two IDs of different kinds
// cannot be compared directly; compare their AnyID forms instead, which
// differ whenever the tags differ.
type ID[K Kind] struct {
	value uuid.UUID
}

// Identifier aliases used throughout the library.
type (
	AccountID = ID[AccountRole]
	BookID    = ID[BookRole]
	UserID    = ID[UserRole]
	LibraryID = ID[LibraryRole]
)

// NewID tags an existing UUID with kind K.
func NewID[K Kind](u uuid.UUID) ID[K] {
	return ID[K]{value: u}
}

// RandomID returns a fresh random identifier of kind K.
func RandomID[K Kind]() ID[K] {
	return ID[K]{value: uuid.New()}
}

// ParseID parses either the canonical form or a bare UUID. A canonical form
// carrying a different tag fails with ErrTypeMismatch.
func ParseID[K Kind](text string) (ID[K], error) {
	a, err := ParseAnyID(text)
	if err != nil {
		return ID[K]{}, err
	}
	if a.tag == UntypedTag {
		return NewID[K](a.value), nil
	}
	return As[K](a)
}

// ParseTaggedID is ParseID without the bare UUID fallback: the text must
// carry K's tag, and an untagged UUID fails with ErrTypeMismatch. Decoding
// of stored records goes through it.
func ParseTaggedID[K Kind](text string) (ID[K], error) {
	a, err := ParseAnyID(text)
	if err != nil {
		return ID[K]{}, err
	}
	return As[K](a)
}

// MustParseID is ParseID for literals in tests and fixtures.
func MustParseID[K Kind](text string) ID[K] {
	id, err := ParseID[K](text)
	if err != nil {
		panic(err)
	}
	return id
}

// Retag reinterprets id as kind To, keeping the raw UUID. It is the only
// conversion between kinds and must be called explicitly.
func Retag[To, From Kind](id ID[From]) ID[To] {
	return ID[To]{value: id.value}
}

// UUID returns the raw value.
func (id ID[K]) UUID() uuid.UUID { return id.value }

// Tag returns the kind tag, e.g. "Role.Account".
func (id ID[K]) Tag() string { return TagOf[K]() }

// IsZero reports whether the raw value is the nil UUID.
func (id ID[K]) IsZero() bool { return id.value == uuid.Nil }

// Equal reports whether both IDs hold the same UUID.
func (id ID[K]) Equal(other ID[K]) bool { return id == other }

// Any erases the kind into a runtime tag.
func (id ID[K]) Any() AnyID {
	return AnyID{value: id.value, tag: id.Tag()}
}

// String renders the canonical form.
func (id ID[K]) String() string {
	return idPrefix + id.Tag() + "@" + id.value.String()
}

// MarshalText implements encoding.TextMarshaler so IDs work as JSON map keys.
func (id ID[K]) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It requires the
// canonical form; see ParseTaggedID.
func (id *ID[K]) UnmarshalText(text []byte) error {
	parsed, err := ParseTaggedID[K](string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// AnyID is an identifier whose kind is only known at runtime.
type AnyID struct {
	value uuid.UUID
	tag   string
}

// NewAnyID pairs a UUID with an arbitrary tag. An empty tag becomes UntypedTag.
func NewAnyID(u uuid.UUID, tag string) AnyID {
	if tag == "" {
		tag = UntypedTag
	}
	return AnyID{value: u, tag: tag}
}

// RandomAnyID returns a fresh random identifier with the given tag.
func RandomAnyID(tag string) AnyID {
	return NewAnyID(uuid.New(), tag)
}

// ParseAnyID parses the canonical form, or a bare UUID which is given
// UntypedTag.
func ParseAnyID(text string) (AnyID, error) {
	rest, tagged := strings.CutPrefix(text, idPrefix)
	if !tagged {
		u, err := uuid.Parse(text)
		if err != nil {
			return AnyID{}, fmt.Errorf("%w: identifier %q: %v", ErrParse, text, err)
		}
		return AnyID{value: u, tag: UntypedTag}, nil
	}

	tag, raw, ok := strings.Cut(rest, "@")
	if !ok || tag == "" {
		return AnyID{}, fmt.Errorf("%w: identifier %q: missing tag separator", ErrParse, text)
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return AnyID{}, fmt.Errorf("%w: identifier %q: %v", ErrParse, text, err)
	}
	return AnyID{value: u, tag: tag}, nil
}

// UUID returns the raw value.
func (a AnyID) UUID() uuid.UUID { return a.value }

// Tag returns the runtime tag.
func (a AnyID) Tag() string {
	if a.tag == "" {
		return UntypedTag
	}
	return a.tag
}

// Equal compares both the UUID and the tag.
func (a AnyID) Equal(other AnyID) bool {
	return a.value == other.value && a.Tag() == other.Tag()
}

// Retag returns a copy carrying a different tag.
func (a AnyID) Retag(tag string) AnyID {
	return NewAnyID(a.value, tag)
}

// String renders the canonical form.
func (a AnyID) String() string {
	return idPrefix + a.Tag() + "@" + a.value.String()
}

func (a AnyID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AnyID) UnmarshalText(text []byte) error {
	parsed, err := ParseAnyID(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// As coerces an erased identifier to kind K. The tags must match exactly.
func As[K Kind](a AnyID) (ID[K], error) {
	want := TagOf[K]()
	if a.Tag() != want {
		return ID[K]{}, fmt.Errorf("%w: identifier %s is not a %s", ErrTypeMismatch, a, want)
	}
	return ID[K]{value: a.value}, nil
}

// MustAs is As for call sites where a mismatch is a programming error.
func MustAs[K Kind](a AnyID) ID[K] {
	id, err := As[K](a)
	if err != nil {
		panic(err)
	}
	return id
}
