package media

import (
	"time"

	"github.com/google/uuid"
)

// Tag classifies an image within a session's gallery.
type Tag string

const (
	TagFront Tag = "front"
	TagSide  Tag = "side"
	TagBack  Tag = "back"
	TagOther Tag = "other"
)

// tagOrder is the display order for galleries. Classification output follows
// this order, so changing it changes what clients render.
var tagOrder = []Tag{TagFront, TagSide, TagBack, TagOther}

// Tags returns the closed tag enumeration in display order.
func Tags() []Tag {
	out := make([]Tag, len(tagOrder))
	copy(out, tagOrder)
	return out
}

func (t Tag) Valid() bool {
	for _, known := range tagOrder {
		if t == known {
			return true
		}
	}
	return false
}

// Image is an encrypted photograph attached to a clinical session. The two
// payload columns hold ciphertext only and are never serialized to clients.
type Image struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	SessionID          *uuid.UUID `db:"session_id" json:"session_id,omitempty"`
	Tag                Tag        `db:"tag" json:"tag"`
	EncryptedContent   []byte     `db:"encrypted_content" json:"-"`
	EncryptedThumbnail []byte     `db:"encrypted_thumbnail" json:"-"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
}
