package notty

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// UnknownComment is reported for saves whose descriptor is missing or has no comment.
const UnknownComment = "?"

// Save is a full copy of the working tree identified by its content hash.
type Save struct {
	Hash    ContentHash
	Path    string
	Comment string
	// DateCreated is in Unix seconds; zero means the creation date is unknown.
	DateCreated int64
}

// Created returns the creation time and whether it is known.
func (s *Save) Created() (time.Time, bool) {
	if s.DateCreated == 0 {
		return time.Time{}, false
	}
	return time.Unix(s.DateCreated, 0), true
}

// saveDescriptor is the JSON document stored as DescriptorFile inside each save.
type saveDescriptor struct {
	Comment     *string `json:"comment"`
	DateCreated *int64  `json:"date_created"`
}

func writeDescriptor(path, comment string, dateCreated int64) error {
	data, err := json.Marshal(saveDescriptor{Comment: &comment, DateCreated: &dateCreated})
	if err != nil {
		return fmt.Errorf("encoding save descriptor: %w", err)
	}
	return WriteFileAtomic(path, data, 0644)
}

var errCorruptDescriptor = errors.New("corrupt save descriptor")

// readDescriptor returns the comment and creation date stored in a descriptor.
// A missing file yields placeholder values. An unparsable file yields placeholder
// values together with an error wrapping errCorruptDescriptor.
func readDescriptor(path string) (comment string, dateCreated int64, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return UnknownComment, 0, nil
		}
		return "", 0, err
	}

	var d saveDescriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return UnknownComment, 0, fmt.Errorf("%w: %s: %v", errCorruptDescriptor, filepath.Base(path), err)
	}

	comment = UnknownComment
	if d.Comment != nil {
		comment = *d.Comment
	}
	if d.DateCreated != nil {
		dateCreated = *d.DateCreated
	}
	return comment, dateCreated, nil
}
