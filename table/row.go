package table

import (
	"strings"

	"github.com/pkg/errors"
	"vqlite/column"
)

// Row is the engine's fixed schema: a 32-bit id and two bounded UTF-8
// strings. Generalizing to arbitrary columns is out of scope.
type Row struct {
	ID       uint32
	Username string
	Email    string
}

// Validation errors for input rows, checked before a row is ever
// serialized. These are the spec's "input error" category: recoverable,
// per-statement, and leave the engine state unchanged.
var (
	ErrUsernameTooLong = errors.New("table: username exceeds 32 bytes")
	ErrEmailTooLong    = errors.New("table: email exceeds 255 bytes")
	ErrContainsNUL     = errors.New("table: string contains a NUL byte")
)

// Validate checks r's field sizes and rejects embedded NUL bytes, which
// would be indistinguishable from zero-padding on disk.
func (r Row) Validate() error {
	if len(r.Username) > column.UsernameSize {
		return ErrUsernameTooLong
	}
	if len(r.Email) > column.EmailSize {
		return ErrEmailTooLong
	}
	if strings.ContainsRune(r.Username, 0) || strings.ContainsRune(r.Email, 0) {
		return ErrContainsNUL
	}
	return nil
}

// SerializeRow writes r into dst, which must be exactly column.RowSize
// bytes: the id, then the username zero-padded to column.UsernameSize,
// then the email zero-padded to column.EmailSize.
func SerializeRow(r Row, dst []byte) error {
	if len(dst) != column.RowSize {
		return errors.Errorf("table: serialize row: dst is %d bytes, want %d", len(dst), column.RowSize)
	}
	if err := r.Validate(); err != nil {
		return err
	}
	putLE32(dst[column.IDOffset:column.IDOffset+column.IDSize], r.ID)
	for i := range column.UsernameSize {
		dst[column.UsernameOffset+i] = 0
	}
	copy(dst[column.UsernameOffset:column.UsernameOffset+column.UsernameSize], r.Username)
	for i := range column.EmailSize {
		dst[column.EmailOffset+i] = 0
	}
	copy(dst[column.EmailOffset:column.EmailOffset+column.EmailSize], r.Email)
	return nil
}

// DeserializeRow reads a row from src, which must be exactly column.RowSize
// bytes. Each string field is trimmed at its last non-zero byte.
func DeserializeRow(src []byte) (Row, error) {
	if len(src) != column.RowSize {
		return Row{}, errors.Errorf("table: deserialize row: src is %d bytes, want %d", len(src), column.RowSize)
	}
	id := le32(src[column.IDOffset : column.IDOffset+column.IDSize])
	username := trimZeroPad(src[column.UsernameOffset : column.UsernameOffset+column.UsernameSize])
	email := trimZeroPad(src[column.EmailOffset : column.EmailOffset+column.EmailSize])
	return Row{ID: id, Username: username, Email: email}, nil
}

// trimZeroPad returns the prefix of b up to (not including) its trailing
// run of zero bytes.
func trimZeroPad(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}
