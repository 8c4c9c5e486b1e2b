package lofi

import (
	"crypto/sha1"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"image"
	"path/filepath"

	"github.com/bodgit/lofi/sound"
	_ "github.com/mattn/go-sqlite3"
)

// DigestDB records digests of degraded output so that later runs can be
// checked against them.
type DigestDB struct {
	db *sql.DB
}

// Digest is a single recorded entry.
type Digest struct {
	Path   string
	Config string
	SHA1   string
}

// Mismatch is a recorded entry that no longer reproduces.
type Mismatch struct {
	Digest
	Got string
	Err error
}

func (m Mismatch) String() string {
	if m.Err != nil {
		return fmt.Sprintf("%s: %v", m.Path, m.Err)
	}
	return fmt.Sprintf("%s: expected %s, got %s", m.Path, m.SHA1, m.Got)
}

// NewDigestDB opens, creating if necessary, the digest database in file.
func NewDigestDB(file string) (*DigestDB, error) {
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS digest (id INTEGER PRIMARY KEY NOT NULL, path TEXT NOT NULL UNIQUE, config TEXT NOT NULL, sha1 TEXT NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &DigestDB{
		db: db,
	}, nil
}

// Close closes the database.
func (db *DigestDB) Close() error {
	return db.db.Close()
}

// Add stores d, replacing any existing entry for the same path.
func (db *DigestDB) Add(d Digest) error {
	if _, err := db.db.Exec("INSERT OR REPLACE INTO digest (path, config, sha1) VALUES (?, ?, ?)", d.Path, d.Config, d.SHA1); err != nil {
		return err
	}
	return nil
}

// Remove deletes the entry for path, if any.
func (db *DigestDB) Remove(path string) error {
	if _, err := db.db.Exec("DELETE FROM digest WHERE path = ?", path); err != nil {
		return err
	}
	return nil
}

// Find returns the entry for path, or nil if there isn't one.
func (db *DigestDB) Find(path string) (*Digest, error) {
	d := Digest{Path: path}
	switch err := db.db.QueryRow("SELECT config, sha1 FROM digest WHERE path = ?", path).Scan(&d.Config, &d.SHA1); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return &d, nil
	default:
		return nil, err
	}
}

// Digests returns every entry ordered by path.
func (db *DigestDB) Digests() ([]Digest, error) {
	rows, err := db.db.Query("SELECT path, config, sha1 FROM digest ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var digests []Digest
	for rows.Next() {
		var d Digest
		if err := rows.Scan(&d.Path, &d.Config, &d.SHA1); err != nil {
			return nil, err
		}
		digests = append(digests, d)
	}

	return digests, rows.Err()
}

var errNoDigest = errors.New("lofi: file type cannot be digested")

// Digest degrades file in memory and returns the SHA-1 of the result.
func (l *Lofi) Digest(file string) (string, error) {
	h := sha1.New()

	switch {
	case isImage(file):
		if err := l.digestImage(h, file); err != nil {
			return "", err
		}
	case isCue(file):
		files, err := audioFilesFromCue(file)
		if err != nil {
			return "", fmt.Errorf("%s: %w", file, err)
		}
		for _, track := range files {
			if err := l.digestAudio(h, track); err != nil {
				return "", err
			}
		}
	default:
		if err := l.digestAudio(h, file); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("%X", h.Sum(nil)), nil
}

func (l *Lofi) digestImage(h hash.Hash, file string) error {
	m, err := decodeImage(file)
	if err != nil {
		return err
	}

	c, err := l.newConverter()
	if err != nil {
		return err
	}

	q, err := c.degradeImage(m)
	if err != nil {
		return err
	}
	if q == nil {
		q = new(image.NRGBA)
	}

	if err := binary.Write(h, binary.LittleEndian, [2]uint32{uint32(q.Rect.Dx()), uint32(q.Rect.Dy())}); err != nil {
		return err
	}
	_, err = h.Write(q.Pix)

	return err
}

func (l *Lofi) digestAudio(h hash.Hash, file string) error {
	if !sound.IsAudio(file) {
		return fmt.Errorf("%w: %s", errNoDigest, file)
	}

	b, err := l.decodeAudio(file)
	if err != nil {
		return err
	}

	if err := binary.Write(h, binary.LittleEndian, [2]uint32{uint32(b.SampleRate), uint32(b.NumChannels())}); err != nil {
		return err
	}
	for _, ch := range b.Channels {
		if err := binary.Write(h, binary.LittleEndian, ch); err != nil {
			return err
		}
	}

	return nil
}

// Record digests file and stores it in db along with the configuration.
func (l *Lofi) Record(db *DigestDB, file string) error {
	path, err := filepath.Abs(file)
	if err != nil {
		return err
	}

	sum, err := l.Digest(path)
	if err != nil {
		return err
	}

	if err := db.Add(Digest{Path: path, Config: l.config.String(), SHA1: sum}); err != nil {
		return err
	}
	l.logger.Printf("Recorded \"%s\" as %s\n", path, sum)

	return nil
}

// Verify recomputes every digest in db, each with the configuration it was
// recorded with, and returns those that no longer match.
func (l *Lofi) Verify(db *DigestDB) ([]Mismatch, error) {
	digests, err := db.Digests()
	if err != nil {
		return nil, err
	}

	var mismatches []Mismatch
	for _, d := range digests {
		config, err := ParseConfig(d.Config)
		if err != nil {
			mismatches = append(mismatches, Mismatch{Digest: d, Err: err})
			continue
		}

		r, err := New(config, l.logger)
		if err != nil {
			mismatches = append(mismatches, Mismatch{Digest: d, Err: err})
			continue
		}

		sum, err := r.Digest(d.Path)
		switch {
		case err != nil:
			mismatches = append(mismatches, Mismatch{Digest: d, Err: err})
		case sum != d.SHA1:
			mismatches = append(mismatches, Mismatch{Digest: d, Got: sum})
		default:
			l.logger.Printf("Verified \"%s\"\n", d.Path)
		}
	}

	return mismatches, nil
}
