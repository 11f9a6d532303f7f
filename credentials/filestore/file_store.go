// Package filestore keeps credentials in a single file so a session survives process restarts.
// When a passphrase is configured the file is sealed with NaCl secretbox under a scrypt derived key.
package filestore

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-hms-client/credentials"
	hmserrors "github.com/jrsteele09/go-hms-client/internal/errors"
	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	saltLength  = 16
	nonceLength = 24
	keyLength   = 32
)

// magic prefixes a sealed file so a plain JSON file is never mistaken for ciphertext
var magic = []byte("HMS1")

var _ credentials.Store = (*Store)(nil)

type Store struct {
	path       string
	passphrase []byte
	lock       sync.Mutex
}

// New returns a store writing to path. An empty passphrase stores plain JSON.
func New(path, passphrase string) *Store {
	return &Store{path: path, passphrase: []byte(passphrase)}
}

func (s *Store) Load(_ context.Context) (*credentials.Credentials, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &credentials.Credentials{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[filestore.Load] read")
	}

	if len(s.passphrase) > 0 {
		if data, err = s.open(data); err != nil {
			return nil, err
		}
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, hmserrors.Wrapf(hmserrors.ErrCorruptStore, "[filestore.Load] %s", err.Error())
	}
	return credentials.FromValues(values)
}

func (s *Store) Save(_ context.Context, c *credentials.Credentials) error {
	values, err := c.Values()
	if err != nil {
		return err
	}
	data, err := json.Marshal(values)
	if err != nil {
		return errors.Wrap(err, "[filestore.Save] marshal")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if len(s.passphrase) > 0 {
		if data, err = s.seal(data); err != nil {
			return err
		}
	}
	return s.writeAtomic(data)
}

func (s *Store) Clear(_ context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[filestore.Clear] remove")
	}
	return nil
}

// writeAtomic replaces the file via rename so readers see the old or the new credentials, never a mix
func (s *Store) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "[filestore.writeAtomic] mkdir")
	}
	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return errors.Wrap(err, "[filestore.writeAtomic] create temp")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[filestore.writeAtomic] write")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[filestore.writeAtomic] chmod")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "[filestore.writeAtomic] close")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "[filestore.writeAtomic] rename")
}

func (s *Store) deriveKey(salt []byte) (*[keyLength]byte, error) {
	derived, err := scrypt.Key(s.passphrase, salt, 1<<15, 8, 1, keyLength)
	if err != nil {
		return nil, errors.Wrap(err, "[filestore.deriveKey] scrypt")
	}
	var key [keyLength]byte
	copy(key[:], derived)
	return &key, nil
}

// seal lays the file out as magic | salt | nonce | secretbox(plain)
func (s *Store) seal(plain []byte) ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, errors.Wrap(err, "[filestore.seal] salt")
	}
	var nonce [nonceLength]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, errors.Wrap(err, "[filestore.seal] nonce")
	}
	key, err := s.deriveKey(salt)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(magic)+saltLength+nonceLength+len(plain)+secretbox.Overhead)
	out = append(out, magic...)
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plain, &nonce, key), nil
}

func (s *Store) open(sealed []byte) ([]byte, error) {
	header := len(magic) + saltLength + nonceLength
	if len(sealed) < header+secretbox.Overhead || !bytes.HasPrefix(sealed, magic) {
		return nil, hmserrors.Wrapf(hmserrors.ErrCorruptStore, "[filestore.open] not a sealed credential file")
	}
	salt := sealed[len(magic) : len(magic)+saltLength]
	var nonce [nonceLength]byte
	copy(nonce[:], sealed[len(magic)+saltLength:header])

	key, err := s.deriveKey(salt)
	if err != nil {
		return nil, err
	}
	plain, ok := secretbox.Open(nil, sealed[header:], &nonce, key)
	if !ok {
		return nil, hmserrors.Wrapf(hmserrors.ErrCorruptStore, "[filestore.open] wrong passphrase or tampered file")
	}
	return plain, nil
}
