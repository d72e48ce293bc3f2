package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sumire/identity/internal/domain"
	"github.com/sumire/identity/internal/provider"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fakeUserStore struct {
	mu       sync.Mutex
	users    map[string]domain.User
	writes   int
	findErr  error
	writeFn  func(domain.User) error
	onCreate func(users map[string]domain.User)
}

func newFakeUserStore(users ...domain.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]domain.User)}
	for _, u := range users {
		s.users[u.Login] = u
	}
	return s
}

func (s *fakeUserStore) FindByLogin(_ context.Context, login string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	u, ok := s.users[login]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (s *fakeUserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) Create(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.onCreate != nil {
		s.onCreate(s.users)
	}
	if s.writeFn != nil {
		if err := s.writeFn(user); err != nil {
			return nil, err
		}
	}
	if _, ok := s.users[user.Login]; ok {
		return nil, domain.ErrConflict
	}
	s.users[user.Login] = user
	return &user, nil
}

func (s *fakeUserStore) Upsert(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.writeFn != nil {
		if err := s.writeFn(user); err != nil {
			return nil, err
		}
	}
	if existing, ok := s.users[user.Login]; ok && existing.ProviderType != user.ProviderType {
		return nil, domain.ErrIdentityConflict
	}
	s.users[user.Login] = user
	return &user, nil
}

func (s *fakeUserStore) get(login string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[login]
	return u, ok
}

type fakeProjectStore struct {
	mu       sync.Mutex
	projects map[string]domain.Project
	saves    int
	saveErr  error
	findErr  error
}

func newFakeProjectStore(projects ...domain.Project) *fakeProjectStore {
	s := &fakeProjectStore{projects: make(map[string]domain.Project)}
	for _, p := range projects {
		s.projects[p.ID] = p
	}
	return s
}

func (s *fakeProjectStore) FindPersonalProjectName(_ context.Context, login string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return "", s.findErr
	}
	for _, p := range s.projects {
		if p.OwnerLogin == login && p.Type == domain.ProjectTypePersonal {
			return p.ID, nil
		}
	}
	return "", domain.ErrNotFound
}

func (s *fakeProjectStore) Exists(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.projects[name]
	return ok, nil
}

func (s *fakeProjectStore) Save(_ context.Context, p domain.Project) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return "", s.saveErr
	}
	if _, ok := s.projects[p.ID]; ok {
		return "", domain.ErrConflict
	}
	s.saves++
	s.projects[p.ID] = p
	return p.ID, nil
}

type fakeBinaryStore struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	types     map[string]string
	deleted   []string
	seq       int
	storeErr  error
	deleteErr error
}

func newFakeBinaryStore() *fakeBinaryStore {
	return &fakeBinaryStore{blobs: make(map[string][]byte), types: make(map[string]string)}
}

func (s *fakeBinaryStore) Store(_ context.Context, data domain.BinaryData) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.storeErr != nil {
		return "", s.storeErr
	}
	b, err := io.ReadAll(data.Body)
	if err != nil {
		return "", err
	}
	s.seq++
	id := fmt.Sprintf("photo-%d", s.seq)
	s.blobs[id] = b
	s.types[id] = data.ContentType
	return id, nil
}

func (s *fakeBinaryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	delete(s.blobs, id)
	return nil
}

type fakeResource struct {
	contentType string
	data        []byte
}

type fakeClient struct {
	profile     *provider.Profile
	profileErr  error
	emails      []provider.Email
	emailsErr   error
	emailCalls  int
	resources   map[string]fakeResource
	downloadErr error
	orgs        []string
}

func (c *fakeClient) Profile(context.Context) (*provider.Profile, error) {
	if c.profileErr != nil {
		return nil, c.profileErr
	}
	p := *c.profile
	return &p, nil
}

func (c *fakeClient) VerifiedEmails(context.Context) ([]provider.Email, error) {
	c.emailCalls++
	return c.emails, c.emailsErr
}

func (c *fakeClient) DownloadResource(_ context.Context, ref string) (*provider.Resource, error) {
	if c.downloadErr != nil {
		return nil, c.downloadErr
	}
	r, ok := c.resources[ref]
	if !ok {
		return nil, errors.New("404 not found")
	}
	return &provider.Resource{
		ContentType: r.contentType,
		Length:      int64(len(r.data)),
		Body:        io.NopCloser(bytes.NewReader(r.data)),
	}, nil
}

func (c *fakeClient) Organizations(context.Context) ([]string, error) {
	return c.orgs, nil
}
