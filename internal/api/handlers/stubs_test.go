package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cvisual/server/internal/domain/blog"
	"github.com/cvisual/server/internal/domain/contact"
	"github.com/cvisual/server/internal/domain/content"
	"github.com/cvisual/server/internal/domain/newsletter"
	"github.com/cvisual/server/internal/domain/offerings"
	"github.com/cvisual/server/internal/domain/projects"
	"github.com/cvisual/server/internal/domain/users"
	"github.com/cvisual/server/internal/media"
	"github.com/google/uuid"
)

type stubProjectRepo struct {
	mu    sync.Mutex
	items map[string]projects.Project
}

func newStubProjectRepo() *stubProjectRepo {
	return &stubProjectRepo{items: map[string]projects.Project{}}
}

func (s *stubProjectRepo) List(_ context.Context, filters projects.Filters) ([]projects.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []projects.Project
	for _, p := range s.items {
		if filters.Status != nil && p.Status != *filters.Status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *stubProjectRepo) GetByID(_ context.Context, id string) (*projects.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id]
	if !ok {
		return nil, projects.ErrNotFound
	}
	return &p, nil
}

func (s *stubProjectRepo) Create(_ context.Context, project projects.Project) (*projects.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	project.ID = uuid.NewString()
	project.CreatedAt = time.Now().UTC()
	project.UpdatedAt = project.CreatedAt
	s.items[project.ID] = project
	return &project, nil
}

func (s *stubProjectRepo) Update(_ context.Context, id string, mutate func(*projects.Project) error) (*projects.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id]
	if !ok {
		return nil, projects.ErrNotFound
	}
	if err := mutate(&p); err != nil {
		return nil, err
	}
	s.items[id] = p
	return &p, nil
}

func (s *stubProjectRepo) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return projects.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *stubProjectRepo) AddImages(_ context.Context, id string, images []projects.Image) (*projects.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id]
	if !ok {
		return nil, projects.ErrNotFound
	}
	p.Gallery = append(p.Gallery, images...)
	s.items[id] = p
	return &p, nil
}

func (s *stubProjectRepo) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// stubMedia fails every file whose name is listed in fail.
type stubMedia struct {
	mu      sync.Mutex
	fail    map[string]bool
	deleted []string
}

func (s *stubMedia) Upload(_ context.Context, file media.File, _ string) (media.Asset, error) {
	if s.fail[file.Filename] {
		return media.Asset{}, &media.UploadError{Filename: file.Filename, Message: "quota exceeded", Err: media.ErrUploadFailed}
	}
	return media.Asset{URL: "https://cdn.example/" + file.Filename, PublicID: "cvisual/" + file.Filename}, nil
}

func (s *stubMedia) UploadBatch(ctx context.Context, files []media.File, folder string) []media.Result {
	results := make([]media.Result, len(files))
	for i, file := range files {
		asset, err := s.Upload(ctx, file, folder)
		results[i] = media.Result{Filename: file.Filename, Err: err}
		if err == nil {
			results[i].Asset = &asset
		}
	}
	return results
}

func (s *stubMedia) Delete(_ context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, publicID)
	return nil
}

type stubBlogRepo struct {
	mu    sync.Mutex
	posts map[string]blog.Post
}

func newStubBlogRepo() *stubBlogRepo {
	return &stubBlogRepo{posts: map[string]blog.Post{}}
}

func (s *stubBlogRepo) List(_ context.Context, filters blog.Filters) ([]blog.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []blog.Post
	for _, p := range s.posts {
		if filters.Status != nil && p.Status != *filters.Status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *stubBlogRepo) GetByID(_ context.Context, id string) (*blog.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, blog.ErrNotFound
	}
	return &p, nil
}

func (s *stubBlogRepo) ViewBySlug(_ context.Context, slug string, status *content.Status) (*blog.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.posts {
		if p.Slug != slug || (status != nil && p.Status != *status) {
			continue
		}
		p.ViewsCount++
		s.posts[id] = p
		return &p, nil
	}
	return nil, blog.ErrNotFound
}

func (s *stubBlogRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubBlogRepo) Create(_ context.Context, post blog.Post) (*blog.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Same width as blog_posts.slug.
	if len(post.Slug) > 255 {
		return nil, errors.New("value too long for type character varying(255)")
	}
	for _, p := range s.posts {
		if p.Slug == post.Slug {
			return nil, blog.ErrSlugTaken
		}
	}
	post.ID = uuid.NewString()
	post.CreatedAt = time.Now().UTC()
	post.UpdatedAt = post.CreatedAt
	s.posts[post.ID] = post
	return &post, nil
}

func (s *stubBlogRepo) Update(_ context.Context, id string, mutate func(*blog.Post) error) (*blog.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, blog.ErrNotFound
	}
	if err := mutate(&p); err != nil {
		return nil, err
	}
	for otherID, other := range s.posts {
		if otherID != id && other.Slug == p.Slug {
			return nil, blog.ErrSlugTaken
		}
	}
	s.posts[id] = p
	return &p, nil
}

func (s *stubBlogRepo) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return blog.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

type stubOfferingRepo struct {
	mu    sync.Mutex
	items map[string]offerings.Offering
}

func newStubOfferingRepo() *stubOfferingRepo {
	return &stubOfferingRepo{items: map[string]offerings.Offering{}}
}

func (s *stubOfferingRepo) List(_ context.Context, filters offerings.Filters) ([]offerings.Offering, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []offerings.Offering
	for _, o := range s.items {
		if filters.Active != nil && o.IsActive != *filters.Active {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *stubOfferingRepo) GetByID(_ context.Context, id string) (*offerings.Offering, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.items[id]
	if !ok {
		return nil, offerings.ErrNotFound
	}
	return &o, nil
}

func (s *stubOfferingRepo) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items), nil
}

func (s *stubOfferingRepo) Create(_ context.Context, offering offerings.Offering) (*offerings.Offering, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offering.ID = uuid.NewString()
	s.items[offering.ID] = offering
	return &offering, nil
}

func (s *stubOfferingRepo) Update(_ context.Context, id string, mutate func(*offerings.Offering) error) (*offerings.Offering, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.items[id]
	if !ok {
		return nil, offerings.ErrNotFound
	}
	if err := mutate(&o); err != nil {
		return nil, err
	}
	s.items[id] = o
	return &o, nil
}

func (s *stubOfferingRepo) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return offerings.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

type stubContactRepo struct {
	mu       sync.Mutex
	messages map[string]contact.Message
}

func newStubContactRepo() *stubContactRepo {
	return &stubContactRepo{messages: map[string]contact.Message{}}
}

func (s *stubContactRepo) Create(_ context.Context, message contact.Message) (*contact.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	message.ID = uuid.NewString()
	message.CreatedAt = time.Now().UTC()
	s.messages[message.ID] = message
	return &message, nil
}

func (s *stubContactRepo) List(_ context.Context, filters contact.Filters) ([]contact.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []contact.Message
	for _, m := range s.messages {
		if filters.Status != nil && m.Status != *filters.Status {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *stubContactRepo) GetByID(_ context.Context, id string) (*contact.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, contact.ErrNotFound
	}
	return &m, nil
}

func (s *stubContactRepo) Update(_ context.Context, id string, mutate func(*contact.Message) error) (*contact.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, contact.ErrNotFound
	}
	if err := mutate(&m); err != nil {
		return nil, err
	}
	s.messages[id] = m
	return &m, nil
}

func (s *stubContactRepo) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[id]; !ok {
		return contact.ErrNotFound
	}
	delete(s.messages, id)
	return nil
}

func (s *stubContactRepo) Stats(context.Context) (contact.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats contact.Stats
	for _, m := range s.messages {
		stats.Total++
		switch m.Status {
		case contact.StatusNew:
			stats.New++
		case contact.StatusRead:
			stats.Read++
		case contact.StatusReplied:
			stats.Replied++
		case contact.StatusArchived:
			stats.Archived++
		}
	}
	return stats, nil
}

func (s *stubContactRepo) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

type stubNewsletterRepo struct {
	mu          sync.Mutex
	subscribers []newsletter.Subscriber
}

func (s *stubNewsletterRepo) Subscribe(_ context.Context, email string) (*newsletter.Subscriber, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subscribers {
		if sub.Email == email {
			return &sub, false, nil
		}
	}
	sub := newsletter.Subscriber{ID: uuid.NewString(), Email: email, CreatedAt: time.Now().UTC()}
	s.subscribers = append(s.subscribers, sub)
	return &sub, true, nil
}

func (s *stubNewsletterRepo) List(_ context.Context, limit int) ([]newsletter.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]newsletter.Subscriber(nil), s.subscribers...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubNewsletterRepo) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers), nil
}

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]users.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: map[string]users.User{}}
}

func (s *stubUserRepo) GetByLogin(_ context.Context, login string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == login || u.Email == login {
			return &u, nil
		}
	}
	return nil, users.ErrUserNotFound
}

func (s *stubUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return &u, nil
}

func (s *stubUserRepo) Create(_ context.Context, user users.User) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return nil, users.ErrUsernameTaken
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	s.users[user.ID] = user
	return &user, nil
}

func (s *stubUserRepo) TouchLastLogin(context.Context, string, time.Time) error {
	return nil
}
