package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/inventory-backend/internal/db"
	"github.com/example/inventory-backend/internal/models"
)

// memProductRepo is an in-memory db.ProductRepository.
type memProductRepo struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[int64]models.Product
	failErr error
	writes  int
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{rows: map[int64]models.Product{}}
}

func (r *memProductRepo) Create(_ context.Context, in models.NewProduct) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	r.nextID++
	now := time.Now()
	p := models.Product{ID: r.nextID, Name: in.Name, Price: in.Price, Stock: in.Stock, CreatedAt: now, UpdatedAt: now}
	r.rows[p.ID] = p
	r.writes++
	return &p, nil
}

func (r *memProductRepo) List(context.Context) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Product, 0, len(r.rows))
	for _, p := range r.rows {
		out = append(out, p)
	}
	return out, nil
}

func (r *memProductRepo) GetByID(_ context.Context, id int64) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, db.ErrNotFound)
	}
	return &p, nil
}

func (r *memProductRepo) Update(_ context.Context, id int64, patch models.ProductPatch) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, db.ErrNotFound)
	}
	if patch.IsEmpty() {
		return &p, nil
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	p.UpdatedAt = time.Now()
	r.rows[id] = p
	r.writes++
	return &p, nil
}

func (r *memProductRepo) Delete(_ context.Context, id int64) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, db.ErrNotFound)
	}
	delete(r.rows, id)
	r.writes++
	return &p, nil
}

// capturePublisher records published events.
type capturePublisher struct {
	mu     sync.Mutex
	events []models.ProductEvent
	refuse bool
}

func (p *capturePublisher) Publish(event models.ProductEvent) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refuse {
		return false
	}
	p.events = append(p.events, event)
	return true
}

func (p *capturePublisher) published() []models.ProductEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.ProductEvent(nil), p.events...)
}

// fakeIdentity is an in-memory IdentityProvider.
type fakeIdentity struct {
	byUID     map[string]*models.IdentityRecord
	tokens    map[string]string // id token -> uid
	createErr error
	tokenErr  error
	deleteErr error
	deleted   []string
	updates   []string
	nextUID   int

	// profileName is the provider's own display name, used when none is sent.
	profileName string
	// afterUpdate and afterDelete run once the provider call succeeded.
	afterUpdate func()
	afterDelete func()
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{byUID: map[string]*models.IdentityRecord{}, tokens: map[string]string{}}
}

func (f *fakeIdentity) CreateUser(_ context.Context, email, _ string, displayName *string) (*models.IdentityRecord, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, r := range f.byUID {
		if r.Email == email {
			return nil, ErrEmailTaken
		}
	}
	f.nextUID++
	rec := &models.IdentityRecord{UID: fmt.Sprintf("uid-%d", f.nextUID), Email: email}
	if displayName != nil {
		rec.DisplayName = *displayName
	} else {
		rec.DisplayName = f.profileName
	}
	f.byUID[rec.UID] = rec
	return rec, nil
}

func (f *fakeIdentity) GetUserByEmail(_ context.Context, email string) (*models.IdentityRecord, error) {
	for _, r := range f.byUID {
		if r.Email == email {
			return r, nil
		}
	}
	return nil, ErrIdentityNotFound
}

func (f *fakeIdentity) CustomToken(_ context.Context, uid string) (string, error) {
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	return "custom-" + uid, nil
}

func (f *fakeIdentity) VerifyIDToken(_ context.Context, idToken string) (string, error) {
	uid, ok := f.tokens[idToken]
	if !ok {
		return "", fmt.Errorf("token rejected")
	}
	return uid, nil
}

func (f *fakeIdentity) UpdateUser(_ context.Context, uid string, _, _ *string) error {
	f.updates = append(f.updates, uid)
	if f.afterUpdate != nil {
		f.afterUpdate()
	}
	return nil
}

func (f *fakeIdentity) DeleteUser(_ context.Context, uid string) error {
	f.deleted = append(f.deleted, uid)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.byUID[uid]; !ok {
		return ErrIdentityNotFound
	}
	delete(f.byUID, uid)
	if f.afterDelete != nil {
		f.afterDelete()
	}
	return nil
}

// memUserRepo is an in-memory db.UserRepository.
type memUserRepo struct {
	nextID    int64
	rows      map[int64]models.User
	createErr error
	touched   int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{rows: map[int64]models.User{}}
}

func (r *memUserRepo) Create(_ context.Context, in models.NewUser) (*models.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	u := models.User{
		ID: r.nextID, FirebaseUID: in.FirebaseUID, Email: in.Email, Username: in.Username,
		PhotoURL: in.PhotoURL, EmailVerifiedAt: in.EmailVerifiedAt, Status: in.Status,
	}
	r.rows[u.ID] = u
	return &u, nil
}

func (r *memUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, db.ErrNotFound)
	}
	return &u, nil
}

func (r *memUserRepo) GetByFirebaseUID(_ context.Context, uid string) (*models.User, error) {
	for _, u := range r.rows {
		if u.FirebaseUID == uid {
			u := u
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", uid, db.ErrNotFound)
}

func (r *memUserRepo) TouchLogin(ctx context.Context, uid string) (*models.User, error) {
	u, err := r.GetByFirebaseUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	r.touched++
	return u, nil
}

func (r *memUserRepo) Update(_ context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	u, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, db.ErrNotFound)
	}
	if patch.Username != nil {
		u.Username = patch.Username
	}
	if patch.PhotoURL != nil {
		u.PhotoURL = patch.PhotoURL
	}
	if patch.Status != nil {
		u.Status = *patch.Status
	}
	r.rows[id] = u
	return &u, nil
}

func (r *memUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.rows[id]; !ok {
		return fmt.Errorf("user %d: %w", id, db.ErrNotFound)
	}
	delete(r.rows, id)
	return nil
}
