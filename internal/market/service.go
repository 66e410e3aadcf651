// Package market holds the ReWear marketplace: the user directory, the item
// catalog, the swap ledger and the settlement that moves points between them.
package market

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sahil-darj/Rewear/internal/models"
	"github.com/sahil-darj/Rewear/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MockPassword is the only password the mock login accepts.
const MockPassword = "password"

const (
	DefaultSignupGrant = 100
	DefaultAdminEmail  = "admin@rewear.com"
	MaxTags            = 5
	MaxImages          = 4
)

type Options struct {
	// SignupGrant is the starting balance of a new user. Nil means
	// DefaultSignupGrant; zero is a valid grant.
	SignupGrant *int
	// AdminEmail marks the account that signs up as administrator.
	AdminEmail string
	// AutoApprove lists new items as approved instead of pending.
	AutoApprove bool
	Logger      *zap.Logger
	Now         func() time.Time
	NewID       func() string
}

// Service serializes every read-modify-write on the marketplace behind one
// mutex and persists through the record store.
type Service struct {
	mu      sync.Mutex
	rec     store.Records
	users   *Directory
	catalog *Catalog
	swaps   *SwapLedger
	opts    Options
	log     *zap.Logger
	now     func() time.Time
	newID   func() string
}

func NewService(rec store.Records, opts Options) *Service {
	if opts.SignupGrant == nil {
		grant := DefaultSignupGrant
		opts.SignupGrant = &grant
	}
	if opts.AdminEmail == "" {
		opts.AdminEmail = DefaultAdminEmail
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.New().String() }
	}
	return &Service{
		rec:     rec,
		users:   NewDirectory(rec),
		catalog: NewCatalog(rec, opts.Now, opts.NewID),
		swaps:   NewSwapLedger(rec, opts.Now, opts.NewID),
		opts:    opts,
		log:     opts.Logger,
		now:     opts.Now,
		newID:   opts.NewID,
	}
}

// Load reads users, items and swap requests from the record store.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.users.Load(ctx); err != nil {
		return err
	}
	if err := s.catalog.Load(ctx); err != nil {
		return err
	}
	return s.swaps.Load(ctx)
}

// ---- Accounts ----

// Signup creates a user with the starting grant. It fails with
// ErrAlreadyExists when the email is already registered.
func (s *Service) Signup(ctx context.Context, email, password, name string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || name == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: email, password and name are required", ErrInvalidInput)
	}
	if _, ok := s.users.FindByEmail(email); ok {
		return models.User{}, ErrAlreadyExists
	}

	now := s.now().UTC()
	u := models.User{
		ID:         s.newID(),
		Email:      email,
		Name:       name,
		Points:     *s.opts.SignupGrant,
		IsAdmin:    email == normalizeEmail(s.opts.AdminEmail),
		JoinedDate: now,
	}
	next := s.users.rows.appended(u)
	err := s.rec.Update(ctx, func(tx store.Tx) error {
		if err := tx.Put(store.KeyUsers, next); err != nil {
			return err
		}
		return tx.AppendLedger(models.PointLedger{
			UserID:       u.ID,
			Change:       u.Points,
			BalanceAfter: u.Points,
			EventType:    models.EventSignupGrant,
			CreatedAt:    now,
		})
	})
	if err != nil {
		return models.User{}, fmt.Errorf("signup: %w", err)
	}
	s.users.rows.commit(next)
	s.log.Info("user signed up", zap.String("user_id", u.ID), zap.Bool("admin", u.IsAdmin))
	return u, nil
}

// Login succeeds iff a user with the email exists and password is
// MockPassword.
func (s *Service) Login(_ context.Context, email, password string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users.FindByEmail(email)
	if !ok || password != MockPassword {
		return models.User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) User(id string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users.Find(id)
}

func (s *Service) Users() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users.All()
}

// UpdateProfile changes a user's display name or avatar. Denormalized names
// on existing items and requests are not refreshed.
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch UserPatch) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users.Find(userID); !ok {
		return models.User{}, ErrNotFound
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return models.User{}, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		patch.Name = &name
	}
	if err := s.users.Update(ctx, userID, patch); err != nil {
		return models.User{}, err
	}
	u, _ := s.users.Find(userID)
	return u, nil
}

// Ledger returns the point history of userID.
func (s *Service) Ledger(ctx context.Context, userID string) ([]models.PointLedger, error) {
	return s.rec.Ledger(ctx, userID)
}

// ---- Catalog ----

// ItemInput is a listing submission before normalization.
type ItemInput struct {
	Title       string
	Description string
	Category    string
	Type        string
	Size        string
	Condition   models.Condition
	Tags        []string
	Images      []string
}

// ListItem validates in and adds it to the catalog on behalf of uploaderID.
func (s *Service) ListItem(ctx context.Context, uploaderID string, in ItemInput) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uploader, ok := s.users.Find(uploaderID)
	if !ok {
		return models.Item{}, ErrNotFound
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return models.Item{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Condition == "" {
		in.Condition = models.ConditionGood
	}
	if !in.Condition.Valid() {
		return models.Item{}, fmt.Errorf("%w: unknown condition %q", ErrInvalidInput, in.Condition)
	}
	tags, err := NormalizeTags(in.Tags)
	if err != nil {
		return models.Item{}, err
	}
	images, err := NormalizeImages(in.Images)
	if err != nil {
		return models.Item{}, err
	}

	status := models.ItemPending
	if s.opts.AutoApprove {
		status = models.ItemApproved
	}
	item, err := s.catalog.Add(ctx, NewItem{
		Title:        in.Title,
		Description:  strings.TrimSpace(in.Description),
		Category:     strings.TrimSpace(in.Category),
		Type:         strings.TrimSpace(in.Type),
		Size:         strings.TrimSpace(in.Size),
		Condition:    in.Condition,
		Tags:         tags,
		Images:       images,
		UploaderID:   uploader.ID,
		UploaderName: uploader.Name,
		Status:       status,
	})
	if err != nil {
		return models.Item{}, err
	}
	s.log.Info("item listed", zap.String("item_id", item.ID), zap.String("uploader_id", uploader.ID), zap.String("status", string(item.Status)))
	return item, nil
}

// EditItem applies an owner's changes to their listing. Moderation status and
// availability are not editable by owners.
func (s *Service) EditItem(ctx context.Context, actorID, itemID string, patch ItemPatch) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.catalog.Find(itemID)
	if !ok {
		return models.Item{}, ErrNotFound
	}
	if item.UploaderID != actorID {
		return models.Item{}, ErrNotOwner
	}
	patch.Status = nil
	patch.IsAvailable = nil
	if patch.Condition != nil && !patch.Condition.Valid() {
		return models.Item{}, fmt.Errorf("%w: unknown condition %q", ErrInvalidInput, *patch.Condition)
	}
	if patch.Tags != nil {
		tags, err := NormalizeTags(*patch.Tags)
		if err != nil {
			return models.Item{}, err
		}
		patch.Tags = &tags
	}
	if patch.Images != nil {
		images, err := NormalizeImages(*patch.Images)
		if err != nil {
			return models.Item{}, err
		}
		patch.Images = &images
	}
	if err := s.catalog.Update(ctx, itemID, patch); err != nil {
		return models.Item{}, err
	}
	item, _ = s.catalog.Find(itemID)
	return item, nil
}

// UpdateItem merges patch into an item without any ownership check. A missing
// id is silently ignored.
func (s *Service) UpdateItem(ctx context.Context, id string, patch ItemPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Update(ctx, id, patch)
}

func (s *Service) Item(id string) (models.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Find(id)
}

func (s *Service) Items() []models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.All()
}

func (s *Service) ItemsByUploader(userID string) []models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.ListByUploader(userID)
}

func (s *Service) Browse(f BrowseFilter) []models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Browse(f)
}

// ---- Swap requests ----

// RequestItem files a swap or points request from requesterID against an
// approved, available item the requester does not own. Points requests need a
// balance that covers the item's value at the time of the request.
func (s *Service) RequestItem(ctx context.Context, requesterID, itemID string, kind models.SwapKind, message string) (models.SwapRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kind != models.SwapKindSwap && kind != models.SwapKindPoints {
		return models.SwapRequest{}, fmt.Errorf("%w: unknown request type %q", ErrInvalidInput, kind)
	}
	requester, ok := s.users.Find(requesterID)
	if !ok {
		return models.SwapRequest{}, ErrNotFound
	}
	item, ok := s.catalog.Find(itemID)
	if !ok {
		return models.SwapRequest{}, ErrNotFound
	}
	if item.UploaderID == requester.ID {
		return models.SwapRequest{}, ErrOwnItem
	}
	if !item.IsAvailable || item.Status != models.ItemApproved {
		return models.SwapRequest{}, ErrUnavailable
	}
	if kind == models.SwapKindPoints && requester.Points < item.PointValue {
		return models.SwapRequest{}, ErrInsufficientPoints
	}

	req, err := s.swaps.Add(ctx, NewSwapRequest{
		RequesterID:   requester.ID,
		RequesterName: requester.Name,
		ItemID:        item.ID,
		ItemTitle:     item.Title,
		Type:          kind,
		Message:       strings.TrimSpace(message),
	})
	if err != nil {
		return models.SwapRequest{}, err
	}
	s.log.Info("swap requested", zap.String("request_id", req.ID), zap.String("item_id", item.ID), zap.String("type", string(kind)))
	return req, nil
}

// UpdateRequest merges patch into a swap request without any checks. A
// missing id is silently ignored.
func (s *Service) UpdateRequest(ctx context.Context, id string, patch SwapRequestPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.swaps.Update(ctx, id, patch)
}

func (s *Service) Request(id string) (models.SwapRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.swaps.Find(id)
}

// RequestsForUser returns requests userID made or received.
func (s *Service) RequestsForUser(userID string) []models.SwapRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.swaps.ListByUser(userID, s.catalog)
}

// AcceptRequest settles a pending request on behalf of the item owner. Users,
// items, requests and ledger entries are written in one store transaction; on
// failure nothing changes.
func (s *Service) AcceptRequest(ctx context.Context, actorID, requestID string) (Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.swaps.Find(requestID)
	if !ok {
		return Settlement{}, ErrNotFound
	}
	if req.Status != models.SwapPending {
		return Settlement{}, ErrNotPending
	}
	item, itemFound := s.catalog.Find(req.ItemID)
	if err := s.mayResolve(actorID, req, item, itemFound); err != nil {
		return Settlement{}, err
	}
	if itemFound && req.RequesterID == actorID {
		s.log.Warn("self-redemption settled without a transfer", zap.String("request_id", req.ID))
	}

	now := s.now().UTC()
	users, entries, result := settle(s.users.rows.rows, req, item, itemFound, actorID, now)

	completed := models.SwapCompleted
	requests, _ := s.swaps.rows.replaced(req.ID, SwapRequestPatch{Status: &completed}.apply)
	items := s.catalog.rows.rows
	if itemFound {
		unavailable := false
		items, _ = s.catalog.rows.replaced(item.ID, ItemPatch{IsAvailable: &unavailable}.apply)
	}

	err := s.rec.Update(ctx, func(tx store.Tx) error {
		if err := tx.Put(store.KeyUsers, users); err != nil {
			return err
		}
		if err := tx.Put(store.KeyItems, items); err != nil {
			return err
		}
		if err := tx.Put(store.KeySwapRequests, requests); err != nil {
			return err
		}
		return tx.AppendLedger(entries...)
	})
	if err != nil {
		return Settlement{}, fmt.Errorf("settle request %s: %w", req.ID, err)
	}

	s.users.rows.commit(users)
	s.catalog.rows.commit(items)
	s.swaps.rows.commit(requests)

	result.Request, _ = s.swaps.Find(req.ID)
	s.log.Info("swap settled",
		zap.String("request_id", req.ID),
		zap.String("type", string(req.Type)),
		zap.Bool("item_found", itemFound),
		zap.Int("debited", result.Debited),
		zap.Int("credited", result.Credited))
	return result, nil
}

// mayResolve reports whether actorID may accept or decline req. The item owner
// decides while the item exists; once it is gone only the requester or an
// administrator can close the request.
func (s *Service) mayResolve(actorID string, req models.SwapRequest, item models.Item, itemFound bool) error {
	if itemFound {
		if item.UploaderID != actorID {
			return ErrNotOwner
		}
		return nil
	}
	if actorID == req.RequesterID {
		return nil
	}
	if actor, ok := s.users.Find(actorID); ok && actor.IsAdmin {
		return nil
	}
	return ErrNotOwner
}

// DeclineRequest marks a pending request rejected on behalf of the item owner.
func (s *Service) DeclineRequest(ctx context.Context, actorID, requestID string) (models.SwapRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.swaps.Find(requestID)
	if !ok {
		return models.SwapRequest{}, ErrNotFound
	}
	if req.Status != models.SwapPending {
		return models.SwapRequest{}, ErrNotPending
	}
	item, itemFound := s.catalog.Find(req.ItemID)
	if err := s.mayResolve(actorID, req, item, itemFound); err != nil {
		return models.SwapRequest{}, err
	}
	rejected := models.SwapRejected
	if err := s.swaps.Update(ctx, req.ID, SwapRequestPatch{Status: &rejected}); err != nil {
		return models.SwapRequest{}, err
	}
	req, _ = s.swaps.Find(req.ID)
	return req, nil
}

// ---- Moderation ----

// Approve marks an item approved. A missing item is silently ignored.
func (s *Service) Approve(ctx context.Context, actorID, itemID string) error {
	status := models.ItemApproved
	return s.moderate(ctx, actorID, itemID, ItemPatch{Status: &status})
}

// Reject marks an item rejected and unavailable. A missing item is silently
// ignored.
func (s *Service) Reject(ctx context.Context, actorID, itemID string) error {
	status := models.ItemRejected
	unavailable := false
	return s.moderate(ctx, actorID, itemID, ItemPatch{Status: &status, IsAvailable: &unavailable})
}

func (s *Service) moderate(ctx context.Context, actorID, itemID string, patch ItemPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	actor, ok := s.users.Find(actorID)
	if !ok || !actor.IsAdmin {
		return ErrForbidden
	}
	if err := s.catalog.Update(ctx, itemID, patch); err != nil {
		return err
	}
	s.log.Info("item moderated", zap.String("item_id", itemID), zap.String("status", string(*patch.Status)))
	return nil
}

// ModerationQueue lists items with the given status, or every item when
// status is empty.
func (s *Service) ModerationQueue(status models.ItemStatus) []models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.ByStatus(status)
}

func (s *Service) Stats() ModerationStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Stats()
}
