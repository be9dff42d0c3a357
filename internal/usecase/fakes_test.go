package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/proxypurple/commerce-api/internal/model"
	"github.com/proxypurple/commerce-api/internal/repository"
	"github.com/proxypurple/commerce-api/shared/provider"
)

// In-memory repository fakes. They honor the same contracts as the mongo
// implementations, mongo.ErrNoDocuments included, so the usecases under test
// cannot tell the difference.

func duplicateKeyError() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
}

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[string]*model.User
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		err := r.createErr
		r.createErr = nil
		return nil, err
	}

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return nil, duplicateKeyError()
		}
	}

	stored := *user
	stored.ID = bson.NewObjectID()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.users[stored.ID.Hex()] = &stored

	result := stored
	return &result, nil
}

func (r *fakeUserRepo) GetUser(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	result := *user
	return &result, nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			result := *user
			return &result, nil
		}
	}

	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) GetUserByGoogleID(_ context.Context, googleID string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.GoogleID != "" && user.GoogleID == googleID {
			result := *user
			return &result, nil
		}
	}

	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) UpdateUser(_ context.Context, id string, params repository.UpdateUserParams) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	if params.Email != nil {
		user.Email = *params.Email
	}
	if params.PasswordHash != nil {
		user.PasswordHash = *params.PasswordHash
	}
	if params.FirstName != nil {
		user.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		user.LastName = *params.LastName
	}
	if params.PhoneNumber != nil {
		user.PhoneNumber = *params.PhoneNumber
	}
	if params.Country != nil {
		user.Country = *params.Country
	}
	if params.City != nil {
		user.City = *params.City
	}
	if params.AddressLine1 != nil {
		user.AddressLine1 = *params.AddressLine1
	}
	if params.AddressLine2 != nil {
		user.AddressLine2 = *params.AddressLine2
	}
	if params.PostalCode != nil {
		user.PostalCode = *params.PostalCode
	}
	if params.GoogleID != nil {
		user.GoogleID = *params.GoogleID
	}
	if params.Verified != nil {
		user.Verified = *params.Verified
	}
	user.UpdatedAt = time.Now()

	result := *user
	return &result, nil
}

func (r *fakeUserRepo) ListUsers(_ context.Context, _ repository.FilterUsersParams) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]*model.User, 0, len(r.users))
	for _, user := range r.users {
		result := *user
		users = append(users, &result)
	}

	return users, nil
}

type fakeOTPRepo struct {
	mu    sync.Mutex
	codes map[string]*model.OneTimeCode
}

func newFakeOTPRepo() *fakeOTPRepo {
	return &fakeOTPRepo{codes: make(map[string]*model.OneTimeCode)}
}

func otpKey(email string, purpose model.OTPPurpose) string {
	return email + "|" + string(purpose)
}

func (r *fakeOTPRepo) CreateCode(_ context.Context, code *model.OneTimeCode) (*model.OneTimeCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *code
	stored.ID = bson.NewObjectID()
	r.codes[otpKey(code.Email, code.Purpose)] = &stored

	result := stored
	return &result, nil
}

func (r *fakeOTPRepo) GetCode(_ context.Context, email string, purpose model.OTPPurpose) (*model.OneTimeCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.codes[otpKey(email, purpose)]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	result := *code
	return &result, nil
}

func (r *fakeOTPRepo) DeleteCodes(_ context.Context, email string, purpose model.OTPPurpose) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.codes, otpKey(email, purpose))
	return nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions []*model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{}
}

func (r *fakeSessionRepo) CreateSession(_ context.Context, session *model.Session) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *session
	stored.ID = bson.NewObjectID()
	r.sessions = append(r.sessions, &stored)

	result := stored
	return &result, nil
}

func (r *fakeSessionRepo) ConsumeSession(_ context.Context, userID bson.ObjectID, tokenHash string, now time.Time) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, session := range r.sessions {
		if session.UserID == userID && session.TokenHash == tokenHash && session.ExpiresAt.After(now) {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			result := *session
			return &result, nil
		}
	}

	return nil, mongo.ErrNoDocuments
}

func (r *fakeSessionRepo) DeleteSession(_ context.Context, userID bson.ObjectID, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, session := range r.sessions {
		if session.UserID == userID && session.TokenHash == tokenHash {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			return nil
		}
	}

	return nil
}

func (r *fakeSessionRepo) DeleteSessionsByUserID(_ context.Context, userID bson.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.sessions[:0]
	for _, session := range r.sessions {
		if session.UserID != userID {
			kept = append(kept, session)
		}
	}
	r.sessions = kept

	return nil
}

func (r *fakeSessionRepo) count(userID bson.ObjectID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, session := range r.sessions {
		if session.UserID == userID {
			n++
		}
	}

	return n
}

type fakeCouponRepo struct {
	mu      sync.Mutex
	coupons map[string]*model.Coupon
}

func newFakeCouponRepo() *fakeCouponRepo {
	return &fakeCouponRepo{coupons: make(map[string]*model.Coupon)}
}

func (r *fakeCouponRepo) CreateCoupon(_ context.Context, coupon *model.Coupon) (*model.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.coupons[coupon.Code]; ok {
		return nil, duplicateKeyError()
	}

	stored := *coupon
	stored.ID = bson.NewObjectID()
	r.coupons[stored.Code] = &stored

	result := stored
	return &result, nil
}

func (r *fakeCouponRepo) GetCouponByCode(_ context.Context, code string) (*model.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	coupon, ok := r.coupons[code]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	result := *coupon
	return &result, nil
}

func (r *fakeCouponRepo) UpdateCoupon(_ context.Context, id string, params repository.UpdateCouponParams) (*model.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, coupon := range r.coupons {
		if coupon.ID.Hex() != id {
			continue
		}

		if params.DiscountType != nil {
			coupon.DiscountType = *params.DiscountType
		}
		if params.DiscountValue != nil {
			coupon.DiscountValue = *params.DiscountValue
		}
		if params.MinOrderAmount != nil {
			coupon.MinOrderAmount = *params.MinOrderAmount
		}
		if params.MaxDiscountAmount != nil {
			coupon.MaxDiscountAmount = params.MaxDiscountAmount
		}
		if params.ValidFrom != nil {
			coupon.ValidFrom = params.ValidFrom
		}
		if params.ValidUntil != nil {
			coupon.ValidUntil = params.ValidUntil
		}
		if params.UsageLimit != nil {
			coupon.UsageLimit = *params.UsageLimit
		}
		if params.IsActive != nil {
			coupon.IsActive = *params.IsActive
		}
		if params.Status != nil {
			coupon.Status = *params.Status
		}

		result := *coupon
		return &result, nil
	}

	return nil, mongo.ErrNoDocuments
}

func (r *fakeCouponRepo) DeleteCoupon(_ context.Context, id string) (*model.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for code, coupon := range r.coupons {
		if coupon.ID.Hex() == id {
			delete(r.coupons, code)
			result := *coupon
			return &result, nil
		}
	}

	return nil, mongo.ErrNoDocuments
}

func (r *fakeCouponRepo) ListCoupons(_ context.Context, _, _ uint64) ([]*model.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	coupons := make([]*model.Coupon, 0, len(r.coupons))
	for _, coupon := range r.coupons {
		result := *coupon
		coupons = append(coupons, &result)
	}

	return coupons, nil
}

func (r *fakeCouponRepo) ReserveUse(_ context.Context, code string) (*model.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	coupon, ok := r.coupons[code]
	if !ok || !coupon.IsActive || coupon.UsedCount >= coupon.UsageLimit {
		return nil, mongo.ErrNoDocuments
	}
	if coupon.ValidFrom != nil && coupon.ValidFrom.After(now) {
		return nil, mongo.ErrNoDocuments
	}
	if coupon.ValidUntil != nil && coupon.ValidUntil.Before(now) {
		return nil, mongo.ErrNoDocuments
	}

	coupon.UsedCount++

	result := *coupon
	return &result, nil
}

func (r *fakeCouponRepo) ReleaseUse(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	coupon, ok := r.coupons[code]
	if !ok || coupon.UsedCount == 0 {
		return nil
	}

	coupon.UsedCount--
	return nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[string]*model.Product)}
}

func (r *fakeProductRepo) CreateProduct(_ context.Context, product *model.Product) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *product
	stored.ID = bson.NewObjectID()
	r.products[stored.ID.Hex()] = &stored

	result := stored
	return &result, nil
}

func (r *fakeProductRepo) GetProduct(_ context.Context, id string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	result := *product
	return &result, nil
}

func (r *fakeProductRepo) UpdateProduct(_ context.Context, id string, params repository.UpdateProductParams) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	if params.Name != nil {
		product.Name = *params.Name
	}
	if params.Description != nil {
		product.Description = *params.Description
	}
	if params.Price != nil {
		product.Price = *params.Price
	}
	if params.Stock != nil {
		product.Stock = *params.Stock
	}
	if params.Category != nil {
		product.Category = *params.Category
	}
	if params.IsActive != nil {
		product.IsActive = *params.IsActive
	}

	result := *product
	return &result, nil
}

func (r *fakeProductRepo) DeleteProduct(_ context.Context, id string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	delete(r.products, id)

	result := *product
	return &result, nil
}

func (r *fakeProductRepo) ListProducts(_ context.Context, _ repository.FilterProductsParams) ([]*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	products := make([]*model.Product, 0, len(r.products))
	for _, product := range r.products {
		result := *product
		products = append(products, &result)
	}

	return products, nil
}

func (r *fakeProductRepo) AdjustStock(_ context.Context, id bson.ObjectID, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id.Hex()]
	if !ok || product.Stock+delta < 0 {
		return mongo.ErrNoDocuments
	}

	product.Stock += delta
	return nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*model.Order
	failAt int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*model.Order)}
}

func (r *fakeOrderRepo) CreateOrder(_ context.Context, order *model.Order) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failAt > 0 {
		r.failAt--
		if r.failAt == 0 {
			return nil, errors.New("write failed")
		}
	}

	stored := *order
	stored.ID = bson.NewObjectID()
	r.orders[stored.ID.Hex()] = &stored

	result := stored
	return &result, nil
}

func (r *fakeOrderRepo) GetOrder(_ context.Context, id string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	result := *order
	return &result, nil
}

func (r *fakeOrderRepo) ListOrders(_ context.Context, params repository.FilterOrdersParams) ([]*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders := make([]*model.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if params.UserID != nil && order.UserID != *params.UserID {
			continue
		}
		if params.Status != nil && order.Status != *params.Status {
			continue
		}
		result := *order
		orders = append(orders, &result)
	}

	return orders, nil
}

func (r *fakeOrderRepo) UpdateOrderStatus(_ context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	order.Status = status
	result := *order
	return &result, nil
}

type sentEmail struct {
	to      []string
	subject string
	body    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	fail bool
}

func (m *fakeMailer) SendHTMLContext(_ context.Context, to []string, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		return errors.New("smtp unavailable")
	}

	m.sent = append(m.sent, sentEmail{to: to, subject: subject, body: htmlBody})
	return nil
}

func (m *fakeMailer) lastSent() (sentEmail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sent) == 0 {
		return sentEmail{}, false
	}

	return m.sent[len(m.sent)-1], true
}

type fakeVerifier struct {
	identities map[string]*provider.ExternalIdentity
}

func (v *fakeVerifier) Verify(_ context.Context, idToken string) (*provider.ExternalIdentity, error) {
	identity, ok := v.identities[idToken]
	if !ok {
		return nil, provider.ErrInvalidExternalToken
	}
	if identity.Email == "" {
		return nil, provider.ErrEmailMissing
	}

	return identity, nil
}

// extractCode pulls the one-time code out of a delivered email body.
func extractCode(body string) string {
	const marker = `letter-spacing:4px">`
	idx := strings.Index(body, marker)
	if idx < 0 {
		return ""
	}

	rest := body[idx+len(marker):]
	end := strings.Index(rest, "<")
	if end < 0 {
		return ""
	}

	return strings.TrimSpace(rest[:end])
}
