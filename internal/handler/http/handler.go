package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/service"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/storage"
	apperrors "github.com/OmSonawane4/Roxiler-Assignment/pkg/errors"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/httputil"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/middleware"
)

// UserService is the subset of *service.UserService used by the auth and
// user handlers.
type UserService interface {
	Register(ctx context.Context, input service.RegisterInput) (*domain.AuthResult, error)
	Login(ctx context.Context, input service.LoginInput) (*domain.AuthResult, error)
	GetProfile(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, input service.UpdateProfileInput) (*domain.User, error)
	ChangePassword(ctx context.Context, id, current, next string) error
	CreateUser(ctx context.Context, p domain.Principal, input service.CreateUserInput) (*domain.User, error)
	ListUsers(ctx context.Context, p domain.Principal, filter domain.UserFilter, page, perPage int) ([]domain.User, int, error)
	DeleteUser(ctx context.Context, p domain.Principal, id string) error
}

// StoreService is the subset of *service.StoreService used by StoreHandler.
type StoreService interface {
	CreateStore(ctx context.Context, p domain.Principal, input service.CreateStoreInput) (*domain.Store, error)
	GetStore(ctx context.Context, id string) (*domain.Store, error)
	ListStores(ctx context.Context, filter domain.StoreFilter, page, perPage int) ([]domain.Store, int, error)
	ListByOwner(ctx context.Context, ownerID string, page, perPage int) ([]domain.Store, int, error)
	UpdateStore(ctx context.Context, p domain.Principal, id string, input service.UpdateStoreInput) (*domain.Store, error)
	DeleteStore(ctx context.Context, p domain.Principal, id string) error
	Search(ctx context.Context, query domain.StoreSearchQuery) (*domain.StoreSearchResult, error)
}

// RatingService is the subset of *service.RatingService used by RatingHandler.
type RatingService interface {
	Submit(ctx context.Context, p domain.Principal, input service.RatingInput) (*domain.WriteResult, error)
	Upsert(ctx context.Context, p domain.Principal, input service.RatingInput) (*domain.UpsertResult, error)
	Update(ctx context.Context, p domain.Principal, id string, patch domain.RatingPatch) (*domain.WriteResult, error)
	Delete(ctx context.Context, p domain.Principal, id string) error
	GetRating(ctx context.Context, id string) (*domain.Rating, error)
	ListByStore(ctx context.Context, storeID string, page, perPage int) ([]domain.Rating, int, error)
	ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Rating, int, error)
	Stats(ctx context.Context, storeID string) (*domain.RatingStats, error)
	MarkHelpful(ctx context.Context, p domain.Principal, ratingID string) (*domain.HelpfulResult, error)
	UnmarkHelpful(ctx context.Context, p domain.Principal, ratingID string) (*domain.HelpfulResult, error)
}

// DashboardService is the subset of *service.DashboardService used by
// DashboardHandler.
type DashboardService interface {
	Admin(ctx context.Context, p domain.Principal) (*domain.AdminDashboard, error)
	Owner(ctx context.Context, p domain.Principal) (*domain.OwnerDashboard, error)
	Customer(ctx context.Context, p domain.Principal) (*domain.CustomerDashboard, error)
}

// PhotoService is the subset of *service.PhotoService used by PhotoHandler.
type PhotoService interface {
	Upload(ctx context.Context, p domain.Principal, input service.UploadPhotoInput) (*storage.UploadResult, error)
}

// principalFromClaims converts token claims into a domain principal.
func principalFromClaims(c *middleware.Claims) domain.Principal {
	return domain.Principal{ID: c.UserID, Role: domain.Role(c.Role)}
}

// principal returns the authenticated caller. When the request carries no
// claims a 401 is written and ok is false.
func principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Status:  httputil.StatusError,
			Code:    apperrors.CodeUnauthorized,
			Message: "authentication required",
		})
		return domain.Principal{}, false
	}
	return principalFromClaims(claims), true
}

// requireCapability admits only callers whose role grants c.
func requireCapability(c domain.Capability) func(http.Handler) http.Handler {
	return middleware.Authorize(func(claims *middleware.Claims) bool {
		return domain.Can(principalFromClaims(claims), c)
	})
}

// sortParams reads ?sort_by= and ?order=. Any order other than "desc" is
// ascending.
func sortParams(r *http.Request) (string, bool) {
	q := r.URL.Query()
	return strings.TrimSpace(q.Get("sort_by")), strings.EqualFold(q.Get("order"), "desc")
}

// parseSentiment converts an optional request field.
func parseSentiment(s *string) (*domain.Sentiment, error) {
	if s == nil {
		return nil, nil
	}
	v, err := domain.ParseSentiment(*s)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	return &v, nil
}

// queryBool parses a boolean query parameter, returning def when absent.
func queryBool(r *http.Request, name string, def bool) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperrors.InvalidInput(name + " must be a boolean")
	}
	return b, nil
}
