package app

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"tablecraft/api/internal/aicontract"
	"tablecraft/api/internal/auth"
	"tablecraft/api/internal/authpw"
	"tablecraft/api/internal/config"
	"tablecraft/api/internal/email"
	"tablecraft/api/internal/store"
	"tablecraft/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	JTI          string
	ExpiresAt    time.Time
}

type dataStore interface {
	GetUserByID(ctx context.Context, userID string) (store.User, error)
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
	RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)

	GetRestaurantByUserID(ctx context.Context, userID string) (store.Restaurant, error)
	CreateRestaurant(ctx context.Context, restaurant store.Restaurant) (store.Restaurant, error)

	ListLocations(ctx context.Context, restaurantID string) ([]store.Location, error)
	GetLocation(ctx context.Context, locationID string) (store.Location, error)
	InsertLocation(ctx context.Context, location store.Location) (store.Location, error)
	UpdateLocation(ctx context.Context, location store.Location) error

	WebsiteOwner(ctx context.Context, websiteID string) (string, error)
	PageOwner(ctx context.Context, pageID string) (string, error)
	SectionOwner(ctx context.Context, sectionID string) (string, error)
	SubsectionOwner(ctx context.Context, subsectionID string) (string, error)
	ElementOwner(ctx context.Context, elementID string) (string, error)
	NavbarOwner(ctx context.Context, navbarID string) (string, error)
	NavbarItemOwner(ctx context.Context, itemID string) (string, error)

	CreateWebsiteWithDefaults(ctx context.Context, restaurantID string, subdomain *string) (string, error)
	GetWebsiteByRestaurant(ctx context.Context, restaurantID string) (store.Website, error)
	GetWebsiteBySubdomain(ctx context.Context, subdomain string) (store.Website, error)
	CreatePage(ctx context.Context, websiteID, title, slug string) (store.Page, error)
	UpdatePage(ctx context.Context, pageID string, title, slug *string) (bool, error)
	DeletePage(ctx context.Context, pageID string) (bool, error)
	CreateSection(ctx context.Context, section store.Section) (store.Section, error)
	UpdateSection(ctx context.Context, sectionID string, position *int, encodedProperties *string) (bool, error)
	DeleteSection(ctx context.Context, sectionID string) (bool, error)
	CreateSubsection(ctx context.Context, subsection store.Subsection) (store.Subsection, error)
	UpdateSubsection(ctx context.Context, subsectionID string, position *int, encodedProperties *string) (bool, error)
	DeleteSubsection(ctx context.Context, subsectionID string) (bool, error)
	CreateElement(ctx context.Context, element store.Element) (store.Element, error)
	UpdateElement(ctx context.Context, elementID string, position *int, encodedProperties, rawPayload *string) (bool, error)
	DeleteElement(ctx context.Context, elementID string) (bool, error)
	UpdateNavbarProperties(ctx context.Context, navbarID string, encodedProperties string) (bool, error)
	UpdateNavbarItem(ctx context.Context, itemID string, text, linkURL *string, position *int) (bool, error)
	DeleteNavbarItem(ctx context.Context, itemID string) (bool, error)

	Ping(ctx context.Context) error
}

// sessionStore holds refresh tokens. Redis in production, with the
// Postgres store standing in when Redis is not configured.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

// pgSessionStore adapts the relational store to the sessionStore shape.
type pgSessionStore struct {
	store dataStore
}

func (p pgSessionStore) SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error {
	return p.store.SaveRefreshSession(ctx, tokenHash, user.ID, expiresAt)
}

func (p pgSessionStore) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	return p.store.LookupRefreshSession(ctx, tokenHash)
}

func (p pgSessionStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	return p.store.RevokeRefreshSession(ctx, tokenHash)
}

// elementGenerator produces element payloads from a text description.
type elementGenerator interface {
	Generate(ctx context.Context, description string) (aicontract.Payload, error)
}

// imageStore persists uploaded images and returns their public URLs.
type imageStore interface {
	SaveImage(ctx context.Context, restaurantID, contentType string, body io.Reader, size int64) (string, error)
}

type Service struct {
	cfg       config.Config
	store     dataStore
	sessions  sessionStore
	authpw    *authpw.Service
	email     *email.Service
	generator elementGenerator
	images    imageStore
}

func New(cfg config.Config, dataStore *store.PostgresStore) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: pgSessionStore{store: dataStore},
		authpw:   authpw.NewService(dataStore),
	}
}

func NewWithSessionStore(cfg config.Config, dataStore *store.PostgresStore, sessions sessionStore) *Service {
	service := New(cfg, dataStore)
	service.sessions = sessions
	return service
}

func (s *Service) SetEmailService(email *email.Service) { s.email = email }

func (s *Service) SetElementGenerator(gen elementGenerator) { s.generator = gen }

func (s *Service) SetImageStore(images imageStore) { s.images = images }

func (s *Service) AuthPasswordService() *authpw.Service { return s.authpw }

func (s *Service) EmailService() *email.Service { return s.email }

func (s *Service) SMTPConfigured() bool {
	return s.email != nil && s.email.IsConfigured()
}

func (s *Service) PublicBaseURL() string { return s.cfg.PublicBaseURL }

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ---- sessions ----

func (s *Service) CreateSession(ctx context.Context, userID string) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.DisplayName,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// ---- restaurants ----

// restaurantFor resolves the caller's restaurant. Builder and location
// routes all start here; callers without a restaurant get a 404.
func (s *Service) restaurantFor(ctx context.Context, session Session) (store.Restaurant, error) {
	restaurant, err := s.store.GetRestaurantByUserID(ctx, session.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Restaurant{}, errNotFound()
	}
	if err != nil {
		return store.Restaurant{}, err
	}
	return restaurant, nil
}

func (s *Service) GetMyRestaurant(ctx context.Context, session Session) (store.Restaurant, error) {
	return s.restaurantFor(ctx, session)
}

func (s *Service) CreateRestaurant(ctx context.Context, session Session, name, ownerEmail string) (store.Restaurant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return store.Restaurant{}, errValidation("name is required")
	}

	if _, err := s.store.GetRestaurantByUserID(ctx, session.UserID); err == nil {
		return store.Restaurant{}, errConflict("Restaurant already exists for this account")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return store.Restaurant{}, err
	}

	return s.store.CreateRestaurant(ctx, store.Restaurant{
		UserID:     session.UserID,
		Name:       name,
		OwnerEmail: strings.TrimSpace(ownerEmail),
	})
}

// ---- locations ----

func (s *Service) ListLocations(ctx context.Context, session Session) ([]store.Location, error) {
	restaurant, err := s.restaurantFor(ctx, session)
	if err != nil {
		return nil, err
	}
	return s.store.ListLocations(ctx, restaurant.ID)
}

type LocationInput struct {
	LocationName      string `json:"location_name"`
	Address           string `json:"address"`
	PhoneNumber       string `json:"phone_number"`
	MapsLink          string `json:"maps_link"`
	DeliveryAvailable bool   `json:"delivery_available"`
	DineIn            bool   `json:"dine_in"`
}

func (s *Service) CreateLocation(ctx context.Context, session Session, input LocationInput) (store.Location, error) {
	if strings.TrimSpace(input.LocationName) == "" {
		return store.Location{}, errValidation("location_name is required")
	}
	restaurant, err := s.restaurantFor(ctx, session)
	if err != nil {
		return store.Location{}, err
	}
	return s.store.InsertLocation(ctx, store.Location{
		RestaurantID:      restaurant.ID,
		LocationName:      strings.TrimSpace(input.LocationName),
		Address:           input.Address,
		PhoneNumber:       input.PhoneNumber,
		MapsLink:          input.MapsLink,
		DeliveryAvailable: input.DeliveryAvailable,
		DineIn:            input.DineIn,
	})
}

func (s *Service) UpdateLocation(ctx context.Context, session Session, locationID string, input LocationInput) (store.Location, error) {
	if strings.TrimSpace(input.LocationName) == "" {
		return store.Location{}, errValidation("location_name is required")
	}
	restaurant, err := s.restaurantFor(ctx, session)
	if err != nil {
		return store.Location{}, err
	}

	existing, err := s.store.GetLocation(ctx, locationID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Location{}, errNotFound()
	}
	if err != nil {
		return store.Location{}, err
	}
	if existing.RestaurantID != restaurant.ID {
		return store.Location{}, errNotFound()
	}

	existing.LocationName = strings.TrimSpace(input.LocationName)
	existing.Address = input.Address
	existing.PhoneNumber = input.PhoneNumber
	existing.MapsLink = input.MapsLink
	existing.DeliveryAvailable = input.DeliveryAvailable
	existing.DineIn = input.DineIn

	if err := s.store.UpdateLocation(ctx, existing); err != nil {
		return store.Location{}, err
	}
	return existing, nil
}

// ---- uploads ----

func (s *Service) SaveImage(ctx context.Context, session Session, contentType string, body io.Reader, size int64) (string, error) {
	if s.images == nil {
		return "", domainError(http.StatusServiceUnavailable, "UPLOADS_UNAVAILABLE", "Image uploads are not configured", nil)
	}
	restaurant, err := s.restaurantFor(ctx, session)
	if err != nil {
		return "", err
	}
	url, err := s.images.SaveImage(ctx, restaurant.ID, contentType, body, size)
	if err != nil {
		if strings.Contains(err.Error(), "unsupported image type") {
			return "", errValidation(err.Error())
		}
		return "", err
	}
	return url, nil
}
