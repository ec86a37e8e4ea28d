package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"tablecraft/api/internal/aicontract"
	"tablecraft/api/internal/store"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)

// requireOwner resolves a node to its owning user and rejects anyone
// else. Unknown ids and foreign nodes both map to a 404.
func (s *Service) requireOwner(userID string, owner string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errNotFound()
	}
	if err != nil {
		return err
	}
	if owner != userID {
		return errNotFound()
	}
	return nil
}

// encodeProperties marshals an optional properties bag for storage. A
// nil bag means "leave the stored value alone"; an empty bag overwrites
// with {}.
func encodeProperties(properties store.Properties) (*string, error) {
	if properties == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(properties)
	if err != nil {
		return nil, err
	}
	value := string(encoded)
	return &value, nil
}

// ---- website ----

func (s *Service) CreateWebsite(ctx context.Context, session Session, subdomain *string) (store.Website, error) {
	restaurant, err := s.restaurantFor(ctx, session)
	if err != nil {
		return store.Website{}, err
	}

	if _, err := s.store.GetWebsiteByRestaurant(ctx, restaurant.ID); err == nil {
		return store.Website{}, errConflict("Website already exists for this restaurant")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return store.Website{}, err
	}

	if subdomain != nil {
		normalized := strings.ToLower(strings.TrimSpace(*subdomain))
		if !subdomainPattern.MatchString(normalized) {
			return store.Website{}, errValidation("subdomain must be lowercase letters, digits, and hyphens")
		}
		subdomain = &normalized
		if _, err := s.store.GetWebsiteBySubdomain(ctx, normalized); err == nil {
			return store.Website{}, errConflict("Subdomain is already taken")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return store.Website{}, err
		}
	}

	if _, err := s.store.CreateWebsiteWithDefaults(ctx, restaurant.ID, subdomain); err != nil {
		return store.Website{}, err
	}
	return s.store.GetWebsiteByRestaurant(ctx, restaurant.ID)
}

func (s *Service) GetWebsite(ctx context.Context, session Session) (store.Website, error) {
	restaurant, err := s.restaurantFor(ctx, session)
	if err != nil {
		return store.Website{}, err
	}
	website, err := s.store.GetWebsiteByRestaurant(ctx, restaurant.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Website{}, errNotFound()
	}
	if err != nil {
		return store.Website{}, err
	}
	return website, nil
}

// PublicSite serves the anonymous read path: the full content tree for
// a subdomain plus the restaurant's locations.
func (s *Service) PublicSite(ctx context.Context, subdomain string) (store.PublicSite, error) {
	website, err := s.store.GetWebsiteBySubdomain(ctx, strings.ToLower(strings.TrimSpace(subdomain)))
	if errors.Is(err, sql.ErrNoRows) {
		return store.PublicSite{}, errNotFound()
	}
	if err != nil {
		return store.PublicSite{}, err
	}
	locations, err := s.store.ListLocations(ctx, website.RestaurantID)
	if err != nil {
		return store.PublicSite{}, err
	}
	return store.PublicSite{Website: website, Locations: locations}, nil
}

// ---- pages ----

type PageInput struct {
	WebsiteID string  `json:"website_id"`
	Title     *string `json:"title"`
	Slug      *string `json:"slug"`
}

func (s *Service) CreatePage(ctx context.Context, session Session, input PageInput) (store.Page, error) {
	if input.Title == nil || strings.TrimSpace(*input.Title) == "" {
		return store.Page{}, errValidation("title is required")
	}
	if input.Slug == nil || strings.TrimSpace(*input.Slug) == "" {
		return store.Page{}, errValidation("slug is required")
	}

	owner, err := s.store.WebsiteOwner(ctx, input.WebsiteID)
	if err := s.requireOwner(session.UserID, owner, err); err != nil {
		return store.Page{}, err
	}

	return s.store.CreatePage(ctx, input.WebsiteID, strings.TrimSpace(*input.Title), strings.TrimSpace(*input.Slug))
}

func (s *Service) UpdatePage(ctx context.Context, session Session, pageID string, title, slug *string) error {
	owner, err := s.store.PageOwner(ctx, pageID)
	if err := s.requireOwner(session.UserID, owner, err); err != nil {
		return err
	}
	updated, err := s.store.UpdatePage(ctx, pageID, title, slug)
	if err != nil {
		return err
	}
	if !updated {
		return errNotFound()
	}
	return nil
}

func (s *Service) DeletePage(ctx context.Context, session Session, pageID string) error {
	owner, err := s.store.PageOwner(ctx, pageID)
	if err := s.requireOwner(session.UserID, owner, err); err != nil {
		return err
	}
	deleted, err := s.store.DeletePage(ctx, pageID)
	if err != nil {
		return err
	}
	if !deleted {
		return errNotFound()
	}
	return nil
}

// ---- sections ----

type SectionInput struct {
	PageID      string           `json:"page_id"`
	SectionType string           `json:"section_type"`
	Position    int              `json:"position"`
	Properties  store.Properties `json:"properties"`
}

func (s *Service) CreateSection(ctx context.Context, session Session, input SectionInput) (store.Section, error) {
	if strings.TrimSpace(input.SectionType) == "" {
		return store.Section{}, errValidation("section_type is required")
	}

	owner, err := s.store.PageOwner(ctx, input.PageID)
	if err := s.requireOwner(session.UserID, owner, err); err != nil {
		return store.Section{}, err
	}

	return s.store.CreateSection(ctx, store.Section{
		PageID:      input.PageID,
		SectionType: strings.TrimSpace(input.SectionType),
		Position:    input.Position,
		Properties:  input.Properties,
	})
}

func (s *Service) UpdateSection(ctx context.Context, session Session, sectionID string, position *int, properties store.Properties) error {
	owner, err := s.store.SectionOwner(ctx, sectionID)
	if err := s.requireOwner(session.UserID, owner, err); err != nil {
		return err
	}
	encoded, err := encodeProperties(properties)
	if err != nil {
		return err
	}
	updated, err := s.store.UpdateSection(ctx, sectionID, position, encoded)
	if err != nil {
		return err
	}
	if !updated {
		return errNotFound()
	}
	return nil
}

func (s *Service) DeleteSection(ctx context.Context, session Session, sectionID string) error {
	owner, err := s.store.SectionOwner(ctx, sectionID)
	if err := s.requireOwner(session.UserID, owner, err); err != nil {
		return err
	}
	deleted, err := s.store.DeleteSection(ctx, sectionID)
	if err != nil {
		return err
	}
	if !deleted {
		return errNotFound()
	}
	return nil
}

// ---- subsections ----

type SubsectionInput struct {
	SectionID  string           `json:"section_id"`
	Position   int              `json:"position"`
	Properties store.Properties `json:"properties"`
}

func (s *Service) CreateSubsection(ctx context.Context, session Session, input SubsectionInput) (store.Subsection, error) {
	owner, err := s.store.SectionOwner(ctx, input.SectionID)
	if err := s.requireOwner(session.UserID, owner, err); err != nil {
		return store.Subsection{}, err
	}

	return s.store.CreateSubsection(ctx, store.Subsection{
		SectionID:  input.SectionID,
		Position:   input.Position,
		Properties: input.Properties,
	})
}

func (s *Service) UpdateSubsection(ctx context.Context, session Session, subsectionID string, position *int, properties store.Properties) error {
	owner, err := s.store.SubsectionOwner(ctx, subsectionID)
	if err := s.requireOwner(session.UserID, owner, err); err != nil {
		return err
	}
	encoded, err := encodeProperties(properties)
	if err != nil {
		return err
	}
	updated, err := s.store.UpdateSubsection(ctx, subsectionID, position, encoded)
	if err != nil {
		return err
	}
	if !updated {
		return errNotFound()
	}
	return nil
}

func (s *Service) DeleteSubsection(ctx context.Context, session Session, subsectionID string) error {
	owner, err := s.store.SubsectionOwner(ctx, subsectionID)
	if err := s.requireOwner(session.UserID, owner, err); err != nil {
		return err
	}
	deleted, err := s.store.DeleteSubsection(ctx, subsectionID)
	if err != nil {
		return err
	}
	if !deleted {
		return errNotFound()
	}
	return nil
}

// ---- elements ----

type ElementInput struct {
	SubsectionID string           `json:"subsection_id"`
	ElementType  string           `json:"element_type"`
	Position     int              `json:"position"`
	Properties   store.Properties `json:"properties"`
	AiPayload    json.RawMessage  `json:"ai_payload"`
}

func (s *Service) CreateElement(ctx context.Context, session Session, input ElementInput) (store.Element, error) {
	if strings.TrimSpace(input.ElementType) == "" {
		return store.Element{}, errValidation("element_type is required")
	}
	if len(input.AiPayload) > 0 {
		if _, err := aicontract.Decode(input.AiPayload); err != nil {
			return store.Element{}, errValidation(err.Error())
		}
	}

	owner, err := s.store.SubsectionOwner(ctx, input.SubsectionID)
	if err := s.requireOwner(session.UserID, owner, err); err != nil {
		return store.Element{}, err
	}

	return s.store.CreateElement(ctx, store.Element{
		SubsectionID: input.SubsectionID,
		ElementType:  strings.TrimSpace(input.ElementType),
		Position:     input.Position,
		Properties:   input.Properties,
		AiPayload:    input.AiPayload,
	})
}

// UpdateElement replaces the supplied fields. Properties and ai_payload
// are independent: updating one never touches the other.
func (s *Service) UpdateElement(ctx context.Context, session Session, elementID string, position *int, properties store.Properties, aiPayload json.RawMessage) error {
	owner, err := s.store.ElementOwner(ctx, elementID)
	if err := s.requireOwner(session.UserID, owner, err); err != nil {
		return err
	}

	encoded, err := encodeProperties(properties)
	if err != nil {
		return err
	}

	var rawPayload *string
	if len(aiPayload) > 0 {
		if _, err := aicontract.Decode(aiPayload); err != nil {
			return errValidation(err.Error())
		}
		value := string(aiPayload)
		rawPayload = &value
	}

	updated, err := s.store.UpdateElement(ctx, elementID, position, encoded, rawPayload)
	if err != nil {
		return err
	}
	if !updated {
		return errNotFound()
	}
	return nil
}

func (s *Service) DeleteElement(ctx context.Context, session Session, elementID string) error {
	owner, err := s.store.ElementOwner(ctx, elementID)
	if err := s.requireOwner(session.UserID, owner, err); err != nil {
		return err
	}
	deleted, err := s.store.DeleteElement(ctx, elementID)
	if err != nil {
		return err
	}
	if !deleted {
		return errNotFound()
	}
	return nil
}

// ---- navbar ----

func (s *Service) UpdateNavbar(ctx context.Context, session Session, navbarID string, properties store.Properties) error {
	owner, err := s.store.NavbarOwner(ctx, navbarID)
	if err := s.requireOwner(session.UserID, owner, err); err != nil {
		return err
	}
	if properties == nil {
		properties = store.Properties{}
	}
	encoded, err := encodeProperties(properties)
	if err != nil {
		return err
	}
	updated, err := s.store.UpdateNavbarProperties(ctx, navbarID, *encoded)
	if err != nil {
		return err
	}
	if !updated {
		return errNotFound()
	}
	return nil
}

// UpdateNavbarItem renames the item and mirrors the change onto its
// page, keeping navbar text/link and page title/slug in step.
func (s *Service) UpdateNavbarItem(ctx context.Context, session Session, itemID string, text, linkURL *string, position *int) error {
	owner, err := s.store.NavbarItemOwner(ctx, itemID)
	if err := s.requireOwner(session.UserID, owner, err); err != nil {
		return err
	}
	if text != nil && strings.TrimSpace(*text) == "" {
		return errValidation("text must not be empty")
	}
	if linkURL != nil && strings.TrimSpace(*linkURL) == "" {
		return errValidation("link_url must not be empty")
	}
	updated, err := s.store.UpdateNavbarItem(ctx, itemID, text, linkURL, position)
	if err != nil {
		return err
	}
	if !updated {
		return errNotFound()
	}
	return nil
}

func (s *Service) DeleteNavbarItem(ctx context.Context, session Session, itemID string) error {
	owner, err := s.store.NavbarItemOwner(ctx, itemID)
	if err := s.requireOwner(session.UserID, owner, err); err != nil {
		return err
	}
	deleted, err := s.store.DeleteNavbarItem(ctx, itemID)
	if err != nil {
		return err
	}
	if !deleted {
		return errNotFound()
	}
	return nil
}

// ---- AI generation ----

type GenerateElementInput struct {
	Description  string `json:"description"`
	SubsectionID string `json:"subsection_id"`
}

type GenerateElementResult struct {
	Payload aicontract.Payload `json:"payload"`
	Element *store.Element     `json:"element,omitempty"`
}

// GenerateElement asks the AI backend for a payload. When a subsection
// is supplied the result is also attached to it as a new element.
func (s *Service) GenerateElement(ctx context.Context, session Session, input GenerateElementInput) (GenerateElementResult, error) {
	if s.generator == nil {
		return GenerateElementResult{}, domainError(http.StatusServiceUnavailable, "AI_UNAVAILABLE", "AI generation is not configured", nil)
	}
	if strings.TrimSpace(input.Description) == "" {
		return GenerateElementResult{}, errValidation("description is required")
	}
	if _, err := s.restaurantFor(ctx, session); err != nil {
		return GenerateElementResult{}, err
	}

	payload, err := s.generator.Generate(ctx, input.Description)
	if err != nil {
		return GenerateElementResult{}, domainError(http.StatusBadGateway, "AI_FAILED", "AI generation failed", nil)
	}

	result := GenerateElementResult{Payload: payload}

	if input.SubsectionID != "" {
		owner, err := s.store.SubsectionOwner(ctx, input.SubsectionID)
		if err := s.requireOwner(session.UserID, owner, err); err != nil {
			return GenerateElementResult{}, err
		}

		properties := store.Properties{}
		for key, value := range payload.Properties {
			properties[key] = value
		}
		element, err := s.store.CreateElement(ctx, store.Element{
			SubsectionID: input.SubsectionID,
			ElementType:  "ai",
			Properties:   properties,
			AiPayload:    payload.Raw,
		})
		if err != nil {
			return GenerateElementResult{}, err
		}
		result.Element = &element
	}

	return result, nil
}
