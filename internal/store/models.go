package store

import (
	"encoding/json"
	"time"
)

type User struct {
	ID                    string
	DisplayName           string
	Email                 string
	PasswordHash          string
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type Restaurant struct {
	ID         string    `json:"restaurant_id"`
	UserID     string    `json:"-"`
	Name       string    `json:"name"`
	OwnerEmail string    `json:"owner_email"`
	CreatedAt  time.Time `json:"created_at"`
}

type Location struct {
	ID                string    `json:"location_id"`
	RestaurantID      string    `json:"restaurant_id"`
	LocationName      string    `json:"location_name"`
	Address           string    `json:"address"`
	PhoneNumber       string    `json:"phone_number"`
	MapsLink          string    `json:"maps_link"`
	DeliveryAvailable bool      `json:"delivery_available"`
	DineIn            bool      `json:"dine_in"`
	CreatedAt         time.Time `json:"created_at"`
}

// Properties is the opaque per-node JSON bag. The store never interprets
// its keys; updates replace the whole value rather than merging.
type Properties map[string]any

type Website struct {
	ID           string  `json:"website_id"`
	RestaurantID string  `json:"restaurant_id"`
	Subdomain    *string `json:"subdomain"`
	Pages        []Page  `json:"pages"`
	Navbar       *Navbar `json:"navbar"`
}

type Page struct {
	ID        string    `json:"page_id"`
	WebsiteID string    `json:"-"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Sections  []Section `json:"sections"`
}

type Section struct {
	ID          string       `json:"section_id"`
	PageID      string       `json:"-"`
	SectionType string       `json:"section_type"`
	Position    int          `json:"position"`
	Properties  Properties   `json:"properties"`
	Subsections []Subsection `json:"subsections"`
}

type Subsection struct {
	ID         string     `json:"subsection_id"`
	SectionID  string     `json:"-"`
	Position   int        `json:"position"`
	Properties Properties `json:"properties"`
	Elements   []Element  `json:"elements"`
}

// Element carries its AiPayload as raw JSON end to end: the generator's
// bytes go into a json column and come back unmodified.
type Element struct {
	ID           string          `json:"element_id"`
	SubsectionID string          `json:"-"`
	ElementType  string          `json:"element_type"`
	Position     int             `json:"position"`
	Properties   Properties      `json:"properties"`
	AiPayload    json.RawMessage `json:"ai_payload,omitempty"`
}

type Navbar struct {
	ID         string       `json:"navbar_id"`
	WebsiteID  string       `json:"-"`
	Properties Properties   `json:"properties"`
	Items      []NavbarItem `json:"items"`
}

type NavbarItem struct {
	ID       string  `json:"item_id"`
	NavbarID string  `json:"-"`
	PageID   *string `json:"-"`
	Text     string  `json:"text"`
	LinkURL  string  `json:"link_url"`
	Position int     `json:"position"`
}

// PublicSite is the anonymous read aggregate served per subdomain.
type PublicSite struct {
	Website   Website    `json:"website"`
	Locations []Location `json:"locations"`
}
