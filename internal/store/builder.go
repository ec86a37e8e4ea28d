package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Sibling ordering contract: readers sort ascending by position with
// insertion order breaking ties. Appends use count+1; deletions never
// renumber survivors, so position sequences may contain gaps.
const siblingOrder = `ORDER BY position ASC, created_at ASC`

// ---- ownership resolution ----
//
// Every mutating builder operation resolves the acting node up the tree to
// the owning user. Unknown ids and foreign ownership both come back as
// sql.ErrNoRows so the API reports them identically.

func (s *PostgresStore) WebsiteOwner(ctx context.Context, websiteID string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT r.user_id
		FROM websites w
		JOIN restaurants r ON r.restaurant_id = w.restaurant_id
		WHERE w.website_id=$1
	`, websiteID).Scan(&userID)
	return userID, err
}

func (s *PostgresStore) PageOwner(ctx context.Context, pageID string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT r.user_id
		FROM pages p
		JOIN websites w ON w.website_id = p.website_id
		JOIN restaurants r ON r.restaurant_id = w.restaurant_id
		WHERE p.page_id=$1
	`, pageID).Scan(&userID)
	return userID, err
}

func (s *PostgresStore) SectionOwner(ctx context.Context, sectionID string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT r.user_id
		FROM sections sec
		JOIN pages p ON p.page_id = sec.page_id
		JOIN websites w ON w.website_id = p.website_id
		JOIN restaurants r ON r.restaurant_id = w.restaurant_id
		WHERE sec.section_id=$1
	`, sectionID).Scan(&userID)
	return userID, err
}

func (s *PostgresStore) SubsectionOwner(ctx context.Context, subsectionID string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT r.user_id
		FROM subsections sub
		JOIN sections sec ON sec.section_id = sub.section_id
		JOIN pages p ON p.page_id = sec.page_id
		JOIN websites w ON w.website_id = p.website_id
		JOIN restaurants r ON r.restaurant_id = w.restaurant_id
		WHERE sub.subsection_id=$1
	`, subsectionID).Scan(&userID)
	return userID, err
}

func (s *PostgresStore) ElementOwner(ctx context.Context, elementID string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT r.user_id
		FROM elements e
		JOIN subsections sub ON sub.subsection_id = e.subsection_id
		JOIN sections sec ON sec.section_id = sub.section_id
		JOIN pages p ON p.page_id = sec.page_id
		JOIN websites w ON w.website_id = p.website_id
		JOIN restaurants r ON r.restaurant_id = w.restaurant_id
		WHERE e.element_id=$1
	`, elementID).Scan(&userID)
	return userID, err
}

func (s *PostgresStore) NavbarOwner(ctx context.Context, navbarID string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT r.user_id
		FROM navbars n
		JOIN websites w ON w.website_id = n.website_id
		JOIN restaurants r ON r.restaurant_id = w.restaurant_id
		WHERE n.navbar_id=$1
	`, navbarID).Scan(&userID)
	return userID, err
}

func (s *PostgresStore) NavbarItemOwner(ctx context.Context, itemID string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT r.user_id
		FROM navbar_items ni
		JOIN navbars n ON n.navbar_id = ni.navbar_id
		JOIN websites w ON w.website_id = n.website_id
		JOIN restaurants r ON r.restaurant_id = w.restaurant_id
		WHERE ni.item_id=$1
	`, itemID).Scan(&userID)
	return userID, err
}

// ---- website ----

// CreateWebsiteWithDefaults inserts the website plus its navbar, Home
// page, hero section, starter subsection, and mirrored navbar item in one
// transaction. Either the whole seed commits or none of it does.
func (s *PostgresStore) CreateWebsiteWithDefaults(ctx context.Context, restaurantID string, subdomain *string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin website seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var websiteID string
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO websites (restaurant_id, subdomain)
		VALUES ($1, $2)
		RETURNING website_id
	`, restaurantID, subdomain).Scan(&websiteID); err != nil {
		return "", fmt.Errorf("insert website: %w", err)
	}

	var navbarID string
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO navbars (website_id) VALUES ($1) RETURNING navbar_id
	`, websiteID).Scan(&navbarID); err != nil {
		return "", fmt.Errorf("insert navbar: %w", err)
	}

	var pageID string
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO pages (website_id, title, slug)
		VALUES ($1, 'Home', '/')
		RETURNING page_id
	`, websiteID).Scan(&pageID); err != nil {
		return "", fmt.Errorf("insert home page: %w", err)
	}

	var sectionID string
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO sections (page_id, section_type, position, properties)
		VALUES ($1, 'hero', 1, '{}'::jsonb)
		RETURNING section_id
	`, pageID).Scan(&sectionID); err != nil {
		return "", fmt.Errorf("insert default section: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO subsections (section_id, position, properties)
		VALUES ($1, 1, '{"flexDirection": "column", "alignItems": "center"}'::jsonb)
	`, sectionID); err != nil {
		return "", fmt.Errorf("insert default subsection: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO navbar_items (navbar_id, page_id, text, link_url, position)
		VALUES ($1, $2, 'Home', '/', 1)
	`, navbarID, pageID); err != nil {
		return "", fmt.Errorf("insert home navbar item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit website seed: %w", err)
	}
	return websiteID, nil
}

func (s *PostgresStore) GetWebsiteByRestaurant(ctx context.Context, restaurantID string) (Website, error) {
	var website Website
	err := s.db.QueryRowContext(ctx, `
		SELECT website_id, restaurant_id, subdomain
		FROM websites
		WHERE restaurant_id=$1
	`, restaurantID).Scan(&website.ID, &website.RestaurantID, &website.Subdomain)
	if err != nil {
		return Website{}, err
	}
	if err := s.hydrateWebsite(ctx, &website); err != nil {
		return Website{}, err
	}
	return website, nil
}

func (s *PostgresStore) GetWebsiteBySubdomain(ctx context.Context, subdomain string) (Website, error) {
	var website Website
	err := s.db.QueryRowContext(ctx, `
		SELECT website_id, restaurant_id, subdomain
		FROM websites
		WHERE subdomain=$1
	`, subdomain).Scan(&website.ID, &website.RestaurantID, &website.Subdomain)
	if err != nil {
		return Website{}, err
	}
	if err := s.hydrateWebsite(ctx, &website); err != nil {
		return Website{}, err
	}
	return website, nil
}

func (s *PostgresStore) hydrateWebsite(ctx context.Context, website *Website) error {
	pages, err := s.listPages(ctx, website.ID)
	if err != nil {
		return err
	}
	for i := range pages {
		sections, err := s.listSections(ctx, pages[i].ID)
		if err != nil {
			return err
		}
		for j := range sections {
			subsections, err := s.listSubsections(ctx, sections[j].ID)
			if err != nil {
				return err
			}
			for k := range subsections {
				elements, err := s.listElements(ctx, subsections[k].ID)
				if err != nil {
					return err
				}
				subsections[k].Elements = elements
			}
			sections[j].Subsections = subsections
		}
		pages[i].Sections = sections
	}
	website.Pages = pages

	navbar, err := s.getNavbarByWebsite(ctx, website.ID)
	if err != nil {
		return err
	}
	website.Navbar = navbar
	return nil
}

func (s *PostgresStore) listPages(ctx context.Context, websiteID string) ([]Page, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT page_id, website_id, title, slug
		FROM pages
		WHERE website_id=$1
		ORDER BY created_at ASC
	`, websiteID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	items := make([]Page, 0)
	for rows.Next() {
		var item Page
		if err := rows.Scan(&item.ID, &item.WebsiteID, &item.Title, &item.Slug); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		item.Sections = make([]Section, 0)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) listSections(ctx context.Context, pageID string) ([]Section, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT section_id, page_id, section_type, position, properties
		FROM sections
		WHERE page_id=$1
		`+siblingOrder, pageID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	items := make([]Section, 0)
	for rows.Next() {
		var item Section
		var rawProperties []byte
		if err := rows.Scan(&item.ID, &item.PageID, &item.SectionType, &item.Position, &rawProperties); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		item.Properties = unmarshalProperties(rawProperties)
		item.Subsections = make([]Subsection, 0)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) listSubsections(ctx context.Context, sectionID string) ([]Subsection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT subsection_id, section_id, position, properties
		FROM subsections
		WHERE section_id=$1
		`+siblingOrder, sectionID)
	if err != nil {
		return nil, fmt.Errorf("list subsections: %w", err)
	}
	defer rows.Close()

	items := make([]Subsection, 0)
	for rows.Next() {
		var item Subsection
		var rawProperties []byte
		if err := rows.Scan(&item.ID, &item.SectionID, &item.Position, &rawProperties); err != nil {
			return nil, fmt.Errorf("scan subsection: %w", err)
		}
		item.Properties = unmarshalProperties(rawProperties)
		item.Elements = make([]Element, 0)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subsections: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) listElements(ctx context.Context, subsectionID string) ([]Element, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT element_id, subsection_id, element_type, position, properties, ai_payload
		FROM elements
		WHERE subsection_id=$1
		`+siblingOrder, subsectionID)
	if err != nil {
		return nil, fmt.Errorf("list elements: %w", err)
	}
	defer rows.Close()

	items := make([]Element, 0)
	for rows.Next() {
		var item Element
		var rawProperties, rawPayload []byte
		if err := rows.Scan(&item.ID, &item.SubsectionID, &item.ElementType, &item.Position, &rawProperties, &rawPayload); err != nil {
			return nil, fmt.Errorf("scan element: %w", err)
		}
		item.Properties = unmarshalProperties(rawProperties)
		if len(rawPayload) > 0 {
			item.AiPayload = append([]byte(nil), rawPayload...)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate elements: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) getNavbarByWebsite(ctx context.Context, websiteID string) (*Navbar, error) {
	var navbar Navbar
	var rawProperties []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT navbar_id, website_id, properties
		FROM navbars
		WHERE website_id=$1
	`, websiteID).Scan(&navbar.ID, &navbar.WebsiteID, &rawProperties)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get navbar: %w", err)
	}
	navbar.Properties = unmarshalProperties(rawProperties)

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, navbar_id, page_id, text, link_url, position
		FROM navbar_items
		WHERE navbar_id=$1
		`+siblingOrder, navbar.ID)
	if err != nil {
		return nil, fmt.Errorf("list navbar items: %w", err)
	}
	defer rows.Close()

	navbar.Items = make([]NavbarItem, 0)
	for rows.Next() {
		var item NavbarItem
		if err := rows.Scan(&item.ID, &item.NavbarID, &item.PageID, &item.Text, &item.LinkURL, &item.Position); err != nil {
			return nil, fmt.Errorf("scan navbar item: %w", err)
		}
		navbar.Items = append(navbar.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate navbar items: %w", err)
	}
	return &navbar, nil
}

// ---- pages ----

// CreatePage inserts the page and its mirrored navbar item together. The
// item text/link copy the page title/slug and the item is appended after
// the existing navbar entries.
func (s *PostgresStore) CreatePage(ctx context.Context, websiteID, title, slug string) (Page, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Page{}, fmt.Errorf("begin create page: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var navbarID string
	if err := tx.QueryRowContext(ctx, `SELECT navbar_id FROM navbars WHERE website_id=$1`, websiteID).Scan(&navbarID); err != nil {
		return Page{}, err
	}

	var itemCount int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM navbar_items WHERE navbar_id=$1`, navbarID).Scan(&itemCount); err != nil {
		return Page{}, fmt.Errorf("count navbar items: %w", err)
	}

	page := Page{WebsiteID: websiteID, Title: title, Slug: slug, Sections: make([]Section, 0)}
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO pages (website_id, title, slug)
		VALUES ($1, $2, $3)
		RETURNING page_id
	`, websiteID, title, slug).Scan(&page.ID); err != nil {
		return Page{}, fmt.Errorf("insert page: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO navbar_items (navbar_id, page_id, text, link_url, position)
		VALUES ($1, $2, $3, $4, $5)
	`, navbarID, page.ID, title, slug, itemCount+1); err != nil {
		return Page{}, fmt.Errorf("insert navbar item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Page{}, fmt.Errorf("commit create page: %w", err)
	}
	return page, nil
}

func (s *PostgresStore) UpdatePage(ctx context.Context, pageID string, title, slug *string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE pages
		SET title=COALESCE($2, title), slug=COALESCE($3, slug)
		WHERE page_id=$1
	`, pageID, title, slug)
	if err != nil {
		return false, fmt.Errorf("update page: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update page rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) DeletePage(ctx context.Context, pageID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE page_id=$1`, pageID)
	if err != nil {
		return false, fmt.Errorf("delete page: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete page rows: %w", err)
	}
	return affected > 0, nil
}

// ---- sections ----

// CreateSection appends at count+1 when no explicit position is supplied.
func (s *PostgresStore) CreateSection(ctx context.Context, section Section) (Section, error) {
	encodedProperties, err := marshalProperties(section.Properties)
	if err != nil {
		return Section{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Section{}, fmt.Errorf("begin create section: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if section.Position <= 0 {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sections WHERE page_id=$1`, section.PageID).Scan(&count); err != nil {
			return Section{}, fmt.Errorf("count sections: %w", err)
		}
		section.Position = count + 1
	}

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO sections (page_id, section_type, position, properties)
		VALUES ($1, $2, $3, $4::jsonb)
		RETURNING section_id
	`, section.PageID, section.SectionType, section.Position, encodedProperties).Scan(&section.ID); err != nil {
		return Section{}, fmt.Errorf("insert section: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Section{}, fmt.Errorf("commit create section: %w", err)
	}
	section.Subsections = make([]Subsection, 0)
	return section, nil
}

// UpdateSection applies only the supplied fields. A non-nil properties
// value replaces the stored object wholesale.
func (s *PostgresStore) UpdateSection(ctx context.Context, sectionID string, position *int, encodedProperties *string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sections
		SET position=COALESCE($2, position), properties=COALESCE($3::jsonb, properties)
		WHERE section_id=$1
	`, sectionID, position, encodedProperties)
	if err != nil {
		return false, fmt.Errorf("update section: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update section rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) DeleteSection(ctx context.Context, sectionID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sections WHERE section_id=$1`, sectionID)
	if err != nil {
		return false, fmt.Errorf("delete section: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete section rows: %w", err)
	}
	return affected > 0, nil
}

// ---- subsections ----

func (s *PostgresStore) CreateSubsection(ctx context.Context, subsection Subsection) (Subsection, error) {
	encodedProperties, err := marshalProperties(subsection.Properties)
	if err != nil {
		return Subsection{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Subsection{}, fmt.Errorf("begin create subsection: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if subsection.Position <= 0 {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM subsections WHERE section_id=$1`, subsection.SectionID).Scan(&count); err != nil {
			return Subsection{}, fmt.Errorf("count subsections: %w", err)
		}
		subsection.Position = count + 1
	}

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO subsections (section_id, position, properties)
		VALUES ($1, $2, $3::jsonb)
		RETURNING subsection_id
	`, subsection.SectionID, subsection.Position, encodedProperties).Scan(&subsection.ID); err != nil {
		return Subsection{}, fmt.Errorf("insert subsection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Subsection{}, fmt.Errorf("commit create subsection: %w", err)
	}
	subsection.Elements = make([]Element, 0)
	return subsection, nil
}

func (s *PostgresStore) UpdateSubsection(ctx context.Context, subsectionID string, position *int, encodedProperties *string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE subsections
		SET position=COALESCE($2, position), properties=COALESCE($3::jsonb, properties)
		WHERE subsection_id=$1
	`, subsectionID, position, encodedProperties)
	if err != nil {
		return false, fmt.Errorf("update subsection: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update subsection rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) DeleteSubsection(ctx context.Context, subsectionID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM subsections WHERE subsection_id=$1`, subsectionID)
	if err != nil {
		return false, fmt.Errorf("delete subsection: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete subsection rows: %w", err)
	}
	return affected > 0, nil
}

// ---- elements ----

func (s *PostgresStore) CreateElement(ctx context.Context, element Element) (Element, error) {
	encodedProperties, err := marshalProperties(element.Properties)
	if err != nil {
		return Element{}, err
	}
	var rawPayload *string
	if len(element.AiPayload) > 0 {
		encoded := string(element.AiPayload)
		rawPayload = &encoded
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Element{}, fmt.Errorf("begin create element: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if element.Position <= 0 {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM elements WHERE subsection_id=$1`, element.SubsectionID).Scan(&count); err != nil {
			return Element{}, fmt.Errorf("count elements: %w", err)
		}
		element.Position = count + 1
	}

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO elements (subsection_id, element_type, position, properties, ai_payload)
		VALUES ($1, $2, $3, $4::jsonb, $5::json)
		RETURNING element_id
	`, element.SubsectionID, element.ElementType, element.Position, encodedProperties, rawPayload).Scan(&element.ID); err != nil {
		return Element{}, fmt.Errorf("insert element: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Element{}, fmt.Errorf("commit create element: %w", err)
	}
	return element, nil
}

// UpdateElement leaves ai_payload untouched on a properties-only update;
// the two travel in separate request fields.
func (s *PostgresStore) UpdateElement(ctx context.Context, elementID string, position *int, encodedProperties, rawPayload *string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE elements
		SET position=COALESCE($2, position),
		    properties=COALESCE($3::jsonb, properties),
		    ai_payload=COALESCE($4::json, ai_payload)
		WHERE element_id=$1
	`, elementID, position, encodedProperties, rawPayload)
	if err != nil {
		return false, fmt.Errorf("update element: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update element rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) GetElement(ctx context.Context, elementID string) (Element, error) {
	var item Element
	var rawProperties, rawPayload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT element_id, subsection_id, element_type, position, properties, ai_payload
		FROM elements
		WHERE element_id=$1
	`, elementID).Scan(&item.ID, &item.SubsectionID, &item.ElementType, &item.Position, &rawProperties, &rawPayload)
	if err != nil {
		return Element{}, err
	}
	item.Properties = unmarshalProperties(rawProperties)
	if len(rawPayload) > 0 {
		item.AiPayload = append([]byte(nil), rawPayload...)
	}
	return item, nil
}

func (s *PostgresStore) DeleteElement(ctx context.Context, elementID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM elements WHERE element_id=$1`, elementID)
	if err != nil {
		return false, fmt.Errorf("delete element: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete element rows: %w", err)
	}
	return affected > 0, nil
}

// ---- navbar ----

func (s *PostgresStore) UpdateNavbarProperties(ctx context.Context, navbarID string, encodedProperties string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE navbars SET properties=$2::jsonb WHERE navbar_id=$1
	`, navbarID, encodedProperties)
	if err != nil {
		return false, fmt.Errorf("update navbar: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update navbar rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) GetNavbarItem(ctx context.Context, itemID string) (NavbarItem, error) {
	var item NavbarItem
	err := s.db.QueryRowContext(ctx, `
		SELECT item_id, navbar_id, page_id, text, link_url, position
		FROM navbar_items
		WHERE item_id=$1
	`, itemID).Scan(&item.ID, &item.NavbarID, &item.PageID, &item.Text, &item.LinkURL, &item.Position)
	if err != nil {
		return NavbarItem{}, err
	}
	return item, nil
}

// UpdateNavbarItem rewrites the item and mirrors the new text/link onto
// its page. Items carry a stable page reference; for legacy rows without
// one the page is located by the item's previous link_url, and when
// nothing matches the item update still succeeds with no page touched.
func (s *PostgresStore) UpdateNavbarItem(ctx context.Context, itemID string, text, linkURL *string, position *int) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin update navbar item: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var item NavbarItem
	err = tx.QueryRowContext(ctx, `
		SELECT item_id, navbar_id, page_id, text, link_url, position
		FROM navbar_items
		WHERE item_id=$1
		FOR UPDATE
	`, itemID).Scan(&item.ID, &item.NavbarID, &item.PageID, &item.Text, &item.LinkURL, &item.Position)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lock navbar item: %w", err)
	}

	oldLink := item.LinkURL
	newText := item.Text
	newLink := item.LinkURL
	newPosition := item.Position
	if text != nil {
		newText = *text
	}
	if linkURL != nil {
		newLink = *linkURL
	}
	if position != nil {
		newPosition = *position
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE navbar_items SET text=$2, link_url=$3, position=$4 WHERE item_id=$1
	`, itemID, newText, newLink, newPosition); err != nil {
		return false, fmt.Errorf("update navbar item: %w", err)
	}

	if item.PageID != nil {
		if _, err := tx.ExecContext(ctx, `
			UPDATE pages SET title=$2, slug=$3 WHERE page_id=$1
		`, *item.PageID, newText, newLink); err != nil {
			return false, fmt.Errorf("mirror page update: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, `
			UPDATE pages SET title=$3, slug=$4
			WHERE slug=$2
			  AND website_id=(SELECT website_id FROM navbars WHERE navbar_id=$1)
		`, item.NavbarID, oldLink, newText, newLink); err != nil {
			return false, fmt.Errorf("mirror page update by slug: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit update navbar item: %w", err)
	}
	return true, nil
}

// DeleteNavbarItem removes the item and its mirrored page. Deleting the
// page cascades back over the item row, so the trailing delete is a
// no-op in the linked case; it exists for items with no page.
func (s *PostgresStore) DeleteNavbarItem(ctx context.Context, itemID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete navbar item: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var item NavbarItem
	err = tx.QueryRowContext(ctx, `
		SELECT item_id, navbar_id, page_id, text, link_url, position
		FROM navbar_items
		WHERE item_id=$1
		FOR UPDATE
	`, itemID).Scan(&item.ID, &item.NavbarID, &item.PageID, &item.Text, &item.LinkURL, &item.Position)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lock navbar item: %w", err)
	}

	if item.PageID != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE page_id=$1`, *item.PageID); err != nil {
			return false, fmt.Errorf("delete mirrored page: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM pages
			WHERE slug=$2
			  AND website_id=(SELECT website_id FROM navbars WHERE navbar_id=$1)
		`, item.NavbarID, item.LinkURL); err != nil {
			return false, fmt.Errorf("delete mirrored page by slug: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM navbar_items WHERE item_id=$1`, itemID); err != nil {
		return false, fmt.Errorf("delete navbar item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete navbar item: %w", err)
	}
	return true, nil
}
