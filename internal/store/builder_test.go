package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func expectMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateWebsiteWithDefaultsSeedsTree(t *testing.T) {
	store, mock := newMockStore(t)

	subdomain := "fresco"
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO websites").
		WithArgs("rest-1", &subdomain).
		WillReturnRows(sqlmock.NewRows([]string{"website_id"}).AddRow("web-1"))
	mock.ExpectQuery("INSERT INTO navbars").
		WithArgs("web-1").
		WillReturnRows(sqlmock.NewRows([]string{"navbar_id"}).AddRow("nav-1"))
	mock.ExpectQuery("INSERT INTO pages").
		WithArgs("web-1").
		WillReturnRows(sqlmock.NewRows([]string{"page_id"}).AddRow("page-1"))
	mock.ExpectQuery("INSERT INTO sections").
		WithArgs("page-1").
		WillReturnRows(sqlmock.NewRows([]string{"section_id"}).AddRow("sec-1"))
	mock.ExpectExec("INSERT INTO subsections").
		WithArgs("sec-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO navbar_items").
		WithArgs("nav-1", "page-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	websiteID, err := store.CreateWebsiteWithDefaults(context.Background(), "rest-1", &subdomain)
	if err != nil {
		t.Fatalf("CreateWebsiteWithDefaults: %v", err)
	}
	if websiteID != "web-1" {
		t.Fatalf("websiteID = %q", websiteID)
	}
	expectMet(t, mock)
}

func TestCreateWebsiteWithDefaultsRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO websites").
		WillReturnRows(sqlmock.NewRows([]string{"website_id"}).AddRow("web-1"))
	mock.ExpectQuery("INSERT INTO navbars").
		WillReturnError(errors.New("navbar insert failed"))
	mock.ExpectRollback()

	if _, err := store.CreateWebsiteWithDefaults(context.Background(), "rest-1", nil); err == nil {
		t.Fatal("expected error")
	}
	expectMet(t, mock)
}

func TestCreatePageMirrorsNavbarItem(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT navbar_id FROM navbars").
		WithArgs("web-1").
		WillReturnRows(sqlmock.NewRows([]string{"navbar_id"}).AddRow("nav-1"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM navbar_items`).
		WithArgs("nav-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("INSERT INTO pages").
		WithArgs("web-1", "Menu", "/menu").
		WillReturnRows(sqlmock.NewRows([]string{"page_id"}).AddRow("page-9"))
	mock.ExpectExec("INSERT INTO navbar_items").
		WithArgs("nav-1", "page-9", "Menu", "/menu", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	page, err := store.CreatePage(context.Background(), "web-1", "Menu", "/menu")
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if page.ID != "page-9" || page.Title != "Menu" {
		t.Fatalf("page = %+v", page)
	}
	expectMet(t, mock)
}

func TestUpdateSectionCoalescesOmittedFields(t *testing.T) {
	store, mock := newMockStore(t)

	encoded := `{"background": "#fff"}`
	mock.ExpectExec("UPDATE sections").
		WithArgs("sec-1", nil, &encoded).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := store.UpdateSection(context.Background(), "sec-1", nil, &encoded)
	if err != nil {
		t.Fatalf("UpdateSection: %v", err)
	}
	if !updated {
		t.Fatal("expected update")
	}
	expectMet(t, mock)
}

func TestUpdateElementPayloadParamIsSeparate(t *testing.T) {
	store, mock := newMockStore(t)

	encoded := `{}`
	mock.ExpectExec("UPDATE elements").
		WithArgs("el-1", nil, &encoded, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := store.UpdateElement(context.Background(), "el-1", nil, &encoded, nil)
	if err != nil {
		t.Fatalf("UpdateElement: %v", err)
	}
	if !updated {
		t.Fatal("expected update")
	}
	expectMet(t, mock)
}

func TestGetElementPreservesPayloadBytes(t *testing.T) {
	store, mock := newMockStore(t)

	// Key order and spacing must survive the json column untouched.
	payload := `{"aiTemplate": "<div>{{b}}{{a}}</div>", "properties": {"b": "2", "a": "1"}}`
	mock.ExpectQuery("SELECT element_id, subsection_id, element_type, position, properties, ai_payload").
		WithArgs("el-1").
		WillReturnRows(sqlmock.NewRows([]string{"element_id", "subsection_id", "element_type", "position", "properties", "ai_payload"}).
			AddRow("el-1", "sub-1", "ai", 1, []byte(`{"text": "hi"}`), []byte(payload)))

	element, err := store.GetElement(context.Background(), "el-1")
	if err != nil {
		t.Fatalf("GetElement: %v", err)
	}
	if string(element.AiPayload) != payload {
		t.Fatalf("ai_payload = %s", element.AiPayload)
	}
	if element.Properties["text"] != "hi" {
		t.Fatalf("properties = %v", element.Properties)
	}
	expectMet(t, mock)
}

func TestGetNavbarItemCarriesPageLink(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT item_id, navbar_id, page_id, text, link_url, position").
		WithArgs("item-1").
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "navbar_id", "page_id", "text", "link_url", "position"}).
			AddRow("item-1", "nav-1", "page-1", "Home", "/", 1))

	item, err := store.GetNavbarItem(context.Background(), "item-1")
	if err != nil {
		t.Fatalf("GetNavbarItem: %v", err)
	}
	if item.PageID == nil || *item.PageID != "page-1" {
		t.Fatalf("page link = %v", item.PageID)
	}
	expectMet(t, mock)
}

func TestUpdateNavbarItemMirrorsLinkedPage(t *testing.T) {
	store, mock := newMockStore(t)

	pageID := "page-1"
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT item_id, navbar_id, page_id, text, link_url, position").
		WithArgs("item-1").
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "navbar_id", "page_id", "text", "link_url", "position"}).
			AddRow("item-1", "nav-1", pageID, "Home", "/", 1))
	mock.ExpectExec("UPDATE navbar_items").
		WithArgs("item-1", "Our Menu", "/menu", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE pages SET title").
		WithArgs("page-1", "Our Menu", "/menu").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	text := "Our Menu"
	link := "/menu"
	updated, err := store.UpdateNavbarItem(context.Background(), "item-1", &text, &link, nil)
	if err != nil {
		t.Fatalf("UpdateNavbarItem: %v", err)
	}
	if !updated {
		t.Fatal("expected update")
	}
	expectMet(t, mock)
}

func TestUpdateNavbarItemFallsBackToSlugMatch(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT item_id, navbar_id, page_id, text, link_url, position").
		WithArgs("item-1").
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "navbar_id", "page_id", "text", "link_url", "position"}).
			AddRow("item-1", "nav-1", nil, "Home", "/", 1))
	mock.ExpectExec("UPDATE navbar_items").
		WithArgs("item-1", "Start", "/", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE pages").
		WithArgs("nav-1", "/", "Start", "/").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	text := "Start"
	updated, err := store.UpdateNavbarItem(context.Background(), "item-1", &text, nil, nil)
	if err != nil {
		t.Fatalf("UpdateNavbarItem: %v", err)
	}
	if !updated {
		t.Fatal("expected update")
	}
	expectMet(t, mock)
}

func TestUpdateNavbarItemMissingReturnsFalse(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT item_id, navbar_id, page_id, text, link_url, position").
		WithArgs("item-9").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	text := "Anything"
	updated, err := store.UpdateNavbarItem(context.Background(), "item-9", &text, nil, nil)
	if err != nil {
		t.Fatalf("UpdateNavbarItem: %v", err)
	}
	if updated {
		t.Fatal("expected no update")
	}
	expectMet(t, mock)
}

func TestDeleteNavbarItemRemovesLinkedPage(t *testing.T) {
	store, mock := newMockStore(t)

	pageID := "page-1"
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT item_id, navbar_id, page_id").
		WithArgs("item-1").
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "navbar_id", "page_id", "text", "link_url", "position"}).
			AddRow("item-1", "nav-1", pageID, "Home", "/", 1))
	mock.ExpectExec("DELETE FROM pages").
		WithArgs("page-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM navbar_items").
		WithArgs("item-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	deleted, err := store.DeleteNavbarItem(context.Background(), "item-1")
	if err != nil {
		t.Fatalf("DeleteNavbarItem: %v", err)
	}
	if !deleted {
		t.Fatal("expected delete")
	}
	expectMet(t, mock)
}
