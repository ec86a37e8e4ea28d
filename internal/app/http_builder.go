package app

import (
	"encoding/json"
	"net/http"

	"tablecraft/api/internal/store"
)

// handleBuilder routes /api/builder/... for an authenticated session.
// The anonymous public route is handled before the session gate.
func (s *HTTPServer) handleBuilder(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if len(parts) == 3 && parts[2] == "website" {
		switch r.Method {
		case http.MethodGet:
			website, err := s.service.GetWebsite(r.Context(), session)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, website)
			return
		case http.MethodPost:
			var body struct {
				Subdomain *string `json:"subdomain"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			website, err := s.service.CreateWebsite(r.Context(), session, body.Subdomain)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, website)
			return
		}
	}

	if len(parts) == 3 && parts[2] == "pages" && r.Method == http.MethodPost {
		var body PageInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		page, err := s.service.CreatePage(r.Context(), session, body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, page)
		return
	}

	if len(parts) == 4 && parts[2] == "pages" {
		pageID := parts[3]
		switch r.Method {
		case http.MethodPut:
			var body struct {
				Title *string `json:"title"`
				Slug  *string `json:"slug"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if err := s.service.UpdatePage(r.Context(), session, pageID, body.Title, body.Slug); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		case http.MethodDelete:
			if err := s.service.DeletePage(r.Context(), session, pageID); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
	}

	if len(parts) == 3 && parts[2] == "sections" && r.Method == http.MethodPost {
		var body SectionInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		section, err := s.service.CreateSection(r.Context(), session, body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, section)
		return
	}

	if len(parts) == 4 && parts[2] == "sections" {
		sectionID := parts[3]
		switch r.Method {
		case http.MethodPut:
			var body struct {
				Position   *int             `json:"position"`
				Properties store.Properties `json:"properties"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if err := s.service.UpdateSection(r.Context(), session, sectionID, body.Position, body.Properties); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		case http.MethodDelete:
			if err := s.service.DeleteSection(r.Context(), session, sectionID); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
	}

	if len(parts) == 3 && parts[2] == "subsections" && r.Method == http.MethodPost {
		var body SubsectionInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		subsection, err := s.service.CreateSubsection(r.Context(), session, body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, subsection)
		return
	}

	if len(parts) == 4 && parts[2] == "subsections" {
		subsectionID := parts[3]
		switch r.Method {
		case http.MethodPut:
			var body struct {
				Position   *int             `json:"position"`
				Properties store.Properties `json:"properties"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if err := s.service.UpdateSubsection(r.Context(), session, subsectionID, body.Position, body.Properties); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		case http.MethodDelete:
			if err := s.service.DeleteSubsection(r.Context(), session, subsectionID); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
	}

	if len(parts) == 3 && parts[2] == "elements" && r.Method == http.MethodPost {
		var body ElementInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		element, err := s.service.CreateElement(r.Context(), session, body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, element)
		return
	}

	if len(parts) == 4 && parts[2] == "elements" {
		elementID := parts[3]
		switch r.Method {
		case http.MethodPut:
			var body struct {
				Position   *int             `json:"position"`
				Properties store.Properties `json:"properties"`
				AiPayload  json.RawMessage  `json:"ai_payload"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if err := s.service.UpdateElement(r.Context(), session, elementID, body.Position, body.Properties, body.AiPayload); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		case http.MethodDelete:
			if err := s.service.DeleteElement(r.Context(), session, elementID); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
	}

	if len(parts) == 4 && parts[2] == "navbars" && r.Method == http.MethodPut {
		var body struct {
			Properties store.Properties `json:"properties"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if err := s.service.UpdateNavbar(r.Context(), session, parts[3], body.Properties); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if len(parts) == 4 && parts[2] == "navbar_items" {
		itemID := parts[3]
		switch r.Method {
		case http.MethodPut:
			var body struct {
				Text     *string `json:"text"`
				LinkURL  *string `json:"link_url"`
				Position *int    `json:"position"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if err := s.service.UpdateNavbarItem(r.Context(), session, itemID, body.Text, body.LinkURL, body.Position); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		case http.MethodDelete:
			if err := s.service.DeleteNavbarItem(r.Context(), session, itemID); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}
