package web

import (
	"database/sql"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/hpungsan/lemon/internal/config"
	"github.com/hpungsan/lemon/internal/errors"
	"github.com/hpungsan/lemon/internal/filter"
	"github.com/hpungsan/lemon/internal/menu"
	"github.com/hpungsan/lemon/internal/ops"
)

// profileLabels are the form labels for the profile settings keys.
var profileLabels = map[string]string{
	ops.SettingFirstName:       "First name",
	ops.SettingLastName:        "Last name",
	ops.SettingEmail:           "Email",
	ops.SettingPhone:           "Phone number",
	ops.SettingImage:           "Avatar",
	ops.SettingOrderStatuses:   "Order statuses",
	ops.SettingPasswordChanges: "Password changes",
	ops.SettingSpecialOffers:   "Special offers",
	ops.SettingNewsletter:      "Newsletter",
	ops.SettingOnboarded:       "Onboarded",
}

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	engine   *ops.QueryEngine
	renderer *Renderer
}

// HandleMenu handles GET /menu: the cached menu filtered by ?q= and any
// number of ?category= parameters. No category means all categories.
func (h *Handlers) HandleMenu(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	active := menu.CleanLabels(r.URL.Query()["category"])

	result, err := h.engine.Search(r.Context(), ops.QueryInput{
		Term:       query,
		Categories: active,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	vocabulary, err := h.engine.EffectiveCategories(r.Context(), filter.NewState(""))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewQueryFailed(err))
		return
	}

	entries := make([]EntryView, len(result.Items))
	for i, e := range result.Items {
		entries[i] = EntryView{
			Entry:           e,
			ImageURL:        menu.ImageURL(h.cfg.ImageBaseURL, e.Image),
			DescriptionHTML: renderMarkdown(e.Description),
		}
	}

	h.renderer.renderPage(w, r, "menu", MenuPageData{
		PageData: PageData{
			Title:   "Menu",
			Version: h.renderer.version,
			Nav:     "menu",
		},
		Query:   query,
		Chips:   buildChips(vocabulary, active, query),
		Entries: entries,
		Count:   result.Count,
	})
}

// HandleStatus handles GET /status.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := ops.Status(r.Context(), h.db, h.cfg)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, status)
		return
	}

	h.renderer.renderPage(w, r, "status", StatusPageData{
		PageData: PageData{
			Title:   "Status",
			Version: h.renderer.version,
			Nav:     "status",
		},
		Status: status,
	})
}

// HandleProfile handles GET /profile.
func (h *Handlers) HandleProfile(w http.ResponseWriter, r *http.Request) {
	result, err := ops.GetSettings(r.Context(), h.db, ops.SettingsGetInput{})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	fields := make([]ProfileField, 0, len(ops.SettingsKeys))
	for _, k := range ops.SettingsKeys {
		f := ProfileField{Key: k, Label: profileLabels[k]}
		if v := result.Values[k]; v != nil {
			f.Value = *v
			f.Set = true
		}
		fields = append(fields, f)
	}

	h.renderer.renderPage(w, r, "profile", ProfilePageData{
		PageData: PageData{
			Title:   "Profile",
			Version: h.renderer.version,
			Nav:     "profile",
		},
		Fields: fields,
		Saved:  r.URL.Query().Get("saved") == "1",
	})
}

// HandleProfileSave handles POST /profile: stores every known key present in the form.
func (h *Handlers) HandleProfileSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	pairs := make(map[string]string)
	for _, k := range ops.SettingsKeys {
		if _, ok := r.PostForm[k]; ok {
			pairs[k] = strings.TrimSpace(r.PostForm.Get(k))
		}
	}

	result, err := ops.SetSettings(r.Context(), h.db, ops.SettingsSetInput{Pairs: pairs})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/profile?saved=1", http.StatusSeeOther)
}

// HandleProfileClear handles POST /profile/clear (log out).
func (h *Handlers) HandleProfileClear(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	result, err := ops.ClearSettings(r.Context(), h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

// buildChips returns one chip per category with a link that flips it,
// keeping the search text.
func buildChips(vocabulary, active []string, query string) []Chip {
	chips := make([]Chip, 0, len(vocabulary))
	for _, label := range vocabulary {
		on := slices.Contains(active, label)

		next := make([]string, 0, len(active)+1)
		for _, a := range active {
			if a != label {
				next = append(next, a)
			}
		}
		if !on {
			next = append(next, label)
		}

		chips = append(chips, Chip{Label: label, Active: on, Href: menuURL(query, next)})
	}
	return chips
}

// menuURL builds a /menu link for the given filter.
func menuURL(query string, categories []string) string {
	v := url.Values{}
	if query != "" {
		v.Set("q", query)
	}
	for _, c := range categories {
		v.Add("category", c)
	}
	if len(v) == 0 {
		return "/menu"
	}
	return "/menu?" + v.Encode()
}
