package web

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/quickdeck/quickdeck/pkg/deck/session"
	"github.com/quickdeck/quickdeck/pkg/deck/store"
)

// landingView feeds the filter form template.
type landingView struct {
	DeckName      string
	Categories    []string
	Subcategories []store.Subcategory
	Session       session.Data
	ErrorMessage  string
	TotalCount    int64
	// FilteredCount is meaningful only when ShowFiltered is set,
	// which happens for any non-default filter.
	FilteredCount int64
	ShowFiltered  bool
	Selected      func(string, []string) bool
}

// practiceView feeds the flashcard template. Category and Subcategory
// are empty for image-only cards.
type practiceView struct {
	DeckName    string
	Category    string
	Subcategory string
	Question    template.HTML
	Answer      template.HTML
	IsImageOnly bool
	SeenCount   int
	TotalCount  int64
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	id := s.clientID(w, r)
	data := s.sessions.Load(id)

	cats, err := s.store.DistinctCategories(r.Context())
	if err != nil {
		s.internalError(w, "load categories", err)
		return
	}
	subs, err := s.store.DistinctSubcategories(r.Context(), nil)
	if err != nil {
		s.internalError(w, "load subcategories", err)
		return
	}

	total, err := s.store.TotalCount(r.Context())
	if err != nil {
		s.internalError(w, "count cards", err)
		return
	}
	var filtered int64
	showFiltered := data.HasActiveFilters()
	if showFiltered {
		filtered, err = s.store.CountFiltered(r.Context(), data.Criteria())
		if err != nil {
			s.internalError(w, "count filtered cards", err)
			return
		}
	}

	// The error message is shown once and then discarded.
	errMsg := data.ErrorMessage
	if errMsg != "" {
		data.ErrorMessage = ""
		s.sessions.Store(id, data)
	}

	s.render(w, "landing.html", landingView{
		DeckName:      s.cfg.DisplayName(),
		Categories:    cats,
		Subcategories: subs,
		Session:       data,
		ErrorMessage:  errMsg,
		TotalCount:    total,
		FilteredCount: filtered,
		ShowFiltered:  showFiltered,
		Selected: func(name string, among []string) bool {
			for _, v := range among {
				if v == name {
					return true
				}
			}
			return false
		},
	})
}

func (s *Server) handleApplyFilters(w http.ResponseWriter, r *http.Request) {
	id := s.clientID(w, r)
	data := s.sessions.Load(id)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	form := ParseFilterForm(r.PostForm)

	data.FilterKeywords = strings.Fields(form.Keywords)

	if form.AllCategories {
		data.FilterCategories = nil
	} else {
		// A non-nil empty slice means "no categories", which
		// matches only uncategorized cards.
		cats := form.Categories
		if cats == nil {
			cats = []string{}
		}
		data.FilterCategories = cats
	}

	switch {
	case form.AllSubcategories:
		data.FilterSubcategories = nil
	case len(form.Subcategories) == 0 && len(data.FilterCategories) > 0:
		// Specific categories were chosen but every subcategory
		// under them was unticked. Keep the keyword and category
		// edits, surface the problem, and send the caller back.
		data.ErrorMessage = "Please select at least one subcategory for the selected categories"
		s.sessions.Store(id, data)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	default:
		data.FilterSubcategories = form.Subcategories
	}

	data.FilterIncludeImages = form.AllImages
	data.SeenIDs = nil
	data.FilteredCardCount = nil
	s.sessions.Store(id, data)

	http.Redirect(w, r, "/practice", http.StatusSeeOther)
}

func (s *Server) handlePractice(w http.ResponseWriter, r *http.Request) {
	id := s.clientID(w, r)
	data := s.sessions.Load(id)
	criteria := data.Criteria()

	nbCards := int64(0)
	if data.FilteredCardCount != nil {
		nbCards = *data.FilteredCardCount
	} else {
		n, err := s.store.CountFiltered(r.Context(), criteria)
		if err != nil {
			s.internalError(w, "count filtered cards", err)
			return
		}
		nbCards = n
		data.FilteredCardCount = &n
	}

	if nbCards == 0 {
		data.ErrorMessage = "No cards match your filters. Please adjust your selection."
		s.sessions.Store(id, data)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	// The whole filtered set has been seen, so start a fresh cycle.
	if int64(len(data.SeenIDs)) >= nbCards {
		data.SeenIDs = nil
	}

	card, ok, err := s.store.RandomFiltered(r.Context(), data.SeenIDs, criteria)
	if err != nil {
		s.internalError(w, "draw card", err)
		return
	}
	if !ok {
		// The store shrank under us since the count was cached.
		data.SeenIDs = nil
		data.FilteredCardCount = nil
		data.ErrorMessage = "No cards match your filters. Please adjust your selection."
		s.sessions.Store(id, data)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data.SeenIDs = append(data.SeenIDs, card.ID)
	s.sessions.Store(id, data)

	s.render(w, "practice.html", practiceView{
		DeckName:    s.cfg.DisplayName(),
		Category:    strOrEmpty(card.Category),
		Subcategory: strOrEmpty(card.Subcategory),
		Question:    template.HTML(card.QuestionHTML),
		Answer:      template.HTML(card.AnswerHTML),
		IsImageOnly: isImageOnly(card.QuestionHTML),
		SeenCount:   len(data.SeenIDs),
		TotalCount:  nbCards,
	})
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	id := s.clientID(w, r)
	s.sessions.Flush(id)
	s.render(w, "reset.html", struct{ DeckName string }{s.cfg.DisplayName()})
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// isImageOnly reports whether a question body is the bare marker an
// image card carries, in either of its historical spellings.
func isImageOnly(questionHTML string) bool {
	q := strings.TrimSpace(questionHTML)
	return q == strings.TrimSpace(store.ImageOnlyMarker) ||
		q == strings.TrimSpace(store.LegacyImageOnlyMarker)
}
