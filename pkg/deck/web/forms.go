package web

import "net/url"

// FilterForm is the decoded /apply_filters form body. The checkbox
// fields are presence-based: an unchecked box sends no key at all.
type FilterForm struct {
	Keywords         string
	AllCategories    bool
	Categories       []string
	AllSubcategories bool
	Subcategories    []string
	AllImages        bool
}

// ParseFilterForm decodes the filter form from already-parsed form
// values. url.Values collects repeated keys and decodes '+' as space,
// which the categories/subcategories arrays rely on.
func ParseFilterForm(values url.Values) FilterForm {
	_, allCats := values["all_categories"]
	_, allSubs := values["all_subcategories"]
	_, allImgs := values["all_images"]
	return FilterForm{
		Keywords:         values.Get("keywords"),
		AllCategories:    allCats,
		Categories:       values["categories"],
		AllSubcategories: allSubs,
		Subcategories:    values["subcategories"],
		AllImages:        allImgs,
	}
}
