package e2etest

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// FindForm returns the form in doc whose action is formActionURLPath.
func FindForm(doc *goquery.Document, formActionURLPath string) (*goquery.Selection, error) {
	form := doc.Find(fmt.Sprintf("form[action='%s']", formActionURLPath))
	if form.Length() == 0 {
		return nil, fmt.Errorf("form not found: %s", formActionURLPath)
	}
	return form, nil
}

// FindSelectForLabel returns the select labelled labelText inside form, either through the label's for attribute
// or by nesting.
func FindSelectForLabel(form *goquery.Selection, labelText string) (*goquery.Selection, error) {
	label := form.Find(fmt.Sprintf("label:contains('%s')", labelText))
	if label.Length() == 0 {
		return nil, fmt.Errorf("label not found: %s", labelText)
	}
	sel := label.Find("select")
	if id, ok := label.Attr("for"); ok {
		sel = form.Find("select#" + id)
	}
	if sel.Length() == 0 {
		return nil, fmt.Errorf("select not found for label: %s", labelText)
	}
	return sel, nil
}

// SelectedValue returns the value of the selected option of sel or the first option when none is selected.
func SelectedValue(sel *goquery.Selection) string {
	option := sel.Find("option[selected]")
	if option.Length() == 0 {
		option = sel.Find("option")
	}
	return option.First().AttrOr("value", "")
}
