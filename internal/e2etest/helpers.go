package e2etest

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FindField returns the input, select or textarea of form labelled exactly labelText. Labels point at their
// field with the for attribute, so "Weight set 1" never resolves to the field of "Weight set 10".
func FindField(form *goquery.Selection, labelText string) (*goquery.Selection, error) {
	label := form.Find("label").FilterFunction(func(_ int, l *goquery.Selection) bool {
		return strings.TrimSpace(l.Text()) == labelText
	})
	switch label.Length() {
	case 0:
		return nil, fmt.Errorf("label not found: %s", labelText)
	case 1:
	default:
		return nil, fmt.Errorf("ambiguous label: %s", labelText)
	}
	id, ok := label.Attr("for")
	if !ok {
		return nil, fmt.Errorf("label has no for attribute: %s", labelText)
	}
	field := form.Find("input, select, textarea").FilterFunction(func(_ int, f *goquery.Selection) bool {
		fieldID, _ := f.Attr("id")
		return fieldID == id
	})
	if field.Length() == 0 {
		return nil, fmt.Errorf("field not found for label: %s", labelText)
	}
	return field.First(), nil
}

// FindForm finds a form in the doc identified with action formActionUrlPath and returns the form selection.
func FindForm(doc *goquery.Document, formActionURLPath string) (*goquery.Selection, error) {
	form := doc.Find(fmt.Sprintf("form[action='%s']", formActionURLPath))
	if form.Length() == 0 {
		return nil, fmt.Errorf("form not found: %s", formActionURLPath)
	}
	return form, nil
}

// SetAction names one of the forms of a set.
type SetAction string

const (
	SetUpdate SetAction = ""
	SetDone   SetAction = "/done"
	SetRemove SetAction = "/remove"
)

// SetFormAction returns the form action of the set numbered setNumber, counting from 1, of the open exercise
// exerciseID.
func SetFormAction(doc *goquery.Document, exerciseID string, setNumber int, action SetAction) (string, error) {
	set := doc.Find("#" + exerciseID + " li.set").Eq(setNumber - 1)
	if set.Length() == 0 {
		return "", fmt.Errorf("set %d of %s not found", setNumber, exerciseID)
	}
	prefix := "/draft/exercises/" + exerciseID + "/sets/"
	var found string
	set.Find("form").EachWithBreak(func(_ int, form *goquery.Selection) bool {
		a, _ := form.Attr("action")
		setID, ok := strings.CutPrefix(a, prefix)
		if !ok {
			return true
		}
		if (action == SetUpdate && !strings.Contains(setID, "/")) ||
			(action != SetUpdate && strings.HasSuffix(setID, string(action))) {
			found = a
			return false
		}
		return true
	})
	if found == "" {
		return "", fmt.Errorf("form %q of set %d of %s not found", action, setNumber, exerciseID)
	}
	return found, nil
}
