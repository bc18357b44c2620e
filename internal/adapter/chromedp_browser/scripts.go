package chromedp_browser

import (
	"encoding/json"
	"fmt"

	"github.com/user/rating-ingest/internal/repository"
)

// Every DOM operation is one page script that queries the document afresh.
// No node handles are kept between calls.

const htmlScript = `document.documentElement.outerHTML`

const (
	clickDone     = "clicked"
	clickMissing  = "missing"
	clickDisabled = "disabled"
	clickHidden   = "hidden"
)

type textResult struct {
	Found bool   `json:"found"`
	Text  string `json:"text"`
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func firstMatch(sel repository.Selector) string {
	if sel.Kind == repository.ByXPath {
		return fmt.Sprintf(`document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`, jsString(sel.Value))
	}
	return fmt.Sprintf(`document.querySelector(%s)`, jsString(sel.Value))
}

func countScript(sel repository.Selector) string {
	if sel.Kind == repository.ByXPath {
		return fmt.Sprintf(`document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null).snapshotLength`, jsString(sel.Value))
	}
	return fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(sel.Value))
}

func textScript(sel repository.Selector) string {
	return fmt.Sprintf(`(() => {
	const el = %s;
	return el ? {found: true, text: el.textContent} : {found: false};
})()`, firstMatch(sel))
}

func clickScript(sel repository.Selector) string {
	return fmt.Sprintf(`(() => {
	const el = %s;
	if (!el) return %s;
	if (el.disabled) return %s;
	const box = el.getBoundingClientRect();
	if (box.width === 0 && box.height === 0) return %s;
	el.scrollIntoView({block: "center"});
	el.click();
	return %s;
})()`, firstMatch(sel), jsString(clickMissing), jsString(clickDisabled), jsString(clickHidden), jsString(clickDone))
}
