package boxrec

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"boxwatch/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	loginPath   = "/en/login"
	titlePrefix = "BoxRec:"
)

var captchaSelector = strings.Join([]string{
	".g-recaptcha",
	"#captcha",
	"iframe[src*=\"recaptcha\"]",
	"iframe[src*=\"hcaptcha\"]",
	"form[action*=\"captcha\"]",
}, ", ")

// Page is a fetched page after all redirects were followed.
type Page struct {
	Url    *url.URL
	Status int
	Doc    *goquery.Document
}

// ParsePage parses an html document that was served from u.
func ParsePage(u *url.URL, status int, body io.Reader) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return Page{}, fmt.Errorf("parse page: %w", err)
	}
	doc.Url = u
	return Page{Url: u, Status: status, Doc: doc}, nil
}

func parseBytes(u *url.URL, status int, body []byte) (Page, error) {
	return ParsePage(u, status, bytes.NewReader(body))
}

// LoggedOut reports whether the site bounced the request to its login page.
func (p Page) LoggedOut() bool {
	if p.Url == nil {
		return false
	}
	return strings.Contains(p.Url.Path, "/login")
}

// HasCaptcha reports whether the page is a CAPTCHA challenge.
func (p Page) HasCaptcha() bool {
	if p.Url != nil && strings.Contains(p.Url.Path, "/captcha") {
		return true
	}
	return p.Doc.Find(captchaSelector).Length() > 0
}

// FighterName returns the fighter name out of a profile page title of the
// form "BoxRec: <name>", or an empty string if the title is not of that form.
func FighterName(page Page) string {
	title := htmlutil.NormalizeText(page.Doc.Find("title").First().Text())
	name, ok := strings.CutPrefix(title, titlePrefix)
	if !ok {
		return ""
	}
	return strings.TrimSpace(name)
}
