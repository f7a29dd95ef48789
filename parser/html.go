package parser

import (
	"bytes"
	"log/slog"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-creds/models"
	"golang.org/x/net/html"
)

var tbodyTag = []byte("<tbody")

// ParseModels extracts the models from an <option> list fragment. Options
// with an empty value are prompts and are skipped.
func ParseModels(body []byte) []models.Model {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var buf bytes.Buffer
	buf.WriteString("<select>")
	buf.Write(body)
	buf.WriteString("</select>")

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		slog.Debug("parse model options", slog.Any("error", err))
		return nil
	}

	var out []models.Model
	doc.Find("option").Each(func(_ int, opt *goquery.Selection) {
		value, ok := opt.Attr("value")
		if !ok || strings.TrimSpace(value) == "" {
			return
		}
		id, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			slog.Debug("skipping option with non-numeric value", slog.String("value", value))
			return
		}
		out = append(out, models.Model{
			ModelID:   id,
			ModelName: SanitizeText(opt.Text()),
		})
	})
	return out
}

// ParseCredentials reads the detail table positionally: the second row
// holds the username, the third the password and the fourth an optional
// reference link, each in the second cell. A page without a <tbody>, or
// whose username or password cell is missing or holds mixed markup,
// yields nil.
func ParseCredentials(body []byte) *models.CredentialRecord {
	// The HTML5 parser synthesizes a tbody for bare tables.
	if !bytes.Contains(bytes.ToLower(body), tbodyTag) {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	tbody := doc.Find("tbody").First()
	if tbody.Length() == 0 {
		return nil
	}
	rows := tbody.Find("tr")

	username, ok := cellText(rows, 1)
	if !ok {
		return nil
	}
	password, ok := cellText(rows, 2)
	if !ok {
		return nil
	}

	cred := &models.CredentialRecord{
		Username: username,
		Password: password,
	}
	if href, ok := rows.Eq(3).Find("td").Eq(1).Find("a[href]").First().Attr("href"); ok {
		cred.Reference = SanitizeText(href)
	}
	return cred
}

func cellText(rows *goquery.Selection, row int) (string, bool) {
	if rows.Length() <= row {
		return "", false
	}
	cell := rows.Eq(row).Find("td").Eq(1)
	if cell.Length() == 0 {
		return "", false
	}
	text, ok := singleString(cell.Get(0))
	if !ok || text == "" {
		return "", false
	}
	return SanitizeText(text), true
}

// singleString follows lone children down to a text node. Nodes with no
// children or more than one have no single string.
func singleString(n *html.Node) (string, bool) {
	for {
		child := n.FirstChild
		if child == nil || child.NextSibling != nil {
			return "", false
		}
		switch child.Type {
		case html.TextNode:
			return child.Data, true
		case html.ElementNode:
			n = child
		default:
			return "", false
		}
	}
}
