package danawa

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

const productHost = "http://prod.danawa.com"

type listingItem struct {
	name  string
	price float64
	url   string
}

// parseListings extracts product blocks from a Danawa search-result page.
// Items without a name are dropped; items whose price text does not parse
// are counted in skipped so the caller can log them.
func parseListings(body []byte) ([]listingItem, int, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}

	var items []listingItem
	skipped := 0

	for _, list := range findAll(doc, withClass("product_list")) {
		for _, node := range findAll(list, withClass("product_item")) {
			item, ok := parseProductItem(node)
			if !ok {
				skipped++
				continue
			}
			items = append(items, item)
		}
	}

	return items, skipped, nil
}

func parseProductItem(node *html.Node) (listingItem, bool) {
	nameBlock := findFirst(node, withClass("prod_name"))
	if nameBlock == nil {
		return listingItem{}, false
	}
	link := findFirst(nameBlock, withTag("a"))
	if link == nil {
		return listingItem{}, false
	}

	name := strings.TrimSpace(textContent(link))
	if name == "" {
		return listingItem{}, false
	}

	productURL := attrValue(link, "href")
	if productURL != "" && !strings.HasPrefix(productURL, "http") {
		productURL = productHost + productURL
	}

	priceBlock := findFirst(node, withClass("price_sect"))
	if priceBlock == nil {
		return listingItem{}, false
	}
	priceNode := findFirst(priceBlock, withTag("strong"))
	if priceNode == nil {
		return listingItem{}, false
	}

	price, ok := parsePrice(textContent(priceNode))
	if !ok {
		return listingItem{}, false
	}

	return listingItem{name: name, price: price, url: productURL}, true
}

// parsePrice handles Danawa price text: comma-grouped digits with an
// optional 원 suffix. "가격비교예정" and similar placeholders fail to parse.
func parsePrice(text string) (float64, bool) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "원", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, false
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

func withClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, field := range strings.Fields(attrValue(n, "class")) {
			if field == class {
				return true
			}
		}
		return false
	}
}

func withTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

// findAll collects matching descendants depth-first, not descending into
// matched nodes
func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if match(child) {
			found = append(found, child)
			continue
		}
		found = append(found, findAll(child, match)...)
	}
	return found
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if match(child) {
			return child
		}
		if inner := findFirst(child, match); inner != nil {
			return inner
		}
	}
	return nil
}

func textContent(node *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)
	return sb.String()
}

func attrValue(node *html.Node, key string) string {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
