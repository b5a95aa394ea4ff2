// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var unsafeElements = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
	atom.Iframe: true,
	atom.Object: true,
	atom.Embed:  true,
}

// UnsafeHTML lists the constructs in an HTML fragment that a renderer must
// not pass through: active elements, on* handler attributes and javascript:
// links. The result is sorted and de-duplicated.
func UnsafeHTML(fragment string) []string {
	if !strings.Contains(fragment, "<") {
		return nil
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil
	}

	found := make(map[string]struct{})
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if unsafeElements[n.DataAtom] {
				found["<"+n.Data+">"] = struct{}{}
			}
			for _, a := range n.Attr {
				key := strings.ToLower(a.Key)
				switch {
				case strings.HasPrefix(key, "on"):
					found[key+"="] = struct{}{}
				case key == "href" || key == "src":
					if strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Val)), "javascript:") {
						found[key+"=javascript:"] = struct{}{}
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}

	if len(found) == 0 {
		return nil
	}
	out := make([]string, 0, len(found))
	for k := range found {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
