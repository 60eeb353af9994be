package content

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	scriptBlock = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	styleBlock  = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style\s*>`)
	anyTag      = regexp.MustCompile(`<[^>]*>`)
	whitespace  = regexp.MustCompile(`\s{2,}`)
	blankLines  = regexp.MustCompile(`\n{3,}`)

	headings = [6]*regexp.Regexp{
		regexp.MustCompile(`(?i)<h1(?:\s[^>]*)?>(.*?)</h1>`),
		regexp.MustCompile(`(?i)<h2(?:\s[^>]*)?>(.*?)</h2>`),
		regexp.MustCompile(`(?i)<h3(?:\s[^>]*)?>(.*?)</h3>`),
		regexp.MustCompile(`(?i)<h4(?:\s[^>]*)?>(.*?)</h4>`),
		regexp.MustCompile(`(?i)<h5(?:\s[^>]*)?>(.*?)</h5>`),
		regexp.MustCompile(`(?i)<h6(?:\s[^>]*)?>(.*?)</h6>`),
	}
	paragraph = regexp.MustCompile(`(?i)<p(?:\s[^>]*)?>(.*?)</p>`)
	anchor    = regexp.MustCompile(`(?i)<a\s[^>]*?href\s*=\s*["']([^"']*)["'][^>]*>(.*?)</a>`)
	strong    = regexp.MustCompile(`(?i)<(?:strong|b)(?:\s[^>]*)?>(.*?)</(?:strong|b)>`)
	emphasis  = regexp.MustCompile(`(?i)<(?:em|i)(?:\s[^>]*)?>(.*?)</(?:em|i)>`)
	ulBlock   = regexp.MustCompile(`(?is)<ul(?:\s[^>]*)?>(.*?)</ul>`)
	olBlock   = regexp.MustCompile(`(?is)<ol(?:\s[^>]*)?>(.*?)</ol>`)
	listItem  = regexp.MustCompile(`(?i)<li(?:\s[^>]*)?>(.*?)</li>`)
)

// PlainText reduces markup to whitespace-normalized text.
//
// Script and style blocks are removed with their content, every other tag
// becomes a single space, runs of two or more whitespace characters
// collapse to one space and the result is trimmed. Entities are left as
// they appear in the source.
func PlainText(html string) string {
	s := stripScripts(html)
	s = anyTag.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Markdown converts markup to lightweight markdown with an ordered list of
// pattern substitutions: headings, paragraphs, links, bold, italics,
// unordered lists, ordered lists, then every remaining tag is stripped.
// Script and style blocks, content included, are removed before the first
// substitution, unlike a plain run of that substitution order.
//
// The conversion is lossy. Elements are matched within a single line,
// nesting is not understood and tables, images and code blocks are
// reduced to their text.
func Markdown(html string) string {
	s := stripScripts(html)

	for i, re := range headings {
		s = re.ReplaceAllString(s, strings.Repeat("#", i+1)+" ${1}\n\n")
	}
	s = paragraph.ReplaceAllString(s, "${1}\n\n")
	s = anchor.ReplaceAllString(s, "[${2}](${1})")
	s = strong.ReplaceAllString(s, "**${1}**")
	s = emphasis.ReplaceAllString(s, "*${1}*")
	s = ulBlock.ReplaceAllStringFunc(s, func(block string) string {
		inner := ulBlock.FindStringSubmatch(block)[1]
		inner = listItem.ReplaceAllString(inner, "- ${1}\n")
		return strings.TrimSpace(anyTag.ReplaceAllString(inner, "")) + "\n\n"
	})
	s = olBlock.ReplaceAllStringFunc(s, func(block string) string {
		inner := olBlock.FindStringSubmatch(block)[1]
		n := 0
		inner = listItem.ReplaceAllStringFunc(inner, func(item string) string {
			n++
			text := listItem.FindStringSubmatch(item)[1]
			return strconv.Itoa(n) + ". " + text + "\n"
		})
		return strings.TrimSpace(anyTag.ReplaceAllString(inner, "")) + "\n\n"
	})
	s = anyTag.ReplaceAllString(s, "")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func stripScripts(html string) string {
	s := scriptBlock.ReplaceAllString(html, "")
	return styleBlock.ReplaceAllString(s, "")
}
