// Package docblock extracts type-bearing tags from /** ... */ comments and
// parses the psalm/phpstan type dialect they carry. The scanner is its only
// consumer: every @param, @return, @var, @template and related tag
// contributes to the declared types it records (spec.md §4.2: "Docblock
// interpretation is mandatory for the type IR").
package docblock

import "strings"

// Tag is one parsed @-tag of a docblock.
type Tag struct {
	// Name is the tag with the leading @ and any psalm-/phpstan- prefix
	// stripped ("param", "return", "template-covariant", "pure", ...).
	Name string
	// Type is the parsed type expression, when the tag carries one.
	Type *TypeExpr
	// Variable is the $-less variable name for @param/@param-out/@var.
	Variable string
	// Value is the tag's non-type payload: the template parameter name for
	// @template, the member name for @method/@property.
	Value string
	// Description is whatever trailing free text remained.
	Description string
}

// Doc is one parsed docblock.
type Doc struct {
	Tags []Tag
	// Summary is the leading free text before the first tag.
	Summary string
}

// TagsNamed returns every tag with the given (prefix-stripped) name.
func (d *Doc) TagsNamed(name string) []Tag {
	if d == nil {
		return nil
	}
	var out []Tag
	for _, t := range d.Tags {
		if t.Name == name {
			out = append(out, t)
		}
	}
	return out
}

// FirstNamed returns the first tag with the given name, or nil.
func (d *Doc) FirstNamed(name string) *Tag {
	if d == nil {
		return nil
	}
	for i := range d.Tags {
		if d.Tags[i].Name == name {
			return &d.Tags[i]
		}
	}
	return nil
}

// typedTags is the set of tag names whose first token is a type expression.
var typedTags = map[string]bool{
	"param": true, "param-out": true, "return": true, "var": true,
	"property": true, "property-read": true, "property-write": true,
	"throws": true, "extends": true, "implements": true,
	"template-extends": true, "template-implements": true, "method": true,
}

// Parse extracts every @-tag from the raw comment text. It never fails:
// unrecognized tags are kept with their raw payload in Description, and
// malformed type expressions leave Type nil.
func Parse(raw string) *Doc {
	doc := &Doc{}
	var summary []string

	for _, line := range splitLines(raw) {
		if !strings.HasPrefix(line, "@") {
			if len(doc.Tags) == 0 && line != "" {
				summary = append(summary, line)
			} else if len(doc.Tags) > 0 && line != "" {
				// Continuation of the previous tag's description.
				last := &doc.Tags[len(doc.Tags)-1]
				if last.Description != "" {
					last.Description += " "
				}
				last.Description += line
			}
			continue
		}
		doc.Tags = append(doc.Tags, parseTag(line))
	}

	doc.Summary = strings.Join(summary, " ")
	return doc
}

// splitLines normalizes the comment body: strips the /** and */ delimiters
// and the leading * gutter of each line.
func splitLines(raw string) []string {
	body := strings.TrimSpace(raw)
	body = strings.TrimPrefix(body, "/**")
	body = strings.TrimSuffix(body, "*/")

	var out []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func parseTag(line string) Tag {
	name, rest := splitToken(line[1:])
	name = normalizeTagName(name)
	tag := Tag{Name: name}

	switch name {
	case "template", "template-covariant":
		// @template T [of Constraint]
		tag.Value, rest = splitToken(rest)
		of, afterOf := splitToken(rest)
		if of == "of" || of == "as" {
			typeText, trailing := splitTypeText(afterOf)
			tag.Type, _ = ParseType(typeText)
			tag.Description = trailing
		} else {
			tag.Description = rest
		}

	case "method":
		// @method ReturnType name(...) -- the member name is what the
		// scanner keys on; the signature text rides in Description.
		typeText, trailing := splitTypeText(rest)
		tag.Type, _ = ParseType(typeText)
		if idx := strings.IndexByte(trailing, '('); idx > 0 {
			tag.Value = strings.TrimSpace(trailing[:idx])
		} else {
			tag.Value, tag.Description = splitToken(trailing)
		}

	case "property", "property-read", "property-write":
		typeText, trailing := splitTypeText(rest)
		tag.Type, _ = ParseType(typeText)
		variable, desc := splitToken(trailing)
		tag.Value = strings.TrimPrefix(variable, "$")
		tag.Description = desc

	default:
		if typedTags[name] {
			typeText, trailing := splitTypeText(rest)
			tag.Type, _ = ParseType(typeText)
			rest = trailing
		}
		if variable, desc := splitToken(rest); strings.HasPrefix(variable, "$") {
			tag.Variable = strings.TrimPrefix(variable, "$")
			tag.Description = desc
		} else {
			tag.Description = rest
		}
	}
	return tag
}

// normalizeTagName folds the @psalm- and @phpstan- vendor prefixes away so
// @psalm-pure, @phpstan-pure and @pure all read as "pure" (spec.md §4.2
// treats the vendor dialects as one).
func normalizeTagName(name string) string {
	name = strings.TrimPrefix(name, "psalm-")
	name = strings.TrimPrefix(name, "phpstan-")
	return name
}

func splitToken(s string) (token, rest string) {
	s = strings.TrimSpace(s)
	idx := strings.IndexAny(s, " \t")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimSpace(s[idx+1:])
}

// splitTypeText takes the longest prefix of s that forms one balanced type
// expression: it tracks <>, {}, () nesting so `array{a: int, b: string}` and
// `callable(int, int): bool` survive the split, and stops at the first
// space at nesting depth zero.
func splitTypeText(s string) (typeText, rest string) {
	s = strings.TrimSpace(s)
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '{', '(', '[':
			depth++
		case '>', '}', ')', ']':
			depth--
		case ' ', '\t':
			if depth == 0 {
				return s[:i], strings.TrimSpace(s[i+1:])
			}
		}
	}
	return s, ""
}
