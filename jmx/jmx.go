// Package jmx reads the JSON documents served by Hadoop's /jmx servlet.
//
// A document carries a top-level "beans" list. Each bean has a "name" plus
// arbitrary measurement fields. Values are handed back verbatim: numbers
// keep their source literal as json.Number.
package jmx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	ErrMalformedResponse = errors.New("malformed response")
	ErrBeanNotFound      = errors.New("bean not found")
	ErrFieldMissing      = errors.New("bean field missing")
)

type Document struct {
	root gjson.Result
}

func Parse(body []byte) (*Document, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedResponse)
	}
	return &Document{root: root}, nil
}

// Beans returns every bean in document order. A document without a beans
// list has none.
func (d *Document) Beans() []Bean {
	var beans []Bean
	list := d.root.Get("beans")
	if !list.IsArray() {
		return nil
	}
	list.ForEach(func(_, v gjson.Result) bool {
		beans = append(beans, Bean{raw: v})
		return true
	})
	return beans
}

// FindBean returns the first bean whose name equals name exactly.
func FindBean(doc *Document, name string) (Bean, error) {
	for _, b := range doc.Beans() {
		n := b.raw.Get("name")
		if n.Type == gjson.String && n.Str == name {
			return b, nil
		}
	}
	return Bean{}, fmt.Errorf("%w: %s", ErrBeanNotFound, name)
}

type Bean struct {
	raw gjson.Result
}

func (b Bean) Name() string {
	return b.raw.Get("name").String()
}

func (b Bean) Get(field string) (interface{}, bool) {
	v := b.raw.Get(gjsonEscape(field))
	if !v.Exists() {
		return nil, false
	}
	return verbatim(v), true
}

// Field maps a bean attribute to the key it is published under.
type Field struct {
	Source string
	Target string
}

// Project copies fields out of the bean without coercing their types.
func (b Bean) Project(fields []Field) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		v, ok := b.Get(f.Source)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no %s", ErrFieldMissing, b.Name(), f.Source)
		}
		out[f.Target] = v
	}
	return out, nil
}

// Decode unmarshals an arbitrary JSON body keeping number literals intact.
func Decode(body []byte) (interface{}, error) {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return v, nil
}

func verbatim(v gjson.Result) interface{} {
	switch v.Type {
	case gjson.Number:
		return json.Number(v.Raw)
	case gjson.JSON:
		decoded, err := Decode([]byte(v.Raw))
		if err != nil {
			return v.Value()
		}
		return decoded
	default:
		return v.Value()
	}
}

var gjsonSpecial = strings.NewReplacer(
	`\`, `\\`, ".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`,
)

// gjsonEscape keeps attribute names such as "tag.Context" literal.
func gjsonEscape(field string) string {
	return gjsonSpecial.Replace(field)
}
