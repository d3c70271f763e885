package mpedit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/jsonc"
)

type textKind uint8

const (
	textNull textKind = iota
	textBool
	textNumber
	textString
	textArray
	textObject
)

var textKindNames = [...]string{
	textNull:   "null",
	textBool:   "boolean",
	textNumber: "number",
	textString: "text",
	textArray:  "array",
	textObject: "object",
}

func (k textKind) String() string {
	return textKindNames[k]
}

// textValue is an edited value tree. Unlike map[string]any it keeps object
// members in the order they were written, which is what lets map pairs line
// up with the original nodes.
type textValue struct {
	kind  textKind
	bool  bool
	num   string
	str   string
	items []*textValue
	keys  []string
}

// parseText reads a single value from edited text. Comments and trailing
// commas are tolerated.
func parseText(src string) (*textValue, error) {
	clean := jsonc.ToJSON([]byte(src))
	dec := json.NewDecoder(bytes.NewReader(clean))
	dec.UseNumber()
	v, err := parseTextValue(dec)
	if err != nil {
		return nil, textSyntaxErrAt(dec, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after value")
		}
		return nil, textSyntaxErrAt(dec, err)
	}
	return v, nil
}

func textSyntaxErrAt(dec *json.Decoder, err error) error {
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return &TextSyntaxError{Offset: int(se.Offset), Msg: "cannot parse edited text", Err: err}
	}
	return &TextSyntaxError{Offset: int(dec.InputOffset()), Msg: "cannot parse edited text", Err: err}
}

func parseTextValue(dec *json.Decoder) (*textValue, error) {
	tok, err := dec.Token()
	if err == io.EOF {
		return nil, io.ErrUnexpectedEOF
	} else if err != nil {
		return nil, err
	}
	switch tok := tok.(type) {
	case nil:
		return &textValue{kind: textNull}, nil
	case bool:
		return &textValue{kind: textBool, bool: tok}, nil
	case json.Number:
		return &textValue{kind: textNumber, num: string(tok)}, nil
	case string:
		return &textValue{kind: textString, str: tok}, nil
	case json.Delim:
		switch tok {
		case '[':
			v := &textValue{kind: textArray}
			for dec.More() {
				item, err := parseTextValue(dec)
				if err != nil {
					return nil, err
				}
				v.items = append(v.items, item)
			}
			_, err := dec.Token()
			return v, err
		case '{':
			v := &textValue{kind: textObject}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T", keyTok)
				}
				item, err := parseTextValue(dec)
				if err != nil {
					return nil, err
				}
				v.keys = append(v.keys, key)
				v.items = append(v.items, item)
			}
			_, err := dec.Token()
			return v, err
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// scalarText returns the textual payload of a scalar: the literal digits of
// a number or the contents of a text literal.
func (v *textValue) scalarText() (string, bool) {
	switch v.kind {
	case textNumber:
		return v.num, true
	case textString:
		return v.str, true
	default:
		return "", false
	}
}
