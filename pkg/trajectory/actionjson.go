package trajectory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"
)

// encodeAction re-encodes a logged arguments object without its thoughts
// key. Keys keep their logged order and the output uses the evaluation
// tooling's layout: ", " and ": " separators with non-ASCII escaped as
// \uXXXX. Numbers are written as logged.
func encodeAction(raw json.RawMessage) (string, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	tok, err := decoder.Token()
	if err != nil {
		return "", err
	}
	if tok != json.Delim('{') {
		return "", errors.New("arguments is not a JSON object")
	}

	var b strings.Builder
	if err := writeObject(decoder, &b, "thoughts"); err != nil {
		return "", err
	}
	return b.String(), nil
}

// writeObject writes the rest of an object whose opening brace has been
// read, leaving out the key named skip.
func writeObject(decoder *json.Decoder, b *strings.Builder, skip string) error {
	b.WriteByte('{')
	first := true
	for decoder.More() {
		tok, err := decoder.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}
		if skip != "" && key == skip {
			var discard json.RawMessage
			if err := decoder.Decode(&discard); err != nil {
				return err
			}
			continue
		}

		if !first {
			b.WriteString(", ")
		}
		first = false
		writeASCIIString(b, key)
		b.WriteString(": ")
		if err := writeValue(decoder, b); err != nil {
			return err
		}
	}
	if _, err := decoder.Token(); err != nil {
		return err
	}
	b.WriteByte('}')
	return nil
}

func writeValue(decoder *json.Decoder, b *strings.Builder) error {
	tok, err := decoder.Token()
	if err != nil {
		return err
	}

	switch v := tok.(type) {
	case json.Delim:
		if v == '{' {
			return writeObject(decoder, b, "")
		}
		b.WriteByte('[')
		first := true
		for decoder.More() {
			if !first {
				b.WriteString(", ")
			}
			first = false
			if err := writeValue(decoder, b); err != nil {
				return err
			}
		}
		if _, err := decoder.Token(); err != nil {
			return err
		}
		b.WriteByte(']')
	case string:
		writeASCIIString(b, v)
	case json.Number:
		b.WriteString(v.String())
	case bool:
		if v {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case nil:
		b.WriteString("null")
	default:
		return fmt.Errorf("unexpected JSON token %v", tok)
	}
	return nil
}

func writeASCIIString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			switch {
			case r < 0x20 || (r >= 0x7f && r <= 0xffff):
				fmt.Fprintf(b, `\u%04x`, r)
			case r > 0xffff:
				hi, lo := utf16.EncodeRune(r)
				fmt.Fprintf(b, `\u%04x\u%04x`, hi, lo)
			default:
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}
