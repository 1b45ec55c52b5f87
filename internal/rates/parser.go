// Package rates holds the reference gold rate: extracting it from feed responses,
// storing it, and deriving the purity-adjusted working rate.
package rates

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/mamadbah2/goldquote/internal/domain/models"
	"github.com/mamadbah2/goldquote/internal/pricing"
)

// Method names the parsing step that produced a rate.
type Method string

const (
	MethodDelimitedRow Method = "delimited_row"
	MethodTextScan     Method = "text_scan"
	MethodJSONScan     Method = "json_scan"
)

const (
	rateRowIndex    = 8
	rateColumnIndex = 3
)

var firstNumber = regexp.MustCompile(`\d+(\.\d+)?`)

// Parsed is a rate extracted from a feed body together with the step that found it.
type Parsed struct {
	Rate   float64
	Method Method
}

// Parse extracts a single positive rate from a feed body of the given kind.
// Textual bodies are read as the legacy broadcast layout (row 9, tab field 4) and fall
// back to the first number in the text. Anything else is treated as JSON and the first
// number of its re-serialized document is used. ErrNoRate is returned when nothing fits.
func Parse(kind models.ContentKind, body []byte) (parsed Parsed, err error) {
	defer func() {
		if r := recover(); r != nil {
			parsed, err = Parsed{}, fmt.Errorf("%w: parser panic: %v", ErrNoRate, r)
		}
	}()

	if kind == models.ContentKindText {
		text := string(body)
		if rate, ok := delimitedRow(text); ok {
			return Parsed{Rate: rate, Method: MethodDelimitedRow}, nil
		}
		if rate, ok := scanFirstNumber(text); ok {
			return Parsed{Rate: rate, Method: MethodTextScan}, nil
		}
		return Parsed{}, ErrNoRate
	}

	if rate, ok := scanJSON(body); ok {
		return Parsed{Rate: rate, Method: MethodJSONScan}, nil
	}
	return Parsed{}, ErrNoRate
}

func delimitedRow(text string) (float64, bool) {
	lines := strings.Split(text, "\n")
	if len(lines) <= rateRowIndex {
		return 0, false
	}

	cols := strings.Split(lines[rateRowIndex], "\t")
	candidate := ""
	if len(cols) > rateColumnIndex {
		candidate = cols[rateColumnIndex]
	}
	if candidate == "" {
		candidate = cols[len(cols)-1]
	}

	rate := pricing.ParseNumber(candidate)
	return rate, rate > 0
}

func scanFirstNumber(text string) (float64, bool) {
	match := firstNumber.FindString(text)
	if match == "" {
		return 0, false
	}
	rate := pricing.ParseNumber(match)
	return rate, rate > 0
}

// scanJSON only accepts object or array documents; scalars carry no structure worth scanning.
func scanJSON(body []byte) (float64, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return 0, false
	}

	text, err := reserialize(trimmed)
	if err != nil {
		return 0, false
	}
	return scanFirstNumber(text)
}

type jsonFrame struct {
	object bool
	n      int
}

// reserialize decodes doc and writes it back in member order with decoded strings
// and plain decimal numbers, so exponents and escapes are scanned by value.
func reserialize(doc []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()

	var out, scratch bytes.Buffer
	enc := json.NewEncoder(&scratch)
	enc.SetEscapeHTML(false)

	var stack []jsonFrame
	separate := func() {
		if len(stack) == 0 {
			return
		}
		top := &stack[len(stack)-1]
		switch {
		case top.object && top.n%2 == 1:
			out.WriteByte(':')
		case top.n > 0:
			out.WriteByte(',')
		}
		top.n++
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{', '[':
				separate()
				stack = append(stack, jsonFrame{object: v == '{'})
			default:
				stack = stack[:len(stack)-1]
			}
			out.WriteRune(rune(v))
		case string:
			separate()
			scratch.Reset()
			if err := enc.Encode(v); err != nil {
				return "", err
			}
			out.Write(bytes.TrimSuffix(scratch.Bytes(), []byte("\n")))
		case json.Number:
			separate()
			f, err := v.Float64()
			if err != nil {
				return "", err
			}
			out.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
		case bool:
			separate()
			out.WriteString(strconv.FormatBool(v))
		case nil:
			separate()
			out.WriteString("null")
		}
		if len(stack) == 0 {
			break
		}
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return "", errors.New("trailing data after json document")
	}
	return out.String(), nil
}
