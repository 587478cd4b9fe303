package ranges

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	SyntaxJSON = "json"
	SyntaxYAML = "yaml"
	SyntaxText = "text"
)

// errSyntaxMismatch is returned by a parse attempt that does not recognize the document shape.
var errSyntaxMismatch = errors.New("syntax not recognized")

type (
	// ParseError reports a document that could not be turned into a Table.
	ParseError struct {
		Syntax string
		// Line is the 1-based line of the free-form syntax that failed, or 0.
		Line int
		Err  error
	}

	// definitiveError marks a document that was understood but is invalid, e.g. a well-formed
	// JSON object with overlapping ranges. No other syntax may be tried after it.
	definitiveError struct {
		err error
	}

	parseAttempt struct {
		syntax string
		parse  func(string) (*Table, error)
	}
)

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid ranges (%s, line %d): %v", e.Syntax, e.Line, e.Err)
	}
	return fmt.Sprintf("invalid ranges (%s): %v", e.Syntax, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *definitiveError) Error() string {
	return e.err.Error()
}

func (e *definitiveError) Unwrap() error {
	return e.err
}

var attempts = []parseAttempt{
	{SyntaxJSON, parseJSON},
	{SyntaxYAML, parseYAML},
	{SyntaxText, parseText},
}

// Parse builds a Table from range definitions written as a JSON object, a YAML mapping or
// free-form "<range> <label>" lines, in that order of preference. The first syntax that
// produces a table wins. A well-formed JSON object, or any document whose ranges overlap or are
// empty, fails the parse immediately. Otherwise, if no syntax succeeds, the error of the most
// structured syntax that recognized the document is returned.
func Parse(input string) (*Table, error) {
	var firstErr error
	for _, attempt := range attempts {
		table, err := attempt.parse(input)
		if err == nil {
			return table, nil
		}
		if errors.Is(err, errSyntaxMismatch) {
			continue
		}

		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			parseErr = &ParseError{Syntax: attempt.syntax, Err: err}
		}
		var definitive *definitiveError
		if errors.As(err, &definitive) {
			return nil, parseErr
		}
		if firstErr == nil {
			firstErr = parseErr
		}
	}
	if firstErr == nil {
		return nil, &ParseError{Syntax: SyntaxText, Err: fmt.Errorf("no ranges defined")}
	}
	return nil, firstErr
}

func buildTable(ranges []Range) (*Table, error) {
	table, err := NewTable(ranges)
	if err != nil {
		return nil, &definitiveError{err: err}
	}
	return table, nil
}

// parseJSON reads {"0..100": "label", ...}. The object is streamed so key order survives. Once
// the input is a valid JSON object every error is definitive: labels are never coerced.
func parseJSON(input string) (*Table, error) {
	if !json.Valid([]byte(input)) {
		return nil, errSyntaxMismatch
	}
	decoder := json.NewDecoder(strings.NewReader(input))
	token, err := decoder.Token()
	if err != nil || token != json.Delim('{') {
		return nil, errSyntaxMismatch
	}

	var result []Range
	for decoder.More() {
		token, err = decoder.Token()
		if err != nil {
			return nil, &definitiveError{fmt.Errorf("failed to read key: %w", err)}
		}
		key, _ := token.(string)

		var value any
		if err = decoder.Decode(&value); err != nil {
			return nil, &definitiveError{fmt.Errorf("failed to read label of %q: %w", key, err)}
		}
		label, ok := value.(string)
		if !ok {
			return nil, &definitiveError{fmt.Errorf("label of %q must be a string, got %T", key, value)}
		}

		r, err := newRange(key, label)
		if err != nil {
			return nil, &definitiveError{err}
		}
		result = append(result, r)
	}
	return buildTable(result)
}

// parseYAML reads a top-level mapping such as "0..100: entityA lighthouse-geth". Flow mappings
// make this also accept relaxed JSON (unquoted keys, trailing commas). The stream must hold
// exactly one document.
func parseYAML(input string) (*Table, error) {
	decoder := yaml.NewDecoder(strings.NewReader(input))
	var document yaml.Node
	if err := decoder.Decode(&document); err != nil {
		return nil, errSyntaxMismatch
	}
	if document.Kind != yaml.DocumentNode || len(document.Content) == 0 {
		return nil, errSyntaxMismatch
	}
	mapping := document.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, errSyntaxMismatch
	}

	var result []Range
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i], mapping.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: range key must be a scalar", key.Line)
		}
		if value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: label of %q must be a scalar", value.Line, key.Value)
		}
		r, err := newRange(key.Value, value.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", key.Line, err)
		}
		result = append(result, r)
	}

	// a range mapping followed by more content would otherwise yield a partial table
	var next yaml.Node
	if err := decoder.Decode(&next); !errors.Is(err, io.EOF) {
		return nil, &definitiveError{
			fmt.Errorf("unexpected content after the ranges mapping ending on line %d", lastLine(mapping)),
		}
	}
	return buildTable(result)
}

func lastLine(node *yaml.Node) int {
	line := node.Line
	for _, child := range node.Content {
		line = max(line, lastLine(child))
	}
	return line
}

// parseText reads one "<range> <label tokens...>" definition per line, e.g.
//
//	0..1000 entityA lighthouse-geth-0
//	1000 - 2000 entityB lodestar-nethermind-0
func parseText(input string) (*Table, error) {
	var result []Range
	scanner := bufio.NewScanner(strings.NewReader(input))
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		r, err := parseTextLine(line)
		if err != nil {
			return nil, &ParseError{Syntax: SyntaxText, Line: lineNumber, Err: err}
		}
		result = append(result, r)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read lines: %w", err)
	}
	if len(result) == 0 {
		return nil, errSyntaxMismatch
	}
	return buildTable(result)
}

func parseTextLine(line string) (Range, error) {
	fields := strings.Fields(line)
	rangeStr, rest := fields[0], fields[1:]
	// "0 - 100 label" spreads the range over three tokens
	if len(fields) >= 3 && fields[1] == "-" {
		rangeStr, rest = fields[0]+"-"+fields[2], fields[3:]
	}
	if len(rest) == 0 {
		return Range{}, fmt.Errorf("missing label after range %q", rangeStr)
	}
	return newRange(rangeStr, strings.Join(rest, " "))
}
